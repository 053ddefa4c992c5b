package memory

import (
	"context"
	"sync"
	"time"

	"trivia-quest-service/internal/analytics"
)

// ErrorStats aggregates wrong answers per question in process memory.
type ErrorStats struct {
	mu    sync.Mutex
	stats map[string]*analytics.ErrorStat
}

func NewErrorStats() *ErrorStats {
	return &ErrorStats{stats: make(map[string]*analytics.ErrorStat)}
}

func (e *ErrorStats) RecordError(_ context.Context, questionID, questionText, wrongAnswer string, at time.Time) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	stat, ok := e.stats[questionID]
	if !ok {
		stat = &analytics.ErrorStat{QuestionID: questionID, WrongAnswers: make(map[string]int)}
		e.stats[questionID] = stat
	}
	stat.QuestionText = questionText
	stat.Count++
	stat.WrongAnswers[wrongAnswer]++
	stat.LastOccurred = at
	return nil
}

func (e *ErrorStats) TopErrors(_ context.Context, limit int) ([]analytics.ErrorStat, error) {
	e.mu.Lock()
	out := make([]analytics.ErrorStat, 0, len(e.stats))
	for _, stat := range e.stats {
		cp := *stat
		cp.WrongAnswers = make(map[string]int, len(stat.WrongAnswers))
		for k, v := range stat.WrongAnswers {
			cp.WrongAnswers[k] = v
		}
		out = append(out, cp)
	}
	e.mu.Unlock()
	return analytics.SortStats(out, limit), nil
}
