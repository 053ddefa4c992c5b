package analytics

import (
	"context"
	"sort"
	"time"
)

// ErrorStat aggregates the wrong answers given to one question.
type ErrorStat struct {
	QuestionID   string         `json:"questionId"`
	QuestionText string         `json:"questionText"`
	Count        int            `json:"count"`
	WrongAnswers map[string]int `json:"wrongAnswers"`
	LastOccurred time.Time      `json:"lastOccurred"`
}

// ErrorStatsStore persists per-question error statistics.
type ErrorStatsStore interface {
	RecordError(ctx context.Context, questionID, questionText, wrongAnswer string, at time.Time) error
	TopErrors(ctx context.Context, limit int) ([]ErrorStat, error)
}

// ErrorStatsSink feeds incorrect answers into a store.
type ErrorStatsSink struct {
	Store ErrorStatsStore
}

func (s ErrorStatsSink) Record(ctx context.Context, ev Event) error {
	if ev.Kind != KindIncorrectAnswer || ev.QuestionID == "" {
		return nil
	}
	return s.Store.RecordError(ctx, ev.QuestionID, ev.QuestionText, ev.SelectedValue, ev.At)
}

// SortStats orders stats by count descending, then by question id, and
// truncates to limit when limit is positive.
func SortStats(stats []ErrorStat, limit int) []ErrorStat {
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count != stats[j].Count {
			return stats[i].Count > stats[j].Count
		}
		return stats[i].QuestionID < stats[j].QuestionID
	})
	if limit > 0 && len(stats) > limit {
		stats = stats[:limit]
	}
	return stats
}
