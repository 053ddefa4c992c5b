package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"trivia-quest-service/internal/analytics"
	"github.com/redis/go-redis/v9"
)

// ErrorStats aggregates wrong answers in Redis:
//
//	ZINCRBY quiz:errors:rank 1 {questionID}
//	HSET    quiz:errors:meta:{questionID} text {text} last {unix millis}
//	HINCRBY quiz:errors:wrong:{questionID} {answer} 1
type ErrorStats struct {
	client *redis.Client
}

const rankKey = "quiz:errors:rank"

func NewErrorStats(client *redis.Client) *ErrorStats {
	return &ErrorStats{client: client}
}

func (e *ErrorStats) RecordError(ctx context.Context, questionID, questionText, wrongAnswer string, at time.Time) error {
	pipe := e.client.TxPipeline()
	pipe.ZIncrBy(ctx, rankKey, 1, questionID)
	pipe.HSet(ctx, metaKey(questionID), "text", questionText, "last", at.UnixMilli())
	pipe.HIncrBy(ctx, wrongKey(questionID), wrongAnswer, 1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record error %s: %w", questionID, err)
	}
	return nil
}

func (e *ErrorStats) TopErrors(ctx context.Context, limit int) ([]analytics.ErrorStat, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}
	ranked, err := e.client.ZRevRangeWithScores(ctx, rankKey, 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("rank errors: %w", err)
	}

	out := make([]analytics.ErrorStat, 0, len(ranked))
	for _, z := range ranked {
		id, _ := z.Member.(string)
		meta, err := e.client.HGetAll(ctx, metaKey(id)).Result()
		if err != nil {
			return nil, err
		}
		wrong, err := e.client.HGetAll(ctx, wrongKey(id)).Result()
		if err != nil {
			return nil, err
		}
		stat := analytics.ErrorStat{
			QuestionID:   id,
			QuestionText: meta["text"],
			Count:        int(z.Score),
			WrongAnswers: make(map[string]int, len(wrong)),
		}
		if ms, err := strconv.ParseInt(meta["last"], 10, 64); err == nil {
			stat.LastOccurred = time.UnixMilli(ms).UTC()
		}
		for answer, n := range wrong {
			stat.WrongAnswers[answer], _ = strconv.Atoi(n)
		}
		out = append(out, stat)
	}
	return analytics.SortStats(out, limit), nil
}

func metaKey(questionID string) string {
	return "quiz:errors:meta:" + questionID
}

func wrongKey(questionID string) string {
	return "quiz:errors:wrong:" + questionID
}
