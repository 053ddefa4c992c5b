package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"trivia-quest-service/internal/bank"
	"trivia-quest-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// BankLoader fetches the question bank from a backing store (file, Postgres).
type BankLoader interface {
	LoadBank(ctx context.Context) (domain.Bank, error)
}

// BankRepository caches the bank in Redis and falls back to a loader on a miss.
// Levels are stored as: HSET quiz:bank {level} {questions json}
type BankRepository struct {
	client *redis.Client
	loader BankLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

const bankKey = "quiz:bank"

func NewBankRepository(client *redis.Client, loader BankLoader, ttl time.Duration) *BankRepository {
	return &BankRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *BankRepository) GetBank(ctx context.Context) (domain.Bank, error) {
	if b, ok := r.fromCache(ctx); ok {
		return b, nil
	}

	result, err, _ := r.sf.Do(bankKey, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if b, ok := r.fromCache(ctx); ok {
			return b, nil
		}

		b, err := r.loader.LoadBank(ctx)
		if err != nil {
			return nil, err
		}
		if err := b.Validate(); err != nil {
			return nil, err
		}

		pipe := r.client.TxPipeline()
		pipe.Del(ctx, bankKey)
		for level, qs := range b {
			raw, err := json.Marshal(qs)
			if err != nil {
				return nil, fmt.Errorf("encode level %d: %w", level, err)
			}
			pipe.HSet(ctx, bankKey, strconv.Itoa(level), raw)
		}
		if ttl := r.ttlWithJitter(); ttl > 0 {
			pipe.Expire(ctx, bankKey, ttl)
		}
		_, _ = pipe.Exec(ctx)

		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(domain.Bank), nil
}

// Invalidate removes the cached bank.
func (r *BankRepository) Invalidate(ctx context.Context) error {
	return r.client.Del(ctx, bankKey).Err()
}

// fromCache treats any unreadable entry as a miss.
func (r *BankRepository) fromCache(ctx context.Context) (domain.Bank, bool) {
	fields, err := r.client.HGetAll(ctx, bankKey).Result()
	if err != nil || len(fields) == 0 {
		return nil, false
	}
	b := make(domain.Bank, len(fields))
	for field, raw := range fields {
		level, err := strconv.Atoi(field)
		if err != nil {
			return nil, false
		}
		qs, err := bank.ParseLevel([]byte(raw))
		if err != nil {
			return nil, false
		}
		b[level] = qs
	}
	if b.Validate() != nil {
		return nil, false
	}
	return b, true
}

func (r *BankRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
