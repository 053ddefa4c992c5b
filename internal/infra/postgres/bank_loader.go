package postgres

import (
	"context"
	"fmt"

	"trivia-quest-service/internal/bank"
	"trivia-quest-service/internal/domain"
	"github.com/jackc/pgx/v4/pgxpool"
)

// BankLoader loads question bank levels stored as JSONB rows in Postgres.
type BankLoader struct {
	pool *pgxpool.Pool
}

func NewBankLoader(pool *pgxpool.Pool) *BankLoader {
	return &BankLoader{pool: pool}
}

func (l *BankLoader) LoadBank(ctx context.Context) (domain.Bank, error) {
	rows, err := l.pool.Query(ctx, `SELECT level, data FROM question_banks ORDER BY level`)
	if err != nil {
		return nil, fmt.Errorf("load bank: %w", err)
	}
	defer rows.Close()

	b := domain.Bank{}
	for rows.Next() {
		var (
			level int
			raw   []byte
		)
		if err := rows.Scan(&level, &raw); err != nil {
			return nil, fmt.Errorf("scan bank level: %w", err)
		}
		qs, err := bank.ParseLevel(raw)
		if err != nil {
			return nil, fmt.Errorf("level %d: %w", level, err)
		}
		b[level] = qs
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load bank: %w", err)
	}
	if len(b) == 0 {
		return nil, domain.ErrBankEmpty
	}
	return b, nil
}
