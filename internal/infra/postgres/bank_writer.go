package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"trivia-quest-service/internal/domain"
	"github.com/uptrace/bun"
)

type questionBankRow struct {
	bun.BaseModel `bun:"table:question_banks"`

	Level     int       `bun:"level,pk"`
	Data      string    `bun:"data,type:jsonb,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

// BankWriter replaces bank levels in Postgres.
type BankWriter struct {
	db *bun.DB
}

func NewBankWriter(db *bun.DB) *BankWriter {
	return &BankWriter{db: db}
}

// Import validates b and upserts one row per level. Levels absent from b are
// left untouched.
func (w *BankWriter) Import(ctx context.Context, b domain.Bank, now time.Time) (int, error) {
	if err := b.Validate(); err != nil {
		return 0, err
	}
	rows := make([]questionBankRow, 0, len(b))
	for _, level := range b.Levels() {
		raw, err := json.Marshal(b[level])
		if err != nil {
			return 0, fmt.Errorf("encode level %d: %w", level, err)
		}
		rows = append(rows, questionBankRow{Level: level, Data: string(raw), UpdatedAt: now})
	}

	_, err := w.db.NewInsert().
		Model(&rows).
		On("CONFLICT (level) DO UPDATE").
		Set("data = EXCLUDED.data").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("import bank: %w", err)
	}
	return len(rows), nil
}
