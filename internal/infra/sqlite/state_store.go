// Package sqlite keeps save slots in a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"trivia-quest-service/internal/domain"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS save_slots (
    slot       TEXT PRIMARY KEY,
    state      TEXT NOT NULL,
    updated_at INTEGER NOT NULL
)`

// StateStore implements app.StateStore on SQLite.
type StateStore struct {
	db  *sql.DB
	now func() time.Time
}

// Open creates the database file if needed and prepares the schema.
func Open(path string) (*StateStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// a single connection keeps pragmas and writes on one handle
	db.SetMaxOpenConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &StateStore{db: db, now: time.Now}, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

func (s *StateStore) Save(ctx context.Context, slot string, st domain.State) error {
	data, err := domain.EncodeState(st)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO save_slots (slot, state, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(slot) DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at`,
		slot, string(data), s.now().UnixMilli())
	if err != nil {
		return fmt.Errorf("save slot %s: %w", slot, err)
	}
	return nil
}

func (s *StateStore) Load(ctx context.Context, slot string) (domain.State, bool) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT state FROM save_slots WHERE slot = ?`, slot).Scan(&raw)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			log.Printf("load slot %s: %v", slot, err)
		}
		return domain.State{}, false
	}
	st, err := domain.DecodeState([]byte(raw))
	if err != nil {
		log.Printf("save slot %s unreadable: %v", slot, err)
		return domain.State{}, false
	}
	return st, true
}

// Close closes the database.
func (s *StateStore) Close() error {
	return s.db.Close()
}
