// Package bank loads question banks from their JSON form.
//
// A bank document maps level numbers to question lists:
//
//	{"1": [{"id": "...", "question": "...", "options": [...], "answer": 0}], "2": [...]}
package bank

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"trivia-quest-service/internal/domain"
)

//go:embed data/levels.json
var defaultBankJSON []byte

// Parse decodes and validates a bank document.
func Parse(data []byte) (domain.Bank, error) {
	var b domain.Bank
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("parse bank: %w", err)
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// ParseLevel decodes one level's question list, as stored per row or hash field.
func ParseLevel(data []byte) ([]domain.Question, error) {
	var qs []domain.Question
	if err := json.Unmarshal(data, &qs); err != nil {
		return nil, fmt.Errorf("parse level: %w", err)
	}
	return qs, nil
}

// Load reads a bank document from disk.
func Load(path string) (domain.Bank, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bank %s: %w", path, err)
	}
	return Parse(data)
}

// Default returns the bank compiled into the binary.
func Default() (domain.Bank, error) {
	return Parse(defaultBankJSON)
}

// FromFileOrDefault loads path when set, the embedded bank otherwise.
func FromFileOrDefault(path string) (domain.Bank, error) {
	if path == "" {
		return Default()
	}
	return Load(path)
}

// FileLoader reads the bank on every load so a cache refresh picks up edits.
// An empty Path serves the embedded bank.
type FileLoader struct {
	Path string
}

func (l FileLoader) LoadBank(context.Context) (domain.Bank, error) {
	return FromFileOrDefault(l.Path)
}
