package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"trivia-quest-service/internal/bank"
	"trivia-quest-service/internal/infra/memory"
)

const oneQuestion = `{"1": [{"id": "l1-a", "question": "2 + 2?", "options": ["3", "4"], "answer": 1}]}`

const twoQuestions = `{"1": [
  {"id": "l1-a", "question": "2 + 2?", "options": ["3", "4"], "answer": 1},
  {"id": "l1-b", "question": "3 + 3?", "options": ["6", "7"], "answer": 0}
]}`

func TestReloadBankPicksUpNewFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "levels.json")
	writeFile(t, path, oneQuestion)

	banks := memory.NewBankRepository(bank.FileLoader{Path: path}, time.Hour)
	b, err := banks.GetBank(ctx)
	if err != nil || len(b[1]) != 1 {
		t.Fatalf("expected one question, got %d err=%v", len(b[1]), err)
	}

	writeFile(t, path, twoQuestions)
	if b, _ := banks.GetBank(ctx); len(b[1]) != 1 {
		t.Fatalf("expected the cached bank before reload, got %d", len(b[1]))
	}
	if err := reloadBank(ctx, banks); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if b, _ := banks.GetBank(ctx); len(b[1]) != 2 {
		t.Fatalf("expected the new bank after reload, got %d", len(b[1]))
	}
}

func TestReloadBankReportsBrokenSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "levels.json")
	writeFile(t, path, oneQuestion)
	banks := memory.NewBankRepository(bank.FileLoader{Path: path}, time.Hour)

	writeFile(t, path, `{"1": [{"id": "bad", "question": "?", "options": ["only"], "answer": 3}]}`)
	if err := reloadBank(context.Background(), banks); err == nil {
		t.Fatalf("expected an invalid bank to fail the reload")
	}
}

func writeFile(t *testing.T, path, data string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
