package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"trivia-quest-service/internal/analytics"
	"trivia-quest-service/internal/infra/memory"
)

func TestStatsErrorsEndpoint(t *testing.T) {
	stats := memory.NewErrorStats()
	at := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	_ = stats.RecordError(context.Background(), "q1", "Legs?", "6", at)
	_ = stats.RecordError(context.Background(), "q2", "Capital?", "Rome", at)
	_ = stats.RecordError(context.Background(), "q2", "Capital?", "Oslo", at)

	h := NewStatsHandler(stats)

	rec := httptest.NewRecorder()
	h.ServeErrors(rec, httptest.NewRequest(http.MethodGet, "/stats/errors?limit=1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got []analytics.ErrorStat
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got[0].QuestionID != "q2" || got[0].Count != 2 {
		t.Fatalf("unexpected stats %+v", got)
	}

	rec = httptest.NewRecorder()
	h.ServeErrors(rec, httptest.NewRequest(http.MethodGet, "/stats/errors?limit=zero", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad limit, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	NewStatsHandler(memory.NewErrorStats()).ServeErrors(rec, httptest.NewRequest(http.MethodGet, "/stats/errors", nil))
	if rec.Body.String() != "[]\n" {
		t.Fatalf("expected empty list, got %q", rec.Body.String())
	}
}
