package redis

import (
	"context"
	"reflect"
	"testing"
	"time"

	"trivia-quest-service/internal/domain"
	miniredis "github.com/alicebob/miniredis/v2"
)

func TestStateStoreRoundTrip(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	store := NewStateStore(newClient(mr), time.Hour)

	if _, ok := store.Load(ctx, "p1"); ok {
		t.Fatalf("expected empty slot")
	}

	selected := 1
	st := domain.NewState()
	st.Screen = domain.ScreenQuiz
	st.SessionQuestions = sampleBank()[1]
	st.PresentedOptions = []string{"4", "3"}
	st.PresentedAnswerIndex = 0
	st.SelectedOption = &selected
	st.Coins = 30
	st.Diamonds = 1
	st.CompletedQuestions = []string{"q0"}

	if err := store.Save(ctx, "p1", st); err != nil {
		t.Fatalf("save: %v", err)
	}
	if ttl := mr.TTL("quiz:save:p1"); ttl != time.Hour {
		t.Fatalf("expected 1h ttl, got %v", ttl)
	}

	got, ok := store.Load(ctx, "p1")
	if !ok {
		t.Fatalf("expected saved slot")
	}
	if !reflect.DeepEqual(got, st) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, st)
	}
}

func TestStateStoreCorruptSlot(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	if err := mr.Set("quiz:save:p1", `{"screen":"nowhere","currentLevel":1}`); err != nil {
		t.Fatalf("seed: %v", err)
	}
	store := NewStateStore(newClient(mr), 0)
	if _, ok := store.Load(context.Background(), "p1"); ok {
		t.Fatalf("expected corrupt slot to read as absent")
	}
}
