package memory

import (
	"context"
	"log"
	"sync"

	"trivia-quest-service/internal/domain"
)

// StateStore keeps encoded save slots in process memory.
type StateStore struct {
	mu    sync.RWMutex
	slots map[string][]byte
}

func NewStateStore() *StateStore {
	return &StateStore{slots: make(map[string][]byte)}
}

func (s *StateStore) Save(_ context.Context, slot string, st domain.State) error {
	data, err := domain.EncodeState(st)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.slots[slot] = data
	s.mu.Unlock()
	return nil
}

func (s *StateStore) Load(_ context.Context, slot string) (domain.State, bool) {
	s.mu.RLock()
	data, ok := s.slots[slot]
	s.mu.RUnlock()
	if !ok {
		return domain.State{}, false
	}
	st, err := domain.DecodeState(data)
	if err != nil {
		log.Printf("save slot %s unreadable: %v", slot, err)
		return domain.State{}, false
	}
	return st, true
}

// PutRaw stores an arbitrary payload, bypassing encoding.
func (s *StateStore) PutRaw(slot string, data []byte) {
	s.mu.Lock()
	s.slots[slot] = data
	s.mu.Unlock()
}
