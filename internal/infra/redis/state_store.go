package redis

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"trivia-quest-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// StateStore keeps one encoded save slot per player under quiz:save:{slot}.
// A zero ttl keeps slots forever.
type StateStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStateStore(client *redis.Client, ttl time.Duration) *StateStore {
	return &StateStore{client: client, ttl: ttl}
}

func (s *StateStore) Save(ctx context.Context, slot string, st domain.State) error {
	data, err := domain.EncodeState(st)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key(slot), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save slot %s: %w", slot, err)
	}
	return nil
}

func (s *StateStore) Load(ctx context.Context, slot string) (domain.State, bool) {
	data, err := s.client.Get(ctx, s.key(slot)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("load slot %s: %v", slot, err)
		}
		return domain.State{}, false
	}
	st, err := domain.DecodeState(data)
	if err != nil {
		log.Printf("save slot %s unreadable: %v", slot, err)
		return domain.State{}, false
	}
	return st, true
}

func (s *StateStore) key(slot string) string {
	return "quiz:save:" + slot
}
