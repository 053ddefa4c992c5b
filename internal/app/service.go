package app

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"time"

	"trivia-quest-service/internal/analytics"
	"trivia-quest-service/internal/domain"
	"trivia-quest-service/internal/game"
	"trivia-quest-service/internal/scheduler"
)

// SessionRepository abstracts where live sessions are tracked (in-memory, Redis, etc).
type SessionRepository interface {
	// GetOrCreate returns the session for id, calling create only when none exists.
	GetOrCreate(id string, create func() *Session) *Session
	Get(id string) (*Session, bool)
	Delete(id string)
	// DeleteIfEmpty closes and removes the session for id when it has no
	// subscribers, as one step with respect to GetOrCreate.
	DeleteIfEmpty(id string) bool
}

// BankRepository loads the question bank (from cache/backing store).
type BankRepository interface {
	GetBank(ctx context.Context) (domain.Bank, error)
}

// StateStore is the single save slot per player. Load reports false when the
// slot is empty or its payload cannot be decoded.
type StateStore interface {
	Save(ctx context.Context, slot string, s domain.State) error
	Load(ctx context.Context, slot string) (domain.State, bool)
}

// Options tune the sessions a GameService creates.
type Options struct {
	Rules       game.Rules
	SplashDelay time.Duration
	RewardDelay time.Duration
	Clock       scheduler.Clock
	Analytics   *analytics.Dispatcher
	// NewRand seeds the generator of each new session. Defaults to game.NewRand.
	NewRand func() *rand.Rand
}

// GameService owns one Session per player.
type GameService struct {
	sessions SessionRepository
	banks    BankRepository
	saves    StateStore
	opts     Options
}

func NewGameService(sessions SessionRepository, banks BankRepository, saves StateStore, opts Options) *GameService {
	if opts.Clock == nil {
		opts.Clock = scheduler.RealClock{}
	}
	if opts.NewRand == nil {
		opts.NewRand = game.NewRand
	}
	return &GameService{sessions: sessions, banks: banks, saves: saves, opts: opts}
}

// Open returns the player's live session, restoring it from the save slot
// when it is not running yet.
func (g *GameService) Open(ctx context.Context, playerID string) (*Session, error) {
	if session, ok := g.sessions.Get(playerID); ok && !session.isRetired() {
		return session, nil
	}

	bank, err := g.banks.GetBank(ctx)
	if err != nil {
		return nil, err
	}

	for {
		initial := g.restore(ctx, playerID)
		session := g.sessions.GetOrCreate(playerID, func() *Session {
			log.Printf("session %s opened on %s", playerID, initial.Screen)
			return NewSession(playerID, initial, SessionConfig{
				Engine:      game.NewEngine(bank, g.opts.Rules, g.opts.NewRand()),
				Saves:       g.saves,
				Clock:       g.opts.Clock,
				Analytics:   g.opts.Analytics,
				SplashDelay: g.opts.SplashDelay,
				RewardDelay: g.opts.RewardDelay,
			})
		})
		if !session.isRetired() {
			return session, nil
		}
		// closed outside the repository; clear it and start over
		g.sessions.DeleteIfEmpty(playerID)
	}
}

func (g *GameService) restore(ctx context.Context, playerID string) domain.State {
	if g.saves != nil {
		if saved, ok := g.saves.Load(ctx, playerID); ok {
			return saved
		}
	}
	return domain.NewState()
}

// Dispatch applies ev to the player's session and returns the resulting state.
func (g *GameService) Dispatch(ctx context.Context, playerID string, ev domain.Event) (domain.State, error) {
	session, ok := g.sessions.Get(playerID)
	if !ok {
		return domain.State{}, domain.ErrSessionNotFound
	}
	return session.Dispatch(ctx, ev)
}

// Subscribe returns a channel of updates for the player's session.
// The caller must invoke the returned cancel function to avoid leaks.
func (g *GameService) Subscribe(_ context.Context, playerID string) (<-chan Update, func(), error) {
	session, ok := g.sessions.Get(playerID)
	if !ok {
		return nil, nil, domain.ErrSessionNotFound
	}
	return session.Subscribe()
}

// Join opens the player's session and subscribes to it. When a concurrent
// Release retires the session between the two steps, a fresh one is opened.
func (g *GameService) Join(ctx context.Context, playerID string) (<-chan Update, func(), error) {
	for {
		session, err := g.Open(ctx, playerID)
		if err != nil {
			return nil, nil, err
		}
		ch, cancel, err := session.Subscribe()
		if !errors.Is(err, domain.ErrSessionClosed) {
			return ch, cancel, err
		}
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
	}
}

// Close stops the player's session. Its save slot is kept.
func (g *GameService) Close(playerID string) {
	session, ok := g.sessions.Get(playerID)
	if !ok {
		return
	}
	session.Close()
	g.sessions.Delete(playerID)
}

// Release closes the player's session once nobody is subscribed to it.
func (g *GameService) Release(playerID string) {
	if g.sessions.DeleteIfEmpty(playerID) {
		log.Printf("session %s released", playerID)
	}
}
