package app

import (
	"context"
	"log"
	"reflect"
	"sync"
	"time"

	"trivia-quest-service/internal/analytics"
	"trivia-quest-service/internal/domain"
	"trivia-quest-service/internal/game"
	"trivia-quest-service/internal/scheduler"
)

const (
	timerSplash = "splash"
	timerReward = "reward"

	saveTimeout = 2 * time.Second
)

// Update is what subscribers receive after each transition.
type Update struct {
	State  domain.State
	Sounds []domain.Sound
}

// SessionConfig wires a session to its collaborators. Saves and Analytics
// may be nil.
type SessionConfig struct {
	Engine      *game.Engine
	Saves       StateStore
	Clock       scheduler.Clock
	Analytics   *analytics.Dispatcher
	SplashDelay time.Duration
	RewardDelay time.Duration
}

// Session runs one player's game. Events and timer fires are applied one at
// a time by a single goroutine; readers get copies through Snapshot and
// Subscribe.
type Session struct {
	id     string
	cfg    SessionConfig
	sched  *scheduler.Scheduler
	inbox  chan envelope
	done   chan struct{}
	exited chan struct{}
	once   sync.Once

	mu          sync.RWMutex
	state       domain.State
	subscribers map[chan Update]struct{}
	retired     bool

	// owned by the loop goroutine
	runID     string
	startedAt time.Time
}

type envelope struct {
	event    domain.Event
	timerKey string
	gen      uint64
	reply    chan domain.State
}

// NewSession starts a session from initial. A session restored on a timed
// screen gets its timer armed again.
func NewSession(id string, initial domain.State, cfg SessionConfig) *Session {
	if cfg.Clock == nil {
		cfg.Clock = scheduler.RealClock{}
	}
	s := &Session{
		id:          id,
		cfg:         cfg,
		sched:       scheduler.New(cfg.Clock),
		inbox:       make(chan envelope),
		done:        make(chan struct{}),
		exited:      make(chan struct{}),
		state:       initial,
		subscribers: make(map[chan Update]struct{}),
		runID:       analytics.NewRunID(),
		startedAt:   cfg.Clock.Now(),
	}
	switch initial.Screen {
	case domain.ScreenLevelSplash:
		s.sched.Arm(timerSplash, cfg.SplashDelay, s.fire(timerSplash))
	case domain.ScreenReward:
		s.sched.Arm(timerReward, cfg.RewardDelay, s.fire(timerReward))
	}
	go s.run()
	return s
}

// ID returns the player id, which doubles as the save slot name.
func (s *Session) ID() string {
	return s.id
}

// Dispatch queues ev and waits for the state it produces.
func (s *Session) Dispatch(ctx context.Context, ev domain.Event) (domain.State, error) {
	return s.submit(ctx, envelope{event: ev})
}

// Snapshot returns the current state.
func (s *Session) Snapshot() domain.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// TimerPending reports whether the splash or reward timer is armed.
func (s *Session) TimerPending() bool {
	return s.sched.Pending(timerSplash) || s.sched.Pending(timerReward)
}

// Close stops the timers and the event loop and closes every subscription.
func (s *Session) Close() {
	s.once.Do(func() {
		s.mu.Lock()
		s.retired = true
		s.mu.Unlock()

		s.sched.Stop()
		close(s.done)
		<-s.exited

		s.mu.Lock()
		for ch := range s.subscribers {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	})
}

// CloseIfIdle closes the session when nobody is subscribed. Once it reports
// true, Subscribe fails with ErrSessionClosed.
func (s *Session) CloseIfIdle() bool {
	s.mu.Lock()
	if len(s.subscribers) > 0 {
		s.mu.Unlock()
		return false
	}
	s.retired = true
	s.mu.Unlock()
	s.Close()
	return true
}

// Subscribe returns a channel primed with the current state. The caller must
// invoke cancel when done.
func (s *Session) Subscribe() (<-chan Update, func(), error) {
	ch := make(chan Update, 8)

	s.mu.Lock()
	if s.retired {
		s.mu.Unlock()
		return nil, nil, domain.ErrSessionClosed
	}
	s.subscribers[ch] = struct{}{}
	ch <- Update{State: s.state}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel, nil
}

func (s *Session) isRetired() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.retired
}

func (s *Session) submit(ctx context.Context, env envelope) (domain.State, error) {
	env.reply = make(chan domain.State, 1)
	select {
	case s.inbox <- env:
	case <-s.done:
		return domain.State{}, domain.ErrSessionClosed
	case <-ctx.Done():
		return domain.State{}, ctx.Err()
	}
	select {
	case st := <-env.reply:
		return st, nil
	case <-s.exited:
		return domain.State{}, domain.ErrSessionClosed
	case <-ctx.Done():
		return domain.State{}, ctx.Err()
	}
}

// fire delivers a timer expiry through the event loop. The fire is checked
// against the scheduler there, so a late fire after a cancel is harmless.
func (s *Session) fire(key string) func(gen uint64) {
	return func(gen uint64) {
		if _, err := s.submit(context.Background(), envelope{timerKey: key, gen: gen}); err != nil && err != domain.ErrSessionClosed {
			log.Printf("session %s: timer %s: %v", s.id, key, err)
		}
	}
}

func (s *Session) run() {
	defer close(s.exited)
	for {
		select {
		case env := <-s.inbox:
			env.reply <- s.handle(env)
		case <-s.done:
			return
		}
	}
}

func (s *Session) handle(env envelope) domain.State {
	prev := s.Snapshot()

	ev := env.event
	if env.timerKey != "" {
		if !s.sched.Consume(env.timerKey, env.gen) {
			return prev
		}
		ev = timerEvent(env.timerKey, prev)
		if ev == nil {
			return prev
		}
	}

	next := s.cfg.Engine.Apply(prev, ev)
	if reflect.DeepEqual(prev, next) {
		return prev
	}

	if _, ok := ev.(domain.StartLevel); ok {
		s.runID = analytics.NewRunID()
		s.startedAt = s.cfg.Clock.Now()
	}
	s.syncTimers(prev, next, ev)
	s.persist(next)

	fx := deriveEffects(prev, next, ev)

	s.mu.Lock()
	s.state = next
	s.broadcastLocked(Update{State: next, Sounds: fx.sounds})
	s.mu.Unlock()

	for _, kind := range fx.events {
		s.cfg.Analytics.Publish(s.analyticsEvent(kind, next))
	}
	return next
}

// timerEvent maps an expired timer to the event it stands for, or nil when
// the screen it governed has already been left.
func timerEvent(key string, st domain.State) domain.Event {
	switch key {
	case timerSplash:
		if st.Screen == domain.ScreenLevelSplash {
			return domain.SetScreen{Screen: domain.ScreenQuiz}
		}
	case timerReward:
		if st.Screen != domain.ScreenReward {
			return nil
		}
		if st.RewardType == domain.RewardTrophy {
			return domain.SetScreen{Screen: domain.ScreenWin}
		}
		return domain.NextQuestion{FromReward: true}
	}
	return nil
}

// syncTimers keeps exactly one timer armed while a timed screen is shown and
// none otherwise.
func (s *Session) syncTimers(prev, next domain.State, ev domain.Event) {
	if next.Screen != domain.ScreenLevelSplash {
		s.sched.Cancel(timerSplash)
	} else if entered(prev, next, ev, domain.ScreenLevelSplash) {
		s.sched.Arm(timerSplash, s.cfg.SplashDelay, s.fire(timerSplash))
	}

	if next.Screen != domain.ScreenReward {
		s.sched.Cancel(timerReward)
	} else if entered(prev, next, ev, domain.ScreenReward) {
		s.sched.Arm(timerReward, s.cfg.RewardDelay, s.fire(timerReward))
	}
}

func (s *Session) persist(next domain.State) {
	if s.cfg.Saves == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if err := s.cfg.Saves.Save(ctx, s.id, next); err != nil {
		log.Printf("session %s: save failed: %v", s.id, err)
	}
}

func (s *Session) broadcastLocked(u Update) {
	for ch := range s.subscribers {
		select {
		case ch <- u:
		default:
			// drop the oldest update so a slow client cannot stall the loop
			select {
			case <-ch:
			default:
			}
			ch <- u
		}
	}
}
