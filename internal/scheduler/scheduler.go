// Package scheduler arms named one-shot timers whose fires can be checked for
// staleness. Every Arm bumps a generation number; a fire only counts when
// Consume confirms its generation is still the current one for its key, so a
// timer that fired just before being replaced or canceled is ignored.
package scheduler

import (
	"sync"
	"time"
)

type entry struct {
	gen   uint64
	timer Timer
}

// Scheduler holds at most one live timer per key.
type Scheduler struct {
	clock Clock

	mu      sync.Mutex
	gen     uint64
	entries map[string]entry
	stopped bool
}

func New(clock Clock) *Scheduler {
	if clock == nil {
		clock = RealClock{}
	}
	return &Scheduler{clock: clock, entries: make(map[string]entry)}
}

// Arm replaces any timer under key with one that calls fire after d.
// It returns the generation passed to fire, or 0 once stopped.
func (s *Scheduler) Arm(key string, d time.Duration, fire func(gen uint64)) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return 0
	}
	if prev, ok := s.entries[key]; ok {
		prev.timer.Stop()
	}
	s.gen++
	gen := s.gen
	s.entries[key] = entry{
		gen:   gen,
		timer: s.clock.AfterFunc(d, func() { fire(gen) }),
	}
	return gen
}

// Cancel stops the timer under key, if any.
func (s *Scheduler) Cancel(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.entries[key]; ok {
		prev.timer.Stop()
		delete(s.entries, key)
	}
}

// Consume reports whether gen is the live generation of key and, if so,
// forgets it so the same fire cannot be honored twice.
func (s *Scheduler) Consume(key string, gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.entries[key]
	if !ok || cur.gen != gen {
		return false
	}
	delete(s.entries, key)
	return true
}

// Pending reports whether key has a live timer.
func (s *Scheduler) Pending(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[key]
	return ok
}

// Stop cancels every timer. Later Arm calls are ignored.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, e := range s.entries {
		e.timer.Stop()
		delete(s.entries, key)
	}
	s.stopped = true
}
