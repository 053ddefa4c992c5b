package analytics

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// Sink receives analytics events.
type Sink interface {
	Record(ctx context.Context, ev Event) error
}

// Dispatcher fans events out to sinks on a background goroutine. Publish
// never blocks: when the buffer is full the event is dropped.
type Dispatcher struct {
	sinks   []Sink
	events  chan Event
	timeout time.Duration

	dropped atomic.Int64
	mu      sync.RWMutex
	closed  bool
	done    chan struct{}
}

// NewDispatcher starts the delivery goroutine. Call Close to flush and stop it.
func NewDispatcher(buffer int, timeout time.Duration, sinks ...Sink) *Dispatcher {
	if buffer < 1 {
		buffer = 1
	}
	d := &Dispatcher{
		sinks:   sinks,
		events:  make(chan Event, buffer),
		timeout: timeout,
		done:    make(chan struct{}),
	}
	go d.run()
	return d
}

// Publish queues ev for delivery. A nil or closed dispatcher discards events.
func (d *Dispatcher) Publish(ev Event) bool {
	if d == nil {
		return false
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.dropped.Add(1)
		return false
	}
	select {
	case d.events <- ev:
		return true
	default:
		d.dropped.Add(1)
		return false
	}
}

// Dropped returns how many events were discarded on a full buffer.
func (d *Dispatcher) Dropped() int64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}

// Close delivers what is queued and waits for the goroutine to exit.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.events)
	}
	d.mu.Unlock()
	<-d.done
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for ev := range d.events {
		for _, sink := range d.sinks {
			d.deliver(sink, ev)
		}
	}
}

func (d *Dispatcher) deliver(sink Sink, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("analytics sink panic on %s: %v", ev.Kind, r)
		}
	}()
	ctx := context.Background()
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}
	if err := sink.Record(ctx, ev); err != nil {
		log.Printf("analytics sink failed on %s: %v", ev.Kind, err)
	}
}

// LogSink writes each event as a log line.
type LogSink struct{}

func (LogSink) Record(_ context.Context, ev Event) error {
	log.Printf("analytics %s run=%s player=%s level=%d coins=%d diamonds=%d errors=%d",
		ev.Kind, ev.RunID, ev.Player, ev.Level, ev.Coins, ev.Diamonds, ev.Errors)
	return nil
}
