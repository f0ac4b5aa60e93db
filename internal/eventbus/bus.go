// Package eventbus is an in-memory fanout of scheduler events.
package eventbus

import (
	"sync"
	"sync/atomic"
	"time"
)

// Event is a small signal about something the scheduler did.
//
//   - Publish never blocks.
//   - Subscribers get a buffered channel; when it is full, events are dropped.
type Event struct {
	Type string
	Time time.Time
	Data any
}

type Bus interface {
	Publish(e Event)
	// Subscribe returns a buffered channel. Unsubscribe closes it and reports
	// how many events did not fit.
	Subscribe(buffer int) (ch <-chan Event, unsubscribe func() (dropped uint64))
}

// New returns an in-memory bus. It owns no goroutines.
func New() Bus {
	return &memBus{subs: map[uint64]*sub{}}
}

type sub struct {
	ch      chan Event
	dropped atomic.Uint64
}

type memBus struct {
	mu   sync.RWMutex
	subs map[uint64]*sub
	seq  atomic.Uint64
}

func (b *memBus) Publish(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, s := range b.subs {
		select {
		case s.ch <- e:
		default:
			s.dropped.Add(1)
		}
	}
}

// Subscribe registers a channel of the given capacity (8 if <= 0).
func (b *memBus) Subscribe(buffer int) (<-chan Event, func() uint64) {
	if buffer <= 0 {
		buffer = 8
	}
	s := &sub{ch: make(chan Event, buffer)}
	id := b.seq.Add(1)

	b.mu.Lock()
	b.subs[id] = s
	b.mu.Unlock()

	var once sync.Once
	return s.ch, func() uint64 {
		once.Do(func() {
			// Holding the write lock excludes a concurrent Publish, so the
			// close cannot race a send.
			b.mu.Lock()
			delete(b.subs, id)
			close(s.ch)
			b.mu.Unlock()
		})
		return s.dropped.Load()
	}
}
