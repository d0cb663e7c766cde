// Package event fans contract events out to subscribers.
package event

import (
	"sync"

	"github.com/goodnatureofminers/rafflekeeper/internal/model"
)

// Subscription receives events published after it was created.
type Subscription struct {
	ch      chan model.Event
	dropped uint64
}

// C returns the event channel. It is closed on Unsubscribe.
func (s *Subscription) C() <-chan model.Event {
	return s.ch
}

// Bus delivers each published event to every subscription without blocking the
// publisher; a subscription whose buffer is full misses the event.
type Bus struct {
	mu   sync.Mutex
	subs map[*Subscription]struct{}
}

// NewBus returns a Bus with no subscribers.
func NewBus() *Bus {
	return &Bus{subs: map[*Subscription]struct{}{}}
}

// Subscribe registers a subscription with the given channel buffer.
func (b *Bus) Subscribe(buffer int) *Subscription {
	if buffer < 1 {
		buffer = 1
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	s := &Subscription{ch: make(chan model.Event, buffer)}
	b.subs[s] = struct{}{}
	return s
}

// Unsubscribe removes s and closes its channel. It returns the number of events s missed.
func (b *Bus) Unsubscribe(s *Subscription) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[s]; !ok {
		return s.dropped
	}
	delete(b.subs, s)
	close(s.ch)
	return s.dropped
}

// Publish implements the Publisher interfaces of the hosted contracts.
func (b *Bus) Publish(evt model.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for s := range b.subs {
		select {
		case s.ch <- evt:
		default:
			s.dropped++
		}
	}
}
