package sim

import (
	"sync"

	"personasim/internal/persona"
)

const subscriberBuffer = 16

// broadcaster fans generated messages out to subscribers. Sends never block;
// a subscriber that falls behind misses messages.
type broadcaster struct {
	mu     sync.RWMutex
	subs   []chan persona.Message
	closed bool
}

func (b *broadcaster) publish(m persona.Message) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- m:
		default:
		}
	}
}

func (b *broadcaster) subscribe() <-chan persona.Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan persona.Message, subscriberBuffer)
	if b.closed {
		close(ch)
		return ch
	}
	b.subs = append(b.subs, ch)
	return ch
}

func (b *broadcaster) close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, ch := range b.subs {
		close(ch)
	}
	b.subs = nil
}
