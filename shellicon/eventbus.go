package shellicon

import (
	"sync"
)

// IconEvent announces that a prefetch finished resolving one icon class.
// Found is false when the host had no icon for the key.
type IconEvent struct {
	Key   string `json:"key"`
	Found bool   `json:"found"`
}

// EventBus broadcasts IconEvents to UI subscribers so displayed lists can
// swap in icons as the prefetcher warms the cache.
type EventBus struct {
	mu      sync.RWMutex
	clients map[chan IconEvent]struct{}
}

// NewEventBus creates a new EventBus.
func NewEventBus() *EventBus {
	return &EventBus{
		clients: make(map[chan IconEvent]struct{}),
	}
}

// Subscribe registers a new client and returns its event channel.
func (b *EventBus) Subscribe() chan IconEvent {
	ch := make(chan IconEvent, 16)
	b.mu.Lock()
	b.clients[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *EventBus) Unsubscribe(ch chan IconEvent) {
	b.mu.Lock()
	delete(b.clients, ch)
	b.mu.Unlock()
	close(ch)
}

// Publish sends an event to all connected clients.
// Slow clients are skipped (non-blocking send).
func (b *EventBus) Publish(event IconEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.clients {
		select {
		case ch <- event:
		default:
			// slow client, drop event
		}
	}
}
