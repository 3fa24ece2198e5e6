package shellicon

import (
	"log/slog"
	"sync"
)

// KeyQueue is a thread-safe set-based queue of cache keys awaiting
// prefetch. Duplicates are automatically deduplicated. Pop returns keys in
// FIFO order.
type KeyQueue struct {
	mu     sync.Mutex
	set    map[CacheKey]struct{}
	order  []CacheKey
	notify chan struct{} // signaled when items are added
}

// NewKeyQueue creates a new key queue.
func NewKeyQueue() *KeyQueue {
	return &KeyQueue{
		set:    make(map[CacheKey]struct{}),
		notify: make(chan struct{}, 1),
	}
}

// Push adds a key to the queue. Zero keys and keys already queued are
// no-ops.
func (q *KeyQueue) Push(key CacheKey) {
	if key.IsZero() {
		return
	}
	q.mu.Lock()
	if _, exists := q.set[key]; exists {
		q.mu.Unlock()
		if logEnabled(slog.LevelDebug) {
			sub("queue").Debug("push dedup", "key", key.String())
		}
		return
	}
	q.set[key] = struct{}{}
	q.order = append(q.order, key)
	newLen := len(q.order)
	q.mu.Unlock()

	if logEnabled(slog.LevelDebug) {
		sub("queue").Debug("push", "key", key.String(), "queueLen", newLen)
	}

	// Non-blocking signal
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// PushMany adds multiple keys to the queue.
func (q *KeyQueue) PushMany(keys []CacheKey) {
	q.mu.Lock()
	added := 0
	for _, key := range keys {
		if key.IsZero() {
			continue
		}
		if _, exists := q.set[key]; exists {
			continue
		}
		q.set[key] = struct{}{}
		q.order = append(q.order, key)
		added++
	}
	newLen := len(q.order)
	q.mu.Unlock()

	if logEnabled(slog.LevelDebug) {
		sub("queue").Debug("pushMany", "requested", len(keys), "added", added, "queueLen", newLen)
	}

	if added > 0 {
		select {
		case q.notify <- struct{}{}:
		default:
		}
	}
}

// Pop removes and returns the next key. Blocks until a key is available
// or the done channel is closed. Returns (zero, false) when done.
func (q *KeyQueue) Pop(done <-chan struct{}) (CacheKey, bool) {
	for {
		q.mu.Lock()
		if len(q.order) > 0 {
			key := q.order[0]
			q.order = q.order[1:]
			delete(q.set, key)
			remaining := len(q.order)
			q.mu.Unlock()
			if logEnabled(slog.LevelDebug) {
				sub("queue").Debug("pop", "key", key.String(), "queueLen", remaining)
			}
			return key, true
		}
		q.mu.Unlock()

		// Wait for signal or done
		select {
		case <-done:
			sub("queue").Debug("pop cancelled")
			return CacheKey{}, false
		case <-q.notify:
			// Loop back to check queue
		}
	}
}

// Has checks if a key is currently in the queue.
func (q *KeyQueue) Has(key CacheKey) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, exists := q.set[key]
	return exists
}

// Len returns the current queue size.
func (q *KeyQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.order)
}
