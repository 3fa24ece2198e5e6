package shellicon

import (
	"context"

	"github.com/marusama/semaphore/v2"
)

// defaultPrefetchWorkers bounds concurrent shell probes during a warm-up
// burst. The shell call is fast but still a blocking OS round trip.
const defaultPrefetchWorkers = 4

// Prefetcher warms the icon cache in the background: directory listings
// are enqueued as cache keys, a worker loop resolves them with bounded
// concurrency, and each finished key is announced on the bus so bound UI
// rows can pick up their icon.
type Prefetcher struct {
	resolver *Resolver
	queue    *KeyQueue
	bus      *EventBus
	sem      semaphore.Semaphore
}

// NewPrefetcher creates a prefetcher over the given resolver.
// workers <= 0 selects the default concurrency bound.
func NewPrefetcher(resolver *Resolver, workers int) *Prefetcher {
	if workers <= 0 {
		workers = defaultPrefetchWorkers
	}
	return &Prefetcher{
		resolver: resolver,
		queue:    NewKeyQueue(),
		bus:      NewEventBus(),
		sem:      semaphore.New(workers),
	}
}

// Bus returns the event bus UI subscribers attach to.
func (p *Prefetcher) Bus() *EventBus {
	return p.bus
}

// Queue returns the underlying key queue.
func (p *Prefetcher) Queue() *KeyQueue {
	return p.queue
}

// EnqueueListing normalizes a directory listing's entries and queues their
// keys. Already-cached keys still flow through; Resolve makes them a cheap
// map hit.
func (p *Prefetcher) EnqueueListing(entries []string) {
	keys := make([]CacheKey, 0, len(entries)+1)
	keys = append(keys, FolderKey)
	for _, entry := range entries {
		keys = append(keys, p.resolver.Normalize(entry))
	}
	p.queue.PushMany(keys)
}

// Run processes the queue until ctx is cancelled. Each key resolves on its
// own goroutine, gated by the concurrency semaphore; results are published
// as IconEvents.
func (p *Prefetcher) Run(ctx context.Context) {
	l := sub("prefetch")
	l.Info("prefetcher started")

	done := ctx.Done()
	for {
		key, ok := p.queue.Pop(done)
		if !ok {
			break
		}

		if err := p.sem.Acquire(ctx, 1); err != nil {
			break
		}

		go func(key CacheKey) {
			defer p.sem.Release(1)
			_, found := p.resolver.Resolve(key)
			p.bus.Publish(IconEvent{Key: key.String(), Found: found})
			l.Debug("prefetched", "key", key.String(), "found", found)
		}(key)
	}

	// Wait for in-flight workers before reporting shutdown.
	limit := p.sem.GetLimit()
	if err := p.sem.Acquire(context.Background(), limit); err == nil {
		p.sem.Release(limit)
	}
	l.Info("prefetcher stopped")
}
