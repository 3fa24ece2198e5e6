package shellicon

import (
	"log/slog"
	"sync"

	"github.com/spf13/afero"
)

// Resolver maps cache keys to frozen icons. The in-memory cache is
// read-mostly: insertions only, never evicted, bounded in practice by the
// small universe of extensions a process ever displays. One resolver is
// meant to live for the whole process; tests construct a fresh one each.
//
// Concurrent resolutions of the same cold key may each perform the native
// probe; the first published icon wins and later duplicates are discarded.
// Redundant probes are wasted work, not a correctness problem, so no lock
// is held across the native call.
type Resolver struct {
	mu    sync.RWMutex
	icons map[CacheKey]*Icon

	norm   *Normalizer
	source IconSource
	store  *Store
	paths  *PathIcons
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithFs routes the normalizer's directory existence check through fs.
func WithFs(fs afero.Fs) Option {
	return func(r *Resolver) { r.norm = NewNormalizer(fs) }
}

// WithStore adds a persistent warm-start layer consulted on memory misses
// and written back after fresh resolutions, both best-effort.
func WithStore(store *Store) Option {
	return func(r *Resolver) { r.store = store }
}

// WithPathIcons enables per-file icon resolution for classes whose icon is
// embedded in the file itself.
func WithPathIcons(p *PathIcons) Option {
	return func(r *Resolver) { r.paths = p }
}

// NewResolver creates a resolver over the given icon source.
func NewResolver(source IconSource, opts ...Option) *Resolver {
	r := &Resolver{
		icons:  make(map[CacheKey]*Icon),
		norm:   NewNormalizer(nil),
		source: source,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Normalize maps a raw input to its canonical cache key.
func (r *Resolver) Normalize(input string) CacheKey {
	return r.norm.Normalize(input)
}

// IconFor is the inbound surface for UI callers: normalize input and
// resolve. folderHint forces the folder icon regardless of the input.
// The bool is false when no icon is available; IconFor never fails.
func (r *Resolver) IconFor(input string, folderHint bool) (*Icon, bool) {
	if folderHint {
		return r.Resolve(FolderKey)
	}
	return r.Resolve(r.norm.Normalize(input))
}

// IconForPath resolves an icon for a concrete file path. Classes with
// per-file icons go through the path cache when one is configured;
// everything else falls back to class-level resolution.
func (r *Resolver) IconForPath(path string) (*Icon, bool) {
	key := r.norm.Normalize(path)
	if r.paths != nil && hasPerFileIcon(key) {
		if ic, ok := r.paths.Resolve(path); ok {
			return ic, true
		}
		// fall through to the class icon
	}
	return r.Resolve(key)
}

// Resolve returns the icon for key, probing the source on a cache miss.
// The zero key short-circuits to "no icon". Resolve never panics and never
// returns an error: every failure degrades to (nil, false), and a failed
// key stays absent so a later call retries.
func (r *Resolver) Resolve(key CacheKey) (*Icon, bool) {
	if key.IsZero() {
		return nil, false
	}

	r.mu.RLock()
	ic := r.icons[key]
	r.mu.RUnlock()
	if ic != nil {
		if logEnabled(slog.LevelDebug) {
			sub("resolver").Debug("cache hit", "key", key.String())
		}
		return ic, true
	}

	if r.store != nil {
		stored, err := r.store.Load(key)
		if err != nil {
			sub("resolver").Warn("icon store load failed", "key", key.String(), "err", err)
		} else if stored != nil {
			return r.publish(key, stored), true
		}
	}

	ic, ok := r.probe(key)
	if !ok {
		return nil, false
	}
	ic = r.publish(key, ic)

	if r.store != nil {
		if err := r.store.Save(key, ic); err != nil {
			sub("resolver").Warn("icon store save failed", "key", key.String(), "err", err)
		}
	}
	return ic, true
}

// Len returns the number of cached icon classes.
func (r *Resolver) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.icons)
}

// probe performs one native lookup and conversion.
func (r *Resolver) probe(key CacheKey) (*Icon, bool) {
	l := sub("resolver")
	handle, err := r.source.Probe(key)
	if err != nil {
		l.Debug("native probe failed", "key", key.String(), "err", err)
		return nil, false
	}
	if handle == nil {
		if logEnabled(slog.LevelDebug) {
			l.Debug("no native icon", "key", key.String())
		}
		return nil, false
	}
	return convertHandle(key, handle)
}

// publish inserts ic under key unless another resolution got there first,
// in which case the already-published icon is returned and ic is dropped.
func (r *Resolver) publish(key CacheKey, ic *Icon) *Icon {
	r.mu.Lock()
	if existing := r.icons[key]; existing != nil {
		r.mu.Unlock()
		return existing
	}
	r.icons[key] = ic
	r.mu.Unlock()
	return ic
}

// convertHandle turns a native handle into a frozen icon. The handle is
// released exactly once on every exit path, including a panicking decoder.
func convertHandle(key CacheKey, handle NativeHandle) (ic *Icon, ok bool) {
	defer func() {
		if err := handle.Release(); err != nil {
			sub("resolver").Warn("handle release failed", "key", key.String(), "err", err)
		}
	}()
	defer func() {
		if rec := recover(); rec != nil {
			sub("resolver").Error("icon conversion panicked", "key", key.String(), "panic", rec)
			ic, ok = nil, false
		}
	}()

	src, err := handle.Bitmap()
	if err != nil {
		sub("resolver").Debug("bitmap conversion failed", "key", key.String(), "err", err)
		return nil, false
	}
	if src == nil {
		return nil, false
	}
	return newIcon(src), true
}
