package shellicon

import (
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// perFileExts are the classes whose icon is embedded in the file itself,
// so a class-level probe would show the wrong picture.
var perFileExts = map[string]struct{}{
	".exe": {},
	".ico": {},
	".lnk": {},
	".cur": {},
}

// hasPerFileIcon reports whether files of this class carry their own icon.
func hasPerFileIcon(key CacheKey) bool {
	_, ok := perFileExts[key.Ext()]
	return ok
}

// defaultPathTTL bounds how long a per-file icon is trusted. Unlike the
// class cache, the path universe is unbounded and the pictures can change
// on disk, so entries expire and are re-resolved.
const defaultPathTTL = 10 * time.Minute

// PathIcons memoizes path→icon for classes with per-file icons. Negative
// results are not cached: a path that failed to resolve is retried on the
// next request.
type PathIcons struct {
	prober PathProber
	cache  *ttlcache.Cache[string, *Icon]
}

// NewPathIcons creates a per-file icon cache over the given prober.
// ttl <= 0 selects the default. Start must be called (or the cache used
// without expiry) and Stop at shutdown.
func NewPathIcons(prober PathProber, ttl time.Duration) *PathIcons {
	if ttl <= 0 {
		ttl = defaultPathTTL
	}
	return &PathIcons{
		prober: prober,
		cache: ttlcache.New[string, *Icon](
			ttlcache.WithTTL[string, *Icon](ttl),
		),
	}
}

// Start runs the background expiry loop. Blocks; run in a goroutine.
func (p *PathIcons) Start() { p.cache.Start() }

// Stop terminates the expiry loop.
func (p *PathIcons) Stop() { p.cache.Stop() }

// Resolve returns the icon embedded in the file at path, from cache or by
// probing. Same total contract as the class resolver: (nil, false) on any
// failure, nothing persisted, later calls retry.
func (p *PathIcons) Resolve(path string) (*Icon, bool) {
	if item := p.cache.Get(path); item != nil {
		return item.Value(), true
	}

	handle, err := p.prober.ProbePath(path)
	if err != nil {
		sub("pathicons").Debug("path probe failed", "path", path, "err", err)
		return nil, false
	}
	if handle == nil {
		return nil, false
	}
	ic, ok := convertHandle(ExtensionKey(lastExt(path)), handle)
	if !ok {
		return nil, false
	}
	p.cache.Set(path, ic, ttlcache.DefaultTTL)
	return ic, true
}

// Invalidate drops the cached icon for path, forcing re-resolution. Called
// by the watcher when the file changes on disk.
func (p *PathIcons) Invalidate(path string) {
	p.cache.Delete(path)
}

// Len returns the number of cached path icons.
func (p *PathIcons) Len() int {
	return p.cache.Len()
}
