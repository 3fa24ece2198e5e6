package shellicon

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

const debounceInterval = 300 * time.Millisecond

// Watcher invalidates per-file icons when the files change on disk. The UI
// points it at the directories currently being displayed; write, rename and
// remove events for per-file-icon classes drop the affected path from the
// PathIcons cache so the next request re-resolves. Class icons are never
// invalidated — an extension's icon does not change while the process runs.
type Watcher struct {
	paths   *PathIcons
	watcher *fsnotify.Watcher
}

// NewWatcher creates an invalidation watcher over the given path cache.
func NewWatcher(paths *PathIcons) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{paths: paths, watcher: w}, nil
}

// Add starts watching a directory. Typically called when the UI navigates
// into it. Hidden directories are skipped, matching the browser's display
// policy.
func (w *Watcher) Add(dir string) error {
	if !watchable(dir) {
		return nil
	}
	return w.watcher.Add(dir)
}

// Remove stops watching a directory.
func (w *Watcher) Remove(dir string) error {
	return w.watcher.Remove(dir)
}

// Start consumes events and debounces invalidations. Blocks until ctx is
// cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	l := sub("watcher")

	pending := make(map[string]struct{})
	timer := time.NewTimer(debounceInterval)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			w.watcher.Close()
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}

			// Only per-file-icon classes ever live in the path cache.
			if !hasPerFileIcon(ExtensionKey(lastExt(filepath.Base(event.Name)))) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
				continue
			}

			pending[event.Name] = struct{}{}
			timer.Reset(debounceInterval)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			l.Warn("watch error", "err", err)

		case <-timer.C:
			if len(pending) > 0 {
				for p := range pending {
					w.paths.Invalidate(p)
				}
				l.Debug("invalidated changed icons", "count", len(pending))
				pending = make(map[string]struct{})
			}
		}
	}
}

// Close closes the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

// watchable reports whether a path looks like a directory worth watching.
func watchable(dir string) bool {
	base := filepath.Base(dir)
	return !strings.HasPrefix(base, ".")
}
