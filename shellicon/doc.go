// Package shellicon resolves and caches the small per-class icons a file
// browser shows next to entries: one icon per file extension plus one for
// folders, obtained from the host shell (or a theme directory) and frozen
// into immutable 16×16 bitmaps that are safe to share across goroutines.
package shellicon

import "time"

// nowFunc is the time source, replaceable in tests.
var nowFunc = time.Now
