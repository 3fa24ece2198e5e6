//go:build !windows

package shellicon

// ShellSource on non-Windows hosts: there is no shell icon facility to
// query, so every probe reports "no icon" and callers fall back to theme
// directories or placeholder glyphs.
type ShellSource struct{}

// NewShellSource returns the platform icon source.
func NewShellSource() IconSource {
	return &ShellSource{}
}

// Probe always reports no icon.
func (s *ShellSource) Probe(key CacheKey) (NativeHandle, error) {
	return nil, nil
}
