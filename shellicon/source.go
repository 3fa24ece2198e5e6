package shellicon

import "image"

// NativeHandle is an icon resource owned by an IconSource. It is scoped to
// a single resolution: the resolver decodes it once and then releases it
// exactly once, on every path. A handle must never be stored or shared —
// only the frozen Icon derived from it crosses component boundaries.
type NativeHandle interface {
	// Bitmap decodes the handle into an image at its native size.
	Bitmap() (image.Image, error)
	// Release frees the underlying resource. Called exactly once.
	Release() error
}

// IconSource answers class-level icon probes: "the icon for files of this
// extension" or "the icon for folders". Probes are synthetic — sources see
// the extension or a folder marker, never a real path — so one answer is
// reusable for every file of that class.
//
// Returning (nil, nil) means the host has no icon for the class. That is a
// degraded-display condition, not an error.
type IconSource interface {
	Probe(key CacheKey) (NativeHandle, error)
}

// PathProber is an optional IconSource capability for file classes whose
// icon is baked into the file itself (executables, .ico files, shortcuts).
// Sources that cannot do per-file lookups simply don't implement it.
type PathProber interface {
	ProbePath(path string) (NativeHandle, error)
}

// probeName is the synthetic name handed to shell-level sources: the
// literal word "folder" for the folder key, the extension otherwise.
func probeName(key CacheKey) string {
	if key.IsFolder() {
		return "folder"
	}
	return key.Ext()
}
