package shellicon

import (
	"strings"

	"github.com/spf13/afero"
)

// FolderSentinel is the literal input value that always normalizes to the
// folder key, regardless of filesystem state.
const FolderSentinel = "<folder>"

// CacheKey identifies one icon class: either the folder icon, or the icon
// for a single lower-cased, dot-prefixed file extension. Two inputs that
// normalize to equal keys always resolve to the same icon. The zero value
// means "no icon" and is never resolved.
type CacheKey struct {
	folder bool
	ext    string
}

// FolderKey is the key for the generic folder icon.
var FolderKey = CacheKey{folder: true}

// ExtensionKey builds the key for a file extension. The extension is
// lower-cased and dot-prefixed; surrounding dots and whitespace are
// stripped first. An empty result yields the zero key.
func ExtensionKey(ext string) CacheKey {
	ext = strings.Trim(strings.ToLower(strings.TrimSpace(ext)), ".")
	if ext == "" {
		return CacheKey{}
	}
	return CacheKey{ext: "." + ext}
}

// IsZero reports whether the key is the "no icon" sentinel.
func (k CacheKey) IsZero() bool { return !k.folder && k.ext == "" }

// IsFolder reports whether the key is the folder key.
func (k CacheKey) IsFolder() bool { return k.folder }

// Ext returns the dot-prefixed extension, or "" for folder and zero keys.
func (k CacheKey) Ext() string { return k.ext }

// String renders the key for logs and store rows: "<folder>", ".pdf", or "".
func (k CacheKey) String() string {
	if k.folder {
		return FolderSentinel
	}
	return k.ext
}

// Normalizer maps raw UI inputs (absolute paths, bare extensions, folder
// sentinels) to canonical cache keys. The mapping is pure apart from a
// single directory existence check used to disambiguate extensionless
// paths, routed through an afero.Fs so tests can run on a memory fs.
type Normalizer struct {
	fs afero.Fs
}

// NewNormalizer creates a normalizer backed by the given filesystem.
// A nil fs means the real OS filesystem.
func NewNormalizer(fs afero.Fs) *Normalizer {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Normalizer{fs: fs}
}

// Normalize maps input to its canonical cache key. Rules, in order:
//  1. empty, whitespace, or dot-only input → zero key
//  2. an existing directory → FolderKey
//  3. input containing a path separator: last extension of the final
//     component; extensionless paths are assumed to be directories
//  4. the folder sentinel, or the word "folder" in any case → FolderKey
//  5. anything else is a bare extension (last-extension rule for
//     multi-dot names like "archive.tar.gz")
//
// Normalize never fails; unusable inputs come back as the zero key.
func (n *Normalizer) Normalize(input string) CacheKey {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return CacheKey{}
	}

	// Dot-only inputs ("." or "..") carry no extension, yet they stat as
	// real directories on any live filesystem. The no-icon rule wins.
	if strings.Trim(trimmed, ".") == "" {
		return CacheKey{}
	}

	if info, err := n.fs.Stat(trimmed); err == nil && info.IsDir() {
		return FolderKey
	}

	// Both separator styles: inputs may carry foreign-OS paths.
	if i := strings.LastIndexAny(trimmed, `/\`); i >= 0 {
		ext := lastExt(trimmed[i+1:])
		if ext == "" {
			return FolderKey
		}
		return ExtensionKey(ext)
	}

	if trimmed == FolderSentinel || strings.EqualFold(trimmed, "folder") {
		return FolderKey
	}

	if ext := lastExt(trimmed); ext != "" {
		return ExtensionKey(ext)
	}
	return ExtensionKey(trimmed)
}

// lastExt returns the final dot-suffix of name ("" if none), so
// "archive.tar.gz" → ".gz". A lone leading dot counts: ".pdf" → ".pdf".
// Names ending in a dot have no extension.
func lastExt(name string) string {
	dot := strings.LastIndexByte(name, '.')
	if dot < 0 || dot == len(name)-1 {
		return ""
	}
	return name[dot:]
}
