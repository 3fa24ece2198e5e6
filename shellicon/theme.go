package shellicon

import (
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/afero"
	"golang.org/x/image/bmp"
)

// ThemeSource resolves class icons from icon files on disk instead of a
// shell facility: a directory of "pdf.png", "folder.png" and friends.
// It serves hosts without a native shell source and doubles as a fallback
// when the shell has no association for an extension.
type ThemeSource struct {
	fs   afero.Fs
	dirs []string
}

// NewThemeSource creates a theme source searching dirs in order.
// A nil fs means the real OS filesystem.
func NewThemeSource(fs afero.Fs, dirs ...string) *ThemeSource {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &ThemeSource{fs: fs, dirs: dirs}
}

// Probe looks for "<ext>.png", "<ext>.bmp" (or "folder.*") across the
// configured directories, first match wins. The returned handle owns the
// open file; Release closes it.
func (s *ThemeSource) Probe(key CacheKey) (NativeHandle, error) {
	stem := strings.TrimPrefix(probeName(key), ".")
	if stem == "" {
		return nil, nil
	}

	candidates := lo.FlatMap(s.dirs, func(dir string, _ int) []string {
		return []string{
			filepath.Join(dir, stem+".png"),
			filepath.Join(dir, stem+".bmp"),
		}
	})

	for _, path := range candidates {
		ok, err := afero.Exists(s.fs, path)
		if err != nil || !ok {
			continue
		}
		f, err := s.fs.Open(path)
		if err != nil {
			sub("theme").Warn("icon file open failed", "path", path, "err", err)
			continue
		}
		if logEnabled(slog.LevelDebug) {
			sub("theme").Debug("theme icon found", "key", key.String(), "path", path)
		}
		return &themeHandle{file: f, path: path}, nil
	}
	return nil, nil
}

// themeHandle is an open icon file pending decode.
type themeHandle struct {
	file afero.File
	path string
}

func (h *themeHandle) Bitmap() (image.Image, error) {
	switch strings.ToLower(filepath.Ext(h.path)) {
	case ".png":
		img, err := png.Decode(h.file)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", h.path, err)
		}
		return img, nil
	case ".bmp":
		img, err := bmp.Decode(h.file)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", h.path, err)
		}
		return img, nil
	default:
		return nil, fmt.Errorf("unsupported icon format: %s", h.path)
	}
}

func (h *themeHandle) Release() error {
	return h.file.Close()
}

// FallbackSource chains sources: each probe tries them in order and the
// first handle wins. Used to put a theme directory behind the platform
// shell source.
type FallbackSource struct {
	sources []IconSource
}

// NewFallbackSource chains the given sources in priority order.
func NewFallbackSource(sources ...IconSource) *FallbackSource {
	return &FallbackSource{sources: sources}
}

// Probe returns the first handle any chained source yields. Errors from
// one source only skip it; the chain keeps going.
func (s *FallbackSource) Probe(key CacheKey) (NativeHandle, error) {
	for _, src := range s.sources {
		handle, err := src.Probe(key)
		if err != nil {
			sub("theme").Debug("chained source failed", "key", key.String(), "err", err)
			continue
		}
		if handle != nil {
			return handle, nil
		}
	}
	return nil, nil
}
