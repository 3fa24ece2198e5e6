package shellicon

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
)

// IconSize is the edge length, in pixels, of every cached icon.
const IconSize = 16

// Icon is a frozen 16×16 bitmap. It is fully constructed before it is
// published into a cache and never mutated afterwards, so any number of
// goroutines may read it without synchronization. Callers must treat the
// pixel data returned by Image as read-only.
type Icon struct {
	img *image.NRGBA
}

// newIcon copies src into a fresh 16×16 NRGBA bitmap. The source image is
// not retained, so native backing memory can be released immediately after.
func newIcon(src image.Image) *Icon {
	return &Icon{img: imaging.Resize(src, IconSize, IconSize, imaging.Lanczos)}
}

// Image returns the bitmap. The returned image must not be modified.
func (ic *Icon) Image() image.Image { return ic.img }

// Bounds returns the pixel bounds (always 16×16).
func (ic *Icon) Bounds() image.Rectangle { return ic.img.Bounds() }

// PNG returns the icon encoded as PNG, for persistence or export.
func (ic *Icon) PNG() ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, ic.img); err != nil {
		return nil, fmt.Errorf("encode icon png: %w", err)
	}
	return buf.Bytes(), nil
}

// decodeIconPNG rebuilds an icon from stored PNG bytes, re-freezing it to
// the canonical size in case the stored blob predates a size change.
func decodeIconPNG(data []byte) (*Icon, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode icon png: %w", err)
	}
	return newIcon(img), nil
}
