//go:build windows

package shellicon

import (
	"fmt"
	"image"
	"syscall"
	"unsafe"
)

var (
	shell32 = syscall.NewLazyDLL("shell32.dll")
	user32  = syscall.NewLazyDLL("user32.dll")
	gdi32   = syscall.NewLazyDLL("gdi32.dll")

	procSHGetFileInfoW = shell32.NewProc("SHGetFileInfoW")
	procGetIconInfo    = user32.NewProc("GetIconInfo")
	procDestroyIcon    = user32.NewProc("DestroyIcon")
	procGetDC          = user32.NewProc("GetDC")
	procReleaseDC      = user32.NewProc("ReleaseDC")
	procGetDIBits      = gdi32.NewProc("GetDIBits")
	procDeleteObject   = gdi32.NewProc("DeleteObject")
)

const (
	shgfiIcon              = 0x000000100
	shgfiSmallIcon         = 0x000000001
	shgfiUseFileAttributes = 0x000000010

	fileAttributeNormal    = 0x00000080
	fileAttributeDirectory = 0x00000010

	biRGB        = 0
	dibRGBColors = 0
)

type shFileInfo struct {
	HIcon         syscall.Handle
	IIcon         int32
	DwAttributes  uint32
	SzDisplayName [260]uint16
	SzTypeName    [80]uint16
}

type iconInfo struct {
	FIcon    int32
	XHotspot uint32
	YHotspot uint32
	HbmMask  syscall.Handle
	HbmColor syscall.Handle
}

type bitmapInfoHeader struct {
	Size          uint32
	Width         int32
	Height        int32
	Planes        uint16
	BitCount      uint16
	Compression   uint32
	SizeImage     uint32
	XPelsPerMeter int32
	YPelsPerMeter int32
	ClrUsed       uint32
	ClrImportant  uint32
}

type bitmapInfo struct {
	Header bitmapInfoHeader
	Colors [3]uint32 // room for bitfield masks on query calls
}

// ShellSource resolves icons through the Windows shell association
// database. Probes are attribute-based: the shell sees a synthetic name
// ("folder" or the extension) plus file attributes, never touches disk,
// and answers with the class icon shared by every file of that extension.
type ShellSource struct{}

// NewShellSource returns the platform icon source.
func NewShellSource() IconSource {
	return &ShellSource{}
}

var _ PathProber = (*ShellSource)(nil)

// Probe asks the shell for the small class icon of key.
func (s *ShellSource) Probe(key CacheKey) (NativeHandle, error) {
	attrs := uint32(fileAttributeNormal)
	if key.IsFolder() {
		attrs = fileAttributeDirectory
	}
	return shGetIcon(probeName(key), shgfiIcon|shgfiSmallIcon|shgfiUseFileAttributes, attrs)
}

// ProbePath asks the shell for the icon of a concrete file, which for
// executables and shortcuts is extracted from the file itself.
func (s *ShellSource) ProbePath(path string) (NativeHandle, error) {
	return shGetIcon(path, shgfiIcon|shgfiSmallIcon, 0)
}

func shGetIcon(name string, flags, attrs uint32) (NativeHandle, error) {
	p, err := syscall.UTF16PtrFromString(name)
	if err != nil {
		return nil, fmt.Errorf("utf16 name: %w", err)
	}

	var info shFileInfo
	ret, _, _ := procSHGetFileInfoW.Call(
		uintptr(unsafe.Pointer(p)),
		uintptr(attrs),
		uintptr(unsafe.Pointer(&info)),
		unsafe.Sizeof(info),
		uintptr(flags),
	)
	if ret == 0 || info.HIcon == 0 {
		// No association: degraded display, not an error.
		return nil, nil
	}
	return &shellHandle{hicon: info.HIcon}, nil
}

// shellHandle wraps an HICON pending conversion.
type shellHandle struct {
	hicon syscall.Handle
}

// Bitmap extracts the icon's color plane as a 32bpp top-down DIB.
func (h *shellHandle) Bitmap() (image.Image, error) {
	var ii iconInfo
	ret, _, callErr := procGetIconInfo.Call(uintptr(h.hicon), uintptr(unsafe.Pointer(&ii)))
	if ret == 0 {
		return nil, fmt.Errorf("GetIconInfo: %w", callErr)
	}
	// GetIconInfo hands us copies of both bitmaps; both must be deleted.
	defer procDeleteObject.Call(uintptr(ii.HbmMask))  //nolint:errcheck
	defer procDeleteObject.Call(uintptr(ii.HbmColor)) //nolint:errcheck

	hdc, _, _ := procGetDC.Call(0)
	if hdc == 0 {
		return nil, fmt.Errorf("GetDC failed")
	}
	defer procReleaseDC.Call(0, hdc) //nolint:errcheck

	var bi bitmapInfo
	bi.Header.Size = uint32(unsafe.Sizeof(bi.Header))
	ret, _, callErr = procGetDIBits.Call(hdc, uintptr(ii.HbmColor), 0, 0, 0,
		uintptr(unsafe.Pointer(&bi)), dibRGBColors)
	if ret == 0 {
		return nil, fmt.Errorf("GetDIBits size query: %w", callErr)
	}

	width := int(bi.Header.Width)
	height := int(bi.Header.Height)
	if height < 0 {
		height = -height
	}
	if width <= 0 || height <= 0 || width > 1024 || height > 1024 {
		return nil, fmt.Errorf("implausible icon dimensions %dx%d", width, height)
	}

	bi.Header.BitCount = 32
	bi.Header.Compression = biRGB
	bi.Header.Height = -int32(height) // top-down rows
	bi.Header.SizeImage = 0

	buf := make([]byte, width*height*4)
	ret, _, callErr = procGetDIBits.Call(hdc, uintptr(ii.HbmColor), 0, uintptr(height),
		uintptr(unsafe.Pointer(&buf[0])), uintptr(unsafe.Pointer(&bi)), dibRGBColors)
	if ret == 0 {
		return nil, fmt.Errorf("GetDIBits: %w", callErr)
	}

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	opaque := true
	for i := 0; i < width*height; i++ {
		b, g, r, a := buf[i*4], buf[i*4+1], buf[i*4+2], buf[i*4+3]
		img.Pix[i*4+0] = r
		img.Pix[i*4+1] = g
		img.Pix[i*4+2] = b
		img.Pix[i*4+3] = a
		if a != 0 {
			opaque = false
		}
	}
	if opaque {
		// Pre-XP icons carry no alpha channel; treat the whole color
		// plane as opaque rather than fully transparent.
		for i := 3; i < len(img.Pix); i += 4 {
			img.Pix[i] = 0xff
		}
	}
	return img, nil
}

// Release destroys the HICON. The shell owns the association; the handle
// is ours to free.
func (h *shellHandle) Release() error {
	ret, _, callErr := procDestroyIcon.Call(uintptr(h.hicon))
	if ret == 0 {
		return fmt.Errorf("DestroyIcon: %w", callErr)
	}
	return nil
}
