package shellicon

import (
	"bytes"
	"image/color"
	"image/png"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

func writeThemePNG(t *testing.T, fs afero.Fs, path string, c color.NRGBA) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, testImage(c, 32)))
	require.NoError(t, afero.WriteFile(fs, path, buf.Bytes(), 0644))
}

func writeThemeBMP(t *testing.T, fs afero.Fs, path string, c color.NRGBA) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, bmp.Encode(&buf, testImage(c, 32)))
	require.NoError(t, afero.WriteFile(fs, path, buf.Bytes(), 0644))
}

func TestThemeSource_ResolvesPNG(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeThemePNG(t, fs, "/theme/pdf.png", color.NRGBA{R: 0xff, A: 0xff})

	r := NewResolver(NewThemeSource(fs, "/theme"), WithFs(fs))
	ic, ok := r.IconFor("/docs/report.pdf", false)
	require.True(t, ok)
	assert.Equal(t, IconSize, ic.Bounds().Dx())
}

func TestThemeSource_ResolvesBMP(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeThemeBMP(t, fs, "/theme/zip.bmp", color.NRGBA{G: 0xff, A: 0xff})

	r := NewResolver(NewThemeSource(fs, "/theme"), WithFs(fs))
	_, ok := r.IconFor("backup.zip", false)
	assert.True(t, ok)
}

func TestThemeSource_FolderIcon(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeThemePNG(t, fs, "/theme/folder.png", color.NRGBA{B: 0xff, A: 0xff})

	src := NewThemeSource(fs, "/theme")
	handle, err := src.Probe(FolderKey)
	require.NoError(t, err)
	require.NotNil(t, handle)

	img, err := handle.Bitmap()
	require.NoError(t, err)
	assert.NotNil(t, img)
	assert.NoError(t, handle.Release())
}

func TestThemeSource_MissingIcon(t *testing.T) {
	fs := afero.NewMemMapFs()

	src := NewThemeSource(fs, "/theme")
	handle, err := src.Probe(ExtensionKey("pdf"))
	assert.NoError(t, err)
	assert.Nil(t, handle)
}

func TestThemeSource_DirectoryOrder(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeThemePNG(t, fs, "/user/pdf.png", color.NRGBA{R: 0xaa, A: 0xff})
	writeThemePNG(t, fs, "/system/pdf.png", color.NRGBA{R: 0xbb, A: 0xff})

	src := NewThemeSource(fs, "/user", "/system")
	handle, err := src.Probe(ExtensionKey("pdf"))
	require.NoError(t, err)
	require.NotNil(t, handle)
	defer handle.Release() //nolint:errcheck

	img, err := handle.Bitmap()
	require.NoError(t, err)
	c := color.NRGBAModel.Convert(img.At(4, 4)).(color.NRGBA)
	assert.Equal(t, uint8(0xaa), c.R, "first configured directory wins")
}

func TestThemeSource_CorruptFileDegrades(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/theme/pdf.png", []byte("junk"), 0644))

	r := NewResolver(NewThemeSource(fs, "/theme"), WithFs(fs))
	ic, ok := r.IconFor("doc.pdf", false)
	assert.False(t, ok)
	assert.Nil(t, ic)
}

func TestFallbackSource_ChainsToTheme(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeThemePNG(t, fs, "/theme/pdf.png", color.NRGBA{R: 0xff, A: 0xff})

	shell := &fakeSource{missing: true}
	chained := NewFallbackSource(shell, NewThemeSource(fs, "/theme"))

	r := NewResolver(chained, WithFs(fs))
	_, ok := r.IconFor("doc.pdf", false)
	assert.True(t, ok)
	assert.Equal(t, int64(1), shell.probes.Load(), "shell is consulted first")
}

func TestFallbackSource_FirstHandleWins(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeThemePNG(t, fs, "/theme/pdf.png", color.NRGBA{R: 0xff, A: 0xff})

	shell := &fakeSource{}
	chained := NewFallbackSource(shell, NewThemeSource(fs, "/theme"))

	handle, err := chained.Probe(ExtensionKey("pdf"))
	require.NoError(t, err)
	require.NotNil(t, handle)
	assert.IsType(t, &fakeHandle{}, handle)
	assert.NoError(t, handle.Release())
}
