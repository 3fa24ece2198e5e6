package shellicon

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasPerFileIcon(t *testing.T) {
	assert.True(t, hasPerFileIcon(ExtensionKey("exe")))
	assert.True(t, hasPerFileIcon(ExtensionKey("ico")))
	assert.True(t, hasPerFileIcon(ExtensionKey("lnk")))
	assert.False(t, hasPerFileIcon(ExtensionKey("pdf")))
	assert.False(t, hasPerFileIcon(FolderKey))
}

func TestPathIcons_CachesPerPath(t *testing.T) {
	src := &fakeSource{}
	p := NewPathIcons(src, time.Minute)

	ic, ok := p.Resolve(`C:\tools\app.exe`)
	require.True(t, ok)
	require.NotNil(t, ic)

	ic2, ok := p.Resolve(`C:\tools\app.exe`)
	require.True(t, ok)
	assert.Same(t, ic, ic2)
	assert.Equal(t, int64(1), src.pathProbes.Load())

	// Different path, different lookup even for the same extension.
	_, ok = p.Resolve(`C:\tools\other.exe`)
	require.True(t, ok)
	assert.Equal(t, int64(2), src.pathProbes.Load())
	assert.Equal(t, 2, p.Len())
}

func TestPathIcons_NegativeResultNotCached(t *testing.T) {
	src := &fakeSource{missing: true}
	p := NewPathIcons(src, time.Minute)

	_, ok := p.Resolve(`C:\tools\app.exe`)
	assert.False(t, ok)
	assert.Equal(t, 0, p.Len())

	src.missing = false
	_, ok = p.Resolve(`C:\tools\app.exe`)
	assert.True(t, ok)
	assert.Equal(t, int64(2), src.pathProbes.Load())
}

func TestPathIcons_Invalidate(t *testing.T) {
	src := &fakeSource{}
	p := NewPathIcons(src, time.Minute)

	_, ok := p.Resolve(`C:\tools\app.exe`)
	require.True(t, ok)

	p.Invalidate(`C:\tools\app.exe`)
	assert.Equal(t, 0, p.Len())

	_, ok = p.Resolve(`C:\tools\app.exe`)
	require.True(t, ok)
	assert.Equal(t, int64(2), src.pathProbes.Load())
}

func TestPathIcons_Expiry(t *testing.T) {
	src := &fakeSource{}
	p := NewPathIcons(src, 20*time.Millisecond)
	go p.Start()
	t.Cleanup(p.Stop)

	_, ok := p.Resolve(`C:\tools\app.exe`)
	require.True(t, ok)

	assert.Eventually(t, func() bool {
		p.Resolve(`C:\tools\app.exe`)
		return src.pathProbes.Load() >= 2
	}, 2*time.Second, 25*time.Millisecond, "expired entry should be re-resolved")
}

func TestPathIcons_HandleHygiene(t *testing.T) {
	src := &fakeSource{}
	p := NewPathIcons(src, time.Minute)

	for i := 0; i < 5; i++ {
		p.Resolve(`C:\tools\app.exe`)
		p.Invalidate(`C:\tools\app.exe`)
	}
	assert.Equal(t, src.acquired.Load(), src.released.Load())
}
