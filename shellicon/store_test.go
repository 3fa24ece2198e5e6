package shellicon

import (
	"image/color"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	db, err := openDBAt(filepath.Join(dir, "test-icons.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(db)
}

func TestOpenDB_CreatesSchema(t *testing.T) {
	dir := t.TempDir()
	db, err := openDBAt(filepath.Join(dir, "icons.db"))
	require.NoError(t, err)
	defer db.Close()

	var name string
	err = db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='icons'").Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "icons", name)

	var version string
	err = db.QueryRow("SELECT value FROM meta WHERE key = 'schema_version'").Scan(&version)
	require.NoError(t, err)
	assert.Equal(t, "1", version)
}

func TestOpenDB_Idempotent(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "icons.db")

	db1, err := openDBAt(dbPath)
	require.NoError(t, err)
	db1.Close()

	db2, err := openDBAt(dbPath)
	require.NoError(t, err)
	db2.Close()
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	store := setupTestStore(t)

	c := color.NRGBA{R: 0x42, G: 0x00, B: 0x99, A: 0xff}
	ic := newIcon(testImage(c, 16))
	require.NoError(t, store.Save(ExtensionKey("pdf"), ic))

	back, err := store.Load(ExtensionKey("pdf"))
	require.NoError(t, err)
	require.NotNil(t, back)
	assert.Equal(t, IconSize, back.Bounds().Dx())
	assert.Equal(t, c, back.Image().At(5, 5).(color.NRGBA))
}

func TestStore_LoadAbsent(t *testing.T) {
	store := setupTestStore(t)

	ic, err := store.Load(ExtensionKey("nope"))
	require.NoError(t, err)
	assert.Nil(t, ic)
}

func TestStore_SaveOverwrites(t *testing.T) {
	store := setupTestStore(t)

	key := ExtensionKey("txt")
	require.NoError(t, store.Save(key, newIcon(testImage(color.NRGBA{R: 0x11, A: 0xff}, 16))))
	require.NoError(t, store.Save(key, newIcon(testImage(color.NRGBA{R: 0x22, A: 0xff}, 16))))

	n, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	back, err := store.Load(key)
	require.NoError(t, err)
	assert.Equal(t, uint8(0x22), back.Image().At(0, 0).(color.NRGBA).R)
}

func TestStore_CorruptBlobDropped(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.db.Exec(`INSERT INTO icons (key, png, resolved_at) VALUES (?, ?, 0)`,
		".bad", []byte("garbage"))
	require.NoError(t, err)

	ic, err := store.Load(ExtensionKey("bad"))
	require.NoError(t, err)
	assert.Nil(t, ic)

	n, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, 0, n, "corrupt row is deleted on load")
}

func TestStore_Keys(t *testing.T) {
	store := setupTestStore(t)

	ic := newIcon(testImage(color.NRGBA{A: 0xff}, 16))
	require.NoError(t, store.Save(ExtensionKey("pdf"), ic))
	require.NoError(t, store.Save(FolderKey, ic))

	keys, err := store.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{".pdf", FolderSentinel}, keys)
}

func TestResolver_WarmStartsFromStore(t *testing.T) {
	store := setupTestStore(t)

	warm := &fakeSource{}
	r1 := NewResolver(warm, WithStore(store))
	_, ok := r1.Resolve(ExtensionKey("pdf"))
	require.True(t, ok)
	require.Equal(t, int64(1), warm.probes.Load())

	// A fresh resolver over the same store never reaches the source.
	cold := &fakeSource{}
	r2 := NewResolver(cold, WithStore(store))
	ic, ok := r2.Resolve(ExtensionKey("pdf"))
	require.True(t, ok)
	assert.NotNil(t, ic)
	assert.Equal(t, int64(0), cold.probes.Load())
}

func TestStore_ZeroKeyIgnored(t *testing.T) {
	store := setupTestStore(t)

	require.NoError(t, store.Save(CacheKey{}, nil))
	n, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
