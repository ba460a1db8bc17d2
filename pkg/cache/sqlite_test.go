package cache

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := OpenSQLiteStore(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStore_LoadEmpty(t *testing.T) {
	s := openTestSQLite(t)

	_, err := s.Load(context.Background())
	assert.ErrorIs(t, err, ErrSnapshotNotFound)
}

func TestSQLiteStore_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	s := openTestSQLite(t)

	snap := &Snapshot{
		Version: SnapshotVersion,
		SavedAt: testNow,
		Entries: []CacheEntry{
			{Key: "a", ETag: `"1"`, Result: json.RawMessage(`[1]`), Expires: testNow.Add(time.Hour), CachedAt: testNow},
			{Key: "b", Result: json.RawMessage(`{"x":"y"}`), Expires: testNow.Add(DefaultTTL), CachedAt: testNow},
		},
	}
	require.NoError(t, s.Save(ctx, snap))

	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	assert.True(t, testNow.Equal(loaded.SavedAt))
	require.Len(t, loaded.Entries, 2)
	for i := range snap.Entries {
		assert.Equal(t, snap.Entries[i].Key, loaded.Entries[i].Key)
		assert.Equal(t, snap.Entries[i].ETag, loaded.Entries[i].ETag)
		assert.Equal(t, string(snap.Entries[i].Result), string(loaded.Entries[i].Result))
		assert.True(t, snap.Entries[i].Expires.Equal(loaded.Entries[i].Expires))
		assert.True(t, snap.Entries[i].CachedAt.Equal(loaded.Entries[i].CachedAt))
	}
}

func TestSQLiteStore_SaveReplaces(t *testing.T) {
	ctx := context.Background()
	s := openTestSQLite(t)

	first := &Snapshot{Version: SnapshotVersion, SavedAt: testNow, Entries: []CacheEntry{
		{Key: "old", Result: json.RawMessage(`[]`), Expires: testNow.Add(time.Hour), CachedAt: testNow},
	}}
	second := &Snapshot{Version: SnapshotVersion, SavedAt: testNow, Entries: []CacheEntry{
		{Key: "new", Result: json.RawMessage(`[]`), Expires: testNow.Add(time.Hour), CachedAt: testNow},
	}}

	require.NoError(t, s.Save(ctx, first))
	require.NoError(t, s.Save(ctx, second))

	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded.Entries, 1)
	assert.Equal(t, "new", loaded.Entries[0].Key)
}

func TestSQLiteStore_CorruptRow(t *testing.T) {
	ctx := context.Background()
	s := openTestSQLite(t)

	require.NoError(t, s.Save(ctx, &Snapshot{Version: SnapshotVersion, SavedAt: testNow}))
	_, err := s.db.Exec(`INSERT INTO cache_entries(key, etag, result, expires, cached_at) VALUES('k', '', '[]', 'yesterday', 'today')`)
	require.NoError(t, err)

	_, err = s.Load(ctx)
	assert.ErrorIs(t, err, ErrCorruptSnapshot)

	store := newTestStore()
	require.NoError(t, store.Load(ctx, s, testNow))
	assert.Equal(t, 0, store.Len())
}

func TestSQLiteStore_WithStore(t *testing.T) {
	ctx := context.Background()
	s := openTestSQLite(t)

	store := newTestStore()
	store.Put("k", `"e"`, json.RawMessage(`[{"id":7}]`), testNow, DefaultTTL)
	require.NoError(t, store.Persist(ctx, s, testNow))

	restored := newTestStore()
	require.NoError(t, restored.Load(ctx, s, testNow.Add(time.Hour)))

	entry, ok := restored.Lookup("k", testNow.Add(time.Hour))
	require.True(t, ok)
	assert.Equal(t, `"e"`, entry.ETag)
	assert.Equal(t, `[{"id":7}]`, string(entry.Result))
}
