package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

func newTestStore() *Store {
	return NewStore(zerolog.Nop())
}

// memPersister is an in-memory Persister for tests.
type memPersister struct {
	snap    *Snapshot
	data    []byte
	loadErr error
	saveErr error
	saves   int
}

func (m *memPersister) Load(ctx context.Context) (*Snapshot, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.data == nil {
		return nil, ErrSnapshotNotFound
	}
	return DecodeSnapshot(m.data)
}

func (m *memPersister) Save(ctx context.Context, snap *Snapshot) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	data, err := EncodeSnapshot(snap)
	if err != nil {
		return err
	}
	m.snap = snap
	m.data = data
	m.saves++
	return nil
}

func (m *memPersister) Location() string { return "memory" }

func TestStore_PutAndLookup(t *testing.T) {
	store := newTestStore()
	result := json.RawMessage(`[{"id":7,"name":"SELANGOR"}]`)

	store.Put("k", `"abc"`, result, testNow, DefaultTTL)

	entry, ok := store.Lookup("k", testNow.Add(time.Minute))
	require.True(t, ok)
	assert.Equal(t, "k", entry.Key)
	assert.Equal(t, `"abc"`, entry.ETag)
	assert.JSONEq(t, string(result), string(entry.Result))
	assert.Equal(t, testNow.Add(DefaultTTL), entry.Expires)
	assert.Equal(t, testNow, entry.CachedAt)
}

func TestStore_Lookup_Absent(t *testing.T) {
	store := newTestStore()

	entry, ok := store.Lookup("missing", testNow)
	assert.False(t, ok)
	assert.Nil(t, entry)
}

func TestStore_Expiry(t *testing.T) {
	tests := []struct {
		name    string
		at      time.Time
		wantHit bool
	}{
		{name: "23 hours later", at: testNow.Add(23 * time.Hour), wantHit: true},
		{name: "exactly one day later", at: testNow.Add(24 * time.Hour), wantHit: false},
		{name: "one day and one second later", at: testNow.Add(24*time.Hour + time.Second), wantHit: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStore()
			store.Put("k", "", json.RawMessage(`[]`), testNow, DefaultTTL)

			_, ok := store.Lookup("k", tt.at)
			assert.Equal(t, tt.wantHit, ok)
		})
	}
}

func TestStore_Lookup_RemovesExpired(t *testing.T) {
	store := newTestStore()
	store.Put("k", "", json.RawMessage(`[]`), testNow, time.Hour)
	require.Equal(t, 1, store.Len())

	_, ok := store.Lookup("k", testNow.Add(2*time.Hour))
	assert.False(t, ok)
	assert.Equal(t, 0, store.Len())
}

func TestStore_Put_Overwrites(t *testing.T) {
	store := newTestStore()
	store.Put("k", `"v1"`, json.RawMessage(`[1]`), testNow, DefaultTTL)
	store.Put("k", `"v2"`, json.RawMessage(`[2]`), testNow.Add(time.Hour), DefaultTTL)

	entry, ok := store.Lookup("k", testNow.Add(2*time.Hour))
	require.True(t, ok)
	assert.Equal(t, `"v2"`, entry.ETag)
	assert.Equal(t, `[2]`, string(entry.Result))
	assert.Equal(t, testNow.Add(time.Hour+DefaultTTL), entry.Expires)
	assert.Equal(t, 1, store.Len())
}

func TestStore_Put_NonPositiveTTL(t *testing.T) {
	store := newTestStore()
	store.Put("k", "", json.RawMessage(`[]`), testNow, 0)
	assert.Equal(t, 0, store.Len())
}

func TestStore_Put_CompactsResult(t *testing.T) {
	store := newTestStore()
	stored, ok := store.Put("k", "", json.RawMessage("[ {\"id\": 1} ]\n"), testNow, DefaultTTL)
	require.True(t, ok)
	assert.Equal(t, `[{"id":1}]`, string(stored))

	entry, ok := store.Lookup("k", testNow)
	require.True(t, ok)
	assert.Equal(t, `[{"id":1}]`, string(entry.Result))
}

func TestStore_Put_RejectsInvalidJSON(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()
	store.Put("good", "", json.RawMessage(`[1]`), testNow, DefaultTTL)

	stored, ok := store.Put("bad", "", json.RawMessage("not json"), testNow, DefaultTTL)
	assert.False(t, ok)
	assert.Nil(t, stored)
	assert.Equal(t, 1, store.Len())

	p := &memPersister{}
	require.NoError(t, store.Persist(ctx, p, testNow))
	require.Len(t, p.snap.Entries, 1)
	assert.Equal(t, "good", p.snap.Entries[0].Key)
}

func TestStore_Lookup_ReturnsCopy(t *testing.T) {
	store := newTestStore()
	store.Put("k", `"abc"`, json.RawMessage(`[]`), testNow, DefaultTTL)

	entry, _ := store.Lookup("k", testNow)
	entry.ETag = "mutated"
	entry.Expires = time.Time{}

	again, ok := store.Lookup("k", testNow)
	require.True(t, ok)
	assert.Equal(t, `"abc"`, again.ETag)
}

func TestStore_Prune(t *testing.T) {
	store := newTestStore()
	store.Put("fresh", "", json.RawMessage(`[1]`), testNow, DefaultTTL)
	store.Put("stale", "", json.RawMessage(`[2]`), testNow.Add(-48*time.Hour), DefaultTTL)

	removed := store.Prune(testNow)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, store.Len())

	_, ok := store.Lookup("fresh", testNow)
	assert.True(t, ok)

	before := store.Snapshot(testNow)
	assert.Equal(t, 0, store.Prune(testNow), "second prune should be a no-op")
	assert.Equal(t, before, store.Snapshot(testNow))
}

func TestStore_Prune_Empty(t *testing.T) {
	store := newTestStore()
	assert.Equal(t, 0, store.Prune(testNow))
	assert.Equal(t, 0, store.Prune(testNow))
}

func TestStore_Snapshot_SortedAndFresh(t *testing.T) {
	store := newTestStore()
	store.Put("b", "", json.RawMessage(`[]`), testNow, DefaultTTL)
	store.Put("a", "", json.RawMessage(`[]`), testNow, DefaultTTL)
	store.Put("old", "", json.RawMessage(`[]`), testNow.Add(-48*time.Hour), DefaultTTL)

	snap := store.Snapshot(testNow)
	require.Len(t, snap.Entries, 2)
	assert.Equal(t, "a", snap.Entries[0].Key)
	assert.Equal(t, "b", snap.Entries[1].Key)
	assert.Equal(t, SnapshotVersion, snap.Version)
	assert.Equal(t, testNow, snap.SavedAt)
}

func TestStore_PersistLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	p := &memPersister{}

	original := newTestStore()
	original.Put("states", `"s1"`, json.RawMessage(`[{"id":7,"name":"SELANGOR"}]`), testNow, DefaultTTL)
	original.Put("towns", "", json.RawMessage(`[{"id":"LOCATION:1","name":"KLANG"}]`), testNow, DefaultTTL)
	original.Put("meta", `"m"`, json.RawMessage(`{"resultset":{"count":1}}`), testNow, DefaultTTL)

	require.NoError(t, original.Persist(ctx, p, testNow.Add(time.Hour)))

	restored := newTestStore()
	require.NoError(t, restored.Load(ctx, p, testNow.Add(2*time.Hour)))

	for _, key := range []string{"states", "towns", "meta", "never-stored"} {
		for _, at := range []time.Duration{2 * time.Hour, 23 * time.Hour, 25 * time.Hour} {
			want, wantOK := original.Lookup(key, testNow.Add(at))
			got, gotOK := restored.Lookup(key, testNow.Add(at))
			require.Equal(t, wantOK, gotOK, "key %s at +%v", key, at)
			if wantOK {
				assert.Equal(t, want.ETag, got.ETag)
				assert.Equal(t, string(want.Result), string(got.Result))
				assert.True(t, want.Expires.Equal(got.Expires))
			}
		}
	}
}

func TestStore_Persist_DropsExpired(t *testing.T) {
	ctx := context.Background()
	p := &memPersister{}

	store := newTestStore()
	store.Put("fresh", "", json.RawMessage(`[]`), testNow, DefaultTTL)
	store.Put("stale", "", json.RawMessage(`[]`), testNow.Add(-48*time.Hour), DefaultTTL)

	require.NoError(t, store.Persist(ctx, p, testNow))
	require.Len(t, p.snap.Entries, 1)
	assert.Equal(t, "fresh", p.snap.Entries[0].Key)
	assert.Equal(t, 1, store.Len())
}

func TestStore_Persist_Error(t *testing.T) {
	cause := errors.New("disk full")
	p := &memPersister{saveErr: cause}

	store := newTestStore()
	store.Put("k", "", json.RawMessage(`[]`), testNow, DefaultTTL)

	err := store.Persist(context.Background(), p, testNow)
	require.Error(t, err)

	var perr *PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "save", perr.Op)
	assert.Equal(t, "memory", perr.Location)
	assert.ErrorIs(t, err, cause)
}

func TestStore_Load_MissingIsEmpty(t *testing.T) {
	store := newTestStore()
	store.Put("k", "", json.RawMessage(`[]`), testNow, DefaultTTL)

	require.NoError(t, store.Load(context.Background(), &memPersister{}, testNow))
	assert.Equal(t, 0, store.Len())
}

func TestStore_Load_CorruptIsEmpty(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{name: "garbage", data: []byte("not json at all")},
		{name: "truncated", data: []byte(`{"version":1,"entries":[{"key":`)},
		{name: "wrong version", data: []byte(`{"version":99,"entries":[]}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStore()
			err := store.Load(context.Background(), &memPersister{data: tt.data}, testNow)
			require.NoError(t, err)
			assert.Equal(t, 0, store.Len())
		})
	}
}

func TestStore_Load_BackendError(t *testing.T) {
	cause := errors.New("connection refused")
	store := newTestStore()

	err := store.Load(context.Background(), &memPersister{loadErr: cause}, testNow)
	require.Error(t, err)

	var perr *PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "load", perr.Op)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 0, store.Len())
}

func TestStore_Load_DropsExpired(t *testing.T) {
	ctx := context.Background()
	p := &memPersister{}

	store := newTestStore()
	store.Put("short", "", json.RawMessage(`[]`), testNow, time.Hour)
	store.Put("long", "", json.RawMessage(`[]`), testNow, DefaultTTL)
	require.NoError(t, store.Persist(ctx, p, testNow))

	restored := newTestStore()
	require.NoError(t, restored.Load(ctx, p, testNow.Add(2*time.Hour)))
	assert.Equal(t, 1, restored.Len())
}
