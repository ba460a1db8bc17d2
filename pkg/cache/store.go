package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Store holds cached MET results in memory.
// All methods are safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*CacheEntry
	logger  zerolog.Logger
}

// NewStore creates an empty store.
func NewStore(logger zerolog.Logger) *Store {
	return &Store{
		entries: make(map[string]*CacheEntry),
		logger:  logger,
	}
}

// Lookup returns the entry stored under key if it is still fresh at now.
// An expired entry is removed and reported as a miss.
func (s *Store) Lookup(key string, now time.Time) (*CacheEntry, bool) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		CacheMisses.WithLabelValues("absent").Inc()
		s.logger.Debug().Str("key", key).Msg("Cache miss")
		return nil, false
	}

	if entry.IsExpired(now) {
		s.mu.Lock()
		// Re-check: a concurrent Put may have replaced the entry.
		if current, ok := s.entries[key]; ok && current.IsExpired(now) {
			delete(s.entries, key)
			CacheEntries.Set(float64(len(s.entries)))
		}
		s.mu.Unlock()

		CacheMisses.WithLabelValues("expired").Inc()
		s.logger.Debug().
			Str("key", key).
			Time("expires", entry.Expires).
			Msg("Cache entry expired")
		return nil, false
	}

	CacheHits.Inc()
	s.logger.Debug().
		Str("key", key).
		Dur("ttl", entry.TTL(now)).
		Msg("Cache hit")
	return entry.clone(), true
}

// Put stores result under key, replacing any previous entry, and returns
// the bytes it stored. The entry expires at now+ttl. A non-positive ttl or
// a result that is not valid JSON stores nothing and reports false.
func (s *Store) Put(key, etag string, result json.RawMessage, now time.Time, ttl time.Duration) (json.RawMessage, bool) {
	if ttl <= 0 {
		return nil, false
	}

	// Stored compact so a persisted round trip is byte-identical.
	var compact bytes.Buffer
	if err := json.Compact(&compact, result); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("Refusing to cache invalid JSON")
		return nil, false
	}
	stored := json.RawMessage(compact.Bytes())

	entry := &CacheEntry{
		Key:      key,
		ETag:     etag,
		Result:   stored,
		Expires:  now.Add(ttl),
		CachedAt: now,
	}

	s.mu.Lock()
	s.entries[key] = entry
	CacheEntries.Set(float64(len(s.entries)))
	s.mu.Unlock()

	s.logger.Debug().
		Str("key", key).
		Str("etag", etag).
		Dur("ttl", ttl).
		Msg("Cached result")
	return append(json.RawMessage(nil), stored...), true
}

// Prune removes every entry that is expired at now and returns how many
// were removed. Pruning an empty or already-pruned store is a no-op.
func (s *Store) Prune(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, entry := range s.entries {
		if entry.IsExpired(now) {
			delete(s.entries, key)
			removed++
		}
	}
	CacheEntries.Set(float64(len(s.entries)))

	if removed > 0 {
		s.logger.Debug().Int("removed", removed).Int("remaining", len(s.entries)).Msg("Pruned cache")
	}
	return removed
}

// Len returns the number of entries held, including any not yet pruned.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Snapshot returns the entries that are fresh at now, ordered by key.
func (s *Store) Snapshot(now time.Time) *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := &Snapshot{
		Version: SnapshotVersion,
		SavedAt: now,
		Entries: make([]CacheEntry, 0, len(s.entries)),
	}
	for _, entry := range s.entries {
		if !entry.IsExpired(now) {
			snap.Entries = append(snap.Entries, *entry)
		}
	}
	sort.Slice(snap.Entries, func(i, j int) bool {
		return snap.Entries[i].Key < snap.Entries[j].Key
	})
	return snap
}

// Restore replaces the store contents with the entries of snap that are
// fresh at now and returns how many were kept.
func (s *Store) Restore(snap *Snapshot, now time.Time) int {
	entries := make(map[string]*CacheEntry)
	if snap != nil {
		for i := range snap.Entries {
			entry := snap.Entries[i]
			if entry.Key == "" || entry.IsExpired(now) {
				continue
			}
			entries[entry.Key] = &entry
		}
	}

	s.mu.Lock()
	s.entries = entries
	CacheEntries.Set(float64(len(entries)))
	s.mu.Unlock()

	return len(entries)
}

// Load hydrates the store from p, dropping entries expired at now.
//
// A missing or corrupt snapshot leaves the store empty and is not an error.
// Any other failure (e.g. the backend is unreachable) also leaves the store
// empty and is returned so the caller can decide whether to log or abort.
func (s *Store) Load(ctx context.Context, p Persister, now time.Time) error {
	snap, err := p.Load(ctx)
	switch {
	case errors.Is(err, ErrSnapshotNotFound):
		s.logger.Debug().Str("location", p.Location()).Msg("No cache snapshot, starting empty")
		s.Restore(nil, now)
		return nil
	case errors.Is(err, ErrCorruptSnapshot):
		PersistenceErrors.WithLabelValues("load").Inc()
		s.logger.Warn().Err(err).Str("location", p.Location()).Msg("Discarding corrupt cache snapshot")
		s.Restore(nil, now)
		return nil
	case err != nil:
		PersistenceErrors.WithLabelValues("load").Inc()
		s.Restore(nil, now)
		return &PersistenceError{Op: "load", Location: p.Location(), Err: err}
	}

	kept := s.Restore(snap, now)
	s.logger.Info().
		Str("location", p.Location()).
		Int("entries", kept).
		Int("discarded", len(snap.Entries)-kept).
		Msg("Loaded cache snapshot")
	return nil
}

// Persist prunes the store and writes the fresh entries to p.
// Failures are returned as *PersistenceError.
func (s *Store) Persist(ctx context.Context, p Persister, now time.Time) error {
	s.Prune(now)
	snap := s.Snapshot(now)

	if err := p.Save(ctx, snap); err != nil {
		PersistenceErrors.WithLabelValues("save").Inc()
		s.logger.Error().Err(err).Str("location", p.Location()).Msg("Failed to persist cache")
		return &PersistenceError{Op: "save", Location: p.Location(), Err: err}
	}

	s.logger.Info().
		Str("location", p.Location()).
		Int("entries", len(snap.Entries)).
		Msg("Persisted cache snapshot")
	return nil
}
