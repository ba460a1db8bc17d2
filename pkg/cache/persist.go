package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// SnapshotVersion is the persisted format version. Snapshots written with
// any other version are treated as corrupt.
const SnapshotVersion = 1

var (
	// ErrSnapshotNotFound indicates the persistence backend holds no snapshot
	ErrSnapshotNotFound = errors.New("cache snapshot not found")

	// ErrCorruptSnapshot indicates the persisted snapshot could not be decoded
	ErrCorruptSnapshot = errors.New("corrupt cache snapshot")
)

// Persister saves and restores cache snapshots.
type Persister interface {
	// Load returns the last saved snapshot. It returns an error wrapping
	// ErrSnapshotNotFound when nothing was saved yet and ErrCorruptSnapshot
	// when the stored data cannot be decoded.
	Load(ctx context.Context) (*Snapshot, error)

	// Save replaces the stored snapshot.
	Save(ctx context.Context, snap *Snapshot) error

	// Location describes where snapshots are kept (for logs and errors).
	Location() string
}

// Snapshot is the persisted form of a Store.
type Snapshot struct {
	Version int          `json:"version"`
	SavedAt time.Time    `json:"saved_at"`
	Entries []CacheEntry `json:"entries"`
}

// PersistenceError reports a failure to load or save a cache snapshot.
type PersistenceError struct {
	Op       string
	Location string
	Err      error
}

// Error implements the error interface.
func (e *PersistenceError) Error() string {
	return fmt.Sprintf("cache %s %s: %v", e.Op, e.Location, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// EncodeSnapshot serializes snap as JSON.
func EncodeSnapshot(snap *Snapshot) ([]byte, error) {
	if snap == nil {
		return nil, fmt.Errorf("snapshot cannot be nil")
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshot parses data written by EncodeSnapshot.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	if snap.Version != SnapshotVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorruptSnapshot, snap.Version)
	}
	return &snap, nil
}

// latestExpiry returns the furthest expiry among the snapshot entries.
func (s *Snapshot) latestExpiry() time.Time {
	var latest time.Time
	for _, entry := range s.Entries {
		if entry.Expires.After(latest) {
			latest = entry.Expires
		}
	}
	return latest
}
