package cache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"
)

// SnapshotFileName is the file FileStore keeps its snapshot in.
const SnapshotFileName = "cuaca.json"

// FileStore persists snapshots as a JSON file inside a directory.
type FileStore struct {
	dir string
}

// NewFileStore returns a FileStore writing to dir/cuaca.json. The directory
// is created on the first Save.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("cache directory is required")
	}
	return &FileStore{dir: dir}, nil
}

// Location returns the snapshot file path.
func (f *FileStore) Location() string {
	return filepath.Join(f.dir, SnapshotFileName)
}

// Load reads the snapshot file.
func (f *FileStore) Load(ctx context.Context) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(f.Location())
	if err != nil {
		// A missing directory, or a path component that is not a
		// directory, just means nothing was saved there yet.
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR) {
			return nil, ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrCorruptSnapshot)
	}

	return DecodeSnapshot(data)
}

// Save writes the snapshot to a temporary file and renames it into place,
// so a crash mid-write never leaves a truncated snapshot behind.
func (f *FileStore) Save(ctx context.Context, snap *Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := EncodeSnapshot(snap)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(f.dir, 0o700); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	path := f.Location()
	tmpPath := fmt.Sprintf("%s.%s.tmp", path, uuid.NewString())
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename snapshot: %w", err)
	}
	return nil
}
