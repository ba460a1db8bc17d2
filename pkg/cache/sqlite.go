package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists snapshots in an SQLite database, one row per entry.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// OpenSQLiteStore opens (or creates) the database at path and initializes
// its schema.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	s := &SQLiteStore{db: db, path: path}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init sqlite schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS cache_meta (
			name TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS cache_entries (
			key TEXT PRIMARY KEY,
			etag TEXT NOT NULL DEFAULT '',
			result BLOB NOT NULL,
			expires TEXT NOT NULL,
			cached_at TEXT NOT NULL
		);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Location returns the database path.
func (s *SQLiteStore) Location() string {
	return "sqlite:" + s.path
}

// Load reads every stored entry.
func (s *SQLiteStore) Load(ctx context.Context) (*Snapshot, error) {
	var version, savedAt string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM cache_meta WHERE name = 'version'`).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read version: %w", err)
	}
	if v, err := strconv.Atoi(version); err != nil || v != SnapshotVersion {
		return nil, fmt.Errorf("%w: unsupported version %q", ErrCorruptSnapshot, version)
	}

	snap := &Snapshot{Version: SnapshotVersion}
	err = s.db.QueryRowContext(ctx, `SELECT value FROM cache_meta WHERE name = 'saved_at'`).Scan(&savedAt)
	if err == nil {
		snap.SavedAt, _ = time.Parse(time.RFC3339Nano, savedAt)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT key, etag, result, expires, cached_at FROM cache_entries ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			entry             CacheEntry
			result            []byte
			expires, cachedAt string
		)
		if err := rows.Scan(&entry.Key, &entry.ETag, &result, &expires, &cachedAt); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
		}
		if entry.Expires, err = time.Parse(time.RFC3339Nano, expires); err != nil {
			return nil, fmt.Errorf("%w: entry %q expires: %v", ErrCorruptSnapshot, entry.Key, err)
		}
		if entry.CachedAt, err = time.Parse(time.RFC3339Nano, cachedAt); err != nil {
			return nil, fmt.Errorf("%w: entry %q cached_at: %v", ErrCorruptSnapshot, entry.Key, err)
		}
		entry.Result = result
		snap.Entries = append(snap.Entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}

	return snap, nil
}

// Save replaces all stored entries with the snapshot in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, snap *Snapshot) (err error) {
	if snap == nil {
		return fmt.Errorf("snapshot cannot be nil")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM cache_entries`); err != nil {
		return fmt.Errorf("clear entries: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO cache_entries(key, etag, result, expires, cached_at) VALUES(?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, entry := range snap.Entries {
		if _, err = stmt.ExecContext(ctx,
			entry.Key,
			entry.ETag,
			[]byte(entry.Result),
			entry.Expires.UTC().Format(time.RFC3339Nano),
			entry.CachedAt.UTC().Format(time.RFC3339Nano),
		); err != nil {
			return fmt.Errorf("insert %q: %w", entry.Key, err)
		}
	}

	meta := map[string]string{
		"version":  strconv.Itoa(SnapshotVersion),
		"saved_at": snap.SavedAt.UTC().Format(time.RFC3339Nano),
	}
	for name, value := range meta {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO cache_meta(name, value) VALUES(?, ?) ON CONFLICT(name) DO UPDATE SET value = excluded.value`,
			name, value,
		); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
