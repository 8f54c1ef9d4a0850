package probecache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"squeeze/internal/engine"
)

// Key identifies one version of a local file.
type Key struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// KeyFor stats path and builds its cache key.
func KeyFor(path string) (Key, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Key{}, fmt.Errorf("resolve %q: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return Key{}, err
	}
	if info.IsDir() {
		return Key{}, fmt.Errorf("%s is a directory", abs)
	}
	return Key{Path: abs, Size: info.Size(), ModTime: info.ModTime()}, nil
}

// Get returns cached metadata for key. The bool is false on a miss.
func (s *Store) Get(ctx context.Context, key Key) (engine.Metadata, bool, error) {
	var raw string
	err := retryOnBusy(ctx, func() error {
		return s.db.QueryRowContext(ctx,
			`SELECT metadata FROM probe_entries WHERE path = ? AND size_bytes = ? AND mtime_ns = ?`,
			key.Path, key.Size, key.ModTime.UnixNano(),
		).Scan(&raw)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return engine.Metadata{}, false, nil
	}
	if err != nil {
		return engine.Metadata{}, false, fmt.Errorf("read probe entry: %w", err)
	}
	var meta engine.Metadata
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return engine.Metadata{}, false, fmt.Errorf("decode probe entry: %w", err)
	}
	return meta, true, nil
}

// Put stores meta under key and drops entries for older versions of the
// same path.
func (s *Store) Put(ctx context.Context, key Key, meta engine.Metadata) error {
	payload, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encode probe entry: %w", err)
	}
	mtime := key.ModTime.UnixNano()
	if _, err := s.exec(ctx,
		`DELETE FROM probe_entries WHERE path = ? AND (size_bytes <> ? OR mtime_ns <> ?)`,
		key.Path, key.Size, mtime,
	); err != nil {
		return fmt.Errorf("drop stale probe entries: %w", err)
	}
	if _, err := s.exec(ctx,
		`INSERT INTO probe_entries (path, size_bytes, mtime_ns, metadata, cached_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(path, size_bytes, mtime_ns) DO UPDATE SET
		   metadata = excluded.metadata,
		   cached_at = excluded.cached_at`,
		key.Path, key.Size, mtime, string(payload), s.now().UnixNano(),
	); err != nil {
		return fmt.Errorf("write probe entry: %w", err)
	}
	return nil
}

// Prune deletes entries cached more than olderThan ago and reports how many
// were removed. A non-positive olderThan keeps everything.
func (s *Store) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, nil
	}
	cutoff := s.now().Add(-olderThan).UnixNano()
	res, err := s.exec(ctx, `DELETE FROM probe_entries WHERE cached_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune probe cache: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune probe cache: %w", err)
	}
	return n, nil
}

// Count returns the number of cached entries.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM probe_entries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count probe entries: %w", err)
	}
	return n, nil
}
