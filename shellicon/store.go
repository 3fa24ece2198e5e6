package shellicon

import (
	"database/sql"
	"fmt"
	"log/slog"
)

// Store persists resolved icons as PNG blobs so a fresh process starts
// warm. It is a best-effort layer under the in-memory cache: every error
// is surfaced to the resolver, which logs and carries on.
type Store struct {
	db *sql.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Save writes (or overwrites) the icon for key.
func (s *Store) Save(key CacheKey, ic *Icon) error {
	if key.IsZero() || ic == nil {
		return nil
	}
	data, err := ic.PNG()
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
		INSERT INTO icons (key, png, resolved_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			png         = excluded.png,
			resolved_at = excluded.resolved_at
	`, key.String(), data, nowFunc().UnixNano())
	if err != nil {
		return fmt.Errorf("save icon: %w", err)
	}
	if logEnabled(slog.LevelDebug) {
		sub("store").Debug("Save", "key", key.String(), "bytes", len(data))
	}
	return nil
}

// Load retrieves the icon stored for key, or (nil, nil) when absent.
func (s *Store) Load(key CacheKey) (*Icon, error) {
	var data []byte
	err := s.db.QueryRow(`SELECT png FROM icons WHERE key = ?`, key.String()).Scan(&data)
	if err == sql.ErrNoRows {
		if logEnabled(slog.LevelDebug) {
			sub("store").Debug("Load", "key", key.String(), "found", false)
		}
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load icon: %w", err)
	}
	ic, err := decodeIconPNG(data)
	if err != nil {
		// Corrupt blob: drop it so the next resolution re-probes and
		// overwrites.
		sub("store").Warn("corrupt icon blob, deleting", "key", key.String(), "err", err)
		s.Delete(key) //nolint:errcheck
		return nil, nil
	}
	return ic, nil
}

// Delete removes the stored icon for key.
func (s *Store) Delete(key CacheKey) error {
	_, err := s.db.Exec(`DELETE FROM icons WHERE key = ?`, key.String())
	if err != nil {
		return fmt.Errorf("delete icon: %w", err)
	}
	return nil
}

// Count returns the number of persisted icons.
func (s *Store) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM icons`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count icons: %w", err)
	}
	return n, nil
}

// Keys lists all persisted cache keys, for inspection tooling.
func (s *Store) Keys() ([]string, error) {
	rows, err := s.db.Query(`SELECT key FROM icons ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list icon keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scan icon key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
