package shellicon

import (
	"database/sql"
	"fmt"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const schemaVersion = 1

const schema = `
CREATE TABLE IF NOT EXISTS icons (
    key         TEXT PRIMARY KEY,
    png         BLOB NOT NULL,
    resolved_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS meta (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

// OpenDB opens (or creates) the icon database inside the given data
// directory.
func OpenDB(dataDir string) (*sql.DB, error) {
	return openDBAt(filepath.Join(dataDir, "icons.db"))
}

// openDBAt opens the database at the exact path. Useful for testing.
func openDBAt(dbPath string) (*sql.DB, error) {
	l := sub("db")
	l.Info("opening icon database", "path", dbPath)

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open icon db: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	l.Debug("PRAGMA journal_mode=WAL")

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	l.Debug("PRAGMA busy_timeout=5000")

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

func migrate(db *sql.DB) error {
	l := sub("db")
	var version int
	err := db.QueryRow("SELECT value FROM meta WHERE key = 'schema_version'").Scan(&version)
	if err != nil {
		// meta table doesn't exist or no row — fresh database
		if _, execErr := db.Exec(schema); execErr != nil {
			return fmt.Errorf("create schema: %w", execErr)
		}
		_, execErr := db.Exec("INSERT INTO meta (key, value) VALUES ('schema_version', ?)", schemaVersion)
		if execErr != nil {
			return fmt.Errorf("set schema version: %w", execErr)
		}
		l.Info("schema created", "version", schemaVersion)
		return nil
	}

	if version != schemaVersion {
		// No migrations yet: stale caches are cheap to rebuild.
		l.Info("schema version mismatch, resetting icon cache", "found", version, "want", schemaVersion)
		if _, err := db.Exec("DROP TABLE IF EXISTS icons; DROP TABLE IF EXISTS meta"); err != nil {
			return fmt.Errorf("drop old schema: %w", err)
		}
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("recreate schema: %w", err)
		}
		if _, err := db.Exec("INSERT INTO meta (key, value) VALUES ('schema_version', ?)", schemaVersion); err != nil {
			return fmt.Errorf("set schema version: %w", err)
		}
	}

	return nil
}
