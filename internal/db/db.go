package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hpungsan/ghost/internal/config"
	_ "modernc.org/sqlite"
)

// CurrentSchemaVersion is the latest schema version.
// Bump this when adding migrations.
const CurrentSchemaVersion = 2

// FileName is the journal database file inside the base directory.
const FileName = "ghost.db"

// Init initializes the SQLite capture journal at baseDir/ghost.db.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.ghost.
func Init(baseDir string) (*sql.DB, error) {
	// Create base directory with restricted permissions
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	// Explicit chmod (best-effort, may not work on all platforms)
	_ = os.Chmod(baseDir, 0700)

	// Pragmas in the connection string apply to every pooled connection.
	dbPath := filepath.Join(baseDir, FileName)
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := verifyWALMode(db); err != nil {
		db.Close()
		return nil, err
	}

	// Run migrations (this creates the file if it doesn't exist)
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	// Set file permissions after file exists (best-effort)
	_ = os.Chmod(dbPath, 0600)

	return db, nil
}

// ConfigurePool applies connection pool settings from config.
// Only sets limits if explicitly configured (non-zero values).
func ConfigurePool(db *sql.DB, cfg *config.Config) {
	if cfg == nil {
		return
	}
	if cfg.DBMaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	}
}

// migrate applies schema migrations based on user_version.
func migrate(db *sql.DB) error {
	version, err := GetUserVersion(db)
	if err != nil {
		return err
	}

	// Migration 0 -> 1: sessions and captures
	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS sessions (
		  id          TEXT PRIMARY KEY,
		  target_url  TEXT NOT NULL,
		  project_dir TEXT NOT NULL,
		  started_at  INTEGER NOT NULL,
		  ended_at    INTEGER
		);

		CREATE INDEX IF NOT EXISTS idx_sessions_started
		ON sessions(started_at DESC);

		CREATE TABLE IF NOT EXISTS captures (
		  id               TEXT PRIMARY KEY,
		  session_id       TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		  seq              INTEGER NOT NULL,
		  accessor         TEXT NOT NULL,
		  locator          TEXT NOT NULL,
		  strategy         TEXT NOT NULL,
		  action           TEXT NOT NULL,
		  wait             TEXT NOT NULL,
		  force            INTEGER NOT NULL DEFAULT 0,
		  multiple         INTEGER NOT NULL DEFAULT 0,
		  statement        TEXT NOT NULL,
		  page_object_path TEXT NOT NULL,
		  spec_path        TEXT NOT NULL,
		  created_at       INTEGER NOT NULL
		);

		CREATE UNIQUE INDEX IF NOT EXISTS idx_captures_session_seq
		ON captures(session_id, seq);
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("migration 1 failed: %w", err)
		}
		if err := SetUserVersion(db, 1); err != nil {
			return err
		}
	}

	// Migration 1 -> 2: accessor lookups across sessions
	if version < 2 {
		schema := `
		CREATE INDEX IF NOT EXISTS idx_captures_page_object_accessor
		ON captures(page_object_path, accessor);
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("migration 2 failed: %w", err)
		}
		if err := SetUserVersion(db, 2); err != nil {
			return err
		}
	}

	return nil
}

// verifyWALMode checks that WAL mode is active (set via connection string).
func verifyWALMode(db *sql.DB) error {
	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode;").Scan(&journalMode); err != nil {
		return fmt.Errorf("failed to verify journal mode: %w", err)
	}
	if journalMode != "wal" {
		return fmt.Errorf("expected WAL mode, got %s", journalMode)
	}
	return nil
}

// GetUserVersion returns the current schema version (user_version pragma).
func GetUserVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get user_version: %w", err)
	}
	return version, nil
}

// SetUserVersion sets the schema version (user_version pragma).
func SetUserVersion(db *sql.DB, version int) error {
	_, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", version))
	if err != nil {
		return fmt.Errorf("failed to set user_version: %w", err)
	}
	return nil
}
