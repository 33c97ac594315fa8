// Package db provides the SQLite connection and schema for huepreset.
package db

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the SQLite database connection
type DB struct {
	*sql.DB
}

// Open opens the database and initializes the schema
func Open(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &DB{db}, nil
}

// initSchema creates all required tables
func initSchema(db *sql.DB) error {
	// Apply history - one row per preset apply outcome
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS apply_ledger (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			event_type TEXT NOT NULL,
			timestamp INTEGER NOT NULL,
			run_id TEXT NOT NULL,
			preset TEXT,
			lights TEXT,
			error TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_apply_ledger_ts ON apply_ledger(timestamp);
		CREATE INDEX IF NOT EXISTS idx_apply_ledger_run ON apply_ledger(run_id);
	`)
	if err != nil {
		return fmt.Errorf("failed to create apply_ledger table: %w", err)
	}

	return nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}
