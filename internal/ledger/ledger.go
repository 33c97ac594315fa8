// Package ledger provides an append-only history of preset applies.
package ledger

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of event in the ledger
type EventType string

const (
	EventPresetApplied EventType = "preset_applied"
	EventPresetFailed  EventType = "preset_failed"
)

// Entry represents a single apply outcome
type Entry struct {
	ID        int64
	EventType EventType
	Timestamp time.Time
	RunID     string
	Preset    string
	Lights    []string
	Error     string
}

// Ledger records apply outcomes in SQLite
type Ledger struct {
	db  *sql.DB
	now func() time.Time
}

// New creates a new Ledger using the provided database connection
func New(db *sql.DB) *Ledger {
	return &Ledger{db: db, now: time.Now}
}

// NewRunID returns a fresh identifier for one apply
func NewRunID() string {
	return uuid.NewString()
}

// Record appends the outcome of applying preset to lights.
// A nil applyErr is recorded as preset_applied, anything else as preset_failed.
func (l *Ledger) Record(runID, preset string, lights []string, applyErr error) error {
	eventType := EventPresetApplied
	var errText sql.NullString
	if applyErr != nil {
		eventType = EventPresetFailed
		errText = sql.NullString{String: applyErr.Error(), Valid: true}
	}

	if lights == nil {
		lights = []string{}
	}
	lightsJSON, err := json.Marshal(lights)
	if err != nil {
		return fmt.Errorf("failed to marshal lights: %w", err)
	}

	_, err = l.db.Exec(
		`INSERT INTO apply_ledger (event_type, timestamp, run_id, preset, lights, error) VALUES (?, ?, ?, ?, ?, ?)`,
		string(eventType), l.now().UTC().UnixMilli(), runID, preset, string(lightsJSON), errText,
	)
	if err != nil {
		return fmt.Errorf("failed to record apply: %w", err)
	}
	return nil
}

// Recent returns the newest entries first
func (l *Ledger) Recent(limit int) ([]*Entry, error) {
	rows, err := l.db.Query(`
		SELECT id, event_type, timestamp, run_id, preset, lights, error
		FROM apply_ledger
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEntries(rows)
}

// ByRun returns all entries recorded for a run id
func (l *Ledger) ByRun(runID string) ([]*Entry, error) {
	rows, err := l.db.Query(`
		SELECT id, event_type, timestamp, run_id, preset, lights, error
		FROM apply_ledger
		WHERE run_id = ?
		ORDER BY id
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEntries(rows)
}

// DeleteOlderThan removes entries older than the specified duration (retention policy)
func (l *Ledger) DeleteOlderThan(retention time.Duration) (int64, error) {
	cutoff := l.now().Add(-retention).UTC().UnixMilli()
	result, err := l.db.Exec(`DELETE FROM apply_ledger WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func scanEntries(rows *sql.Rows) ([]*Entry, error) {
	var entries []*Entry
	for rows.Next() {
		var entry Entry
		var preset, lights, errText sql.NullString
		var timestamp int64

		if err := rows.Scan(&entry.ID, &entry.EventType, &timestamp, &entry.RunID, &preset, &lights, &errText); err != nil {
			return nil, err
		}

		entry.Timestamp = time.UnixMilli(timestamp).UTC()
		entry.Preset = preset.String
		entry.Error = errText.String

		if lights.Valid && lights.String != "" {
			if err := json.Unmarshal([]byte(lights.String), &entry.Lights); err != nil {
				return nil, fmt.Errorf("failed to unmarshal lights: %w", err)
			}
		}

		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}
