package db

import (
	"fmt"
	"time"
)

// AttemptRecord is the durable form of one completed round. ElapsedMs is
// nil for jump starts.
type AttemptRecord struct {
	SessionCode string
	ClientID    string
	ElapsedMs   *int
	JumpStart   bool
	RecordedAt  time.Time
}

func (d *DB) RecordAttempt(a AttemptRecord) error {
	_, err := d.conn.Exec(`
		INSERT INTO attempts (session_code, client_id, elapsed_ms, jump_start, recorded_at)
		VALUES ($1, $2, $3, $4, $5)
	`, a.SessionCode, a.ClientID, a.ElapsedMs, a.JumpStart, a.RecordedAt)
	if err != nil {
		return fmt.Errorf("recording attempt: %w", err)
	}
	return nil
}

func (d *DB) BatchRecordAttempts(records []AttemptRecord) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO attempts (session_code, client_id, elapsed_ms, jump_start, recorded_at)
		VALUES ($1, $2, $3, $4, $5)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, a := range records {
		if _, err := stmt.Exec(a.SessionCode, a.ClientID, a.ElapsedMs, a.JumpStart, a.RecordedAt); err != nil {
			return fmt.Errorf("recording attempt in batch: %w", err)
		}
	}

	return tx.Commit()
}
