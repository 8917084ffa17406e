package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/covenant/internal/trace"
)

// RecordRun writes run and its events in one transaction.
//
// Re-recording a run updates its summary; events already stored under the
// same ID are left untouched, so recording is idempotent.
func (s *Store) RecordRun(ctx context.Context, run trace.Run, events []trace.Event) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record run: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := writeRun(ctx, tx, run); err != nil {
		return err
	}
	for _, e := range events {
		if e.RunID != run.ID {
			return fmt.Errorf("record run: event %s belongs to run %q, not %q", e.ID, e.RunID, run.ID)
		}
		if err := writeEvent(ctx, tx, e); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("record run: commit: %w", err)
	}
	return nil
}

func writeRun(ctx context.Context, tx *sql.Tx, run trace.Run) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO runs (id, name, passed, event_count)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			passed = excluded.passed,
			event_count = excluded.event_count
	`, run.ID, run.Name, run.Passed, run.EventCount)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	return nil
}

func writeEvent(ctx context.Context, tx *sql.Tx, e trace.Event) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO events (id, run_id, seq, target, stage, condition, outcome, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, e.ID, e.RunID, e.Seq, e.Target, e.Stage, e.Condition, e.Outcome, e.Detail)
	if err != nil {
		return fmt.Errorf("write event seq=%d: %w", e.Seq, err)
	}
	return nil
}
