package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/covenant/internal/trace"
)

// ErrRunNotFound is returned when a run ID is unknown.
var ErrRunNotFound = errors.New("run not found")

// ReadRun returns the summary of run id.
func (s *Store) ReadRun(ctx context.Context, id string) (trace.Run, error) {
	var run trace.Run
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, passed, event_count FROM runs WHERE id = ?
	`, id).Scan(&run.ID, &run.Name, &run.Passed, &run.EventCount)
	if errors.Is(err, sql.ErrNoRows) {
		return trace.Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return trace.Run{}, fmt.Errorf("read run: %w", err)
	}
	return run, nil
}

// ListRuns returns every run ordered by ID. Run IDs are UUIDv7 in normal
// operation, so this is creation order.
func (s *Store) ListRuns(ctx context.Context) ([]trace.Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, passed, event_count FROM runs
		ORDER BY id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []trace.Run{}
	for rows.Next() {
		var run trace.Run
		if err := rows.Scan(&run.ID, &run.Name, &run.Passed, &run.EventCount); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadEvents returns the events of run id in sequence order.
// Returns an empty slice, not nil, when the run has no events.
func (s *Store) ReadEvents(ctx context.Context, runID string) ([]trace.Event, error) {
	return s.queryEvents(ctx, `
		SELECT id, run_id, seq, target, stage, condition, outcome, detail
		FROM events
		WHERE run_id = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, runID)
}

// ReadFailures returns the events of run id whose outcome was not ok.
func (s *Store) ReadFailures(ctx context.Context, runID string) ([]trace.Event, error) {
	return s.queryEvents(ctx, `
		SELECT id, run_id, seq, target, stage, condition, outcome, detail
		FROM events
		WHERE run_id = ? AND outcome != 'ok'
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, runID)
}

func (s *Store) queryEvents(ctx context.Context, query string, args ...any) ([]trace.Event, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []trace.Event{}
	for rows.Next() {
		var e trace.Event
		if err := rows.Scan(&e.ID, &e.RunID, &e.Seq, &e.Target, &e.Stage, &e.Condition, &e.Outcome, &e.Detail); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}
