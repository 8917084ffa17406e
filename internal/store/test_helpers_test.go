package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/covenant/internal/trace"
)

// createTestStore opens a store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestEvent builds an event with its content-addressed ID set.
func createTestEvent(t *testing.T, runID string, seq int64, outcome string) trace.Event {
	t.Helper()
	e := trace.Event{
		RunID:     runID,
		Seq:       seq,
		Target:    "divide",
		Stage:     "precondition",
		Condition: "b is nonzero",
		Outcome:   outcome,
	}
	id, err := trace.EventID(e)
	require.NoError(t, err)
	e.ID = id
	return e
}
