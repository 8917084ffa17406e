package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/covenant/internal/trace"
)

// recordRun runs a demo scenario into db under runID.
func recordRun(t *testing.T, db, scenario, runID string) {
	t.Helper()
	cmd := newRunCommand(runOptions(&RootOptions{Format: "text"}, runID))
	_, err := executeCommand(t, cmd, filepath.Join(scenariosDir, scenario), "--db", db)
	require.NoError(t, err)
}

func TestTraceListRuns(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")
	recordRun(t, db, "divide.yaml", "run-a")
	recordRun(t, db, "account.yaml", "run-b")

	out, err := execute(t, "trace", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ run-a  divide")
	assert.Contains(t, out, "✓ run-b  account")
}

func TestTraceEmptyDatabase(t *testing.T) {
	out, err := execute(t, "trace", "--db", filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	assert.Contains(t, out, "No runs recorded.")
}

func TestTraceRunEvents(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")
	recordRun(t, db, "divide.yaml", "run-a")

	out, err := execute(t, "trace", "--db", db, "--run", "run-a", "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   TraceResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "divide", resp.Data.Run.Name)
	require.Len(t, resp.Data.Events, 10)
	assert.Equal(t, TraceStats{Total: 10, OK: 8, Failed: 2}, resp.Data.Stats)

	for i, e := range resp.Data.Events {
		assert.Equal(t, int64(i+1), e.Seq)
	}
}

func TestTraceFailuresAndTarget(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")
	recordRun(t, db, "account.yaml", "run-b")

	out, err := execute(t, "trace", "--db", db, "--run", "run-b", "--failures", "--format", "json")
	require.NoError(t, err)
	var failures struct {
		Data TraceResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &failures))
	for _, e := range failures.Data.Events {
		assert.NotEqual(t, "ok", e.Outcome)
	}
	assert.Equal(t, failures.Data.Stats.Total, failures.Data.Stats.Failed)

	out, err = execute(t, "trace", "--db", db, "--run", "run-b", "--target", "Account.Withdraw")
	require.NoError(t, err)
	assert.Contains(t, out, "Account.Withdraw")
	assert.NotContains(t, out, "Account.Deposit")
	assert.Contains(t, out, "Stats: 2 event(s), 1 ok, 1 failed, 0 error(s)")
}

func TestTraceUnknownRun(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")
	recordRun(t, db, "divide.yaml", "run-a")

	_, err := execute(t, "trace", "--db", db, "--run", "nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestFilterTarget(t *testing.T) {
	events := []trace.Event{{Target: "a"}, {Target: "b"}, {Target: "a"}}
	assert.Len(t, filterTarget(events, "a"), 2)
	assert.Len(t, filterTarget(events, ""), 3)
	assert.Empty(t, filterTarget(events, "c"))
	assert.NotNil(t, filterTarget(events, "c"))
}
