package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/covenant/internal/harness"
	"github.com/roach88/covenant/internal/store"
	"github.com/roach88/covenant/internal/trace"
)

// runOptions pins the run IDs a run command hands out.
func runOptions(opts *RootOptions, ids ...string) *RunOptions {
	return &RunOptions{RootOptions: opts, RunIDs: trace.NewFixedGenerator(ids...)}
}

func TestRunScenario(t *testing.T) {
	out, err := execute(t, "run", filepath.Join(scenariosDir, "divide.yaml"))
	require.NoError(t, err)

	assert.Contains(t, out, "Scenario: divide (run test-run-default)")
	assert.Contains(t, out, `precondition "b is nonzero"`)
	assert.Contains(t, out, "Trace: 10 event(s)")
	assert.Contains(t, out, "✓ Scenario passed")
}

func TestRunScenarioJSON(t *testing.T) {
	out, err := execute(t, "run", filepath.Join(scenariosDir, "binding.yaml"), "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string         `json:"status"`
		Data   harness.Result `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Pass)
	assert.Equal(t, harness.OutcomeBinding, resp.Data.Steps[0].Outcome)
	assert.Equal(t, "ARITY_MISMATCH", resp.Data.Steps[0].BindingKind)
}

func TestRunScenarioMetrics(t *testing.T) {
	out, err := execute(t, "run", filepath.Join(scenariosDir, "divide.yaml"), "--metrics")
	require.NoError(t, err)
	assert.Contains(t, out, `covenant_violations_total{kind="precondition"} 1`)
	assert.Contains(t, out, `covenant_checks_total{outcome="ok",stage="body"} 3`)
}

func TestRunScenarioDisabledFails(t *testing.T) {
	// divide.yaml expects violations that a disabled run never raises.
	out, err := execute(t, "run", filepath.Join(scenariosDir, "divide.yaml"), "--disable")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Scenario failed")
	assert.Contains(t, out, "expected outcome precondition, got error")
}

func TestRunScenarioRecordsToDatabase(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")

	cmd := newRunCommand(runOptions(&RootOptions{Format: "text"}, "run-1"))
	_, err := executeCommand(t, cmd, filepath.Join(scenariosDir, "account.yaml"), "--db", db)
	require.NoError(t, err)

	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()

	run, err := st.ReadRun(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, "account", run.Name)
	assert.True(t, run.Passed)
	assert.Positive(t, run.EventCount)
}

func TestRunScenarioDatabaseGetsUniqueRunIDs(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")
	path := filepath.Join(scenariosDir, "divide.yaml")

	_, err := execute(t, "run", path, "--db", db)
	require.NoError(t, err)
	_, err = execute(t, "run", path, "--db", db)
	require.NoError(t, err)

	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()

	runs, err := st.ListRuns(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.NotEqual(t, runs[0].ID, runs[1].ID)
}

func TestRunMissingScenario(t *testing.T) {
	_, err := execute(t, "run", "/nonexistent/scenario.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to load scenario")
}
