package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/covenant/internal/harness"
	"github.com/roach88/covenant/internal/store"
	"github.com/roach88/covenant/internal/testutil"
	"github.com/roach88/covenant/internal/trace"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	RunID    string
}

// ReplayResult compares a recorded run with a fresh execution.
type ReplayResult struct {
	RunID         string `json:"run_id"`
	Scenario      string `json:"scenario"`
	Recorded      int    `json:"recorded"`
	Replayed      int    `json:"replayed"`
	Deterministic bool   `json:"deterministic"`

	// FirstDiff is the seq of the first differing event, 0 if none.
	FirstDiff int64 `json:"first_diff,omitempty"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay <scenario.yaml>",
		Short: "Re-run a scenario and verify it reproduces a recorded run",
		Long: `Re-run a scenario under the run ID of a recorded run and compare the
contract events. Event IDs hash every field, so matching IDs mean the
replay made the same checks with the same outcomes in the same order.

Exit codes:
  0 - The replay matches the recorded run
  1 - The traces differ
  2 - Command error (database not found, unknown run, etc.)

Examples:
  covenant replay ./testdata/scenarios/account.yaml --db ./runs.db --run <id>`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "recorded run ID (required)")
	_ = cmd.MarkFlagRequired("run")

	return cmd
}

func runReplay(opts *ReplayOptions, path string, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	run, err := st.ReadRun(ctx, opts.RunID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}
	recorded, err := st.ReadEvents(ctx, opts.RunID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read events", err)
	}

	scenario, err := harness.LoadScenario(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}
	if opts.Disable {
		scenario.Disabled = true
	}
	if scenario.Name != run.Name {
		formatter.VerboseLog("scenario %s replays run of %s", scenario.Name, run.Name)
	}

	// No WithStore: the replay records into a throwaway in-memory store.
	result, err := harness.Run(scenario,
		harness.WithRunIDGenerator(testutil.NewFixedRunIDGenerator(run.ID)),
		harness.WithLogger(newLogger(opts.RootOptions, cmd.ErrOrStderr())),
	)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to replay scenario", err)
	}

	replay := ReplayResult{
		RunID:    run.ID,
		Scenario: scenario.Name,
		Recorded: len(recorded),
		Replayed: len(result.Trace),
	}
	replay.FirstDiff = firstDifference(recorded, result.Trace)
	replay.Deterministic = replay.FirstDiff == 0

	var cliErr *CLIError
	if !replay.Deterministic {
		cliErr = &CLIError{Code: "E_DETERMINISM", Message: "determinism verification failed"}
	}
	if formatter.JSON() {
		if err := formatter.Respond(replay, cliErr); err != nil {
			return err
		}
	} else {
		writeReplayText(formatter.Writer, replay)
	}
	if cliErr != nil {
		return NewExitError(ExitFailure, cliErr.Message)
	}
	return nil
}

// firstDifference returns the seq at which two traces first diverge, or 0
// when they are identical.
func firstDifference(a, b []trace.Event) int64 {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i].ID != b[i].ID {
			return a[i].Seq
		}
	}
	switch {
	case len(a) > len(b):
		return a[len(b)].Seq
	case len(b) > len(a):
		return b[len(a)].Seq
	}
	return 0
}

func writeReplayText(w io.Writer, r ReplayResult) {
	fmt.Fprintf(w, "Replay of %s (%s)\n", r.RunID, r.Scenario)
	fmt.Fprintf(w, "  Recorded: %d event(s)\n", r.Recorded)
	fmt.Fprintf(w, "  Replayed: %d event(s)\n", r.Replayed)
	if r.Deterministic {
		fmt.Fprintln(w, "✓ Replay matches the recorded run")
		return
	}
	fmt.Fprintf(w, "✗ Traces diverge at seq %d\n", r.FirstDiff)
}
