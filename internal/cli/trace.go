package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/covenant/internal/store"
	"github.com/roach88/covenant/internal/trace"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	RunID    string
	Target   string // optional filter
	Failures bool   // only events whose outcome is not ok
}

// TraceResult holds the events of one run.
type TraceResult struct {
	Run    trace.Run     `json:"run"`
	Events []trace.Event `json:"events"`
	Stats  TraceStats    `json:"stats"`
}

// TraceStats counts the events shown by outcome.
type TraceStats struct {
	Total  int `json:"total"`
	OK     int `json:"ok"`
	Failed int `json:"failed"`
	Errors int `json:"errors"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show recorded runs and their contract events",
		Long: `Read runs recorded by "covenant run --db".

Without --run, lists every recorded run. With --run, shows that run's
contract events in sequence order.

Examples:
  covenant trace --db ./runs.db
  covenant trace --db ./runs.db --run <id>
  covenant trace --db ./runs.db --run <id> --target Account.Withdraw
  covenant trace --db ./runs.db --run <id> --failures --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run ID to show")
	cmd.Flags().StringVar(&opts.Target, "target", "", "only events for this target")
	cmd.Flags().BoolVar(&opts.Failures, "failures", false, "only failed checks")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	if opts.RunID == "" {
		return listRuns(ctx, st, formatter)
	}

	run, err := st.ReadRun(ctx, opts.RunID)
	if errors.Is(err, store.ErrRunNotFound) {
		_ = formatter.Error("E_NOT_FOUND", fmt.Sprintf("run %s not found", opts.RunID), nil)
		return WrapExitError(ExitCommandError, "run not found", err)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}

	var events []trace.Event
	if opts.Failures {
		events, err = st.ReadFailures(ctx, opts.RunID)
	} else {
		events, err = st.ReadEvents(ctx, opts.RunID)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read events", err)
	}

	result := TraceResult{Run: run, Events: filterTarget(events, opts.Target)}
	for _, e := range result.Events {
		result.Stats.Total++
		switch e.Outcome {
		case "ok":
			result.Stats.OK++
		case "failed":
			result.Stats.Failed++
		default:
			result.Stats.Errors++
		}
	}

	if formatter.JSON() {
		return formatter.Success(result)
	}
	writeTraceText(formatter.Writer, result, opts.Verbose)
	return nil
}

func listRuns(ctx context.Context, st *store.Store, f *OutputFormatter) error {
	runs, err := st.ListRuns(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}
	if f.JSON() {
		return f.Success(runs)
	}
	if len(runs) == 0 {
		fmt.Fprintln(f.Writer, "No runs recorded.")
		return nil
	}
	for _, r := range runs {
		status := "✓"
		if !r.Passed {
			status = "✗"
		}
		fmt.Fprintf(f.Writer, "%s %s  %-20s %d event(s)\n", status, r.ID, r.Name, r.EventCount)
	}
	return nil
}

func filterTarget(events []trace.Event, target string) []trace.Event {
	if target == "" {
		return events
	}
	kept := []trace.Event{}
	for _, e := range events {
		if e.Target == target {
			kept = append(kept, e)
		}
	}
	return kept
}

func writeTraceText(w io.Writer, result TraceResult, verbose bool) {
	fmt.Fprintf(w, "Run: %s (%s)\n", result.Run.ID, result.Run.Name)
	fmt.Fprintln(w)
	for _, e := range result.Events {
		writeEventLine(w, e)
		if verbose && e.Detail != "" {
			fmt.Fprintf(w, "      %s\n", e.Detail)
		}
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Stats: %d event(s), %d ok, %d failed, %d error(s)\n",
		result.Stats.Total, result.Stats.OK, result.Stats.Failed, result.Stats.Errors)
}
