package cli

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/covenant/internal/harness"
	"github.com/roach88/covenant/internal/metrics"
	"github.com/roach88/covenant/internal/store"
	"github.com/roach88/covenant/internal/trace"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string
	Metrics  bool

	// RunIDs overrides the run ID generator (for testing). If nil, runs
	// recorded to a database get UUIDv7 IDs and other runs keep the
	// scenario's fixed ID.
	RunIDs trace.IDGenerator
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return newRunCommand(&RunOptions{RootOptions: rootOpts})
}

func newRunCommand(opts *RunOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Run one scenario and show its trace",
		Long: `Run a scenario file: declare the manifest's contracts, execute the
steps, and print each step's outcome and the contract trace.

With --db the run and its events are recorded in a SQLite database, to be
read back with "covenant trace" and checked with "covenant replay".

Examples:
  covenant run ./testdata/scenarios/divide.yaml
  covenant run ./testdata/scenarios/account.yaml --db ./runs.db
  covenant run ./testdata/scenarios/divide.yaml --metrics`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarioFile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "record the run in this SQLite database")
	cmd.Flags().BoolVar(&opts.Metrics, "metrics", false, "print check and violation counters after the run")

	return cmd
}

func runScenarioFile(opts *RunOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	scenario, err := harness.LoadScenario(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}
	if opts.Disable {
		scenario.Disabled = true
	}

	hopts := []harness.Option{harness.WithLogger(newLogger(opts.RootOptions, cmd.ErrOrStderr()))}
	if opts.RunIDs != nil {
		hopts = append(hopts, harness.WithRunIDGenerator(opts.RunIDs))
	}
	if opts.Database != "" {
		st, err := store.Open(opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer st.Close()
		hopts = append(hopts, harness.WithStore(st))
		if opts.RunIDs == nil && scenario.RunID == "" {
			hopts = append(hopts, harness.WithRunIDGenerator(trace.UUIDv7Generator{}))
		}
	}
	var reg *prometheus.Registry
	if opts.Metrics {
		reg = prometheus.NewRegistry()
		hopts = append(hopts, harness.WithRegisterer(reg))
	}

	result, err := harness.Run(scenario, hopts...)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to run scenario", err)
	}

	if formatter.JSON() {
		var cliErr *CLIError
		if !result.Pass {
			cliErr = &CLIError{Code: "E_SCENARIO_FAILED", Message: result.Errors[0]}
		}
		if err := formatter.Respond(jsonSafeResult(result), cliErr); err != nil {
			return err
		}
	} else {
		writeRunText(formatter, scenario, result)
		if reg != nil {
			fmt.Fprintln(formatter.Writer)
			if err := metrics.Write(formatter.Writer, reg); err != nil {
				return WrapExitError(ExitCommandError, "failed to write metrics", err)
			}
		}
	}

	if !result.Pass {
		return NewExitError(ExitFailure, fmt.Sprintf("scenario %s failed", scenario.Name))
	}
	return nil
}

func writeRunText(f *OutputFormatter, scenario *harness.Scenario, result *harness.Result) {
	w := f.Writer
	fmt.Fprintf(w, "Scenario: %s (run %s)\n", scenario.Name, result.RunID)
	for _, step := range result.Steps {
		fmt.Fprintf(w, "  %d. %-28s %s", step.Index, step.Action, step.Outcome)
		switch {
		case step.Condition != "":
			fmt.Fprintf(w, " %q", step.Condition)
		case step.BindingKind != "":
			fmt.Fprintf(w, " %s", step.BindingKind)
		case step.Result != nil:
			fmt.Fprintf(w, " = %v", step.Result)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "\nTrace: %d event(s)\n", len(result.Trace))
	for _, e := range result.Trace {
		writeEventLine(w, e)
	}

	fmt.Fprintln(w)
	if result.Pass {
		fmt.Fprintln(w, "✓ Scenario passed")
		return
	}
	fmt.Fprintln(w, "✗ Scenario failed")
	for _, e := range result.Errors {
		fmt.Fprintf(w, "  %s\n", e)
	}
}

// jsonSafeResult copies result with step results made encodable.
func jsonSafeResult(result *harness.Result) *harness.Result {
	out := *result
	out.Steps = make([]harness.StepResult, len(result.Steps))
	for i, step := range result.Steps {
		step.Result = jsonSafe(step.Result)
		out.Steps[i] = step
	}
	return &out
}
