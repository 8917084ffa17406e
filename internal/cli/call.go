package cli

import (
	"context"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/covenant/internal/trace"
	"github.com/roach88/covenant/pkg/binding"
	"github.com/roach88/covenant/pkg/contract"
)

// CallOptions holds flags for the call command.
type CallOptions struct {
	*RootOptions
	Manifest string
	Kwargs   []string // key=value
}

// CallResult is the outcome of one guarded call.
type CallResult struct {
	Target    string        `json:"target"`
	Outcome   string        `json:"outcome"`
	Result    any           `json:"result,omitempty"`
	Condition string        `json:"condition,omitempty"`
	Error     string        `json:"error,omitempty"`
	Trace     []trace.Event `json:"trace"`
}

// NewCallCommand creates the call command.
func NewCallCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CallOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "call <target> [args...]",
		Short: "Call a catalog function with its contracts",
		Long: `Call a builtin catalog function with the contracts of a manifest declared.

Positional arguments and --kw values are YAML literals: 3 is an int,
2.5 a float, "3" a string, [1, 2] a list.

Exit codes:
  0 - The call succeeded
  1 - A contract was violated, or the call failed
  2 - Command error (unknown target, unreadable manifest, etc.)

Examples:
  covenant call divide 7 2 --manifest ./testdata/manifest
  covenant call clamp 12 --kw hi=10 --manifest ./testdata/manifest
  covenant call sqrt -- -4 --disable`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCall(opts, args[0], args[1:], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Manifest, "manifest", "m", "", "CUE manifest directory")
	cmd.Flags().StringArrayVar(&opts.Kwargs, "kw", nil, "keyword argument as name=value (repeatable)")

	return cmd
}

func runCall(opts *CallOptions, name string, rawArgs []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	call, err := parseCall(rawArgs, opts.Kwargs)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid arguments", err)
	}

	recorder := trace.NewRecorder(trace.UUIDv7Generator{}.Generate(), nil)
	program, err := newProgram(opts.RootOptions, opts.Manifest, logger, recorder)
	if err != nil {
		return err
	}
	target, err := program.Target(name)
	if err != nil {
		return WrapExitError(ExitCommandError, "unknown target", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	value, callErr := target.Invoke(ctx, call)

	result := CallResult{
		Target:  name,
		Outcome: "ok",
		Result:  jsonSafe(value),
		Trace:   recorder.Events(),
	}
	if callErr != nil {
		result.Outcome = "error"
		result.Error = callErr.Error()
		if v, ok := contract.AsViolation(callErr); ok {
			result.Outcome = string(v.Kind)
			result.Condition = v.Condition
		} else if binding.IsError(callErr) {
			result.Outcome = "binding"
		}
	}

	if formatter.JSON() {
		var cliErr *CLIError
		if callErr != nil {
			cliErr = &CLIError{Code: "E_" + strings.ToUpper(result.Outcome), Message: result.Error}
		}
		if err := formatter.Respond(result, cliErr); err != nil {
			return err
		}
	} else {
		w := formatter.Writer
		if callErr == nil {
			fmt.Fprintf(w, "✓ %s = %v\n", name, value)
		} else {
			fmt.Fprintf(w, "✗ %s: %s\n", name, result.Error)
		}
		if opts.Verbose {
			for _, e := range result.Trace {
				writeEventLine(w, e)
			}
		}
	}

	if callErr != nil {
		return WrapExitError(ExitFailure, name+" failed", callErr)
	}
	return nil
}

// parseCall decodes positional and keyword arguments as YAML literals.
func parseCall(rawArgs, rawKwargs []string) (binding.Call, error) {
	call := binding.Call{}
	for i, raw := range rawArgs {
		v, err := parseLiteral(raw)
		if err != nil {
			return call, fmt.Errorf("argument %d: %w", i, err)
		}
		call.Args = append(call.Args, v)
	}
	for _, kv := range rawKwargs {
		key, raw, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return call, fmt.Errorf("keyword argument %q must be name=value", kv)
		}
		v, err := parseLiteral(raw)
		if err != nil {
			return call, fmt.Errorf("keyword argument %s: %w", key, err)
		}
		if call.Kwargs == nil {
			call.Kwargs = make(map[string]any)
		}
		if _, dup := call.Kwargs[key]; dup {
			return call, fmt.Errorf("keyword argument %s given twice", key)
		}
		call.Kwargs[key] = v
	}
	return call, nil
}

func parseLiteral(raw string) (any, error) {
	var v any
	if err := yaml.Unmarshal([]byte(raw), &v); err != nil {
		return nil, err
	}
	if v == nil && raw != "null" && raw != "~" {
		return raw, nil
	}
	return v, nil
}

// writeEventLine prints one trace event in the text format.
func writeEventLine(w io.Writer, e trace.Event) {
	fmt.Fprintf(w, "  [%d] %-16s %-15s %s", e.Seq, e.Target, e.Stage, e.Outcome)
	if e.Condition != "" {
		fmt.Fprintf(w, " %q", e.Condition)
	}
	fmt.Fprintln(w)
}

// jsonSafe replaces floats JSON cannot encode with their text form.
func jsonSafe(v any) any {
	if f, ok := v.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
		return fmt.Sprint(f)
	}
	return v
}
