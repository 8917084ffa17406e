package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/covenant/internal/manifest"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid      bool                       `json:"valid"`
	Contracts  int                        `json:"contracts"`
	Invariants int                        `json:"invariants"`
	Errors     []manifest.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <manifest-dir>",
		Short: "Validate a contract manifest",
		Long: `Validate a CUE contract manifest against the builtin catalog.

Reports every problem at once: entries that do not compile, contracts
for unknown targets, conditions that refer to names the target never
binds, and invalid argument annotations.

Exit codes:
  0 - Manifest is valid
  1 - Manifest has errors
  2 - Manifest could not be read`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	m, problems, fatal := loadManifest(dir)
	if fatal != nil {
		_ = formatter.Error(fatal.Code, fatal.Message, nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", fatal.Code, fatal.Message))
	}
	formatter.VerboseLog("Found %d CUE file(s) in %s", m.FileCount, dir)

	result := ValidationResult{
		Valid:      len(problems) == 0,
		Contracts:  len(m.Contracts),
		Invariants: len(m.Invariants),
		Errors:     problems,
	}
	if result.Valid {
		if formatter.JSON() {
			return formatter.Success(result)
		}
		fmt.Fprintf(formatter.Writer, "✓ Manifest valid (%d contract(s), %d invariant(s))\n", result.Contracts, result.Invariants)
		return nil
	}

	failure := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(problems)))
	if formatter.JSON() {
		if err := formatter.Respond(result, &CLIError{Code: problems[0].Code, Message: problems[0].Message}); err != nil {
			return err
		}
		return failure
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, p := range problems {
		if p.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d\n", p.Line)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", p.Code, p.Field, p.Message)
	}
	return failure
}
