package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/covenant/internal/canonical"
	"github.com/roach88/covenant/internal/manifest"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompiledContract is the resolved form of one manifest contract.
type CompiledContract struct {
	Target  string            `json:"target"`
	Params  []string          `json:"params,omitempty"`
	Pre     []string          `json:"pre"`
	Post    []string          `json:"post"`
	Args    map[string]string `json:"args,omitempty"`
	Returns string            `json:"returns,omitempty"`
}

// CompiledInvariant is the resolved form of one manifest invariant.
type CompiledInvariant struct {
	Type      string `json:"type"`
	Condition string `json:"condition"`
}

// CompilationResult holds the compiled contracts and invariants.
type CompilationResult struct {
	Contracts  []CompiledContract  `json:"contracts"`
	Invariants []CompiledInvariant `json:"invariants"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <manifest-dir>",
		Short: "Compile a manifest to canonical JSON",
		Long: `Compile a CUE contract manifest and print the resolved contracts.

The output lists, per target, the conditions in evaluation order and the
argument annotations, as canonical JSON. The manifest is validated first.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	m, problems, fatal := loadManifest(dir)
	if fatal != nil {
		_ = formatter.Error(fatal.Code, fatal.Message, nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", fatal.Code, fatal.Message))
	}
	if len(problems) > 0 {
		_ = formatter.Error(problems[0].Code, problems[0].Error(), problems)
		return NewExitError(ExitFailure, fmt.Sprintf("compilation failed with %d error(s)", len(problems)))
	}

	result := compileResult(m)
	data, err := canonical.Marshal(result.canonicalMap())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to marshal manifest", err)
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, data, 0o644); err != nil {
			return WrapExitError(ExitCommandError, "failed to write output", err)
		}
		formatter.VerboseLog("Wrote %s", opts.Output)
	}

	if formatter.JSON() {
		return formatter.Success(result)
	}
	if opts.Output == "" {
		fmt.Fprintln(formatter.Writer, string(data))
		return nil
	}
	fmt.Fprintf(formatter.Writer, "✓ Compiled %d contract(s), %d invariant(s) to %s\n",
		len(result.Contracts), len(result.Invariants), opts.Output)
	return nil
}

// compileResult flattens m into names and check sources.
func compileResult(m *manifest.Manifest) CompilationResult {
	result := CompilationResult{
		Contracts:  []CompiledContract{},
		Invariants: []CompiledInvariant{},
	}
	for _, c := range m.Contracts {
		cc := CompiledContract{
			Target: c.Target,
			Params: c.Params,
			Pre:    conditionNames(c.Pre),
			Post:   conditionNames(c.Post),
		}
		if len(c.Args) > 0 {
			cc.Args = make(map[string]string, len(c.Args))
			for name, check := range c.Args {
				cc.Args[name] = describeCheck(check)
			}
		}
		if c.Returns != nil {
			cc.Returns = describeCheck(*c.Returns)
		}
		result.Contracts = append(result.Contracts, cc)
	}
	for _, inv := range m.Invariants {
		result.Invariants = append(result.Invariants, CompiledInvariant{
			Type:      inv.Type,
			Condition: inv.Condition.Name,
		})
	}
	return result
}

func conditionNames(conds []manifest.Condition) []string {
	names := make([]string, len(conds))
	for i, c := range conds {
		names[i] = c.Name
	}
	return names
}

// describeCheck renders a tag as "tag:<tag>" and a CUE check as its source.
func describeCheck(c manifest.Check) string {
	if c.IsTag() {
		return "tag:" + c.Tag
	}
	return fmt.Sprint(c.CUE)
}

func (r CompilationResult) canonicalMap() map[string]any {
	contracts := make([]any, len(r.Contracts))
	for i, c := range r.Contracts {
		entry := map[string]any{
			"target": c.Target,
			"pre":    c.Pre,
			"post":   c.Post,
		}
		if len(c.Params) > 0 {
			entry["params"] = c.Params
		}
		if len(c.Args) > 0 {
			args := make(map[string]any, len(c.Args))
			for name, check := range c.Args {
				args[name] = check
			}
			entry["args"] = args
		}
		if c.Returns != "" {
			entry["returns"] = c.Returns
		}
		contracts[i] = entry
	}

	invariants := make([]any, len(r.Invariants))
	for i, inv := range r.Invariants {
		invariants[i] = map[string]any{"type": inv.Type, "condition": inv.Condition}
	}
	return map[string]any{"contracts": contracts, "invariants": invariants}
}
