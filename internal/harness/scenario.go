package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Scenario defines a contract scenario: a sequence of calls against the
// catalog with the manifest's contracts declared.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Manifest is the CUE manifest directory, relative to the scenario file.
	// Without one every target runs unguarded.
	Manifest string `yaml:"manifest,omitempty"`

	// Disabled declares all contracts with the toggle off.
	Disabled bool `yaml:"disabled,omitempty"`

	// RunID pins the run ID. Defaults to testutil.DefaultRunID.
	RunID string `yaml:"run_id,omitempty"`

	// Steps run in order; a failing step does not stop the scenario.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final trace and object state.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is exactly one of a function call, an instantiation or a method
// invocation.
type Step struct {
	// Call names a catalog function.
	Call string `yaml:"call,omitempty"`

	// New names a catalog type; As names the resulting object.
	New string `yaml:"new,omitempty"`
	As  string `yaml:"as,omitempty"`

	// Invoke is "object.Method".
	Invoke string `yaml:"invoke,omitempty"`

	Args   []any          `yaml:"args,omitempty"`
	Kwargs map[string]any `yaml:"kwargs,omitempty"`

	// Expect is checked against what the step did. If nil, any outcome
	// is accepted.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// Action describes the step for traces and messages.
func (s Step) Action() string {
	switch {
	case s.Call != "":
		return "call " + s.Call
	case s.New != "":
		return fmt.Sprintf("new %s as %s", s.New, s.As)
	default:
		return "invoke " + s.Invoke
	}
}

// objectMethod splits Invoke into object and method names.
func (s Step) objectMethod() (string, string, bool) {
	obj, method, ok := strings.Cut(s.Invoke, ".")
	if !ok || obj == "" || method == "" {
		return "", "", false
	}
	return obj, method, true
}

// ExpectClause specifies the expected outcome of a step.
type ExpectClause struct {
	// Outcome is one of ok, precondition, postcondition, invariant,
	// binding or error.
	Outcome string `yaml:"outcome"`

	// Condition is the failing condition's description.
	Condition string `yaml:"condition,omitempty"`

	// Result is compared to the returned value; integral numbers compare
	// equal regardless of their Go type.
	Result any `yaml:"result,omitempty"`

	// State is a subset match on the object's state after the step.
	State map[string]any `yaml:"state,omitempty"`

	// BindingKind is the expected binding error kind, e.g. MISSING_ARGUMENT.
	BindingKind string `yaml:"binding_kind,omitempty"`
}

// Assertion validates the trace or final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "trace_contains": an event for Target matches the filters
	// - "trace_order": Targets first appear in this order
	// - "trace_count": exactly Count events for Target match the filters
	// - "final_state": Object's state contains Expect
	Type string `yaml:"type"`

	Target    string `yaml:"target,omitempty"`
	Stage     string `yaml:"stage,omitempty"`
	Outcome   string `yaml:"outcome,omitempty"`
	Condition string `yaml:"condition,omitempty"`

	// Count is the expected number of matching events (trace_count).
	Count int `yaml:"count,omitempty"`

	// Targets is the expected order (trace_order).
	Targets []string `yaml:"targets,omitempty"`

	// Object and Expect are used by final_state.
	Object string         `yaml:"object,omitempty"`
	Expect map[string]any `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
)

// LoadScenario reads and parses a scenario YAML file, resolving the
// manifest path relative to the file's directory.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving the manifest path relative to basePath.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data, basePath)
}

// ParseScenario parses scenario YAML held in memory.
func ParseScenario(data []byte, basePath string) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Manifest != "" && !filepath.IsAbs(scenario.Manifest) && basePath != "" {
		scenario.Manifest = filepath.Join(basePath, scenario.Manifest)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	if s.Manifest != "" {
		info, err := os.Stat(s.Manifest)
		if err != nil {
			return fmt.Errorf("manifest directory not found: %s", s.Manifest)
		}
		if !info.IsDir() {
			return fmt.Errorf("manifest is not a directory: %s", s.Manifest)
		}
	}

	objects := make(map[string]bool)
	for i, step := range s.Steps {
		if err := validateStep(i, step, objects); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

// validateStep checks one step; objects tracks names bound so far.
func validateStep(i int, step Step, objects map[string]bool) error {
	kinds := 0
	for _, set := range []bool{step.Call != "", step.New != "", step.Invoke != ""} {
		if set {
			kinds++
		}
	}
	if kinds != 1 {
		return fmt.Errorf("steps[%d]: exactly one of call, new or invoke is required", i)
	}

	switch {
	case step.New != "":
		if step.As == "" {
			return fmt.Errorf("steps[%d]: as is required for new", i)
		}
		objects[step.As] = true
	case step.Invoke != "":
		obj, _, ok := step.objectMethod()
		if !ok {
			return fmt.Errorf("steps[%d]: invoke must be object.Method, got %q", i, step.Invoke)
		}
		if !objects[obj] {
			return fmt.Errorf("steps[%d]: object %q is not created by an earlier step", i, obj)
		}
	default:
		if step.As != "" {
			return fmt.Errorf("steps[%d]: as is only valid with new", i)
		}
	}

	if step.Expect != nil {
		if !validOutcomes[step.Expect.Outcome] {
			return fmt.Errorf("steps[%d].expect: unknown outcome %q", i, step.Expect.Outcome)
		}
		if step.Expect.BindingKind != "" && step.Expect.Outcome != OutcomeBinding {
			return fmt.Errorf("steps[%d].expect: binding_kind requires outcome binding", i)
		}
		if step.Expect.State != nil && step.Call != "" {
			return fmt.Errorf("steps[%d].expect: state is only valid for new and invoke", i)
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Target == "" {
			return fmt.Errorf("assertions[%d]: target is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Targets) == 0 {
			return fmt.Errorf("assertions[%d]: targets list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Target == "" {
			return fmt.Errorf("assertions[%d]: target is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertFinalState:
		if a.Object == "" {
			return fmt.Errorf("assertions[%d]: object is required for final_state", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
