package harness

import (
	"errors"

	"github.com/roach88/covenant/internal/trace"
	"github.com/roach88/covenant/pkg/binding"
	"github.com/roach88/covenant/pkg/contract"
)

// Step outcomes.
const (
	OutcomeOK            = "ok"
	OutcomePrecondition  = "precondition"
	OutcomePostcondition = "postcondition"
	OutcomeInvariant     = "invariant"
	OutcomeBinding       = "binding"
	OutcomeError         = "error"
)

var validOutcomes = map[string]bool{
	OutcomeOK:            true,
	OutcomePrecondition:  true,
	OutcomePostcondition: true,
	OutcomeInvariant:     true,
	OutcomeBinding:       true,
	OutcomeError:         true,
}

// StepResult is what one step actually did.
type StepResult struct {
	Index       int    `json:"index"`
	Action      string `json:"action"`
	Outcome     string `json:"outcome"`
	Condition   string `json:"condition,omitempty"`
	BindingKind string `json:"binding_kind,omitempty"`
	Result      any    `json:"result,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	RunID string `json:"run_id"`

	// Pass is true if every expect clause and assertion held.
	Pass bool `json:"pass"`

	Steps []StepResult `json:"steps"`

	// Trace holds every contract event in seq order.
	Trace []trace.Event `json:"trace"`

	// Errors contains expectation and assertion failures.
	Errors []string `json:"errors,omitempty"`

	// State holds the final state of each named object.
	State map[string]map[string]any `json:"state,omitempty"`
}

// NewResult creates a new passing result.
func NewResult(runID string) *Result {
	return &Result{
		RunID:  runID,
		Pass:   true,
		Steps:  []StepResult{},
		Trace:  []trace.Event{},
		Errors: []string{},
		State:  make(map[string]map[string]any),
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// classify maps a step error onto an outcome.
func classify(err error) StepResult {
	if err == nil {
		return StepResult{Outcome: OutcomeOK}
	}
	sr := StepResult{Error: err.Error()}

	var be *binding.Error
	if errors.As(err, &be) {
		sr.Outcome = OutcomeBinding
		sr.BindingKind = string(be.Kind)
		return sr
	}
	if v, ok := contract.AsViolation(err); ok {
		sr.Outcome = string(v.Kind)
		sr.Condition = v.Condition
		return sr
	}
	sr.Outcome = OutcomeError
	return sr
}
