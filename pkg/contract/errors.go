package contract

import (
	"errors"
	"fmt"
)

// Kind identifies which contract a violation broke.
type Kind string

const (
	// KindPrecondition: a condition required before the body runs.
	KindPrecondition Kind = "precondition"

	// KindPostcondition: a condition required of the body's result.
	KindPostcondition Kind = "postcondition"

	// KindInvariant: an instance condition required around every guarded method.
	KindInvariant Kind = "invariant"
)

// Phase locates an invariant check relative to the method body.
type Phase string

const (
	PhaseEntry Phase = "entry"
	PhaseExit  Phase = "exit"
)

// Violation is raised when a declared condition does not hold.
//
// Cause is always either a *ConditionFailure (the predicate returned false)
// or an *EvaluationError (the predicate itself failed).
type Violation struct {
	// Kind is the contract category.
	Kind Kind

	// Target names the guarded callable, or Type.Method for invariants.
	Target string

	// Condition is the description of the failing condition.
	Condition string

	// Phase is set for invariant violations only.
	Phase Phase

	// Cause holds the evaluation outcome.
	Cause error
}

// Error implements the error interface.
func (v *Violation) Error() string {
	prefix := string(v.Kind) + " violation"
	if v.Phase != "" {
		prefix = fmt.Sprintf("%s on %s", prefix, v.Phase)
	}
	detail := fmt.Sprintf("condition %q not met", v.Condition)
	if v.Cause != nil {
		detail = v.Cause.Error()
	}
	if v.Target != "" {
		return fmt.Sprintf("%s: %s (target=%s)", prefix, detail, v.Target)
	}
	return fmt.Sprintf("%s: %s", prefix, detail)
}

// Unwrap returns the evaluation outcome.
func (v *Violation) Unwrap() error {
	return v.Cause
}

// ConditionFailure records that a predicate returned false.
type ConditionFailure struct {
	Condition string

	// Reason is set when the predicate rejected with Reject.
	Reason string
}

// Error implements the error interface.
func (e *ConditionFailure) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("condition %q not met: %s", e.Condition, e.Reason)
	}
	return fmt.Sprintf("condition %q not met", e.Condition)
}

// Rejection is returned by a predicate to answer false with an explanation.
// Evaluate reports it as a *ConditionFailure, not an *EvaluationError.
type Rejection struct {
	Reason string
}

// Error implements the error interface.
func (r *Rejection) Error() string { return r.Reason }

// Reject builds a Rejection.
func Reject(format string, args ...any) error {
	return &Rejection{Reason: fmt.Sprintf(format, args...)}
}

// EvaluationError records that a predicate failed instead of answering.
// It only ever reaches callers as the Cause of a *Violation.
type EvaluationError struct {
	Condition string
	Cause     error
}

// Error implements the error interface.
func (e *EvaluationError) Error() string {
	return fmt.Sprintf("condition %q failed with error: %v", e.Condition, e.Cause)
}

// Unwrap returns the predicate's own error.
func (e *EvaluationError) Unwrap() error {
	return e.Cause
}

// DeclarationError reports a contract that cannot be attached.
type DeclarationError struct {
	Target  string
	Message string
}

// Error implements the error interface.
func (e *DeclarationError) Error() string {
	if e.Target != "" {
		return fmt.Sprintf("invalid contract declaration for %s: %s", e.Target, e.Message)
	}
	return "invalid contract declaration: " + e.Message
}

// IsViolation reports whether err is or wraps a contract *Violation of any kind.
func IsViolation(err error) bool {
	var v *Violation
	return errors.As(err, &v)
}

// IsPreconditionViolation reports whether err is or wraps a precondition violation.
func IsPreconditionViolation(err error) bool {
	return isKind(err, KindPrecondition)
}

// IsPostconditionViolation reports whether err is or wraps a postcondition violation.
func IsPostconditionViolation(err error) bool {
	return isKind(err, KindPostcondition)
}

// IsInvariantViolation reports whether err is or wraps an invariant violation.
func IsInvariantViolation(err error) bool {
	return isKind(err, KindInvariant)
}

// IsEvaluationError reports whether err carries a predicate fault.
func IsEvaluationError(err error) bool {
	var ee *EvaluationError
	return errors.As(err, &ee)
}

// AsViolation extracts the *Violation from err's chain.
func AsViolation(err error) (*Violation, bool) {
	var v *Violation
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}

func isKind(err error, kind Kind) bool {
	if v, ok := AsViolation(err); ok {
		return v.Kind == kind
	}
	return false
}
