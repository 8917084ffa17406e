package binding

import (
	"errors"
	"fmt"
)

// ErrorKind discriminates binding failures.
type ErrorKind string

const (
	// KindArityMismatch: more positional values than parameters and no rest-positional collector.
	KindArityMismatch ErrorKind = "ARITY_MISMATCH"

	// KindDuplicateKeyword: a keyword names a parameter already bound positionally.
	KindDuplicateKeyword ErrorKind = "DUPLICATE_KEYWORD"

	// KindUnexpectedKeyword: a keyword matches no parameter and there is no rest-keyword collector.
	KindUnexpectedKeyword ErrorKind = "UNEXPECTED_KEYWORD"

	// KindMissingArgument: a parameter without a default received no value.
	KindMissingArgument ErrorKind = "MISSING_ARGUMENT"
)

// Error reports a malformed call. It is never a contract violation: the
// call itself could not be mapped onto the callable's parameters.
type Error struct {
	// Kind identifies the failure category.
	Kind ErrorKind

	// Target names the callable, when known. Bind leaves it empty;
	// guards fill it in.
	Target string

	// Param is the offending parameter or keyword name, if any.
	Param string

	// Message is a human-readable description.
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Target != "" {
		return fmt.Sprintf("%s: %s (target=%s)", e.Kind, e.Message, e.Target)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// WithTarget returns a copy of e naming target.
func (e *Error) WithTarget(target string) *Error {
	cp := *e
	cp.Target = target
	return &cp
}

// IsError reports whether err is or wraps a binding *Error.
func IsError(err error) bool {
	var be *Error
	return errors.As(err, &be)
}

// IsKind reports whether err is or wraps a binding *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind == kind
	}
	return false
}

// SchemaError reports an invalid Schema declaration.
type SchemaError struct {
	Param   string
	Message string
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	return fmt.Sprintf("invalid schema: parameter %q: %s", e.Param, e.Message)
}
