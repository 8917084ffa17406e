package manifest

import (
	"fmt"
	"slices"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/token"

	"github.com/roach88/covenant/internal/catalog"
	"github.com/roach88/covenant/pkg/binding"
	"github.com/roach88/covenant/pkg/constrain"
	"github.com/roach88/covenant/pkg/contract"
)

// Validation error codes (E200-E299)
const (
	ErrUnknownTarget      = "E201" // contract names no catalog function
	ErrEmptyConditionName = "E202" // condition name is empty
	ErrCheckNotStruct     = "E203" // check must be a struct
	ErrParamsMismatch     = "E204" // params differ from the target schema
	ErrUnknownType        = "E205" // invariant names no catalog type
	ErrUndeclaredArgument = "E206" // annotation for a parameter the target lacks
	ErrInvalidCheck       = "E207" // annotation tag or constraint is invalid
	ErrUnboundCheckField  = "E208" // check refers to a name that is never bound
	ErrDuplicateCondition = "E209" // two conditions of one contract share a name
)

// ValidationError represents a manifest validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks m against cat. Returns all errors found (does not
// fail-fast). A nil cat skips the checks that need target schemas.
func Validate(m *Manifest, cat *catalog.Catalog) []ValidationError {
	var errs []ValidationError
	for _, c := range m.Contracts {
		errs = append(errs, validateContract(c, cat)...)
	}
	for _, inv := range m.Invariants {
		errs = append(errs, validateInvariant(inv, cat)...)
	}
	return errs
}

func validateContract(c Contract, cat *catalog.Catalog) []ValidationError {
	var errs []ValidationError
	field := "contract." + c.Target

	var schema *binding.Schema
	if cat != nil {
		fn, err := cat.Function(c.Target)
		if err != nil {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("unknown target %q", c.Target),
				Code:    ErrUnknownTarget,
				Line:    line(c.Pos),
			})
		} else {
			schema = fn.Schema()
		}
	}

	// E204: params must restate the schema exactly
	if schema != nil && c.HasParams && !slices.Equal(c.Params, schema.Names()) {
		errs = append(errs, ValidationError{
			Field:   field + ".params",
			Message: fmt.Sprintf("params %v do not match target parameters %v", c.Params, schema.Names()),
			Code:    ErrParamsMismatch,
			Line:    line(c.Pos),
		})
	}

	bound := func(extra ...string) func(string) bool {
		return func(name string) bool {
			if slices.Contains(extra, name) {
				return true
			}
			if schema != nil {
				return schema.Declares(name)
			}
			if c.HasParams {
				return slices.Contains(c.Params, name)
			}
			return true
		}
	}

	seen := make(map[string]bool)
	for i, cond := range c.Pre {
		errs = append(errs, validateCondition(fmt.Sprintf("%s.pre[%d]", field, i), cond, bound(), seen)...)
	}
	for i, cond := range c.Post {
		errs = append(errs, validateCondition(fmt.Sprintf("%s.post[%d]", field, i), cond, bound(binding.ResultName), seen)...)
	}

	for _, name := range sortedKeys(c.Args) {
		chk := c.Args[name]
		argField := field + ".args." + name
		if !bound()(name) {
			errs = append(errs, ValidationError{
				Field:   argField,
				Message: fmt.Sprintf("target has no parameter %q", name),
				Code:    ErrUndeclaredArgument,
				Line:    line(chk.Pos),
			})
		}
		if _, err := valueCheck(chk); err != nil {
			errs = append(errs, ValidationError{
				Field:   argField,
				Message: err.Error(),
				Code:    ErrInvalidCheck,
				Line:    line(chk.Pos),
			})
		}
	}
	if c.Returns != nil {
		if _, err := valueCheck(*c.Returns); err != nil {
			errs = append(errs, ValidationError{
				Field:   field + ".returns",
				Message: err.Error(),
				Code:    ErrInvalidCheck,
				Line:    line(c.Returns.Pos),
			})
		}
	}
	return errs
}

func validateInvariant(inv Invariant, cat *catalog.Catalog) []ValidationError {
	var errs []ValidationError
	field := "invariant." + inv.Type

	if cat != nil {
		if _, err := cat.Type(inv.Type); err != nil {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("unknown type %q", inv.Type),
				Code:    ErrUnknownType,
				Line:    line(inv.Pos),
			})
		}
	}

	self := func(name string) bool { return name == contract.SelfName }
	return append(errs, validateCondition(field, inv.Condition, self, map[string]bool{})...)
}

// validateCondition checks one condition; seen tracks names within a contract.
func validateCondition(field string, cond Condition, bound func(string) bool, seen map[string]bool) []ValidationError {
	var errs []ValidationError

	// E202: name is required and must be non-empty
	if strings.TrimSpace(cond.Name) == "" {
		errs = append(errs, ValidationError{
			Field:   field + ".name",
			Message: "condition name is required and must be non-empty",
			Code:    ErrEmptyConditionName,
			Line:    line(cond.Pos),
		})
	} else if seen[cond.Name] {
		errs = append(errs, ValidationError{
			Field:   field + ".name",
			Message: fmt.Sprintf("duplicate condition name %q", cond.Name),
			Code:    ErrDuplicateCondition,
			Line:    line(cond.Pos),
		})
	}
	seen[cond.Name] = true

	// E203: check must be a struct over binding names
	if cond.Check.IncompleteKind() != cue.StructKind {
		errs = append(errs, ValidationError{
			Field:   field + ".check",
			Message: fmt.Sprintf("check must be a struct, got %s", cond.Check.IncompleteKind()),
			Code:    ErrCheckNotStruct,
			Line:    line(cond.Pos),
		})
		return errs
	}

	// E208: every field must name a binding that will exist
	labels, err := fieldLabels(cond.Check)
	if err != nil {
		errs = append(errs, ValidationError{
			Field:   field + ".check",
			Message: err.Error(),
			Code:    ErrCheckNotStruct,
			Line:    line(cond.Pos),
		})
		return errs
	}
	for _, l := range labels {
		if !bound(l) {
			errs = append(errs, ValidationError{
				Field:   field + ".check." + l,
				Message: fmt.Sprintf("%q is never bound here", l),
				Code:    ErrUnboundCheckField,
				Line:    line(cond.Pos),
			})
		}
	}
	return errs
}

// valueCheck builds the constrain check a Check describes.
func valueCheck(c Check) (constrain.ValueCheck, error) {
	if c.IsTag() {
		return constrain.Tag(c.Tag)
	}
	return constrain.FromValue(c.CUE)
}

func line(pos token.Pos) int {
	if !pos.IsValid() {
		return 0
	}
	return pos.Line()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
