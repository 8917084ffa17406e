package contract

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/roach88/covenant/pkg/binding"
)

// SelfName is the binding name under which an invariant's predicate sees
// the instance.
const SelfName = "self"

// Invariant guards the methods of instances of T with one instance
// condition, checked on entry to and exit from the outermost guarded call.
//
// T must be a pointer type. Nested calls are recognised by pointer
// identity, so two distinct instances never suppress each other's checks.
//
// Whether the invariant is enforced is fixed when it is created; see
// Toggle. A nil *Invariant is valid and enforces nothing.
type Invariant[T comparable] struct {
	typeName string
	cond     Condition
	observer Observer
	enabled  bool
}

// NewInvariant declares an invariant over values of T. typeName prefixes
// method names in violations. pred is evaluated against a binding set
// holding the instance under SelfName plus any auxiliary bindings.
func NewInvariant[T comparable](c *Contracts, typeName, desc string, pred Predicate, opts ...ConditionOption) (*Invariant[T], error) {
	if c == nil {
		c = std
	}
	if !c.toggle.IsEnabled() {
		c.log().Debug("contracts disabled, invariant not enforced", "type", typeName)
		return &Invariant[T]{typeName: typeName}, nil
	}
	if strings.TrimSpace(typeName) == "" {
		return nil, &DeclarationError{Message: "invariant type name is empty"}
	}
	if rt := reflect.TypeFor[T](); rt.Kind() != reflect.Pointer {
		return nil, &DeclarationError{Target: typeName, Message: fmt.Sprintf("instance type %s is not a pointer", rt)}
	}

	cond := NewCondition(desc, pred, opts...)
	reserved := func(name string) bool { return name == SelfName }
	if err := cond.validate(reserved); err != nil {
		return nil, &DeclarationError{Target: typeName, Message: err.Error()}
	}

	c.log().Debug("invariant declared", "type", typeName, "condition", desc)
	return &Invariant[T]{
		typeName: typeName,
		cond:     cond,
		observer: c.observer,
		enabled:  true,
	}, nil
}

// MustInvariant is like NewInvariant but panics on error.
func MustInvariant[T comparable](c *Contracts, typeName, desc string, pred Predicate, opts ...ConditionOption) *Invariant[T] {
	inv, err := NewInvariant[T](c, typeName, desc, pred, opts...)
	if err != nil {
		panic(err)
	}
	return inv
}

// InstanceCheck builds a Predicate that passes the bound instance to fn.
// A missing or mistyped instance is an evaluation error.
func InstanceCheck[T any](fn func(ctx context.Context, self T) (bool, error)) Predicate {
	return PredicateFunc(func(ctx context.Context, args binding.Set) (bool, error) {
		self, err := binding.Lookup[T](args, SelfName)
		if err != nil {
			return false, err
		}
		return fn(ctx, self)
	})
}

// TypeName returns the name the invariant was declared for.
func (inv *Invariant[T]) TypeName() string {
	if inv == nil {
		return ""
	}
	return inv.typeName
}

// Enabled reports whether the invariant is enforced.
func (inv *Invariant[T]) Enabled() bool {
	return inv != nil && inv.enabled
}

// Do runs body as method of self, checking the invariant before and after
// unless a guarded method is already running on self in ctx's call chain.
//
// body must use the context it is given for any nested guarded calls so
// they are recognised as nested. When body returns an error the exit check
// is skipped and the error is returned as is.
func (inv *Invariant[T]) Do(ctx context.Context, self T, method string, body func(ctx context.Context) error) error {
	_, err := Method(ctx, inv, self, method, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, body(ctx)
	})
	return err
}

// Method is Do for methods that return a value.
func Method[T comparable, R any](ctx context.Context, inv *Invariant[T], self T, method string, body func(ctx context.Context) (R, error)) (R, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !inv.Enabled() || InvariantActive(ctx, self) {
		return body(ctx)
	}

	var zero R
	ctx = markActive(ctx, self)

	if err := inv.check(ctx, self, method, PhaseEntry); err != nil {
		return zero, err
	}
	result, err := body(ctx)
	if err != nil {
		return zero, err
	}
	if err := inv.check(ctx, self, method, PhaseExit); err != nil {
		return zero, err
	}
	return result, nil
}

// Check evaluates the invariant against self outside any method.
func (inv *Invariant[T]) Check(ctx context.Context, self T) error {
	if !inv.Enabled() {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return inv.check(markActive(ctx, self), self, "", "")
}

func (inv *Invariant[T]) check(ctx context.Context, self T, method string, phase Phase) error {
	target := inv.typeName
	if method != "" {
		target = fmt.Sprintf("%s.%s", inv.typeName, method)
	}
	stage := StageInvariantEntry
	if phase == PhaseExit {
		stage = StageInvariantExit
	}

	err := Evaluate(ctx, inv.cond, binding.Set{SelfName: self}, nil)
	outcome, detail := outcomeOf(err)
	emit(ctx, inv.observer, Event{
		Target:    target,
		Stage:     stage,
		Condition: inv.cond.desc,
		Outcome:   outcome,
		Detail:    detail,
	})
	if err != nil {
		return &Violation{
			Kind:      KindInvariant,
			Target:    target,
			Condition: inv.cond.desc,
			Phase:     phase,
			Cause:     err,
		}
	}
	return nil
}
