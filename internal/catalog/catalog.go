package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/roach88/covenant/pkg/binding"
	"github.com/roach88/covenant/pkg/contract"
)

// Object is an instance created from a Type. Every method call goes through
// the type's invariant, if it has one.
type Object interface {
	TypeName() string
	Methods() []string
	Invoke(ctx context.Context, method string, call binding.Call) (any, error)
	State() map[string]any
}

// Invariant is an instance condition to attach when an Object is created.
type Invariant struct {
	Description string
	Predicate   contract.Predicate
}

// Type describes a constructible type.
type Type struct {
	Name string

	// Schema is the constructor's parameter schema.
	Schema *binding.Schema

	// Methods lists the externally visible methods.
	Methods []string

	// New builds an instance from bound constructor arguments. inv may be
	// nil, in which case the instance is unguarded.
	New func(c *contract.Contracts, inv *Invariant, args binding.Set) (Object, error)
}

// UnknownError reports a name missing from the catalog.
type UnknownError struct {
	Kind string // "function" or "type"
	Name string
}

// Error implements the error interface.
func (e *UnknownError) Error() string {
	return fmt.Sprintf("unknown %s %q", e.Kind, e.Name)
}

// Catalog maps names to functions and types.
type Catalog struct {
	funcs map[string]*contract.Function
	types map[string]*Type
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{
		funcs: make(map[string]*contract.Function),
		types: make(map[string]*Type),
	}
}

// Register adds fn under its own name, replacing any previous entry.
func (c *Catalog) Register(fn *contract.Function) {
	c.funcs[fn.Name()] = fn
}

// RegisterType adds t, replacing any previous entry.
func (c *Catalog) RegisterType(t *Type) {
	c.types[t.Name] = t
}

// Function returns the function registered as name.
func (c *Catalog) Function(name string) (*contract.Function, error) {
	fn, ok := c.funcs[name]
	if !ok {
		return nil, &UnknownError{Kind: "function", Name: name}
	}
	return fn, nil
}

// Type returns the type registered as name.
func (c *Catalog) Type(name string) (*Type, error) {
	t, ok := c.types[name]
	if !ok {
		return nil, &UnknownError{Kind: "type", Name: name}
	}
	return t, nil
}

// FunctionNames returns the registered function names, sorted.
func (c *Catalog) FunctionNames() []string {
	return sortedKeys(c.funcs)
}

// TypeNames returns the registered type names, sorted.
func (c *Catalog) TypeNames() []string {
	return sortedKeys(c.types)
}

// Instantiate binds call against t's constructor schema and builds an
// instance.
func (t *Type) Instantiate(c *contract.Contracts, inv *Invariant, call binding.Call) (Object, error) {
	args, err := binding.Bind(t.Schema, call)
	if err != nil {
		var be *binding.Error
		if errors.As(err, &be) {
			return nil, be.WithTarget(t.Name)
		}
		return nil, err
	}
	return t.New(c, inv, args)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
