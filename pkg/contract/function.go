package contract

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/covenant/pkg/binding"
)

// Target is anything that can be invoked with a raw argument list.
type Target interface {
	Name() string
	Invoke(ctx context.Context, call binding.Call) (any, error)
}

// Callable is a Target that exposes its parameter schema and can run
// against an already bound argument set. Only Callables can carry contracts.
type Callable interface {
	Target
	Schema() *binding.Schema
	Apply(ctx context.Context, args binding.Set) (any, error)
}

// Body is the implementation of a Function.
type Body func(ctx context.Context, args binding.Set) (any, error)

// Function is a named Body with a parameter schema.
type Function struct {
	name   string
	schema *binding.Schema
	body   Body
}

// NewFunction returns a Function. A nil schema declares no parameters.
func NewFunction(name string, schema *binding.Schema, body Body) *Function {
	if schema == nil {
		schema = binding.MustSchema(nil)
	}
	return &Function{name: name, schema: schema, body: body}
}

// Name returns the function's name.
func (f *Function) Name() string { return f.name }

// Schema returns the function's parameter schema.
func (f *Function) Schema() *binding.Schema { return f.schema }

// Apply runs the body on a bound argument set.
func (f *Function) Apply(ctx context.Context, args binding.Set) (any, error) {
	if f.body == nil {
		return nil, fmt.Errorf("function %s has no body", f.name)
	}
	return f.body(ctx, args)
}

// Invoke binds call against the schema and runs the body.
func (f *Function) Invoke(ctx context.Context, call binding.Call) (any, error) {
	args, err := binding.Bind(f.schema, call)
	if err != nil {
		return nil, withTarget(err, f.name)
	}
	return f.Apply(ctx, args)
}

var _ Callable = (*Function)(nil)

// Call invokes t with positional arguments.
func Call(ctx context.Context, t Target, args ...any) (any, error) {
	return t.Invoke(ctx, binding.Args(args...))
}

// As converts the result of an invocation to R. A nil result converts to
// R's zero value.
func As[R any](v any, err error) (R, error) {
	var zero R
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, nil
	}
	r, ok := v.(R)
	if !ok {
		return zero, fmt.Errorf("result is %T, not %T", v, zero)
	}
	return r, nil
}

func withTarget(err error, target string) error {
	var be *binding.Error
	if errors.As(err, &be) && be.Target == "" {
		return be.WithTarget(target)
	}
	return err
}
