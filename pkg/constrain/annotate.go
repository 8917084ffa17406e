package constrain

import (
	"context"
	"fmt"

	"github.com/roach88/covenant/pkg/binding"
	"github.com/roach88/covenant/pkg/contract"
)

// Arg declares a precondition that the argument bound to name passes check.
// A failure reports the offending value.
func Arg(name string, check ValueCheck) contract.Declaration {
	desc := fmt.Sprintf("argument %s satisfies its constraint", name)
	return contract.Pre(desc, contract.PredicateFunc(func(ctx context.Context, args binding.Set) (bool, error) {
		v, ok := args[name]
		if !ok {
			return false, fmt.Errorf("name %q is not bound", name)
		}
		return verdict(ctx, check, v, name)
	}))
}

// Returns declares a postcondition that the result passes check.
func Returns(check ValueCheck) contract.Declaration {
	desc := "result satisfies its constraint"
	return contract.Post(desc, contract.PredicateFunc(func(ctx context.Context, args binding.Set) (bool, error) {
		return verdict(ctx, check, args[binding.ResultName], binding.ResultName)
	}))
}

// Annotations groups per-argument checks and an optional result check.
type Annotations struct {
	Args    map[string]ValueCheck
	Returns ValueCheck
}

// Declarations converts a into declarations ordered by the schema's
// parameter order (rest collectors after parameters), with the result
// check last. Every annotated name must be declared by schema.
func Declarations(schema *binding.Schema, a Annotations) ([]contract.Declaration, error) {
	for name := range a.Args {
		if !schema.Declares(name) {
			return nil, &contract.DeclarationError{
				Message: fmt.Sprintf("annotation for undeclared parameter %q", name),
			}
		}
	}

	var decls []contract.Declaration
	names := schema.Names()
	for _, rest := range []string{schema.RestPositional(), schema.RestKeyword()} {
		if rest != "" {
			names = append(names, rest)
		}
	}
	for _, name := range names {
		if check, ok := a.Args[name]; ok && check != nil {
			decls = append(decls, Arg(name, check))
		}
	}
	if a.Returns != nil {
		decls = append(decls, Returns(a.Returns))
	}
	return decls, nil
}

// Apply declares a on target through c.
func Apply(c *contract.Contracts, target contract.Callable, a Annotations) (contract.Target, error) {
	decls, err := Declarations(target.Schema(), a)
	if err != nil {
		return nil, err
	}
	return c.Declare(target, decls...)
}

func verdict(ctx context.Context, check ValueCheck, v any, name string) (bool, error) {
	ok, err := check.CheckValue(ctx, v)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, contract.Reject("%s=%v", name, v)
	}
	return true, nil
}
