package catalog

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/roach88/covenant/pkg/binding"
	"github.com/roach88/covenant/pkg/contract"
)

// ErrDivisionByZero is returned by divide when b is zero.
var ErrDivisionByZero = errors.New("division by zero")

// Builtin returns a catalog holding the standard demo targets.
func Builtin() *Catalog {
	c := New()
	c.Register(Divide())
	c.Register(Sum())
	c.Register(Greet())
	c.Register(Sqrt())
	c.Register(Clamp())
	c.Register(Negate())
	c.RegisterType(AccountType())
	return c
}

// Divide is divide(a, b): integer division.
func Divide() *contract.Function {
	schema := binding.MustSchema([]binding.Param{binding.Required("a"), binding.Required("b")})
	return contract.NewFunction("divide", schema, func(_ context.Context, args binding.Set) (any, error) {
		a, err := intArg(args, "a")
		if err != nil {
			return nil, err
		}
		b, err := intArg(args, "b")
		if err != nil {
			return nil, err
		}
		if b == 0 {
			return nil, ErrDivisionByZero
		}
		return a / b, nil
	})
}

// Sum is sum(*values): the total of any number of integers.
func Sum() *contract.Function {
	schema := binding.MustSchema(nil, binding.WithRestPositional("values"))
	return contract.NewFunction("sum", schema, func(_ context.Context, args binding.Set) (any, error) {
		values, _ := args["values"].([]any)
		total := 0
		for i, v := range values {
			n, err := toInt(fmt.Sprintf("values[%d]", i), v)
			if err != nil {
				return nil, err
			}
			total += n
		}
		return total, nil
	})
}

// Greet is greet(name, greeting="hello", **extra). A "punctuation" extra
// replaces the trailing "!"; other extras are appended as "key=value".
func Greet() *contract.Function {
	schema := binding.MustSchema(
		[]binding.Param{binding.Required("name"), binding.Optional("greeting", "hello")},
		binding.WithRestKeyword("extra"),
	)
	return contract.NewFunction("greet", schema, func(_ context.Context, args binding.Set) (any, error) {
		name, err := stringArg(args, "name")
		if err != nil {
			return nil, err
		}
		greeting, err := stringArg(args, "greeting")
		if err != nil {
			return nil, err
		}
		extra, _ := args["extra"].(map[string]any)

		punct := "!"
		if p, ok := extra["punctuation"].(string); ok {
			punct = p
		}
		out := fmt.Sprintf("%s, %s%s", greeting, name, punct)

		var rest []string
		for k, v := range extra {
			if k != "punctuation" {
				rest = append(rest, fmt.Sprintf("%s=%v", k, v))
			}
		}
		if len(rest) > 0 {
			sort.Strings(rest)
			out += " (" + strings.Join(rest, ", ") + ")"
		}
		return out, nil
	})
}

// Sqrt is sqrt(x). It does not guard against negative input; a contract
// is expected to.
func Sqrt() *contract.Function {
	schema := binding.MustSchema([]binding.Param{binding.Required("x")})
	return contract.NewFunction("sqrt", schema, func(_ context.Context, args binding.Set) (any, error) {
		x, err := floatArg(args, "x")
		if err != nil {
			return nil, err
		}
		return math.Sqrt(x), nil
	})
}

// Clamp is clamp(x, lo=0, hi=100).
func Clamp() *contract.Function {
	schema := binding.MustSchema([]binding.Param{
		binding.Required("x"),
		binding.Optional("lo", 0),
		binding.Optional("hi", 100),
	})
	return contract.NewFunction("clamp", schema, func(_ context.Context, args binding.Set) (any, error) {
		x, err := intArg(args, "x")
		if err != nil {
			return nil, err
		}
		lo, err := intArg(args, "lo")
		if err != nil {
			return nil, err
		}
		hi, err := intArg(args, "hi")
		if err != nil {
			return nil, err
		}
		return min(max(x, lo), hi), nil
	})
}

// Negate is negate(n): -n.
func Negate() *contract.Function {
	schema := binding.MustSchema([]binding.Param{binding.Required("n")})
	return contract.NewFunction("negate", schema, func(_ context.Context, args binding.Set) (any, error) {
		n, err := intArg(args, "n")
		if err != nil {
			return nil, err
		}
		return -n, nil
	})
}
