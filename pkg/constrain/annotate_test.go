package constrain

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/covenant/pkg/binding"
	"github.com/roach88/covenant/pkg/contract"
)

func sqrtFunc() *contract.Function {
	return contract.NewFunction("sqrt",
		binding.MustSchema([]binding.Param{binding.Required("x")}),
		func(_ context.Context, args binding.Set) (any, error) {
			return math.Sqrt(args["x"].(float64)), nil
		})
}

func enabled() *contract.Contracts {
	return contract.New(contract.WithToggle(contract.NewToggle(true)))
}

func TestArg_NamesOffendingValue(t *testing.T) {
	g, err := enabled().Declare(sqrtFunc(), Arg("x", Is(func(x float64) bool { return x >= 0 })))
	require.NoError(t, err)

	got, err := contract.Call(context.Background(), g, 16.0)
	require.NoError(t, err)
	assert.Equal(t, 4.0, got)

	_, err = contract.Call(context.Background(), g, -1.0)
	require.True(t, contract.IsPreconditionViolation(err))
	assert.Contains(t, err.Error(), "x=-1")
	assert.Contains(t, err.Error(), "argument x satisfies its constraint")
}

func TestArg_CheckErrorIsEvaluationError(t *testing.T) {
	g, err := enabled().Declare(sqrtFunc(), Arg("x", Is(func(x int) bool { return x >= 0 })))
	require.NoError(t, err)

	_, err = contract.Call(context.Background(), g, 4.0)
	assert.True(t, contract.IsPreconditionViolation(err))
	assert.True(t, contract.IsEvaluationError(err))
}

func TestReturns(t *testing.T) {
	fn := contract.NewFunction("negate",
		binding.MustSchema([]binding.Param{binding.Required("n")}),
		func(_ context.Context, args binding.Set) (any, error) {
			return -args["n"].(int), nil
		})
	g, err := enabled().Declare(fn, Returns(MustCUE(">=0")))
	require.NoError(t, err)

	got, err := contract.Call(context.Background(), g, -3)
	require.NoError(t, err)
	assert.Equal(t, 3, got)

	_, err = contract.Call(context.Background(), g, 3)
	assert.True(t, contract.IsPostconditionViolation(err))
}

func TestDeclarations_SchemaOrder(t *testing.T) {
	schema := binding.MustSchema(
		[]binding.Param{binding.Required("a"), binding.Required("b")},
		binding.WithRestPositional("rest"),
	)
	always := Is(func(any) bool { return true })

	decls, err := Declarations(schema, Annotations{
		Args:    map[string]ValueCheck{"rest": always, "b": always, "a": always},
		Returns: always,
	})
	require.NoError(t, err)
	require.Len(t, decls, 4)

	var got []string
	for _, d := range decls {
		got = append(got, d.Condition().Description())
	}
	assert.Equal(t, []string{
		"argument a satisfies its constraint",
		"argument b satisfies its constraint",
		"argument rest satisfies its constraint",
		"result satisfies its constraint",
	}, got)
	assert.Equal(t, contract.KindPostcondition, decls[3].Kind())
}

func TestDeclarations_UndeclaredName(t *testing.T) {
	schema := binding.MustSchema([]binding.Param{binding.Required("a")})
	_, err := Declarations(schema, Annotations{Args: map[string]ValueCheck{"zzz": Is(func(int) bool { return true })}})
	var de *contract.DeclarationError
	assert.ErrorAs(t, err, &de)
}

func TestApply(t *testing.T) {
	g, err := Apply(enabled(), sqrtFunc(), Annotations{
		Args:    map[string]ValueCheck{"x": MustTag("gte=0")},
		Returns: Is(func(r float64) bool { return r >= 0 }),
	})
	require.NoError(t, err)

	guard := g.(*contract.Guard)
	assert.Equal(t, []string{"argument x satisfies its constraint"}, guard.Preconditions())
	assert.Equal(t, []string{"result satisfies its constraint"}, guard.Postconditions())

	_, err = contract.Call(context.Background(), g, -4.0)
	assert.True(t, contract.IsPreconditionViolation(err))
}
