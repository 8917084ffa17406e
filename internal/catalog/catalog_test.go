package catalog

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/covenant/pkg/binding"
	"github.com/roach88/covenant/pkg/contract"
)

func enabled() *contract.Contracts {
	return contract.New(contract.WithToggle(contract.NewToggle(true)))
}

// ============================================================================
// Functions
// ============================================================================

func TestBuiltin_Names(t *testing.T) {
	c := Builtin()
	assert.Equal(t, []string{"clamp", "divide", "greet", "negate", "sqrt", "sum"}, c.FunctionNames())
	assert.Equal(t, []string{"Account"}, c.TypeNames())
}

func TestBuiltin_Unknown(t *testing.T) {
	c := Builtin()
	_, err := c.Function("nope")
	var ue *UnknownError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "function", ue.Kind)

	_, err = c.Type("Nope")
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, `unknown type "Nope"`, err.Error())
}

func TestFunctions(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		fn   *contract.Function
		call binding.Call
		want any
	}{
		{"divide", Divide(), binding.Args(7, 2), 3},
		{"divide float literal", Divide(), binding.Args(8.0, 2), 4},
		{"sum", Sum(), binding.Args(1, 2, 3), 6},
		{"sum empty", Sum(), binding.Args(), 0},
		{"greet default", Greet(), binding.Args("ada"), "hello, ada!"},
		{"greet keywords", Greet(), binding.Call{
			Args:   []any{"ada"},
			Kwargs: map[string]any{"greeting": "hi", "punctuation": "?", "mood": "calm"},
		}, "hi, ada? (mood=calm)"},
		{"sqrt", Sqrt(), binding.Args(9), 3.0},
		{"clamp high", Clamp(), binding.Args(150), 100},
		{"clamp low", Clamp(), binding.Kwargs(map[string]any{"x": -5, "lo": -2}), -2},
		{"negate", Negate(), binding.Args(4), -4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.fn.Invoke(ctx, tt.call)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDivide_ByZero(t *testing.T) {
	_, err := Divide().Invoke(context.Background(), binding.Args(1, 0))
	assert.ErrorIs(t, err, ErrDivisionByZero)
}

func TestFunctions_BadArguments(t *testing.T) {
	ctx := context.Background()

	_, err := Divide().Invoke(ctx, binding.Args("1", 2))
	assert.Error(t, err)

	_, err = Divide().Invoke(ctx, binding.Args(1.5, 2))
	assert.Error(t, err)

	_, err = Sum().Invoke(ctx, binding.Args(1, "two"))
	assert.Error(t, err)

	_, err = Divide().Invoke(ctx, binding.Args(1, 2, 3))
	assert.True(t, binding.IsKind(err, binding.KindArityMismatch))
}

func TestToInt(t *testing.T) {
	tests := []struct {
		name    string
		in      any
		want    int
		wantErr string
	}{
		{name: "int", in: 7, want: 7},
		{name: "int64", in: int64(-3), want: -3},
		{name: "uint64", in: uint64(42), want: 42},
		{name: "integral float", in: 9.0, want: 9},
		{name: "min int float", in: float64(math.MinInt), want: math.MinInt},
		{name: "fractional float", in: 1.5, wantErr: "must be an integer"},
		{name: "uint64 overflow", in: uint64(math.MaxUint64), wantErr: "out of range"},
		{name: "float overflow", in: 1e30, wantErr: "out of range"},
		{name: "float at 2^63", in: math.Ldexp(1, 63), wantErr: "out of range"},
		{name: "negative float overflow", in: -1e30, wantErr: "out of range"},
		{name: "infinity", in: math.Inf(1), wantErr: "out of range"},
		{name: "NaN", in: math.NaN(), wantErr: "must be an integer"},
		{name: "string", in: "1", wantErr: "must be an integer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := toInt("x", tt.in)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDivide_RejectsOverflowingArgument(t *testing.T) {
	_, err := Divide().Invoke(context.Background(), binding.Args(uint64(math.MaxUint64), 1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}

// ============================================================================
// Account
// ============================================================================

func nonNegative() *Invariant {
	return &Invariant{
		Description: "balance is non-negative",
		Predicate: contract.InstanceCheck(func(_ context.Context, a *Account) (bool, error) {
			return a.Balance >= 0, nil
		}),
	}
}

func newAccount(t *testing.T, inv *Invariant, owner string, balance int) *GuardedAccount {
	t.Helper()
	obj, err := AccountType().Instantiate(enabled(), inv, binding.Args(owner, balance))
	require.NoError(t, err)
	return obj.(*GuardedAccount)
}

func TestAccount_Methods(t *testing.T) {
	ctx := context.Background()
	acc := newAccount(t, nonNegative(), "ada", 10)

	_, err := acc.Invoke(ctx, "Deposit", binding.Args(5))
	require.NoError(t, err)
	got, err := acc.Invoke(ctx, "Balance", binding.Args())
	require.NoError(t, err)
	assert.Equal(t, 15, got)
	assert.Equal(t, map[string]any{"owner": "ada", "balance": 15}, acc.State())
	assert.Equal(t, []string{"Adjust", "Balance", "Deposit", "Transfer", "Withdraw"}, acc.Methods())
}

func TestAccount_ExitViolationKeepsMutation(t *testing.T) {
	acc := newAccount(t, nonNegative(), "ada", 10)

	_, err := acc.Invoke(context.Background(), "Withdraw", binding.Args(25))
	require.True(t, contract.IsInvariantViolation(err))
	assert.Equal(t, -15, acc.State()["balance"])
}

func TestAccount_TransferChecksBothAccounts(t *testing.T) {
	ctx := context.Background()
	from := newAccount(t, nonNegative(), "ada", 10)
	to := newAccount(t, nonNegative(), "bob", 0)

	_, err := from.Invoke(ctx, "Transfer", binding.Args(to, 4))
	require.NoError(t, err)
	assert.Equal(t, 6, from.State()["balance"])
	assert.Equal(t, 4, to.State()["balance"])

	_, err = from.Invoke(ctx, "Transfer", binding.Args(to, 100))
	v, ok := contract.AsViolation(err)
	require.True(t, ok)
	assert.Equal(t, "Account.Transfer", v.Target)
	assert.Equal(t, contract.PhaseExit, v.Phase)
}

func TestAccount_AdjustTransientBreach(t *testing.T) {
	acc := newAccount(t, nonNegative(), "ada", 10)

	_, err := acc.Invoke(context.Background(), "Adjust", binding.Args(-3))
	require.NoError(t, err)
	assert.Equal(t, 7, acc.State()["balance"])
}

func TestAccount_Unguarded(t *testing.T) {
	acc := newAccount(t, nil, "ada", 0)
	_, err := acc.Invoke(context.Background(), "Withdraw", binding.Args(5))
	require.NoError(t, err)
	assert.Equal(t, -5, acc.State()["balance"])
}

func TestAccount_InvokeErrors(t *testing.T) {
	ctx := context.Background()
	acc := newAccount(t, nil, "ada", 0)

	_, err := acc.Invoke(ctx, "Explode", binding.Args())
	assert.Error(t, err)

	_, err = acc.Invoke(ctx, "Deposit", binding.Args())
	var be *binding.Error
	require.ErrorAs(t, err, &be)
	assert.Equal(t, "Account.Deposit", be.Target)

	_, err = acc.Invoke(ctx, "Transfer", binding.Args("bob", 1))
	assert.Error(t, err)
}

func TestAccountType_Instantiate(t *testing.T) {
	_, err := AccountType().Instantiate(enabled(), nil, binding.Args())
	var be *binding.Error
	require.ErrorAs(t, err, &be)
	assert.Equal(t, "Account", be.Target)

	obj, err := AccountType().Instantiate(enabled(), nil, binding.Kwargs(map[string]any{"owner": "ada"}))
	require.NoError(t, err)
	assert.Equal(t, 0, obj.State()["balance"])
}
