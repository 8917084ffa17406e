package contract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/covenant/pkg/binding"
)

func TestEvaluate_Outcomes(t *testing.T) {
	ctx := context.Background()
	args := binding.Set{"x": 1}

	assert.NoError(t, Evaluate(ctx, NewCondition("holds", Check(func(binding.Set) bool { return true })), args, nil))

	err := Evaluate(ctx, NewCondition("fails", Check(func(binding.Set) bool { return false })), args, nil)
	var cf *ConditionFailure
	require.ErrorAs(t, err, &cf)
	assert.Equal(t, "fails", cf.Condition)

	err = Evaluate(ctx, NewCondition("errs", CheckErr(func(binding.Set) (bool, error) { return true, errBoom })), args, nil)
	var ee *EvaluationError
	require.ErrorAs(t, err, &ee)
	assert.ErrorIs(t, err, errBoom)

	err = Evaluate(ctx, NewCondition("panics", Check(func(binding.Set) bool { panic("nope") })), args, nil)
	require.ErrorAs(t, err, &ee)
	assert.Contains(t, err.Error(), "panic: nope")

	err = Evaluate(ctx, NewCondition("rejects", CheckErr(func(binding.Set) (bool, error) {
		return true, Reject("x=%d is odd", 1)
	})), args, nil)
	require.ErrorAs(t, err, &cf)
	assert.Equal(t, "x=1 is odd", cf.Reason)
	assert.Equal(t, `condition "rejects" not met: x=1 is odd`, err.Error())
	assert.False(t, IsEvaluationError(err))

	err = Evaluate(ctx, Condition{desc: "empty"}, args, nil)
	require.ErrorAs(t, err, &ee)
}

func TestEvaluate_DoesNotMutateArgs(t *testing.T) {
	args := binding.Set{"x": 1}
	cond := NewCondition("writes", Check(func(s binding.Set) bool {
		s["x"] = 99
		s["y"] = 2
		return true
	}), WithBindings(binding.Set{"aux": 3}))

	require.NoError(t, Evaluate(context.Background(), cond, args, binding.Set{"extra": 4}))
	assert.Equal(t, binding.Set{"x": 1}, args)
	assert.Equal(t, binding.Set{"aux": 3}, cond.Aux())
}

func TestEvaluate_Precedence(t *testing.T) {
	var seen binding.Set
	cond := NewCondition("capture", Check(func(s binding.Set) bool {
		seen = s
		return true
	}), WithBindings(binding.Set{"k": "aux", "only_aux": 1}))

	require.NoError(t, Evaluate(context.Background(), cond, binding.Set{"k": "call"}, binding.Set{"k": "extra"}))
	assert.Equal(t, "extra", seen["k"])
	assert.Equal(t, 1, seen["only_aux"])
}

func TestWithBindings_Copies(t *testing.T) {
	aux := binding.Set{"limit": 1}
	cond := NewCondition("c", Check(func(binding.Set) bool { return true }), WithBindings(aux))
	aux["limit"] = 2
	assert.Equal(t, 1, cond.Aux()["limit"])
}

func TestViolation_ErrorMessages(t *testing.T) {
	v := &Violation{
		Kind:      KindInvariant,
		Target:    "Account.Withdraw",
		Condition: "balance is non-negative",
		Phase:     PhaseExit,
		Cause:     &ConditionFailure{Condition: "balance is non-negative"},
	}
	assert.Equal(t, `invariant violation on exit: condition "balance is non-negative" not met (target=Account.Withdraw)`, v.Error())

	v = &Violation{Kind: KindPostcondition, Condition: "c"}
	assert.Equal(t, `postcondition violation: condition "c" not met`, v.Error())

	de := &DeclarationError{Message: "target is nil"}
	assert.Equal(t, "invalid contract declaration: target is nil", de.Error())
}
