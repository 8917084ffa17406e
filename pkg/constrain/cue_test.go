package constrain

import (
	"context"
	"errors"
	"sync"
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/covenant/pkg/binding"
	"github.com/roach88/covenant/pkg/contract"
)

func compileStruct(t *testing.T, src string) cue.Value {
	t.Helper()
	v := cuecontext.New().CompileString(src)
	require.NoError(t, v.Err())
	return v
}

func TestStructCheck_Holds(t *testing.T) {
	pred, err := StructCheck(compileStruct(t, `{b: !=0}`))
	require.NoError(t, err)

	ok, err := pred.Check(context.Background(), binding.Set{"a": 1, "b": 2})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStructCheck_ConflictIsRejection(t *testing.T) {
	pred, err := StructCheck(compileStruct(t, `{b: !=0}`))
	require.NoError(t, err)

	_, err = pred.Check(context.Background(), binding.Set{"a": 1, "b": 0})
	var rej *contract.Rejection
	assert.ErrorAs(t, err, &rej)
}

func TestStructCheck_ReferencesOtherBindings(t *testing.T) {
	pred, err := StructCheck(compileStruct(t, `{a: _, result: <=a}`))
	require.NoError(t, err)
	ctx := context.Background()

	ok, err := pred.Check(ctx, binding.Set{"a": 10, "result": 5})
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = pred.Check(ctx, binding.Set{"a": 10, "result": 11})
	var rej *contract.Rejection
	assert.ErrorAs(t, err, &rej)
}

func TestStructCheck_NestedStruct(t *testing.T) {
	type acct struct {
		Balance int `json:"balance"`
	}
	pred, err := StructCheck(compileStruct(t, `{self: balance: >=0}`))
	require.NoError(t, err)
	ctx := context.Background()

	ok, err := pred.Check(ctx, binding.Set{"self": &acct{Balance: 3}})
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = pred.Check(ctx, binding.Set{"self": &acct{Balance: -1}})
	var rej *contract.Rejection
	assert.ErrorAs(t, err, &rej)
}

func TestStructCheck_UnboundNameIsError(t *testing.T) {
	pred, err := StructCheck(compileStruct(t, `{c: >0}`))
	require.NoError(t, err)

	_, err = pred.Check(context.Background(), binding.Set{"a": 1})
	require.Error(t, err)
	var rej *contract.Rejection
	assert.False(t, errors.As(err, &rej))
}

func TestStructCheck_RejectsNonStruct(t *testing.T) {
	_, err := StructCheck(compileStruct(t, `>0`))
	assert.Error(t, err)
}

func TestStructCheck_ThroughGuard(t *testing.T) {
	pred, err := StructCheck(compileStruct(t, `{b: !=0}`))
	require.NoError(t, err)

	fn := contract.NewFunction("divide",
		binding.MustSchema([]binding.Param{binding.Required("a"), binding.Required("b")}),
		func(_ context.Context, args binding.Set) (any, error) {
			return args["a"].(int) / args["b"].(int), nil
		})
	c := contract.New(contract.WithToggle(contract.NewToggle(true)))
	g, err := c.Declare(fn, contract.Pre("b is nonzero", pred))
	require.NoError(t, err)

	_, err = contract.Call(context.Background(), g, 1, 0)
	assert.True(t, contract.IsPreconditionViolation(err))
	assert.False(t, contract.IsEvaluationError(err))

	got, err := contract.Call(context.Background(), g, 8, 2)
	require.NoError(t, err)
	assert.Equal(t, 4, got)
}

func TestStructCheck_Concurrent(t *testing.T) {
	pred, err := StructCheck(compileStruct(t, `{n: >=0}`))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ok, err := pred.Check(context.Background(), binding.Set{"n": i})
			assert.NoError(t, err)
			assert.True(t, ok)
		}(i)
	}
	wg.Wait()
}

func TestStructCheck_ConcurrentSharedContext(t *testing.T) {
	root := cuecontext.New().CompileString(`a: {n: >=0}, b: {m: <=9}`)
	require.NoError(t, root.Err())

	first, err := StructCheck(root.LookupPath(cue.ParsePath("a")))
	require.NoError(t, err)
	second, err := StructCheck(root.LookupPath(cue.ParsePath("b")))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			ok, err := first.Check(context.Background(), binding.Set{"n": i})
			assert.NoError(t, err)
			assert.True(t, ok)
		}(i)
		go func(i int) {
			defer wg.Done()
			ok, err := second.Check(context.Background(), binding.Set{"m": i % 10})
			assert.NoError(t, err)
			assert.True(t, ok)
		}(i)
	}
	wg.Wait()
}

func TestLockFor_SharedPerContext(t *testing.T) {
	ctx := cuecontext.New()
	root := ctx.CompileString(`a: 1, b: 2`)
	other := cuecontext.New().CompileString(`c: 3`)

	a := newConstraint(root.LookupPath(cue.ParsePath("a")))
	b := newConstraint(root.LookupPath(cue.ParsePath("b")))
	c := newConstraint(other.LookupPath(cue.ParsePath("c")))

	assert.Same(t, a.mu, b.mu)
	assert.NotSame(t, a.mu, c.mu)
}

func TestLabels(t *testing.T) {
	labels, err := Labels(compileStruct(t, `{a: _, result: <=a}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "result"}, labels)
}
