package manifest

import (
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileContractBasic(t *testing.T) {
	v := cuecontext.New().CompileString(`
		contract: divide: {
			params: ["a", "b"]
			args: b: tag: "ne=0"
			returns: check: int
			pre: [{name: "b is nonzero", check: {b: !=0}}]
			post: [{name: "result bounded", check: {a: _, result: <=a}}]
		}
	`)
	require.NoError(t, v.Err())

	c, err := CompileContract("divide", v.LookupPath(cue.ParsePath("contract.divide")))
	require.NoError(t, err)

	assert.Equal(t, "divide", c.Target)
	assert.True(t, c.HasParams)
	assert.Equal(t, []string{"a", "b"}, c.Params)
	require.Len(t, c.Pre, 1)
	assert.Equal(t, "b is nonzero", c.Pre[0].Name)
	require.Len(t, c.Post, 1)
	assert.Equal(t, "result bounded", c.Post[0].Name)
	require.Contains(t, c.Args, "b")
	assert.True(t, c.Args["b"].IsTag())
	assert.Equal(t, "ne=0", c.Args["b"].Tag)
	require.NotNil(t, c.Returns)
	assert.False(t, c.Returns.IsTag())
}

func TestCompileContractWithoutParams(t *testing.T) {
	v := cuecontext.New().CompileString(`
		contract: negate: pre: [{name: "n small", check: {n: <100}}]
	`)
	c, err := CompileContract("negate", v.LookupPath(cue.ParsePath("contract.negate")))
	require.NoError(t, err)
	assert.False(t, c.HasParams)
	assert.Nil(t, c.Params)
}

func TestCompileContractErrors(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		field string
	}{
		{"no conditions", `contract: f: {}`, "contract"},
		{"missing name", `contract: f: pre: [{check: {a: >0}}]`, "pre.name"},
		{"missing check", `contract: f: post: [{name: "x"}]`, "post.check"},
		{"pre not a list", `contract: f: pre: {name: "x"}`, "pre"},
		{"params not strings", `contract: f: {params: [1], pre: [{name: "x", check: {}}]}`, "params"},
		{"tag and check", `contract: f: args: a: {tag: "gte=0", check: >0}`, "args.a"},
		{"neither tag nor check", `contract: f: args: a: {}`, "args.a"},
		{"empty tag", `contract: f: returns: tag: ""`, "returns.tag"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := cuecontext.New().CompileString(tt.src)
			require.NoError(t, v.Err())

			_, err := CompileContract("f", v.LookupPath(cue.ParsePath("contract.f")))
			require.Error(t, err)
			var ce *CompileError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.field, ce.Field)
		})
	}
}

func TestCompileContractNonExistentPath(t *testing.T) {
	v := cuecontext.New().CompileString(`contract: {}`)
	_, err := CompileContract("missing", v.LookupPath(cue.ParsePath("contract.missing")))
	require.Error(t, err)
}

func TestCompileInvariant(t *testing.T) {
	v := cuecontext.New().CompileString(`
		invariant: Account: {name: "balance non-negative", check: self: balance: >=0}
	`)
	inv, err := CompileInvariant("Account", v.LookupPath(cue.ParsePath("invariant.Account")))
	require.NoError(t, err)
	assert.Equal(t, "Account", inv.Type)
	assert.Equal(t, "balance non-negative", inv.Condition.Name)
	assert.Equal(t, cue.StructKind, inv.Condition.Check.IncompleteKind())
}

func TestCompileInvariantMissingCheck(t *testing.T) {
	v := cuecontext.New().CompileString(`invariant: Account: name: "x"`)
	_, err := CompileInvariant("Account", v.LookupPath(cue.ParsePath("invariant.Account")))
	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "invariant.check", ce.Field)
}

func TestCompileErrorFormat(t *testing.T) {
	err := &CompileError{Field: "pre.name", Message: "name is required"}
	assert.Equal(t, "pre.name: name is required", err.Error())
}

func TestCompileErrorPosition(t *testing.T) {
	v := cuecontext.New().CompileString(`contract: f: pre: [{check: {a: >0}}]`, cue.Filename("f.cue"))
	_, err := CompileContract("f", v.LookupPath(cue.ParsePath("contract.f")))
	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.True(t, ce.Pos.IsValid())
	assert.Contains(t, err.Error(), "f.cue:1:")
}
