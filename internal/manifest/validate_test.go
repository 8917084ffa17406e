package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/covenant/internal/catalog"
)

func codes(errs []ValidationError) []string {
	var out []string
	for _, e := range errs {
		out = append(out, e.Code)
	}
	return out
}

func TestValidateValidManifest(t *testing.T) {
	m, errs := Load("testdata/valid", LoadModeCollectAll)
	require.Empty(t, errs)
	assert.Empty(t, Validate(m, catalog.Builtin()))
}

func TestValidateCollectsAllErrors(t *testing.T) {
	m, errs := Load("testdata/invalid", LoadModeCollectAll)
	require.Empty(t, errs)

	verrs := Validate(m, catalog.Builtin())
	assert.Equal(t, []string{
		ErrUndeclaredArgument, // clamp.args.y
		ErrParamsMismatch,     // divide.params
		ErrEmptyConditionName, // divide.pre[0]
		ErrUnboundCheckField,  // divide.pre[1] refers to c
		ErrCheckNotStruct,     // divide.post[0]
		ErrInvalidCheck,       // negate.args.n
		ErrUnknownTarget,      // nosuch
		ErrUnknownType,        // Ledger
	}, codes(verrs))

	assert.Equal(t, "contract.divide.pre[1].check.c", verrs[3].Field)
	assert.Positive(t, verrs[1].Line)
}

func TestValidateWithoutCatalog(t *testing.T) {
	m, errs := CompileString(`
		contract: anything: {
			params: ["x"]
			pre: [{name: "x positive", check: {x: >0}}, {name: "y positive", check: {y: >0}}]
		}
		invariant: Whatever: {name: "ok", check: {self: _}}
	`, LoadModeCollectAll)
	require.Empty(t, errs)

	verrs := Validate(m, nil)
	assert.Equal(t, []string{ErrUnboundCheckField}, codes(verrs))
}

func TestValidatePostMayReferToResult(t *testing.T) {
	m, errs := CompileString(`
		contract: negate: {
			pre: [{name: "no result here", check: {result: >0}}]
			post: [{name: "negated", check: {n: _, result: -n}}]
		}
	`, LoadModeCollectAll)
	require.Empty(t, errs)

	verrs := Validate(m, catalog.Builtin())
	require.Len(t, verrs, 1)
	assert.Equal(t, ErrUnboundCheckField, verrs[0].Code)
	assert.Equal(t, "contract.negate.pre[0].check.result", verrs[0].Field)
}

func TestValidateDuplicateConditionNames(t *testing.T) {
	m, errs := CompileString(`
		contract: divide: {
			pre: [{name: "same", check: {b: !=0}}]
			post: [{name: "same", check: {result: int}}]
		}
	`, LoadModeCollectAll)
	require.Empty(t, errs)
	assert.Equal(t, []string{ErrDuplicateCondition}, codes(Validate(m, catalog.Builtin())))
}

func TestValidateInvariantOnlySeesSelf(t *testing.T) {
	m, errs := CompileString(`
		invariant: Account: {name: "owner known", check: {owner: !=""}}
	`, LoadModeCollectAll)
	require.Empty(t, errs)
	assert.Equal(t, []string{ErrUnboundCheckField}, codes(Validate(m, catalog.Builtin())))
}

func TestValidationErrorFormat(t *testing.T) {
	err := ValidationError{Field: "contract.f", Message: `unknown target "f"`, Code: ErrUnknownTarget}
	assert.Equal(t, `[E201] contract.f: unknown target "f"`, err.Error())

	err.Line = 3
	assert.Equal(t, `[E201] line 3: contract.f: unknown target "f"`, err.Error())
}
