package manifest

import (
	"fmt"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// CompileError is a structural problem in a manifest, located in CUE source.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// CompileContract parses the CUE value for contract.<target>.
func CompileContract(target string, v cue.Value) (*Contract, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	if !v.Exists() {
		return nil, &CompileError{Field: "contract", Message: fmt.Sprintf("contract %q does not exist", target)}
	}

	c := &Contract{Target: target, Pos: v.Pos()}

	if pv := v.LookupPath(cue.ParsePath("params")); pv.Exists() {
		var params []string
		if err := pv.Decode(&params); err != nil {
			return nil, &CompileError{Field: "params", Message: "params must be a list of strings", Pos: pv.Pos()}
		}
		c.Params = params
		c.HasParams = true
	}

	var err error
	if c.Pre, err = parseConditions(v, "pre"); err != nil {
		return nil, err
	}
	if c.Post, err = parseConditions(v, "post"); err != nil {
		return nil, err
	}

	if av := v.LookupPath(cue.ParsePath("args")); av.Exists() {
		iter, err := av.Fields()
		if err != nil {
			return nil, &CompileError{Field: "args", Message: "args must be a struct of checks", Pos: av.Pos()}
		}
		c.Args = make(map[string]Check)
		for iter.Next() {
			chk, err := parseCheck("args."+iter.Label(), iter.Value())
			if err != nil {
				return nil, err
			}
			c.Args[iter.Label()] = chk
		}
	}

	if rv := v.LookupPath(cue.ParsePath("returns")); rv.Exists() {
		chk, err := parseCheck("returns", rv)
		if err != nil {
			return nil, err
		}
		c.Returns = &chk
	}

	if len(c.Pre) == 0 && len(c.Post) == 0 && len(c.Args) == 0 && c.Returns == nil {
		return nil, &CompileError{
			Field:   "contract",
			Message: fmt.Sprintf("contract %q declares no conditions", target),
			Pos:     v.Pos(),
		}
	}
	return c, nil
}

// CompileInvariant parses the CUE value for invariant.<typeName>.
func CompileInvariant(typeName string, v cue.Value) (*Invariant, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	if !v.Exists() {
		return nil, &CompileError{Field: "invariant", Message: fmt.Sprintf("invariant %q does not exist", typeName)}
	}
	cond, err := parseCondition("invariant", v)
	if err != nil {
		return nil, err
	}
	return &Invariant{Type: typeName, Condition: cond, Pos: v.Pos()}, nil
}

// parseConditions reads the optional list at field.
func parseConditions(v cue.Value, field string) ([]Condition, error) {
	lv := v.LookupPath(cue.ParsePath(field))
	if !lv.Exists() {
		return nil, nil
	}
	iter, err := lv.List()
	if err != nil {
		return nil, &CompileError{Field: field, Message: field + " must be a list of conditions", Pos: lv.Pos()}
	}
	var conds []Condition
	for iter.Next() {
		cond, err := parseCondition(field, iter.Value())
		if err != nil {
			return nil, err
		}
		conds = append(conds, cond)
	}
	return conds, nil
}

func parseCondition(field string, v cue.Value) (Condition, error) {
	nameVal := v.LookupPath(cue.ParsePath("name"))
	if !nameVal.Exists() {
		return Condition{}, &CompileError{Field: field + ".name", Message: "name is required", Pos: v.Pos()}
	}
	name, err := nameVal.String()
	if err != nil {
		return Condition{}, formatCUEError(err)
	}

	check := v.LookupPath(cue.ParsePath("check"))
	if !check.Exists() {
		return Condition{}, &CompileError{Field: field + ".check", Message: "check is required", Pos: v.Pos()}
	}
	if err := check.Err(); err != nil {
		return Condition{}, formatCUEError(err)
	}
	return Condition{Name: name, Check: check, Pos: v.Pos()}, nil
}

// parseCheck reads {tag: "..."} or {check: <constraint>}.
func parseCheck(field string, v cue.Value) (Check, error) {
	tagVal := v.LookupPath(cue.ParsePath("tag"))
	cueVal := v.LookupPath(cue.ParsePath("check"))

	switch {
	case tagVal.Exists() && cueVal.Exists():
		return Check{}, &CompileError{Field: field, Message: "tag and check are mutually exclusive", Pos: v.Pos()}
	case tagVal.Exists():
		tag, err := tagVal.String()
		if err != nil {
			return Check{}, formatCUEError(err)
		}
		if tag == "" {
			return Check{}, &CompileError{Field: field + ".tag", Message: "tag is empty", Pos: tagVal.Pos()}
		}
		return Check{Tag: tag, Pos: v.Pos()}, nil
	case cueVal.Exists():
		if err := cueVal.Err(); err != nil {
			return Check{}, formatCUEError(err)
		}
		return Check{CUE: cueVal, Pos: v.Pos()}, nil
	default:
		return Check{}, &CompileError{Field: field, Message: "one of tag or check is required", Pos: v.Pos()}
	}
}

// fieldLabels returns the labels of a struct value, sorted.
func fieldLabels(v cue.Value) ([]string, error) {
	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var labels []string
	for iter.Next() {
		labels = append(labels, iter.Label())
	}
	sort.Strings(labels)
	return labels, nil
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
