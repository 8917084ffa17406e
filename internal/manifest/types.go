package manifest

import (
	"cuelang.org/go/cue"
	"cuelang.org/go/cue/token"
)

// Manifest is a compiled contract manifest.
type Manifest struct {
	// Contracts are sorted by target name.
	Contracts []Contract

	// Invariants are sorted by type name.
	Invariants []Invariant

	// Value is the CUE value the manifest was compiled from.
	Value cue.Value

	// FileCount is the number of .cue files read by Load.
	FileCount int
}

// Contract holds the conditions declared for one function target.
type Contract struct {
	Target string

	// Params, when HasParams is set, must equal the target's parameter
	// names in order.
	Params    []string
	HasParams bool

	Pre  []Condition
	Post []Condition

	// Args maps parameter names to value checks; Returns checks the result.
	Args    map[string]Check
	Returns *Check

	Pos token.Pos
}

// Condition is a named CUE struct constraint over bindings.
type Condition struct {
	Name  string
	Check cue.Value
	Pos   token.Pos
}

// Check is a single-value constraint: either a validator tag or a CUE value.
type Check struct {
	Tag string
	CUE cue.Value
	Pos token.Pos
}

// IsTag reports whether the check is a validator tag.
func (c Check) IsTag() bool { return c.Tag != "" }

// Invariant is the instance condition declared for a catalog type.
type Invariant struct {
	Type      string
	Condition Condition
	Pos       token.Pos
}

// Contract returns the contract for target, if any.
func (m *Manifest) Contract(target string) (Contract, bool) {
	for _, c := range m.Contracts {
		if c.Target == target {
			return c, true
		}
	}
	return Contract{}, false
}

// Invariant returns the invariant for typeName, if any.
func (m *Manifest) Invariant(typeName string) (Invariant, bool) {
	for _, inv := range m.Invariants {
		if inv.Type == typeName {
			return inv, true
		}
	}
	return Invariant{}, false
}
