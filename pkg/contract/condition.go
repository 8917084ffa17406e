package contract

import (
	"fmt"
	"strings"

	"github.com/roach88/covenant/pkg/binding"
)

// Condition is a described predicate plus the auxiliary bindings it sees in
// addition to the call's own. Conditions are immutable.
type Condition struct {
	desc string
	pred Predicate
	aux  binding.Set
}

// ConditionOption configures a Condition.
type ConditionOption func(*Condition)

// WithBindings makes extra names visible to the condition's predicate only.
// The map is copied.
func WithBindings(aux binding.Set) ConditionOption {
	return func(c *Condition) {
		c.aux = c.aux.Merge(aux)
	}
}

// NewCondition builds a Condition. desc names the condition in violations.
func NewCondition(desc string, pred Predicate, opts ...ConditionOption) Condition {
	c := Condition{desc: desc, pred: pred}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Description returns the condition's description.
func (c Condition) Description() string { return c.desc }

// Aux returns a copy of the condition's auxiliary bindings.
func (c Condition) Aux() binding.Set { return c.aux.Clone() }

// validate checks c against the names already claimed by a target.
func (c Condition) validate(reserved func(name string) bool) error {
	if strings.TrimSpace(c.desc) == "" {
		return fmt.Errorf("condition description is empty")
	}
	if c.pred == nil {
		return fmt.Errorf("condition %q has no predicate", c.desc)
	}
	for _, name := range c.aux.Names() {
		if reserved(name) {
			return fmt.Errorf("condition %q: auxiliary binding %q shadows a reserved or declared name", c.desc, name)
		}
	}
	return nil
}
