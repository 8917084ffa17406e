package manifest

import (
	"errors"
	"fmt"

	"github.com/roach88/covenant/internal/catalog"
	"github.com/roach88/covenant/pkg/binding"
	"github.com/roach88/covenant/pkg/constrain"
	"github.com/roach88/covenant/pkg/contract"
)

// Program is a catalog with a manifest's contracts declared on it.
type Program struct {
	contracts  *contract.Contracts
	catalog    *catalog.Catalog
	targets    map[string]contract.Target
	invariants map[string]*catalog.Invariant
}

// Apply validates m against cat and declares every contract through c.
// Functions without a contract stay callable, unguarded. Whether anything
// is enforced is decided by c's toggle at this point.
func Apply(c *contract.Contracts, cat *catalog.Catalog, m *Manifest) (*Program, error) {
	if verrs := Validate(m, cat); len(verrs) > 0 {
		errs := make([]error, len(verrs))
		for i, e := range verrs {
			errs[i] = e
		}
		return nil, errors.Join(errs...)
	}

	p := &Program{
		contracts:  c,
		catalog:    cat,
		targets:    make(map[string]contract.Target),
		invariants: make(map[string]*catalog.Invariant),
	}

	for _, spec := range m.Contracts {
		fn, err := cat.Function(spec.Target)
		if err != nil {
			return nil, err
		}
		decls, err := declarations(fn.Schema(), spec)
		if err != nil {
			return nil, fmt.Errorf("contract %s: %w", spec.Target, err)
		}
		target, err := c.Declare(fn, decls...)
		if err != nil {
			return nil, fmt.Errorf("contract %s: %w", spec.Target, err)
		}
		p.targets[spec.Target] = target
	}

	for _, spec := range m.Invariants {
		pred, err := constrain.StructCheck(spec.Condition.Check)
		if err != nil {
			return nil, fmt.Errorf("invariant %s: %w", spec.Type, err)
		}
		p.invariants[spec.Type] = &catalog.Invariant{Description: spec.Condition.Name, Predicate: pred}
	}
	return p, nil
}

// declarations orders annotation checks before explicit conditions of the
// same kind.
func declarations(schema *binding.Schema, spec Contract) ([]contract.Declaration, error) {
	var ann constrain.Annotations
	if len(spec.Args) > 0 {
		ann.Args = make(map[string]constrain.ValueCheck, len(spec.Args))
		for name, chk := range spec.Args {
			vc, err := valueCheck(chk)
			if err != nil {
				return nil, fmt.Errorf("args.%s: %w", name, err)
			}
			ann.Args[name] = vc
		}
	}
	if spec.Returns != nil {
		vc, err := valueCheck(*spec.Returns)
		if err != nil {
			return nil, fmt.Errorf("returns: %w", err)
		}
		ann.Returns = vc
	}
	annotated, err := constrain.Declarations(schema, ann)
	if err != nil {
		return nil, err
	}

	var pre, post []contract.Declaration
	for _, d := range annotated {
		if d.Kind() == contract.KindPrecondition {
			pre = append(pre, d)
		} else {
			post = append(post, d)
		}
	}
	for _, cond := range spec.Pre {
		pred, err := constrain.StructCheck(cond.Check)
		if err != nil {
			return nil, fmt.Errorf("pre %q: %w", cond.Name, err)
		}
		pre = append(pre, contract.Pre(cond.Name, pred))
	}
	for _, cond := range spec.Post {
		pred, err := constrain.StructCheck(cond.Check)
		if err != nil {
			return nil, fmt.Errorf("post %q: %w", cond.Name, err)
		}
		post = append(post, contract.Post(cond.Name, pred))
	}
	return append(pre, post...), nil
}

// Target returns the named function, guarded when the manifest declared
// a contract for it.
func (p *Program) Target(name string) (contract.Target, error) {
	if t, ok := p.targets[name]; ok {
		return t, nil
	}
	fn, err := p.catalog.Function(name)
	if err != nil {
		return nil, err
	}
	return fn, nil
}

// Invariant returns the invariant declared for typeName, or nil.
func (p *Program) Invariant(typeName string) *catalog.Invariant {
	return p.invariants[typeName]
}

// New instantiates typeName with its declared invariant.
func (p *Program) New(typeName string, call binding.Call) (catalog.Object, error) {
	t, err := p.catalog.Type(typeName)
	if err != nil {
		return nil, err
	}
	return t.Instantiate(p.contracts, p.invariants[typeName], call)
}

// Guarded returns the names of targets with declared contracts, sorted.
func (p *Program) Guarded() []string {
	return sortedKeys(p.targets)
}

// Catalog returns the underlying catalog.
func (p *Program) Catalog() *catalog.Catalog { return p.catalog }
