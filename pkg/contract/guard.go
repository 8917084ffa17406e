package contract

import (
	"context"
	"sync"

	"github.com/roach88/covenant/pkg/binding"
)

// Guard wraps a Callable with ordered pre- and postconditions.
//
// A Guard is safe for concurrent use. Conditions appended while a call is in
// flight apply from the next call on.
type Guard struct {
	fn       Callable
	observer Observer

	mu   sync.RWMutex
	pre  []Condition
	post []Condition
}

// Name returns the wrapped callable's name.
func (g *Guard) Name() string { return g.fn.Name() }

// Schema returns the wrapped callable's parameter schema.
func (g *Guard) Schema() *binding.Schema { return g.fn.Schema() }

// Unwrap returns the wrapped callable.
func (g *Guard) Unwrap() Callable { return g.fn }

// Preconditions returns the precondition descriptions in evaluation order.
func (g *Guard) Preconditions() []string {
	pre, _ := g.snapshot()
	return descriptions(pre)
}

// Postconditions returns the postcondition descriptions in evaluation order.
func (g *Guard) Postconditions() []string {
	_, post := g.snapshot()
	return descriptions(post)
}

// Invoke binds call, checks preconditions, runs the callable and checks
// postconditions.
//
// A binding failure returns a *binding.Error and runs nothing. A failing
// precondition returns a *Violation and the body never runs. When the body
// returns an error, that error is returned as is and no postcondition runs.
func (g *Guard) Invoke(ctx context.Context, call binding.Call) (any, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	name := g.fn.Name()

	args, err := binding.Bind(g.fn.Schema(), call)
	if err != nil {
		err = withTarget(err, name)
		emit(ctx, g.observer, Event{Target: name, Stage: StageBind, Outcome: OutcomeError, Detail: err.Error()})
		return nil, err
	}

	pre, post := g.snapshot()

	if err := g.checkAll(ctx, KindPrecondition, pre, args, nil); err != nil {
		return nil, err
	}

	result, err := g.fn.Apply(ctx, args)
	if err != nil {
		emit(ctx, g.observer, Event{Target: name, Stage: StageBody, Outcome: OutcomeError, Detail: err.Error()})
		return nil, err
	}
	emit(ctx, g.observer, Event{Target: name, Stage: StageBody, Outcome: OutcomeOK})

	if len(post) > 0 {
		extra := binding.Set{binding.ResultName: result}
		if err := g.checkAll(ctx, KindPostcondition, post, args, extra); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (g *Guard) checkAll(ctx context.Context, kind Kind, conds []Condition, args, extra binding.Set) error {
	stage := StagePrecondition
	if kind == KindPostcondition {
		stage = StagePostcondition
	}
	for _, c := range conds {
		err := Evaluate(ctx, c, args, extra)
		outcome, detail := outcomeOf(err)
		emit(ctx, g.observer, Event{
			Target:    g.fn.Name(),
			Stage:     stage,
			Condition: c.desc,
			Outcome:   outcome,
			Detail:    detail,
		})
		if err != nil {
			return &Violation{Kind: kind, Target: g.fn.Name(), Condition: c.desc, Cause: err}
		}
	}
	return nil
}

func (g *Guard) snapshot() (pre, post []Condition) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.pre, g.post
}

// attach validates every declaration before appending any of them.
func (g *Guard) attach(decls []Declaration) error {
	schema := g.fn.Schema()
	reserved := func(name string) bool {
		return name == binding.ResultName || schema.Declares(name)
	}
	for _, d := range decls {
		if d.kind != KindPrecondition && d.kind != KindPostcondition {
			return &DeclarationError{Target: g.fn.Name(), Message: "unknown declaration kind " + string(d.kind)}
		}
		if err := d.cond.validate(reserved); err != nil {
			return &DeclarationError{Target: g.fn.Name(), Message: err.Error()}
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	pre := append([]Condition(nil), g.pre...)
	post := append([]Condition(nil), g.post...)
	for _, d := range decls {
		if d.kind == KindPrecondition {
			pre = append(pre, d.cond)
		} else {
			post = append(post, d.cond)
		}
	}
	g.pre, g.post = pre, post
	return nil
}

func descriptions(conds []Condition) []string {
	out := make([]string, len(conds))
	for i, c := range conds {
		out[i] = c.desc
	}
	return out
}
