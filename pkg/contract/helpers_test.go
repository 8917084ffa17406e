package contract

import (
	"context"
	"errors"
	"sync"

	"github.com/roach88/covenant/pkg/binding"
)

func enabled() *Contracts {
	return New(WithToggle(NewToggle(true)))
}

func divideFunc(calls *int) *Function {
	schema := binding.MustSchema([]binding.Param{binding.Required("a"), binding.Required("b")})
	return NewFunction("divide", schema, func(_ context.Context, args binding.Set) (any, error) {
		if calls != nil {
			*calls++
		}
		return binding.MustGet[int](args, "a") / binding.MustGet[int](args, "b"), nil
	})
}

// recorder collects observer events.
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Observe(_ context.Context, e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) stages() []Stage {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Stage, len(r.events))
	for i, e := range r.events {
		out[i] = e.Stage
	}
	return out
}

// trace returns a predicate that appends name to log and answers ok.
func trace(log *[]string, name string, ok bool) Predicate {
	return Check(func(binding.Set) bool {
		*log = append(*log, name)
		return ok
	})
}

var errBoom = errors.New("boom")
