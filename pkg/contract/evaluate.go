package contract

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/covenant/pkg/binding"
)

// Evaluate runs cond against args.
//
// The predicate sees a private merge of args, the condition's auxiliary
// bindings and extra (extra wins on collisions); args itself is never
// modified, including collected rest values. Returns nil when the condition holds, a *ConditionFailure when
// the predicate returns false, and an *EvaluationError when the predicate
// returns an error or panics. A *Rejection from the predicate counts as false.
func Evaluate(ctx context.Context, cond Condition, args binding.Set, extra binding.Set) (err error) {
	if cond.pred == nil {
		return &EvaluationError{Condition: cond.desc, Cause: fmt.Errorf("no predicate")}
	}

	merged := args.Merge(cond.aux, extra).Isolate()

	defer func() {
		if r := recover(); r != nil {
			cause, ok := r.(error)
			if !ok {
				cause = fmt.Errorf("panic: %v", r)
			}
			err = &EvaluationError{Condition: cond.desc, Cause: cause}
		}
	}()

	ok, perr := cond.pred.Check(ctx, merged)
	if perr != nil {
		var rej *Rejection
		if errors.As(perr, &rej) {
			return &ConditionFailure{Condition: cond.desc, Reason: rej.Reason}
		}
		return &EvaluationError{Condition: cond.desc, Cause: perr}
	}
	if !ok {
		return &ConditionFailure{Condition: cond.desc}
	}
	return nil
}

// outcomeOf classifies an Evaluate result for observers.
func outcomeOf(err error) (Outcome, string) {
	switch e := err.(type) {
	case nil:
		return OutcomeOK, ""
	case *ConditionFailure:
		return OutcomeFailed, e.Error()
	default:
		return OutcomeError, err.Error()
	}
}
