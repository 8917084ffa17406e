package contract

import (
	"context"
	"log/slog"
)

// Stage names the point in a guarded call an Event describes.
type Stage string

const (
	StageBind           Stage = "bind"
	StagePrecondition   Stage = "precondition"
	StageBody           Stage = "body"
	StagePostcondition  Stage = "postcondition"
	StageInvariantEntry Stage = "invariant_entry"
	StageInvariantExit  Stage = "invariant_exit"
)

// Outcome is the result of one stage.
type Outcome string

const (
	OutcomeOK     Outcome = "ok"
	OutcomeFailed Outcome = "failed"
	OutcomeError  Outcome = "error"
)

// Event is one observed step of a guarded call.
type Event struct {
	Target    string
	Stage     Stage
	Condition string // empty for bind and body stages
	Outcome   Outcome
	Detail    string
}

// Observer receives events from guards and invariants. Observers must not
// block; they run inline on the calling goroutine and cannot change the
// outcome of the call.
type Observer interface {
	Observe(ctx context.Context, e Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, e Event)

// Observe implements Observer.
func (f ObserverFunc) Observe(ctx context.Context, e Event) { f(ctx, e) }

// MultiObserver fans events out to every non-nil observer in order.
func MultiObserver(observers ...Observer) Observer {
	var list []Observer
	for _, o := range observers {
		if o != nil {
			list = append(list, o)
		}
	}
	switch len(list) {
	case 0:
		return nil
	case 1:
		return list[0]
	}
	return ObserverFunc(func(ctx context.Context, e Event) {
		for _, o := range list {
			o.Observe(ctx, e)
		}
	})
}

// NewLogObserver logs every event to logger. Passing checks log at Debug,
// failures and errors at Warn.
func NewLogObserver(logger *slog.Logger) Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return ObserverFunc(func(ctx context.Context, e Event) {
		level := slog.LevelDebug
		if e.Outcome != OutcomeOK {
			level = slog.LevelWarn
		}
		attrs := []any{
			"target", e.Target,
			"stage", string(e.Stage),
			"outcome", string(e.Outcome),
		}
		if e.Condition != "" {
			attrs = append(attrs, "condition", e.Condition)
		}
		if e.Detail != "" {
			attrs = append(attrs, "detail", e.Detail)
		}
		logger.Log(ctx, level, "contract check", attrs...)
	})
}

func emit(ctx context.Context, o Observer, e Event) {
	if o != nil {
		o.Observe(ctx, e)
	}
}
