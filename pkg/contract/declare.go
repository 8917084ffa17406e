package contract

import "log/slog"

// Declaration is one condition waiting to be attached to a target.
type Declaration struct {
	kind Kind
	cond Condition
}

// Pre declares a precondition, checked against the bound arguments before
// the body runs.
func Pre(desc string, pred Predicate, opts ...ConditionOption) Declaration {
	return Declaration{kind: KindPrecondition, cond: NewCondition(desc, pred, opts...)}
}

// Post declares a postcondition, checked after the body returns with the
// result bound to binding.ResultName.
func Post(desc string, pred Predicate, opts ...ConditionOption) Declaration {
	return Declaration{kind: KindPostcondition, cond: NewCondition(desc, pred, opts...)}
}

// Requires declares cond as a precondition.
func Requires(cond Condition) Declaration {
	return Declaration{kind: KindPrecondition, cond: cond}
}

// Ensures declares cond as a postcondition.
func Ensures(cond Condition) Declaration {
	return Declaration{kind: KindPostcondition, cond: cond}
}

// Kind returns whether d is a pre- or postcondition.
func (d Declaration) Kind() Kind { return d.kind }

// Condition returns the declared condition.
func (d Declaration) Condition() Condition { return d.cond }

// Contracts attaches conditions to targets.
type Contracts struct {
	toggle   *Toggle
	observer Observer
	logger   *slog.Logger
}

// Option configures Contracts.
type Option func(*Contracts)

// WithToggle sets the toggle consulted at declaration time.
// Defaults to Default.
func WithToggle(t *Toggle) Option {
	return func(c *Contracts) {
		if t != nil {
			c.toggle = t
		}
	}
}

// WithObserver installs an observer on every guard and invariant created
// from these Contracts.
func WithObserver(o Observer) Option {
	return func(c *Contracts) {
		c.observer = o
	}
}

// WithLogger sets the logger for declaration-time messages.
// Defaults to slog.Default() at the time of logging.
func WithLogger(l *slog.Logger) Option {
	return func(c *Contracts) {
		c.logger = l
	}
}

// New returns Contracts configured by opts.
func New(opts ...Option) *Contracts {
	c := &Contracts{toggle: Default}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Enabled reports whether declarations made now would be enforced.
func (c *Contracts) Enabled() bool {
	return c.toggle.IsEnabled()
}

// Declare attaches decls to target.
//
// With the toggle off, target is returned unchanged. If target is already a
// *Guard the conditions are appended to it and the same *Guard is returned;
// the guard keeps the observer it was created with, so c's WithObserver
// does not apply to it. Otherwise target must be a Callable and a new *Guard wrapping it is
// returned. Either all of decls are attached or, on error, none are.
func (c *Contracts) Declare(target Target, decls ...Declaration) (Target, error) {
	if target == nil {
		return nil, &DeclarationError{Message: "target is nil"}
	}
	if !c.toggle.IsEnabled() {
		c.log().Debug("contracts disabled, target left unwrapped",
			"target", target.Name(),
			"conditions", len(decls))
		return target, nil
	}

	switch t := target.(type) {
	case *Guard:
		if err := t.attach(decls); err != nil {
			return nil, err
		}
		if c.observer != nil {
			c.log().Debug("observer not applied to existing guard",
				"target", t.Name())
		}
		c.log().Debug("conditions appended to guard",
			"target", t.Name(),
			"conditions", len(decls))
		return t, nil
	case Callable:
		g := &Guard{fn: t, observer: c.observer}
		if err := g.attach(decls); err != nil {
			return nil, err
		}
		c.log().Debug("guard created",
			"target", t.Name(),
			"conditions", len(decls))
		return g, nil
	default:
		return nil, &DeclarationError{
			Target:  target.Name(),
			Message: "target does not expose a parameter schema",
		}
	}
}

// MustDeclare is like Declare but panics on error.
func (c *Contracts) MustDeclare(target Target, decls ...Declaration) Target {
	t, err := c.Declare(target, decls...)
	if err != nil {
		panic(err)
	}
	return t
}

func (c *Contracts) log() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return slog.Default()
}

var std = New()

// Declare attaches decls to target using the Default toggle.
func Declare(target Target, decls ...Declaration) (Target, error) {
	return std.Declare(target, decls...)
}

// MustDeclare is like Declare but panics on error.
func MustDeclare(target Target, decls ...Declaration) Target {
	return std.MustDeclare(target, decls...)
}

// Enable turns the Default toggle on.
func Enable() { Default.Enable() }

// Disable turns the Default toggle off.
func Disable() { Default.Disable() }

// IsEnabled reports the state of the Default toggle.
func IsEnabled() bool { return Default.IsEnabled() }

