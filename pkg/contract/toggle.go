package contract

import "sync/atomic"

// Toggle is a process-wide switch read when contracts are declared.
// It is safe for concurrent use.
type Toggle struct {
	on atomic.Bool
}

// NewToggle returns a Toggle in the given state.
func NewToggle(enabled bool) *Toggle {
	t := &Toggle{}
	t.on.Store(enabled)
	return t
}

// Enable turns contract declaration on.
func (t *Toggle) Enable() { t.on.Store(true) }

// Disable turns contract declaration off. Targets declared afterwards are
// returned unwrapped.
func (t *Toggle) Disable() { t.on.Store(false) }

// Set stores enabled and returns the previous state.
func (t *Toggle) Set(enabled bool) bool { return t.on.Swap(enabled) }

// IsEnabled reports the current state.
func (t *Toggle) IsEnabled() bool { return t.on.Load() }

// Default is the toggle used by New when no WithToggle option is given.
// Builds tagged covenant_disabled start with it off.
var Default = NewToggle(enabledByDefault)
