package trace

import (
	"context"
	"log/slog"
	"sync"

	"github.com/roach88/covenant/pkg/contract"
)

// Recorder collects contract events for one run. It implements
// contract.Observer and is safe for concurrent use.
type Recorder struct {
	runID string
	clock Sequencer

	mu     sync.Mutex
	events []Event
}

// NewRecorder returns a Recorder for runID. A nil clock gets a fresh Clock.
func NewRecorder(runID string, clock Sequencer) *Recorder {
	if clock == nil {
		clock = NewClock()
	}
	return &Recorder{runID: runID, clock: clock}
}

var _ contract.Observer = (*Recorder)(nil)

// Observe stamps and stores e.
func (r *Recorder) Observe(ctx context.Context, e contract.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ev := Event{
		RunID:     r.runID,
		Seq:       r.clock.Next(),
		Target:    e.Target,
		Stage:     string(e.Stage),
		Condition: e.Condition,
		Outcome:   string(e.Outcome),
		Detail:    e.Detail,
	}
	id, err := EventID(ev)
	if err != nil {
		slog.WarnContext(ctx, "trace event left without ID", "seq", ev.Seq, "error", err)
	}
	ev.ID = id
	r.events = append(r.events, ev)
}

// RunID returns the run this recorder stamps events with.
func (r *Recorder) RunID() string { return r.runID }

// Events returns a copy of the recorded events in sequence order.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Len returns the number of recorded events.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}
