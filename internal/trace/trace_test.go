package trace

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/covenant/pkg/contract"
)

func TestClock(t *testing.T) {
	c := NewClock()
	assert.Equal(t, int64(0), c.Current())
	assert.Equal(t, int64(1), c.Next())
	assert.Equal(t, int64(2), c.Next())
	assert.Equal(t, int64(2), c.Current())

	resumed := NewClockAt(10)
	assert.Equal(t, int64(11), resumed.Next())
}

func TestClock_Concurrent(t *testing.T) {
	c := NewClock()
	var wg sync.WaitGroup
	seen := sync.Map{}
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				_, dup := seen.LoadOrStore(c.Next(), true)
				assert.False(t, dup)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(1000), c.Current())
}

func TestUUIDv7Generator(t *testing.T) {
	g := UUIDv7Generator{}
	a, b := g.Generate(), g.Generate()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
	assert.LessOrEqual(t, a[:8], b[:8], "timestamp prefix sorts by creation")
}

func TestFixedGenerator(t *testing.T) {
	g := NewFixedGenerator("run-1", "run-2")
	assert.Equal(t, "run-1", g.Generate())
	assert.Equal(t, "run-2", g.Generate())
	assert.Panics(t, func() { g.Generate() })
}

func TestEventID(t *testing.T) {
	e := Event{RunID: "run-1", Seq: 1, Target: "divide", Stage: "precondition", Condition: "b is nonzero", Outcome: "ok"}

	id1, err := EventID(e)
	require.NoError(t, err)
	assert.Len(t, id1, 64)

	e.ID = "ignored"
	id2, err := EventID(e)
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	e.Seq = 2
	id3, err := EventID(e)
	require.NoError(t, err)
	assert.NotEqual(t, id1, id3)
}

func TestRecorder_StampsEvents(t *testing.T) {
	r := NewRecorder("run-1", nil)
	ctx := context.Background()

	r.Observe(ctx, contract.Event{Target: "divide", Stage: contract.StagePrecondition, Condition: "b is nonzero", Outcome: contract.OutcomeOK})
	r.Observe(ctx, contract.Event{Target: "divide", Stage: contract.StageBody, Outcome: contract.OutcomeOK})

	events := r.Events()
	require.Len(t, events, 2)
	assert.Equal(t, "run-1", r.RunID())
	assert.Equal(t, int64(1), events[0].Seq)
	assert.Equal(t, int64(2), events[1].Seq)
	assert.Equal(t, "precondition", events[0].Stage)
	assert.NotEmpty(t, events[0].ID)
	assert.NotEqual(t, events[0].ID, events[1].ID)

	events[0].Target = "mutated"
	assert.Equal(t, "divide", r.Events()[0].Target, "Events returns a copy")
}

func TestRecorder_Deterministic(t *testing.T) {
	record := func() []Event {
		r := NewRecorder("run-x", NewClock())
		c := contract.New(contract.WithToggle(contract.NewToggle(true)), contract.WithObserver(r))
		inv := contract.MustInvariant[*int](c, "Counter", "non-negative",
			contract.InstanceCheck(func(_ context.Context, n *int) (bool, error) { return *n >= 0, nil }))
		n := 0
		_ = inv.Do(context.Background(), &n, "Inc", func(context.Context) error { n++; return nil })
		return r.Events()
	}
	assert.Equal(t, record(), record())
	assert.Equal(t, 2, len(record()))
}
