package harness

import (
	"strconv"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/covenant/internal/canonical"
)

// TraceSnapshot captures the stable part of a scenario execution.
// Event IDs and details are left out: IDs are hashes of the rest, and
// details carry messages from third-party checkers.
type TraceSnapshot struct {
	ScenarioName string
	RunID        string
	Steps        []StepResult
	Trace        []TraceEventSnapshot
}

// TraceEventSnapshot is the golden form of a trace.Event.
type TraceEventSnapshot struct {
	Seq       int64
	Target    string
	Stage     string
	Condition string
	Outcome   string
}

// Snapshot builds the golden form of result.
func Snapshot(name string, result *Result) TraceSnapshot {
	s := TraceSnapshot{
		ScenarioName: name,
		RunID:        result.RunID,
		Steps:        result.Steps,
	}
	for _, e := range result.Trace {
		s.Trace = append(s.Trace, TraceEventSnapshot{
			Seq:       e.Seq,
			Target:    e.Target,
			Stage:     e.Stage,
			Condition: e.Condition,
			Outcome:   e.Outcome,
		})
	}
	return s
}

// toCanonicalMap converts a TraceSnapshot to a map[string]any for canonical JSON serialization.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	steps := make([]any, len(s.Steps))
	for i, st := range s.Steps {
		m := map[string]any{
			"index":   st.Index,
			"action":  st.Action,
			"outcome": st.Outcome,
		}
		if st.Condition != "" {
			m["condition"] = st.Condition
		}
		if st.BindingKind != "" {
			m["binding_kind"] = st.BindingKind
		}
		if st.Result != nil {
			m["result"] = canonicalValue(st.Result)
		}
		steps[i] = m
	}

	events := make([]any, len(s.Trace))
	for i, e := range s.Trace {
		m := map[string]any{
			"seq":     e.Seq,
			"target":  e.Target,
			"stage":   e.Stage,
			"outcome": e.Outcome,
		}
		if e.Condition != "" {
			m["condition"] = e.Condition
		}
		events[i] = m
	}

	return map[string]any{
		"scenario_name": s.ScenarioName,
		"run_id":        s.RunID,
		"steps":         steps,
		"trace":         events,
	}
}

// MarshalCanonical renders the snapshot as canonical JSON.
func (s *TraceSnapshot) MarshalCanonical() ([]byte, error) {
	return canonical.Marshal(s.toCanonicalMap())
}

// canonicalValue rewrites values canonical JSON cannot hold. Non-integral
// floats become their shortest decimal string.
func canonicalValue(v any) any {
	switch n := normalize(v).(type) {
	case float64:
		return strconv.FormatFloat(n, 'g', -1, 64)
	case []any:
		out := make([]any, len(n))
		for i, e := range n {
			out[i] = canonicalValue(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(n))
		for k, e := range n {
			out[k] = canonicalValue(e)
		}
		return out
	default:
		return n
	}
}

// RunWithGolden executes a scenario and compares the trace against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario, opts ...Option) (*Result, error) {
	t.Helper()

	result, err := Run(scenario, opts...)
	if err != nil {
		return nil, err
	}
	return result, AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares the given result's trace against a golden file
// without re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshot := Snapshot(scenarioName, result)
	traceJSON, err := snapshot.MarshalCanonical()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)
	return nil
}
