package harness

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"strings"

	"github.com/roach88/covenant/internal/trace"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string        // Assertion type for categorization
	Expected string        // Human-readable expected outcome
	Actual   string        // Human-readable actual outcome
	Trace    []trace.Event // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s %s", event.Seq, event.Target, event.Stage, event.Outcome)
			if event.Condition != "" {
				fmt.Fprintf(&buf, " %q", event.Condition)
			}
			buf.WriteByte('\n')
		}
	}
	return buf.String()
}

// matchEvent applies the optional stage, outcome and condition filters.
func matchEvent(e trace.Event, a Assertion) bool {
	if e.Target != a.Target {
		return false
	}
	if a.Stage != "" && e.Stage != a.Stage {
		return false
	}
	if a.Outcome != "" && e.Outcome != a.Outcome {
		return false
	}
	if a.Condition != "" && e.Condition != a.Condition {
		return false
	}
	return true
}

func describe(a Assertion) string {
	parts := []string{a.Target}
	if a.Stage != "" {
		parts = append(parts, "stage="+a.Stage)
	}
	if a.Outcome != "" {
		parts = append(parts, "outcome="+a.Outcome)
	}
	if a.Condition != "" {
		parts = append(parts, fmt.Sprintf("condition=%q", a.Condition))
	}
	return strings.Join(parts, " ")
}

// assertTraceContains checks that some event matches the assertion.
func assertTraceContains(events []trace.Event, assertion Assertion) error {
	for _, e := range events {
		if matchEvent(e, assertion) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: "event " + describe(assertion),
		Actual:   "not found in trace",
		Trace:    events,
	}
}

// assertTraceOrder checks that targets first appear in the given order.
// Other events may appear in between.
func assertTraceOrder(events []trace.Event, assertion Assertion) error {
	positions := make(map[string]int64)
	for _, e := range events {
		if _, seen := positions[e.Target]; !seen {
			positions[e.Target] = e.Seq
		}
	}

	for _, target := range assertion.Targets {
		if _, ok := positions[target]; !ok {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("all targets present: %v", assertion.Targets),
				Actual:   fmt.Sprintf("missing target: %s", target),
				Trace:    events,
			}
		}
	}

	for i := 1; i < len(assertion.Targets); i++ {
		prev, curr := assertion.Targets[i-1], assertion.Targets[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("targets in order: %v", assertion.Targets),
				Actual: fmt.Sprintf("%s (seq %d) should be before %s (seq %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: events,
			}
		}
	}
	return nil
}

// assertTraceCount checks that exactly Count events match.
func assertTraceCount(events []trace.Event, assertion Assertion) error {
	count := 0
	for _, e := range events {
		if matchEvent(e, assertion) {
			count++
		}
	}
	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d events %s", assertion.Count, describe(assertion)),
			Actual:   fmt.Sprintf("%d events", count),
			Trace:    events,
		}
	}
	return nil
}

// assertFinalState checks an object's final state (subset match).
func assertFinalState(state map[string]map[string]any, assertion Assertion) error {
	obj, ok := state[assertion.Object]
	if !ok {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("object %s", assertion.Object),
			Actual:   "no such object",
		}
	}
	if err := matchState(assertion.Object, obj, assertion.Expect); err != nil {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("%s contains %v", assertion.Object, assertion.Expect),
			Actual:   err.Error(),
		}
	}
	return nil
}

// matchState checks that actual contains every expected field.
// Keys are visited in sorted order so the first mismatch is stable.
func matchState(name string, actual, expected map[string]any) error {
	keys := make([]string, 0, len(expected))
	for k := range expected {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		got, ok := actual[k]
		if !ok {
			return fmt.Errorf("%s has no field %q", name, k)
		}
		if !valuesEqual(got, expected[k]) {
			return fmt.Errorf("%s.%s: expected %v, got %v", name, k, expected[k], got)
		}
	}
	return nil
}

// valuesEqual compares two values after normalizing numbers, so an int
// result matches an integral YAML number or float.
func valuesEqual(actual, expected any) bool {
	if actual == nil && expected == nil {
		return true
	}
	if actual == nil || expected == nil {
		return false
	}
	return reflect.DeepEqual(normalize(actual), normalize(expected))
}

// normalize maps integral numbers to int64 and recurses into lists and maps.
func normalize(v any) any {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case int64:
		return n
	case uint64:
		return int64(n)
	case float32:
		return normalize(float64(n))
	case float64:
		if n == math.Trunc(n) && math.Abs(n) < 1<<53 {
			return int64(n)
		}
		return n
	case []any:
		out := make([]any, len(n))
		for i, e := range n {
			out[i] = normalize(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(n))
		for k, e := range n {
			out[k] = normalize(e)
		}
		return out
	default:
		return v
	}
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, assertion)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, assertion)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, assertion)
		case AssertFinalState:
			err = assertFinalState(result.State, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
