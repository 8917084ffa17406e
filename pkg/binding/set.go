package binding

import (
	"fmt"
	"sort"
)

// Set is the resolved name-to-value mapping for one call.
//
// Sets handed to predicates are private copies; predicates may read but
// writes never reach the caller's Set.
type Set map[string]any

// Get returns the value bound to name.
func (s Set) Get(name string) (any, bool) {
	v, ok := s[name]
	return v, ok
}

// Clone returns a shallow copy of s. A nil Set clones to an empty Set.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Merge returns a new Set holding s overlaid with each of others in order.
// Later sets win on name collisions. Neither s nor others are modified.
func (s Set) Merge(others ...Set) Set {
	size := len(s)
	for _, o := range others {
		size += len(o)
	}
	out := make(Set, size)
	for k, v := range s {
		out[k] = v
	}
	for _, o := range others {
		for k, v := range o {
			out[k] = v
		}
	}
	return out
}

// Isolate returns a copy of s in which []any and map[string]any values,
// the shapes Bind uses for rest collectors, are copied one level deep.
// Writes through the copy's collectors do not reach s.
func (s Set) Isolate() Set {
	out := make(Set, len(s))
	for k, v := range s {
		switch c := v.(type) {
		case []any:
			out[k] = append([]any(nil), c...)
		case map[string]any:
			m := make(map[string]any, len(c))
			for mk, mv := range c {
				m[mk] = mv
			}
			out[k] = m
		default:
			out[k] = v
		}
	}
	return out
}

// Names returns the bound names in sorted order.
func (s Set) Names() []string {
	names := make([]string, 0, len(s))
	for k := range s {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the value bound to name as a T.
// Fails if the name is unbound or holds a value of another type.
func Lookup[T any](s Set, name string) (T, error) {
	var zero T
	v, ok := s[name]
	if !ok {
		return zero, fmt.Errorf("name %q is not bound", name)
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("name %q is %T, not %T", name, v, zero)
	}
	return t, nil
}

// MustGet is like Lookup but panics on error.
//
// Intended for predicate bodies: a panic inside a predicate is recovered by
// the evaluator and reported as an evaluation error, not a crash.
func MustGet[T any](s Set, name string) T {
	t, err := Lookup[T](s, name)
	if err != nil {
		panic(err)
	}
	return t
}
