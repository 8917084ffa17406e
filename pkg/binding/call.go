package binding

// Call is the argument list of one invocation: positional values in order
// plus keyword values by name.
type Call struct {
	Args   []any
	Kwargs map[string]any
}

// Args builds a Call from positional values.
func Args(vals ...any) Call {
	return Call{Args: vals}
}

// Kwargs builds a Call from keyword values only.
func Kwargs(kw map[string]any) Call {
	return Call{Kwargs: kw}
}

// With returns a copy of c with the keyword name set to v.
// The receiver's keyword map is never modified.
func (c Call) With(name string, v any) Call {
	kw := make(map[string]any, len(c.Kwargs)+1)
	for k, val := range c.Kwargs {
		kw[k] = val
	}
	kw[name] = v
	return Call{Args: c.Args, Kwargs: kw}
}

// Len returns the total number of supplied values.
func (c Call) Len() int {
	return len(c.Args) + len(c.Kwargs)
}
