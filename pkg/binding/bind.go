package binding

import (
	"fmt"
	"sort"
	"strings"
)

// Bind maps call onto the parameters of s and returns the resulting Set.
//
// The returned Set contains every declared parameter, the rest-positional
// name (as []any, empty when nothing was collected) and the rest-keyword
// name (as map[string]any, empty when nothing was collected) when those are
// declared, and nothing else.
//
// Returns a *Error describing the first problem found.
func Bind(s *Schema, call Call) (Set, error) {
	if s == nil {
		s = &Schema{}
	}

	bound := make(Set, len(s.params)+2)
	nParams := len(s.params)
	nPos := len(call.Args)

	// Positional values by position
	for i := 0; i < nPos && i < nParams; i++ {
		bound[s.params[i].Name] = call.Args[i]
	}

	// Surplus positional values
	if nPos > nParams {
		if s.restPos == "" {
			return nil, arityError(s, nPos)
		}
		rest := make([]any, nPos-nParams)
		copy(rest, call.Args[nParams:])
		bound[s.restPos] = rest
	} else if s.restPos != "" {
		bound[s.restPos] = []any{}
	}

	// Keywords for declared parameters, in parameter order
	consumed := make(map[string]bool, len(call.Kwargs))
	for _, p := range s.params {
		v, ok := call.Kwargs[p.Name]
		if !ok {
			continue
		}
		if _, already := bound[p.Name]; already {
			return nil, &Error{
				Kind:    KindDuplicateKeyword,
				Param:   p.Name,
				Message: fmt.Sprintf("got multiple values for argument %q", p.Name),
			}
		}
		bound[p.Name] = v
		consumed[p.Name] = true
	}

	// Remaining keywords, in sorted order for a deterministic first error
	extra := make([]string, 0, len(call.Kwargs)-len(consumed))
	for k := range call.Kwargs {
		if !consumed[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)

	if s.restKw != "" {
		collected := make(map[string]any, len(extra))
		for _, k := range extra {
			collected[k] = call.Kwargs[k]
		}
		bound[s.restKw] = collected
	} else if len(extra) > 0 {
		return nil, &Error{
			Kind:    KindUnexpectedKeyword,
			Param:   extra[0],
			Message: fmt.Sprintf("got an unexpected keyword argument %q", extra[0]),
		}
	}

	// Defaults, then anything still unbound is missing
	var missing []string
	for _, p := range s.params {
		if _, ok := bound[p.Name]; ok {
			continue
		}
		if p.HasDefault {
			bound[p.Name] = p.Default
			continue
		}
		missing = append(missing, p.Name)
	}
	if len(missing) > 0 {
		quoted := make([]string, len(missing))
		for i, m := range missing {
			quoted[i] = fmt.Sprintf("%q", m)
		}
		noun := "argument"
		if len(missing) > 1 {
			noun = "arguments"
		}
		return nil, &Error{
			Kind:    KindMissingArgument,
			Param:   missing[0],
			Message: fmt.Sprintf("missing %d required %s: %s", len(missing), noun, strings.Join(quoted, ", ")),
		}
	}

	return bound, nil
}

// arityError builds the error for surplus positional values.
func arityError(s *Schema, given int) *Error {
	qualifier := "exactly"
	for _, p := range s.params {
		if p.HasDefault {
			qualifier = "at most"
			break
		}
	}
	noun := "arguments"
	if len(s.params) == 1 {
		noun = "argument"
	}
	msg := fmt.Sprintf("takes %s %d positional %s (%d given)", qualifier, len(s.params), noun, given)
	if len(s.params) == 0 {
		msg = fmt.Sprintf("takes no positional arguments (%d given)", given)
	}
	return &Error{Kind: KindArityMismatch, Message: msg}
}
