package binding

import (
	"fmt"
	"strings"
)

// ResultName is the reserved binding name that holds a callable's result
// while postconditions are evaluated. Schemas may not declare it.
const ResultName = "result"

// Param is a single named parameter.
type Param struct {
	Name       string
	Default    any
	HasDefault bool
}

// Required declares a parameter without a default.
func Required(name string) Param {
	return Param{Name: name}
}

// Optional declares a parameter that falls back to def when not supplied.
func Optional(name string, def any) Param {
	return Param{Name: name, Default: def, HasDefault: true}
}

// Schema is the immutable parameter layout of a callable.
//
// Build one with NewSchema; the zero value is a schema with no parameters.
type Schema struct {
	params  []Param
	index   map[string]int
	restPos string
	restKw  string
}

// SchemaOption configures optional collectors on a Schema.
type SchemaOption func(*Schema)

// WithRestPositional names the parameter that collects surplus positional values.
func WithRestPositional(name string) SchemaOption {
	return func(s *Schema) {
		s.restPos = name
	}
}

// WithRestKeyword names the parameter that collects unknown keywords.
func WithRestKeyword(name string) SchemaOption {
	return func(s *Schema) {
		s.restKw = name
	}
}

// NewSchema builds a Schema from params in declaration order.
//
// Returns a *SchemaError if a name is empty, declared twice (including the
// rest collectors), or equal to ResultName.
func NewSchema(params []Param, opts ...SchemaOption) (*Schema, error) {
	s := &Schema{
		params: make([]Param, len(params)),
		index:  make(map[string]int, len(params)),
	}
	copy(s.params, params)

	for _, opt := range opts {
		opt(s)
	}

	seen := make(map[string]bool, len(params)+2)
	check := func(name, role string) error {
		if strings.TrimSpace(name) == "" {
			return &SchemaError{Param: name, Message: role + " name is empty"}
		}
		if name == ResultName {
			return &SchemaError{Param: name, Message: fmt.Sprintf("%q is reserved for the result binding", ResultName)}
		}
		if seen[name] {
			return &SchemaError{Param: name, Message: "declared more than once"}
		}
		seen[name] = true
		return nil
	}

	for i, p := range s.params {
		if err := check(p.Name, "parameter"); err != nil {
			return nil, err
		}
		s.index[p.Name] = i
	}
	if s.restPos != "" {
		if err := check(s.restPos, "rest-positional"); err != nil {
			return nil, err
		}
	}
	if s.restKw != "" {
		if err := check(s.restKw, "rest-keyword"); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// MustSchema is like NewSchema but panics on error.
// Use only for schemas known to be valid, such as package-level declarations.
func MustSchema(params []Param, opts ...SchemaOption) *Schema {
	s, err := NewSchema(params, opts...)
	if err != nil {
		panic(err)
	}
	return s
}

// Params returns a copy of the declared parameters in order.
func (s *Schema) Params() []Param {
	out := make([]Param, len(s.params))
	copy(out, s.params)
	return out
}

// Names returns the declared parameter names in order, excluding rest collectors.
func (s *Schema) Names() []string {
	names := make([]string, len(s.params))
	for i, p := range s.params {
		names[i] = p.Name
	}
	return names
}

// RestPositional returns the rest-positional name, or "" if none.
func (s *Schema) RestPositional() string { return s.restPos }

// RestKeyword returns the rest-keyword name, or "" if none.
func (s *Schema) RestKeyword() string { return s.restKw }

// Declares reports whether name is a parameter or rest collector of s.
func (s *Schema) Declares(name string) bool {
	if _, ok := s.index[name]; ok {
		return true
	}
	return name != "" && (name == s.restPos || name == s.restKw)
}

// String renders the schema as a signature, e.g. "(a, b=2, *rest, **opts)".
func (s *Schema) String() string {
	parts := make([]string, 0, len(s.params)+2)
	for _, p := range s.params {
		if p.HasDefault {
			parts = append(parts, fmt.Sprintf("%s=%v", p.Name, p.Default))
		} else {
			parts = append(parts, p.Name)
		}
	}
	if s.restPos != "" {
		parts = append(parts, "*"+s.restPos)
	}
	if s.restKw != "" {
		parts = append(parts, "**"+s.restKw)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
