// Package binding maps call arguments onto named parameters.
//
// A Schema describes a callable's parameters: an ordered list of names, the
// defaults for optional parameters, and optional rest-positional and
// rest-keyword collectors. Bind resolves a Call (positional values plus
// keyword values) against a Schema and produces a Set, the name-to-value
// mapping that contract conditions are evaluated against.
//
// Binding rules:
//   - Positional values are assigned to parameters by position.
//   - Surplus positional values go to the rest-positional name as a []any,
//     or fail with an ARITY_MISMATCH error when there is none.
//   - Keywords bind unbound parameters. A keyword naming an already bound
//     parameter fails with DUPLICATE_KEYWORD.
//   - Unknown keywords go to the rest-keyword name as a map[string]any, or
//     fail with UNEXPECTED_KEYWORD.
//   - Unbound parameters take their default, or fail with MISSING_ARGUMENT.
//
// Bind is deterministic and side-effect free. When several keywords are in
// error, the one reported is the first in parameter order, then sorted order.
package binding
