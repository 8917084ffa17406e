// Package canonical renders values as RFC 8785 canonical JSON and derives
// content-addressed identifiers from them.
//
// Trace event IDs and golden snapshots go through this package so that the
// same run always produces byte-identical output.
package canonical
