package testutil

import "github.com/roach88/covenant/internal/trace"

// DefaultRunID is used when a scenario does not pin its own run ID.
const DefaultRunID = "test-run-default"

// FixedRunIDGenerator returns the same run ID every time, so a scenario
// replayed with it yields byte-identical traces and event IDs.
//
// Unlike trace.FixedGenerator it never runs out. Stateless and safe for
// concurrent use.
type FixedRunIDGenerator struct {
	id string
}

var _ trace.IDGenerator = (*FixedRunIDGenerator)(nil)

// NewFixedRunIDGenerator returns a generator for id. An empty id means
// DefaultRunID.
func NewFixedRunIDGenerator(id string) *FixedRunIDGenerator {
	if id == "" {
		id = DefaultRunID
	}
	return &FixedRunIDGenerator{id: id}
}

// Generate returns the fixed run ID.
func (g *FixedRunIDGenerator) Generate() string {
	return g.id
}
