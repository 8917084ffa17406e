package trace

import (
	"fmt"

	"github.com/roach88/covenant/internal/canonical"
)

// Event is one recorded contract check.
type Event struct {
	ID        string `json:"id" yaml:"id"`
	RunID     string `json:"run_id" yaml:"run_id"`
	Seq       int64  `json:"seq" yaml:"seq"`
	Target    string `json:"target" yaml:"target"`
	Stage     string `json:"stage" yaml:"stage"`
	Condition string `json:"condition,omitempty" yaml:"condition,omitempty"`
	Outcome   string `json:"outcome" yaml:"outcome"`
	Detail    string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// EventID computes the content-addressed ID of e. The ID field itself is
// not part of the hash.
func EventID(e Event) (string, error) {
	id, err := canonical.Hash(canonical.DomainEvent, map[string]any{
		"run_id":    e.RunID,
		"seq":       e.Seq,
		"target":    e.Target,
		"stage":     e.Stage,
		"condition": e.Condition,
		"outcome":   e.Outcome,
		"detail":    e.Detail,
	})
	if err != nil {
		return "", fmt.Errorf("EventID: %w", err)
	}
	return id, nil
}

// Run summarises one recorded run.
type Run struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Passed     bool   `json:"passed"`
	EventCount int    `json:"event_count"`
}
