// Package trace records contract check events for a run.
//
// A Recorder is a contract.Observer that stamps each event with the run ID,
// a logical sequence number and a content-addressed ID. Sequence numbers
// come from a logical clock rather than wall time so that replaying a
// scenario yields byte-identical traces.
package trace
