// Package store persists recorded contract runs in SQLite.
//
// The store is append-only: a run row per scenario execution and one event
// row per observed check. Events are ordered by their logical sequence
// number, never by wall time, and every query that returns events sorts by
// seq then id so results are identical across reads.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability and speed
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: events must reference an existing run
package store
