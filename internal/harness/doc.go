// Package harness runs contract scenarios against the built-in catalog.
//
// A scenario names a manifest directory, a list of steps and optional
// assertions. Every step runs through the real guards and invariants the
// manifest declares; the harness only observes.
//
// # Scenario Format
//
//	name: divide_contracts
//	description: "divide rejects a zero divisor"
//	manifest: ../manifest
//	steps:
//	  - call: divide
//	    args: [7, 2]
//	    expect: { outcome: ok, result: 3 }
//	  - call: divide
//	    args: [1, 0]
//	    expect: { outcome: precondition, condition: "b is nonzero" }
//	  - new: Account
//	    as: ada
//	    args: [ada, 10]
//	  - invoke: ada.Transfer
//	    args: [$bob, 4]
//	    expect: { outcome: ok, state: { balance: 6 } }
//	assertions:
//	  - type: trace_count
//	    target: divide
//	    stage: body
//	    count: 1
//
// String arguments of the form "$name" refer to objects created by earlier
// new steps. Setting disabled: true declares everything with contracts off.
//
// # Outcomes
//
// A step ends in one of: ok, precondition, postcondition, invariant,
// binding (the call could not be bound) or error (the target itself failed).
//
// # Assertion Types
//
//   - trace_contains: an event for target matches the optional stage, outcome and condition
//   - trace_order: targets first appear in the trace in the given order
//   - trace_count: exactly count events for target match the optional filters
//   - final_state: a named object's final state contains the expected fields
//
// Runs are recorded with a deterministic clock and a fixed run ID, so the
// same scenario always yields the same trace. RunWithGolden compares that
// trace against testdata/golden.
package harness
