// Package manifest loads contract declarations written in CUE and applies
// them to catalog targets.
//
// A manifest directory holds one CUE package with two top-level fields:
//
//	contract: divide: {
//	    params: ["a", "b"]
//	    args: b: tag: "ne=0"
//	    pre:  [{name: "b is nonzero", check: {b: !=0}}]
//	    post: [{name: "result bounded", check: {a: _, result: <=a}}]
//	}
//
//	invariant: Account: {name: "balance non-negative", check: {self: balance: >=0}}
//
// Each check is a CUE struct whose fields name bindings. At call time the
// named bindings are unified with the struct; a conflict fails the
// condition. Loading is split into three steps that mirror how the CLI
// reports problems: Compile turns CUE into a Manifest (structural errors
// carry CUE positions), Validate cross-checks a Manifest against a catalog
// (coded errors E201-E208), and Apply declares the contracts.
package manifest
