// Package script loads and runs render scripts.
//
// A render script is a YAML document describing an initial tree and a
// sequence of render passes. Each pass is a list of calls that drive an
// idom.Patcher exactly as a hand-written render function would:
//
//	root: {tag: ul}
//	passes:
//	  - name: initial
//	    data: {items: [a, b, c]}
//	    calls:
//	      - each: items
//	        calls:
//	          - open: li
//	            keyExpr: item
//	          - text: ""
//	            expr: item
//	          - close: li
//
// Calls may carry an if: expression; the call is skipped when it
// evaluates to a falsy value. Expressions use github.com/expr-lang/expr
// and see the pass data, plus the loop variables inside each.
//
// A Runner owns the live tree across passes, so consecutive passes show
// the engine reusing, moving and removing nodes. Every pass is recorded
// through a protocol.Recorder and yields one wire frame.
package script
