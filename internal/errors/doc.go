// Package errors provides structured, actionable diagnostics for the idom
// tools.
//
// Every diagnostic has a code from a registry that maps it to a category,
// a short message, a longer explanation and a documentation URL. Engine
// sequencing errors are mapped onto the registry by FromSequencing so the
// CLI can explain a broken call stream instead of printing a bare message.
//
// # Error Categories
//
//   - sequencing: the render call stream broke the element protocol
//   - script: a render script could not be parsed or evaluated
//   - config: idom.yaml could not be loaded or is invalid
//   - protocol: a mutation frame stream could not be decoded
//   - cli: command-line usage and file access
//
// # Usage
//
//	err := errors.New("E101").
//	    WithLocation("demo.yaml", 12, 7).
//	    WithSuggestion("Use one of: open, openStart, attr, openEnd, close")
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR E101: Unknown call kind
//	//
//	//   demo.yaml:12:7
//	//
//	//     10 │   - openStart: div
//	//     11 │   - attr: id
//	//   → 12 │   - opne: span
//	//        │     ^
//	//
//	//   Hint: Use one of: open, openStart, attr, openEnd, close
//	//
//	//   Learn more: https://idom.vango.dev/errors/E101
package errors
