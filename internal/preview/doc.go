// Package preview serves a live view of a render script.
//
// The server keeps the encoded frames of the current run. A browser
// connecting to /ws receives a reset message followed by every frame so
// far, then each new frame as it is published, and applies them to its
// own DOM with a small decoder. A rerun (after the script changes) starts
// over with a reset.
//
// Routes:
//
//	GET /         the preview page
//	GET /html     the current HTML of the run
//	GET /frames   the length-prefixed frame stream, as written by idom run --frames
//	GET /metrics  Prometheus metrics, when a gatherer is configured
//	GET /ws       the frame websocket
package preview
