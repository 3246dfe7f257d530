// Package config provides configuration parsing for the idom tools.
//
// The configuration is stored in idom.yaml, found in the working directory
// or one of its parents. Every field is optional. JSON is valid YAML, so
// an idom.yaml written as JSON loads too.
//
// # Configuration File Structure
//
//	debug: true            # extra close-tag checks in the engine
//	log:
//	  level: info          # debug, info, warn, error
//	  format: text         # text or json
//	metrics:
//	  enabled: true
//	  namespace: idom
//	tracing:
//	  enabled: false
//	  tracerName: idom
//	output:
//	  pretty: true
//	  indent: "  "
//	  keys: false          # render keys as key="..." attributes
//	  diff: false          # show HTML diffs between passes
//	  color: auto          # auto, always, never
//	watch:
//	  debounce: 100ms
//	serve:
//	  addr: localhost:7331
//
// # Usage
//
//	cfg, err := config.LoadFromWorkingDir()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	logger := cfg.Logger(os.Stderr)
package config
