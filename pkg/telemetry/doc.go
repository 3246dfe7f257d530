// Package telemetry provides idom.Hooks implementations for Prometheus
// metrics and OpenTelemetry tracing.
//
//	reg := prometheus.NewRegistry()
//	p := idom.New[*livetree.Node](tree, idom.WithHooks(
//	    telemetry.NewMetrics(telemetry.WithRegistry(reg)),
//	    telemetry.NewTracing(),
//	))
package telemetry
