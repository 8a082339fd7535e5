// Package observability wires Prometheus metrics and OpenTelemetry tracing
// into the HTTP stack and the repository decorator.
package observability
