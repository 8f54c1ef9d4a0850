// Package metrics exports Prometheus metrics for compression jobs.
//
// A Recorder owns its registry and is fed entirely from the event bus, so
// the controller never calls into it directly.
package metrics
