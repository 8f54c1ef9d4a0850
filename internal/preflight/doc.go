// Package preflight provides readiness checks for the binaries and
// filesystem paths squeeze depends on.
//
// The CLI "deps" command prints the full report, "compress" and "serve"
// refuse to start when a required check fails, and the daemon exposes the
// same report on /api/status.
package preflight
