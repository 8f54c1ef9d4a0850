// Package services defines shared utilities consumed by the job controller,
// the engine adapters, and the outer surfaces (CLI and HTTP API).
//
// Key responsibilities:
//   - Context helpers that stamp job identifiers and request correlation IDs
//     for logging.
//   - Structured error markers plus the Wrap helper, so every failure a job
//     can hit maps onto one stable failure kind that the CLI, the API, and the
//     metrics recorder all agree on.
//
// Use these helpers when wiring new job steps so failure reporting stays
// uniform across the tool.
package services
