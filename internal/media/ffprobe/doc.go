// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Inspect accepts either a local path or an http(s) URL; ffprobe performs the
// range reads needed to probe remote inputs itself. The package has no
// squeeze-specific dependencies.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: individual audio/video stream properties
//   - Format: container-level metadata (duration, size, bitrate)
//
// Helper methods on Result locate the primary video stream and parse the
// numeric fields ffprobe reports as strings.
package ffprobe
