// Package daemon runs squeeze as a long-lived HTTP service.
//
// It wires the compression controller, the event bus, and the metrics
// recorder behind a chi router, and holds the flock-based instance lock so a
// CLI compress run and the daemon never transcode at the same time. Uploads
// land in the staging directory and are removed once a newer job replaces
// them.
//
// Keep transcoding logic in internal/compress; this package only covers
// startup, shutdown, and the HTTP surface.
package daemon
