// Package main implements the squeeze command-line interface.
//
// The CLI compresses a single local file or URL to a preset size budget,
// lists presets and their bitrate plans, probes sources, runs the HTTP API
// with `squeeze serve`, and reports dependency and directory health. Both
// `compress` and `serve` take the instance lock under the state directory,
// so only one process runs jobs at a time.
package main
