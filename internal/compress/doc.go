// Package compress owns the single active compression job.
//
// A Controller starts jobs against an engine.Engine: it validates the source,
// resolves metadata, plans bitrates with the budget package, initializes and
// executes the transcode, and derives telemetry from the engine's progress
// feed on a fixed tick. Starting a new job cancels the previous one and waits
// for the engine to acknowledge before proceeding. Observers receive job
// state, telemetry, and results through a Publisher; a job that has been
// cancelled or superseded never publishes again.
package compress
