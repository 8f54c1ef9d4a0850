// Package ffmpeg implements engine.Engine on top of the ffprobe and ffmpeg
// command-line tools.
//
// Probing shells out to ffprobe's JSON writer. Transcodes run a single ffmpeg
// process with `-progress pipe:1`; the key=value stream on stdout is parsed
// into progress fractions while stderr is kept as a bounded tail for error
// messages. Cancelling a handle stops the process, waits for it to exit, and
// removes any partial output.
package ffmpeg
