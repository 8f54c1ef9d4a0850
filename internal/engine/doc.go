// Package engine defines the contract between the job controller and the
// external media engine that does the actual demux, decode, encode, and mux
// work.
//
// An Engine probes sources and initializes transcodes; the returned Handle
// runs the transcode, streams progress fractions, and accepts cooperative
// cancellation. Implementations live in subpackages (see engine/ffmpeg);
// tests substitute fakes that satisfy the same interfaces.
package engine
