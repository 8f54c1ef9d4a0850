// Package budget turns a quality preset and a media duration into the video
// and audio bitrates that keep an encode under the preset's size ceiling.
//
// Everything here is pure arithmetic: no I/O, no clocks, no retained state.
// Callers look presets up by identifier and hand the duration reported by the
// probe to Calculate. A fixed 10% of the ceiling is held back for container
// overhead, so real encoder output is expected to land below the nominal
// target size.
package budget
