// Package probecache persists ffprobe results in SQLite so repeated runs over
// the same local file skip the probe.
//
// Entries are keyed by absolute path, size, and modification time, so an
// edited file is re-probed automatically. Wrap places the cache in front of
// any engine.Engine; URL sources always bypass it.
package probecache
