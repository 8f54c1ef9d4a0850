// Package events carries job lifecycle notifications from the compression
// controller to its observers (CLI renderer, API job view, metrics).
//
// The Bus wraps a kelindar/event dispatcher. Delivery is asynchronous and
// ordered per subscriber, so handlers must not assume they run on the
// publisher's goroutine.
package events
