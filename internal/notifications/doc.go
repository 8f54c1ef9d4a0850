// Package notifications pushes job outcomes to ntfy.
//
// NewService returns a no-op when no topic is configured, so callers can
// attach it to the event bus unconditionally.
package notifications
