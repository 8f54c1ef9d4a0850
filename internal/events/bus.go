package events

import (
	"github.com/kelindar/event"
)

// Bus wraps kelindar/event dispatcher for event broadcasting.
type Bus struct {
	dispatcher *event.Dispatcher
}

// New creates a new event bus.
func New() *Bus {
	return &Bus{dispatcher: event.NewDispatcher()}
}

// Publish publishes an event to all subscribers of its concrete type.
func (b *Bus) Publish(ev Event) {
	switch e := ev.(type) {
	case JobStateChanged:
		event.Publish(b.dispatcher, e)
	case Telemetry:
		event.Publish(b.dispatcher, e)
	case JobCompleted:
		event.Publish(b.dispatcher, e)
	case JobFailed:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe registers a handler; the handler's parameter type selects the
// events it receives. Unknown handler types get a no-op unsubscribe.
// Usage: unsub := bus.Subscribe(func(e Telemetry) { ... })
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(JobStateChanged):
		return event.Subscribe(b.dispatcher, h)
	case func(Telemetry):
		return event.Subscribe(b.dispatcher, h)
	case func(JobCompleted):
		return event.Subscribe(b.dispatcher, h)
	case func(JobFailed):
		return event.Subscribe(b.dispatcher, h)
	default:
		return func() {}
	}
}

// Close stops delivery to every subscriber.
func (b *Bus) Close() error {
	return b.dispatcher.Close()
}
