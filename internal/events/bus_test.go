package events

import (
	"testing"
	"time"
)

func TestBus_PublishSubscribe(t *testing.T) {
	bus := New()
	defer bus.Close()
	received := make(chan JobCompleted, 1)

	unsub := bus.Subscribe(func(e JobCompleted) {
		received <- e
	})
	defer unsub()

	bus.Publish(JobCompleted{JobID: 3, FileName: "compressed_video_1.mp4", BytesSaved: -10})

	select {
	case got := <-received:
		if got.JobID != 3 || got.BytesSaved != -10 {
			t.Fatalf("unexpected event %+v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}
}

func TestBus_RoutesByType(t *testing.T) {
	bus := New()
	defer bus.Close()
	states := make(chan JobStateChanged, 4)
	failures := make(chan JobFailed, 4)

	defer bus.Subscribe(func(e JobStateChanged) { states <- e })()
	defer bus.Subscribe(func(e JobFailed) { failures <- e })()

	bus.Publish(JobFailed{JobID: 1, Kind: "metadata"})

	select {
	case got := <-failures:
		if got.Kind != "metadata" {
			t.Fatalf("kind = %q", got.Kind)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("failure not delivered")
	}
	select {
	case got := <-states:
		t.Fatalf("state handler received %+v", got)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBus_PreservesOrderPerSubscriber(t *testing.T) {
	bus := New()
	defer bus.Close()
	got := make(chan int, 100)
	defer bus.Subscribe(func(e Telemetry) { got <- e.Percentage })()

	for i := 0; i <= 100; i += 10 {
		bus.Publish(Telemetry{JobID: 1, Percentage: i})
	}
	for want := 0; want <= 100; want += 10 {
		select {
		case p := <-got:
			if p != want {
				t.Fatalf("out of order: got %d want %d", p, want)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("missing telemetry %d", want)
		}
	}
}

func TestBus_UnknownHandler(t *testing.T) {
	bus := New()
	defer bus.Close()
	unsub := bus.Subscribe(func(string) {})
	unsub()
}
