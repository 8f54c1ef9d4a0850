package engine

import "testing"

func TestProgressFeedKeepsLatest(t *testing.T) {
	feed := NewProgressFeed()
	feed.Publish(0.1)
	feed.Publish(0.2)
	feed.Publish(0.35)

	select {
	case got := <-feed.C():
		if got != 0.35 {
			t.Fatalf("expected latest value 0.35, got %v", got)
		}
	default:
		t.Fatal("expected a pending value")
	}
	select {
	case got := <-feed.C():
		t.Fatalf("expected no further values, got %v", got)
	default:
	}
}

func TestProgressFeedMonotonicAndClamped(t *testing.T) {
	feed := NewProgressFeed()
	feed.Publish(0.5)
	<-feed.C()

	feed.Publish(0.4)
	select {
	case got := <-feed.C():
		t.Fatalf("regressing value delivered: %v", got)
	default:
	}

	feed.Publish(3)
	if got := <-feed.C(); got != 1 {
		t.Fatalf("expected clamp to 1, got %v", got)
	}
	if feed.Last() != 1 {
		t.Fatalf("Last = %v", feed.Last())
	}
}

func TestProgressFeedClose(t *testing.T) {
	feed := NewProgressFeed()
	feed.Publish(0.7)
	feed.Close()
	feed.Close()
	feed.Publish(0.9)

	if got, ok := <-feed.C(); !ok || got != 0.7 {
		t.Fatalf("expected pending 0.7 after close, got %v ok=%v", got, ok)
	}
	if _, ok := <-feed.C(); ok {
		t.Fatal("expected closed channel")
	}
}
