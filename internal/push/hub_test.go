package push

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/fieldforge/fieldforge/internal/observability/metrics"
)

func newTestHub() *Hub {
	return NewHub(metrics.NewWith(prometheus.NewRegistry()))
}

func makeEvent(userID, name string) Event {
	return Event{
		UserID:  userID,
		Name:    name,
		Payload: json.RawMessage(`{"order_id":"1"}`),
		SentAt:  time.Now().UTC(),
	}
}

func receiveOne(t *testing.T, sub *Subscription) Event {
	t.Helper()
	select {
	case evt := <-sub.Events():
		return evt
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestPublishReachesSubscriber(t *testing.T) {
	hub := newTestHub()
	sub, backlog, err := hub.Subscribe("u1")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Close()
	if len(backlog) != 0 {
		t.Fatalf("fresh stream has backlog of %d", len(backlog))
	}

	hub.Publish(makeEvent("u1", "order.assigned"))

	evt := receiveOne(t, sub)
	if evt.Name != "order.assigned" || evt.UserID != "u1" {
		t.Fatalf("unexpected event: %+v", evt)
	}
}

func TestPublishOnlyTargetUser(t *testing.T) {
	hub := newTestHub()
	target, _, err := hub.Subscribe("u1")
	if err != nil {
		t.Fatalf("subscribe u1: %v", err)
	}
	defer target.Close()
	other, _, err := hub.Subscribe("u2")
	if err != nil {
		t.Fatalf("subscribe u2: %v", err)
	}
	defer other.Close()

	hub.Publish(makeEvent("u1", "order.assigned"))

	receiveOne(t, target)
	select {
	case evt := <-other.Events():
		t.Fatalf("event leaked to another user: %+v", evt)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBacklogReplayedToLateSubscriber(t *testing.T) {
	hub := newTestHub()
	// First subscription materializes the stream so events buffer.
	first, _, err := hub.Subscribe("u1")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer first.Close()

	hub.Publish(makeEvent("u1", "order.assigned"))
	hub.Publish(makeEvent("u1", "order.rescheduled"))

	late, backlog, err := hub.Subscribe("u1")
	if err != nil {
		t.Fatalf("late subscribe: %v", err)
	}
	defer late.Close()
	if len(backlog) != 2 {
		t.Fatalf("expected 2 backlog events, got %d", len(backlog))
	}
	if backlog[0].Name != "order.assigned" || backlog[1].Name != "order.rescheduled" {
		t.Fatalf("backlog out of order: %+v", backlog)
	}
}

func TestBacklogCapped(t *testing.T) {
	hub := newTestHub()
	first, _, err := hub.Subscribe("u1")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer first.Close()

	for i := 0; i < DefaultBufferSize+10; i++ {
		hub.Publish(makeEvent("u1", "order.assigned"))
	}

	late, backlog, err := hub.Subscribe("u1")
	if err != nil {
		t.Fatalf("late subscribe: %v", err)
	}
	defer late.Close()
	if len(backlog) != DefaultBufferSize {
		t.Fatalf("expected backlog capped at %d, got %d", DefaultBufferSize, len(backlog))
	}
}

func TestSlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	hub := newTestHub()
	sub, _, err := hub.Subscribe("u1")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		// Nobody drains sub; once its channel fills, publishes must
		// still return immediately.
		for i := 0; i < DefaultSubscriberBuffer*3; i++ {
			hub.Publish(makeEvent("u1", "order.assigned"))
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publisher blocked on slow subscriber")
	}
}

func TestCloseRemovesStream(t *testing.T) {
	hub := newTestHub()
	sub, _, err := hub.Subscribe("u1")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	hub.Publish(makeEvent("u1", "order.assigned"))
	sub.Close()
	sub.Close()

	// Stream was torn down with the last subscriber, so the backlog
	// does not survive.
	_, backlog, err := hub.Subscribe("u1")
	if err != nil {
		t.Fatalf("resubscribe: %v", err)
	}
	if len(backlog) != 0 {
		t.Fatalf("expected empty backlog after teardown, got %d", len(backlog))
	}
}

func TestSubscribeRejectsEmptyUser(t *testing.T) {
	hub := newTestHub()
	if _, _, err := hub.Subscribe("  "); err == nil {
		t.Fatal("expected error for blank user id")
	}
}
