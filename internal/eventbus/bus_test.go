package eventbus

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu     sync.Mutex
	events []Event
	topics []string
}

func (r *recorder) Broadcast(topic string, ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.topics = append(r.topics, topic)
	r.events = append(r.events, ev)
}

func (r *recorder) snapshot() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

func TestBusDeliversInPublishOrder(t *testing.T) {
	rec := &recorder{}
	bus := NewBus(rec, 16)

	const n = 50
	for i := 0; i < n; i++ {
		bus.Publish("post:1", Event{Type: "offer_created", ID: fmt.Sprint(i)})
	}
	bus.Close()

	got := rec.snapshot()
	if len(got) != n {
		t.Fatalf("delivered=%d want %d", len(got), n)
	}
	for i, ev := range got {
		if ev.ID != fmt.Sprint(i) {
			t.Fatalf("event %d out of order: id=%s", i, ev.ID)
		}
	}
}

func TestBusPublishDoesNotWaitForDelivery(t *testing.T) {
	block := make(chan struct{})
	rec := &slowBroadcaster{release: block}
	bus := NewBus(rec, 16)
	defer func() {
		close(block)
		bus.Close()
	}()

	done := make(chan struct{})
	go func() {
		bus.Publish("post:1", Event{Type: "offer_created", ID: "1"})
		bus.Publish("post:1", Event{Type: "offer_created", ID: "2"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a slow consumer despite buffer space")
	}
}

type slowBroadcaster struct {
	release chan struct{}
}

func (s *slowBroadcaster) Broadcast(string, Event) {
	<-s.release
}

func TestBusCloseDrains(t *testing.T) {
	rec := &recorder{}
	bus := NewBus(rec, 64)
	for i := 0; i < 64; i++ {
		bus.Publish("t", Event{ID: fmt.Sprint(i)})
	}
	bus.Close()
	if len(rec.snapshot()) != 64 {
		t.Fatalf("delivered=%d want 64", len(rec.snapshot()))
	}
}
