package realtime

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/peermarket/backend/internal/eventbus"
)

type fakeConn struct {
	mu   sync.Mutex
	sent []eventbus.Event
	fail bool
}

func (c *fakeConn) Send(ev eventbus.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("broken pipe")
	}
	c.sent = append(c.sent, ev)
	return nil
}

func (c *fakeConn) Close() error { return nil }

func (c *fakeConn) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sent)
}

type memStore struct {
	mu    sync.Mutex
	saved map[string]int
}

func newMemStore() *memStore {
	return &memStore{saved: make(map[string]int)}
}

func (s *memStore) Save(_ context.Context, userUID, _ string, _ eventbus.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved[userUID]++
	return nil
}

func (s *memStore) count(uid string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saved[uid]
}

func event() eventbus.Event {
	return eventbus.Event{Type: "offer_accepted", ID: "1", Message: "done"}
}

func TestSubscribeIdempotent(t *testing.T) {
	store := newMemStore()
	hub := NewHub(store)
	conn := &fakeConn{}
	hub.AddConnection("alice", conn)
	hub.Subscribe("post:7", "alice")
	hub.Subscribe("post:7", "alice")

	hub.Broadcast("post:7", event())

	if got := conn.count(); got != 1 {
		t.Fatalf("sends=%d want 1", got)
	}
	if got := store.count("alice"); got != 1 {
		t.Fatalf("persisted=%d want 1", got)
	}
}

func TestUnsubscribeNonMemberNoop(t *testing.T) {
	hub := NewHub(newMemStore())
	hub.Unsubscribe("post:7", "ghost")

	hub.Subscribe("post:7", "alice")
	hub.Unsubscribe("post:7", "bob")
	conn := &fakeConn{}
	hub.AddConnection("alice", conn)

	hub.Broadcast("post:7", event())
	if got := conn.count(); got != 1 {
		t.Fatalf("sends=%d want 1", got)
	}
}

func TestBroadcastFansOutToAllConnections(t *testing.T) {
	store := newMemStore()
	hub := NewHub(store)
	phone := &fakeConn{}
	laptop := &fakeConn{}
	hub.AddConnection("alice", phone)
	hub.AddConnection("alice", laptop)
	hub.Subscribe("post:7", "alice")

	bystander := &fakeConn{}
	hub.AddConnection("bob", bystander)

	hub.Broadcast("post:7", event())

	if phone.count() != 1 || laptop.count() != 1 {
		t.Fatalf("subscriber conns got %d/%d sends, want 1/1", phone.count(), laptop.count())
	}
	if bystander.count() != 0 {
		t.Fatalf("non-subscriber received %d events", bystander.count())
	}
	if store.count("bob") != 0 {
		t.Fatalf("non-subscriber got a persisted notification")
	}
}

func TestRemoveConnectionKeepsSubscription(t *testing.T) {
	hub := NewHub(newMemStore())
	first := &fakeConn{}
	second := &fakeConn{}
	hub.AddConnection("alice", first)
	hub.AddConnection("alice", second)
	hub.Subscribe("post:7", "alice")

	hub.RemoveConnection("alice", second)
	hub.Broadcast("post:7", event())

	if first.count() != 1 {
		t.Fatalf("surviving conn sends=%d want 1", first.count())
	}
	if second.count() != 0 {
		t.Fatalf("removed conn sends=%d want 0", second.count())
	}
}

func TestSendFailureDoesNotBlockOthers(t *testing.T) {
	store := newMemStore()
	hub := NewHub(store)
	broken := &fakeConn{fail: true}
	healthy := &fakeConn{}
	// broken is the newest connection, delivered to first.
	hub.AddConnection("alice", healthy)
	hub.AddConnection("alice", broken)
	hub.Subscribe("post:7", "alice")

	other := &fakeConn{}
	hub.AddConnection("bob", other)
	hub.Subscribe("post:7", "bob")

	hub.Broadcast("post:7", event())

	if healthy.count() != 1 {
		t.Fatalf("healthy conn sends=%d want 1", healthy.count())
	}
	if other.count() != 1 {
		t.Fatalf("other user's conn sends=%d want 1", other.count())
	}
	if store.count("alice") != 1 || store.count("bob") != 1 {
		t.Fatalf("persistence skipped: alice=%d bob=%d", store.count("alice"), store.count("bob"))
	}
}

func TestUnsubscribeAll(t *testing.T) {
	hub := NewHub(newMemStore())
	conn := &fakeConn{}
	hub.AddConnection("alice", conn)
	hub.Subscribe("post:7", "alice")
	hub.Subscribe("tag:bikes", "alice")

	hub.UnsubscribeAll("alice")

	hub.Broadcast("post:7", event())
	hub.Broadcast("tag:bikes", event())
	if conn.count() != 0 {
		t.Fatalf("sends=%d want 0 after UnsubscribeAll", conn.count())
	}
}
