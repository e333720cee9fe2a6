package realtime

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/peermarket/backend/internal/eventbus"
)

// Conn is one live client transport handle bound to a single user. Any
// bidirectional transport (websocket, SSE adapter) can implement it.
type Conn interface {
	Send(ev eventbus.Event) error
	Close() error
}

// NotificationStore persists one delivered-event record per recipient.
type NotificationStore interface {
	Save(ctx context.Context, userUID, topic string, ev eventbus.Event) error
}

// Hub tracks live connections per user and topic subscribers, and fans a
// broadcast event out to every connection of every subscriber. One mutex
// guards both maps; Broadcast holds it for the whole fan-out pass so delivery
// is serialized with subscribe/unsubscribe.
type Hub struct {
	mu          sync.Mutex
	connections map[string][]Conn
	subscribers map[string]map[string]struct{}
	store       NotificationStore
}

func NewHub(store NotificationStore) *Hub {
	return &Hub{
		connections: make(map[string][]Conn),
		subscribers: make(map[string]map[string]struct{}),
		store:       store,
	}
}

// AddConnection prepends conn to the user's list; the newest connection sits
// first but every live connection receives broadcasts.
func (h *Hub) AddConnection(userUID string, conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connections[userUID] = append([]Conn{conn}, h.connections[userUID]...)
}

// RemoveConnection removes conn by identity. Subscriptions are untouched; a
// user with zero connections simply has nowhere to deliver.
func (h *Hub) RemoveConnection(userUID string, conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns := h.connections[userUID]
	for i, c := range conns {
		if c == conn {
			h.connections[userUID] = append(conns[:i:i], conns[i+1:]...)
			break
		}
	}
	if len(h.connections[userUID]) == 0 {
		delete(h.connections, userUID)
	}
}

// Subscribe is idempotent.
func (h *Hub) Subscribe(topic, userUID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.subscribers[topic]
	if !ok {
		set = make(map[string]struct{})
		h.subscribers[topic] = set
	}
	set[userUID] = struct{}{}
}

// Unsubscribe on a non-member is a no-op.
func (h *Hub) Unsubscribe(topic, userUID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropSubscriber(topic, userUID)
}

// UnsubscribeAll sweeps every topic for the user under the registry lock.
// O(topics), acceptable for disconnect cleanup.
func (h *Hub) UnsubscribeAll(userUID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for topic := range h.subscribers {
		h.dropSubscriber(topic, userUID)
	}
}

func (h *Hub) dropSubscriber(topic, userUID string) {
	set, ok := h.subscribers[topic]
	if !ok {
		return
	}
	delete(set, userUID)
	if len(set) == 0 {
		delete(h.subscribers, topic)
	}
}

// Broadcast persists a notification for every subscriber of topic, then
// delivers to each of their live connections. A failed send on one
// connection is logged and skipped; it never blocks the rest of the pass.
func (h *Hub) Broadcast(topic string, ev eventbus.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	h.mu.Lock()
	defer h.mu.Unlock()
	for userUID := range h.subscribers[topic] {
		if err := h.store.Save(ctx, userUID, topic, ev); err != nil {
			log.Printf("realtime: persist notification for %s: %v", userUID, err)
		}
		for _, conn := range h.connections[userUID] {
			if err := conn.Send(ev); err != nil {
				log.Printf("realtime: send to %s failed: %v", userUID, err)
			}
		}
	}
}

// ConnectionCount reports live connections for a user.
func (h *Hub) ConnectionCount(userUID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.connections[userUID])
}
