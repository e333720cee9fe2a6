package eventbus

import "sync"

// Broadcaster receives drained events, one at a time, in publish order.
type Broadcaster interface {
	Broadcast(topic string, ev Event)
}

// Publisher decouples transaction-committing callers from delivery. Publish
// enqueues and returns; it never waits for fan-out.
type Publisher interface {
	Publish(topic string, ev Event)
	Close()
}

type envelope struct {
	topic string
	ev    Event
}

// Bus is the in-process Publisher: a buffered channel drained by exactly one
// consumer goroutine, so events on a topic reach the Broadcaster in publish
// order. When the buffer is full Publish blocks rather than dropping; the
// caller has already committed, so the event must not be lost.
type Bus struct {
	ch        chan envelope
	target    Broadcaster
	closeOnce sync.Once
	done      chan struct{}
}

func NewBus(target Broadcaster, buffer int) *Bus {
	if buffer <= 0 {
		buffer = 256
	}
	b := &Bus{
		ch:     make(chan envelope, buffer),
		target: target,
		done:   make(chan struct{}),
	}
	go b.consume()
	return b
}

func (b *Bus) Publish(topic string, ev Event) {
	b.ch <- envelope{topic: topic, ev: ev}
}

// Close stops the consumer after the buffer drains.
func (b *Bus) Close() {
	b.closeOnce.Do(func() {
		close(b.ch)
	})
	<-b.done
}

func (b *Bus) consume() {
	defer close(b.done)
	for env := range b.ch {
		b.target.Broadcast(env.topic, env.ev)
	}
}
