package eventbus

import (
	"encoding/json"
	"log"
	"time"

	"github.com/nats-io/nats.go"
)

// Subject shared by all instances. The topic travels inside the envelope so
// arbitrary topic strings round-trip without subject-name escaping.
const natsSubject = "peermarket.events"

type natsEnvelope struct {
	Topic string `json:"topic"`
	Event Event  `json:"event"`
}

// NATSBus is the network-backed Publisher for multi-instance deployments.
// Every instance subscribes, so each ConnectionManager sees the full event
// stream and delivers to its own connections.
type NATSBus struct {
	nc     *nats.Conn
	sub    *nats.Subscription
	target Broadcaster
}

func NewNATSBus(url string, target Broadcaster) (*NATSBus, error) {
	nc, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				log.Printf("nats: disconnected: %v", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("nats: reconnected to %v", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			log.Printf("nats: connection closed")
		}),
	)
	if err != nil {
		return nil, err
	}
	b := &NATSBus{nc: nc, target: target}
	// A single handler per instance keeps per-topic delivery ordered.
	sub, err := nc.Subscribe(natsSubject, b.handle)
	if err != nil {
		nc.Close()
		return nil, err
	}
	b.sub = sub
	return b, nil
}

func (b *NATSBus) Publish(topic string, ev Event) {
	data, err := json.Marshal(natsEnvelope{Topic: topic, Event: ev})
	if err != nil {
		log.Printf("nats: marshal event: %v", err)
		return
	}
	if err := b.nc.Publish(natsSubject, data); err != nil {
		log.Printf("nats: publish %s: %v", topic, err)
	}
}

func (b *NATSBus) handle(msg *nats.Msg) {
	var env natsEnvelope
	if err := json.Unmarshal(msg.Data, &env); err != nil {
		log.Printf("nats: bad event payload: %v", err)
		return
	}
	b.target.Broadcast(env.Topic, env.Event)
}

func (b *NATSBus) Close() {
	if b.sub != nil {
		_ = b.sub.Drain()
	}
	b.nc.Close()
}
