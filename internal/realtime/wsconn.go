package realtime

import (
	"sync"

	"github.com/gorilla/websocket"
	"github.com/peermarket/backend/internal/eventbus"
)

// wsConn adapts a gorilla websocket connection to the Conn interface.
// Gorilla allows one concurrent writer, so sends take a per-conn lock.
type wsConn struct {
	mu sync.Mutex
	ws *websocket.Conn
}

func NewWSConn(ws *websocket.Conn) Conn {
	return &wsConn{ws: ws}
}

func (c *wsConn) Send(ev eventbus.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteJSON(ev)
}

func (c *wsConn) Close() error {
	return c.ws.Close()
}
