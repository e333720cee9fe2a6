package handler

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/peermarket/backend/internal/realtime"
	"github.com/peermarket/backend/internal/repository"
)

// WSHandler upgrades clients and bridges them into the realtime hub. Durable
// subscriptions are replayed into the registry on every (re)connect; the
// in-memory ones are dropped again when the user's last connection goes away.
type WSHandler struct {
	hub      *realtime.Hub
	subs     repository.SubscriptionRepository
	upgrader websocket.Upgrader
}

func NewWSHandler(hub *realtime.Hub, subs repository.SubscriptionRepository) *WSHandler {
	return &WSHandler{
		hub:  hub,
		subs: subs,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type wsFrame struct {
	Action string `json:"action"`
	Topic  string `json:"topic"`
}

func (h *WSHandler) Serve(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	// Replay topics load before the upgrade; a connection never starts with
	// its durable subscriptions missing.
	ctx := c.Request().Context()
	topics, err := h.subs.ListTopics(ctx, uid)
	if err != nil {
		log.Printf("ws: replay subscriptions for %s: %v", uid, err)
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal", "subscriptions unavailable"))
	}
	ws, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	conn := realtime.NewWSConn(ws)
	h.hub.AddConnection(uid, conn)

	h.hub.Subscribe("user:"+uid, uid)
	for _, t := range topics {
		h.hub.Subscribe(t, uid)
	}

	defer func() {
		h.hub.RemoveConnection(uid, conn)
		if h.hub.ConnectionCount(uid) == 0 {
			// Registry cleanup only; subscription rows survive for replay.
			h.hub.UnsubscribeAll(uid)
		}
		_ = conn.Close()
	}()

	for {
		var frame wsFrame
		if err := ws.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("ws: read from %s: %v", uid, err)
			}
			return nil
		}
		if frame.Topic == "" {
			continue
		}
		switch frame.Action {
		case "subscribe":
			if err := h.subs.Add(ctx, uid, frame.Topic); err != nil {
				log.Printf("ws: persist subscription %s/%s: %v", uid, frame.Topic, err)
				continue
			}
			h.hub.Subscribe(frame.Topic, uid)
		case "unsubscribe":
			if err := h.subs.Remove(ctx, uid, frame.Topic); err != nil {
				log.Printf("ws: remove subscription %s/%s: %v", uid, frame.Topic, err)
				continue
			}
			h.hub.Unsubscribe(frame.Topic, uid)
		}
	}
}
