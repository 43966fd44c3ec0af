package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"investSandbox/internal/domain"
	"investSandbox/internal/ports"
	"investSandbox/internal/sim"
)

const (
	writeWait      = 10 * time.Second
	sendBufferSize = 64
)

// wsClient couples a connection handle with its id and outbound queue. The
// id lives here, next to the handle — the transport object is never mutated.
type wsClient struct {
	id   sim.ConnID
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
}

// Hub owns the live WebSocket connections and implements sim.Sink. Sends are
// non-blocking: a full outbound queue drops the event for that connection
// only.
type Hub struct {
	mu      sync.RWMutex
	clients map[sim.ConnID]*wsClient
	logger  ports.Logger
}

// NewHub creates an empty connection hub.
func NewHub(logger ports.Logger) *Hub {
	return &Hub{clients: make(map[sim.ConnID]*wsClient), logger: logger}
}

// Send marshals the event and queues it for one connection. Reports false if
// the connection is gone or its queue is full.
func (h *Hub) Send(id sim.ConnID, ev sim.StreamEvent) bool {
	h.mu.RLock()
	client, ok := h.clients[id]
	h.mu.RUnlock()
	if !ok {
		return false
	}
	body, err := sonic.Marshal(ev)
	if err != nil {
		h.logger.Error(context.Background(), err, "failed to marshal stream event")
		return false
	}
	select {
	case client.send <- body:
		return true
	default:
		return false
	}
}

func (h *Hub) add(c *wsClient) {
	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()
}

func (h *Hub) remove(id sim.ConnID) {
	h.mu.Lock()
	delete(h.clients, id)
	h.mu.Unlock()
}

// ClientCount returns the number of live connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// writePump drains the outbound queue onto the wire until the connection is
// done. Queued messages left behind on exit are dropped.
func (c *wsClient) writePump() {
	defer c.conn.Close()
	for {
		select {
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

// inboundMessage is the client's subscription control frame.
type inboundMessage struct {
	Event    string                `json:"event"`
	FIGI     string                `json:"figi"`
	Interval domain.CandleInterval `json:"interval"`
}

// handleWS upgrades the connection, assigns it an id and runs the read loop.
// Subscribe/unsubscribe frames get no acknowledgement; malformed or binary
// frames are ignored.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn(r.Context(), "websocket upgrade failed", map[string]interface{}{"error": err.Error()})
		return
	}

	client := &wsClient{
		id:   sim.ConnID(uuid.NewString()),
		conn: conn,
		send: make(chan []byte, sendBufferSize),
		done: make(chan struct{}),
	}
	s.hub.add(client)
	s.logger.Debug(r.Context(), "websocket connected", map[string]interface{}{"connId": string(client.id)})
	go client.writePump()

	defer func() {
		close(client.done)
		s.hub.remove(client.id)
		s.registry.DropConnection(client.id)
		conn.Close()
		s.logger.Debug(r.Context(), "websocket disconnected", map[string]interface{}{"connId": string(client.id)})
	}()

	for {
		msgType, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		var msg inboundMessage
		if err := sonic.Unmarshal(raw, &msg); err != nil {
			continue
		}
		sub := sim.Subscription{FIGI: msg.FIGI, Interval: msg.Interval}
		switch msg.Event {
		case sim.EventSubscribe:
			s.registry.Subscribe(client.id, sub)
		case sim.EventUnsubscribe:
			s.registry.Unsubscribe(client.id, sub)
		}
	}
}
