// file: internal/handlers/web/websocket_handler.go
package web

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"badgehub/internal/contextutils"
	"badgehub/internal/events"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	wsWriteWait      = 10 * time.Second
	wsPongWait       = 60 * time.Second
	wsPingPeriod     = 54 * time.Second
	wsMaxMessageSize = 512
	wsSendBuffer     = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS policy is enforced upstream for the rest of the API;
		// token auth gates the socket itself.
		return true
	},
}

// wsClient is one open connection belonging to a user
type wsClient struct {
	userID int64
	conn   *websocket.Conn
	send   chan []byte
}

// Hub fans event bus notifications out to each user's open sockets
type Hub struct {
	mu      sync.RWMutex
	clients map[int64]map[*wsClient]struct{}
	logger  *zap.Logger
}

// NewHub creates the websocket hub and wires it to the event bus.
// Badge, reward and profile events are pushed to their user's sockets.
func NewHub(bus events.EventBus, logger *zap.Logger) (*Hub, error) {
	h := &Hub{
		clients: make(map[int64]map[*wsClient]struct{}),
		logger:  logger,
	}

	for _, pattern := range []string{"badge.*", "reward.*", "profile.*"} {
		handler := events.NewEventHandlerFunc("ws:"+pattern, h.forward)
		if err := bus.SubscribePattern(pattern, handler); err != nil {
			return nil, err
		}
	}
	return h, nil
}

// forward pushes one event to the sockets of the user it concerns
func (h *Hub) forward(_ context.Context, event events.Event) error {
	userID := event.GetUserID()
	if userID == nil {
		return nil
	}

	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Warn("failed to encode event for websocket",
			zap.String("event_type", event.GetEventType()),
			zap.Error(err),
		)
		return nil
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients[*userID] {
		select {
		case client.send <- payload:
		default:
			// Slow consumer, drop the message rather than block the bus.
		}
	}
	return nil
}

// ServeWS upgrades an authenticated request to a websocket connection
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID := contextutils.GetUserID(r.Context())
	if userID == 0 {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &wsClient{
		userID: userID,
		conn:   conn,
		send:   make(chan []byte, wsSendBuffer),
	}

	h.register(client)
	go h.writePump(client)
	go h.readPump(client)
}

func (h *Hub) register(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c.userID] == nil {
		h.clients[c.userID] = make(map[*wsClient]struct{})
	}
	h.clients[c.userID][c] = struct{}{}
}

func (h *Hub) unregister(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.clients[c.userID]; ok {
		if _, ok := conns[c]; ok {
			delete(conns, c)
			close(c.send)
			if len(conns) == 0 {
				delete(h.clients, c.userID)
			}
		}
	}
}

// readPump drains the connection so pings and closes are processed
func (h *Hub) readPump(c *wsClient) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(wsMaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("websocket closed unexpectedly",
					zap.Int64("user_id", c.userID),
					zap.Error(err),
				)
			}
			return
		}
	}
}

func (h *Hub) writePump(c *wsClient) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
