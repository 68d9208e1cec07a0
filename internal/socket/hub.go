// server/internal/socket/hub.go
package socket

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// client serialises writes; a gorilla connection allows one writer at a time.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// Hub tracks the live websocket connection of each user.
type Hub struct {
	// clients is keyed by user id. A newer connection replaces an older one.
	clients map[string]*client
	mu      sync.RWMutex
	logger  *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients: make(map[string]*client),
		logger:  logger,
	}
}

// Register adds a connection for userID, closing any previous one.
func (h *Hub) Register(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	old := h.clients[userID]
	h.clients[userID] = &client{conn: conn}
	h.mu.Unlock()

	if old != nil && old.conn != conn {
		old.conn.Close()
	}
	h.logger.Info("websocket client registered", "userId", userID)
}

// Unregister removes userID only if conn is still its current connection.
func (h *Hub) Unregister(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[userID]; ok && c.conn == conn {
		delete(h.clients, userID)
		h.logger.Info("websocket client unregistered", "userId", userID)
	}
}

// Online reports whether userID has a live connection.
func (h *Hub) Online(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[userID]
	return ok
}

// Send writes message to userID. An offline user is not an error.
func (h *Hub) Send(userID string, message []byte) error {
	h.mu.RLock()
	c, ok := h.clients[userID]
	h.mu.RUnlock()
	if !ok {
		h.logger.Debug("websocket client offline, message dropped", "userId", userID)
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, message)
}
