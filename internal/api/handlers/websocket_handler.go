// server/internal/api/handlers/websocket_handler.go
package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"waste-collection-api-server/internal/api/middleware"
	"waste-collection-api-server/internal/socket"
)

const (
	// pongWait is how long a connection may stay silent before it is dropped.
	pongWait = 30 * time.Second
	// pingWriteWait bounds a single keepalive ping.
	pingWriteWait = 5 * time.Second
)

type WebSocketHandler struct {
	Hub      *socket.Hub
	Tokens   middleware.TokenParser
	Upgrader websocket.Upgrader
	Logger   *slog.Logger
	// PongWait overrides the idle timeout; zero means pongWait.
	PongWait time.Duration
}

// ServeWs upgrades an authenticated request and keeps the connection
// registered until the client goes away. Browsers cannot set headers on a
// websocket handshake, so the token travels in ?token=.
func (h *WebSocketHandler) ServeWs(c *gin.Context) {
	tokenString := c.Query("token")
	if tokenString == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Token is required"})
		return
	}
	claims, err := h.Tokens.Parse(tokenString)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		return
	}
	userID := claims.UserID

	conn, err := h.Upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.Logger.Warn("websocket upgrade failed", "userId", userID, "err", err)
		return
	}

	h.Hub.Register(userID, conn)
	defer func() {
		h.Hub.Unregister(userID, conn)
		conn.Close()
	}()

	wait := h.PongWait
	if wait <= 0 {
		wait = pongWait
	}
	extend := func() { _ = conn.SetReadDeadline(time.Now().Add(wait)) }

	// Browsers cannot send ping frames, so the server pings and every pong,
	// ping or data frame from the client extends the read deadline.
	extend()
	conn.SetPongHandler(func(string) error {
		extend()
		return nil
	})
	conn.SetPingHandler(func(appData string) error {
		extend()
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(time.Second))
	})

	done := make(chan struct{})
	defer close(done)
	go keepAlive(conn, wait/2, done)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.Logger.Warn("websocket closed unexpectedly", "userId", userID, "err", err)
			}
			return
		}
		extend()
	}
}

// keepAlive pings conn every period until done is closed or a ping fails.
// WriteControl may run concurrently with the hub's writes.
func keepAlive(conn *websocket.Conn, period time.Duration, done <-chan struct{}) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(pingWriteWait)); err != nil {
				return
			}
		}
	}
}
