package handlers

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"waste-collection-api-server/config"
	"waste-collection-api-server/internal/auth"
	"waste-collection-api-server/internal/models"
	"waste-collection-api-server/internal/socket"
)

func newWebSocketServer(t *testing.T, wait time.Duration) (*httptest.Server, *socket.Hub, *auth.Manager) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tokens, err := auth.NewManager(config.JWTConfig{Secret: "ws-secret"})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	hub := socket.NewHub(logger)
	h := &WebSocketHandler{Hub: hub, Tokens: tokens, Logger: logger, PongWait: wait}
	router := gin.New()
	router.GET("/ws", h.ServeWs)
	return httptest.NewServer(router), hub, tokens
}

func TestServeWs_SilentClientStaysConnected(t *testing.T) {
	const wait = 300 * time.Millisecond
	srv, hub, tokens := newWebSocketServer(t, wait)
	defer srv.Close()

	token, err := tokens.GenerateJWT("drv-1", models.RoleDriver, "")
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// The client never writes; reading lets gorilla answer server pings.
	frames := make(chan string, 1)
	go func() {
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				close(frames)
				return
			}
			frames <- string(msg)
		}
	}()

	time.Sleep(4 * wait)
	if !hub.Online("drv-1") {
		t.Fatal("connection dropped although the client answered pings")
	}
	if err := hub.Send("drv-1", []byte(`{"event":"notification"}`)); err != nil {
		t.Fatalf("Send: %v", err)
	}
	select {
	case msg, ok := <-frames:
		if !ok || msg != `{"event":"notification"}` {
			t.Errorf("frame = %q (open %v)", msg, ok)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no frame received")
	}
}

func TestServeWs_RequiresValidToken(t *testing.T) {
	srv, _, _ := newWebSocketServer(t, time.Second)
	defer srv.Close()

	for _, query := range []string{"", "?token=garbage"} {
		resp, err := http.Get(srv.URL + "/ws" + query)
		if err != nil {
			t.Fatalf("GET: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("query %q status = %d, want 401", query, resp.StatusCode)
		}
	}
}
