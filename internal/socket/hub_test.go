package socket

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func newTestHub() *Hub {
	return NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// serve registers every upgraded connection under the "user" query param.
func serve(t *testing.T, hub *Hub, registered chan<- string) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		user := r.URL.Query().Get("user")
		hub.Register(user, conn)
		registered <- user
		defer hub.Unregister(user, conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
}

func dial(t *testing.T, srv *httptest.Server, user string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?user=" + user
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func TestHub_SendReachesRegisteredUser(t *testing.T) {
	hub := newTestHub()
	registered := make(chan string, 1)
	srv := serve(t, hub, registered)
	defer srv.Close()

	conn := dial(t, srv, "drv-1")
	defer conn.Close()
	<-registered

	if !hub.Online("drv-1") {
		t.Fatal("drv-1 should be online")
	}
	if err := hub.Send("drv-1", []byte(`{"event":"notification"}`)); err != nil {
		t.Fatalf("Send: %v", err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(msg) != `{"event":"notification"}` {
		t.Errorf("message = %s", msg)
	}
}

func TestHub_SendToOfflineUserIsNoop(t *testing.T) {
	hub := newTestHub()
	if err := hub.Send("nobody", []byte("x")); err != nil {
		t.Fatalf("Send to offline user: %v", err)
	}
	if hub.Online("nobody") {
		t.Error("nobody should be offline")
	}
}

func TestHub_UnregisterOnDisconnect(t *testing.T) {
	hub := newTestHub()
	registered := make(chan string, 1)
	srv := serve(t, hub, registered)
	defer srv.Close()

	conn := dial(t, srv, "res-1")
	<-registered
	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.Online("res-1") {
		if time.Now().After(deadline) {
			t.Fatal("client still registered after disconnect")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
