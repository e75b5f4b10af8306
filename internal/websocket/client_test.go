// Cargomap - Shipping Container Tracking and Route Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cargomap

package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// setupWebSocketServer upgrades every request and registers a Client for it
// with hub.
func setupWebSocketServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upgrader := websocket.Upgrader{}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		client := NewClient(hub, conn)
		hub.Register <- client
		client.Start()
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dialWebSocket(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if resp != nil && resp.Body != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	return msg
}

func TestClient_Constants(t *testing.T) {
	if pingPeriod >= pongWait {
		t.Errorf("pingPeriod %v must be shorter than pongWait %v", pingPeriod, pongWait)
	}
	if writeWait != 10*time.Second {
		t.Errorf("writeWait = %v", writeWait)
	}
}

func TestNewClient_AssignsIncreasingIDs(t *testing.T) {
	hub := NewHub()
	a, b := NewClient(hub, nil), NewClient(hub, nil)
	if b.ID() <= a.ID() {
		t.Errorf("ids not increasing: %d then %d", a.ID(), b.ID())
	}
	if cap(a.send) != sendBuffer {
		t.Errorf("send capacity = %d", cap(a.send))
	}
}

func TestClient_PingPong(t *testing.T) {
	hub := setupHub(t)
	conn := dialWebSocket(t, setupWebSocketServer(t, hub))

	if err := conn.WriteJSON(Message{Type: MessageTypePing}); err != nil {
		t.Fatal(err)
	}
	if msg := readMessage(t, conn); msg.Type != MessageTypePong {
		t.Errorf("type = %q, want pong", msg.Type)
	}
}

func TestClient_ReceivesBroadcast(t *testing.T) {
	hub := setupHub(t)
	conn := dialWebSocket(t, setupWebSocketServer(t, hub))
	waitForCount(t, hub, 1)

	hub.BroadcastRefreshCompleted(RefreshCompletedData{Count: 12})

	msg := readMessage(t, conn)
	if msg.Type != MessageTypeRefreshCompleted {
		t.Fatalf("type = %q", msg.Type)
	}
	data, ok := msg.Data.(map[string]interface{})
	if !ok || data["count"] != float64(12) {
		t.Errorf("unexpected data %#v", msg.Data)
	}
}

func TestClient_DisconnectUnregisters(t *testing.T) {
	hub := setupHub(t)
	conn := dialWebSocket(t, setupWebSocketServer(t, hub))
	waitForCount(t, hub, 1)

	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	_ = conn.Close()
	waitForCount(t, hub, 0)
}

func TestClient_HubShutdownClosesConnection(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = hub.RunWithContext(ctx) }()

	conn := dialWebSocket(t, setupWebSocketServer(t, hub))
	waitForCount(t, hub, 1)
	cancel()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("expected the connection to be closed by the server")
	}
}

func TestClient_CloseSendIsIdempotent(t *testing.T) {
	c := NewClient(NewHub(), nil)
	if !c.trySend(Message{Type: MessageTypePong}) {
		t.Fatal("trySend on an open queue failed")
	}
	c.closeSend()
	c.closeSend()
	if c.trySend(Message{Type: MessageTypePong}) {
		t.Error("trySend succeeded after closeSend")
	}
}

func TestClient_PingAfterHubClosedQueue(t *testing.T) {
	hub := setupHub(t)
	done := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upgrader := websocket.Upgrader{}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			close(done)
			return
		}
		client := NewClient(hub, conn)
		// Same state as a client the hub dropped for a full buffer.
		client.closeSend()
		go func() {
			defer close(done)
			client.readPump()
		}()
	}))
	t.Cleanup(srv.Close)

	conn := dialWebSocket(t, srv)
	for i := 0; i < 3; i++ {
		if err := conn.WriteJSON(Message{Type: MessageTypePing}); err != nil {
			t.Fatal(err)
		}
	}
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	_ = conn.Close()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("readPump did not return")
	}
}
