// SPDX-License-Identifier: MIT
package transport

import (
	"errors"
	"testing"
	"time"

	"beanal/internal/analysis"

	"github.com/gorilla/websocket"
)

func dialTransport(t *testing.T, wst *WebSocketTransport) *websocket.Conn {
	t.Helper()
	url := "ws://" + wst.Addr().String() + WebSocketPath
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })

	deadline := time.Now().Add(2 * time.Second)
	for wst.Clients() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(time.Millisecond)
	}
	return conn
}

func TestWebSocketBroadcastsFrames(t *testing.T) {
	wst, err := NewWebSocketTransport("127.0.0.1:0")
	if err != nil {
		t.Fatalf("NewWebSocketTransport: %v", err)
	}
	defer wst.Close()

	first := dialTransport(t, wst)
	second := dialTransport(t, wst)
	if wst.Clients() != 2 {
		t.Fatalf("Clients = %d, want 2", wst.Clients())
	}

	sent := testFrame(42, 16)
	if err := wst.Send(sent); err != nil {
		t.Fatalf("Send: %v", err)
	}

	for _, conn := range []*websocket.Conn{first, second} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var got analysis.VisualizerFrame
		if err := conn.ReadJSON(&got); err != nil {
			t.Fatalf("ReadJSON: %v", err)
		}
		if got.Sequence != 42 || got.Bars() != 16 || got.PeakLevels[3] != 3.5 {
			t.Errorf("received %+v", got)
		}
	}
}

func TestWebSocketMinSendInterval(t *testing.T) {
	wst, err := NewWebSocketTransport("127.0.0.1:0", WithMinSendInterval(time.Hour))
	if err != nil {
		t.Fatalf("NewWebSocketTransport: %v", err)
	}
	defer wst.Close()
	conn := dialTransport(t, wst)

	wst.Send(testFrame(1, 2))
	wst.Send(testFrame(2, 2))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got analysis.VisualizerFrame
	if err := conn.ReadJSON(&got); err != nil || got.Sequence != 1 {
		t.Fatalf("first frame: %+v, %v", got, err)
	}
	conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	if err := conn.ReadJSON(&got); err == nil {
		t.Errorf("rate-limited frame %d was delivered", got.Sequence)
	}
}

func TestWebSocketDropsDisconnectedClients(t *testing.T) {
	wst, err := NewWebSocketTransport("127.0.0.1:0")
	if err != nil {
		t.Fatalf("NewWebSocketTransport: %v", err)
	}
	defer wst.Close()

	conn := dialTransport(t, wst)
	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for wst.Clients() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("closed client was not removed")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestWebSocketClose(t *testing.T) {
	wst, err := NewWebSocketTransport("127.0.0.1:0")
	if err != nil {
		t.Fatalf("NewWebSocketTransport: %v", err)
	}
	dialTransport(t, wst)

	if err := wst.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	if err := wst.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if wst.Clients() != 0 {
		t.Errorf("Clients = %d after Close", wst.Clients())
	}
	if err := wst.Send(testFrame(1, 1)); !errors.Is(err, ErrClosed) {
		t.Errorf("Send after Close = %v, want ErrClosed", err)
	}
}

func TestWebSocketListenError(t *testing.T) {
	if _, err := NewWebSocketTransport("256.0.0.1:bad"); err == nil {
		t.Error("expected listen error")
	}
}
