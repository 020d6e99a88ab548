// SPDX-License-Identifier: MIT
package transport

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"beanal/internal/analysis"
	"beanal/internal/log"

	"github.com/gorilla/websocket"
)

// WebSocketPath is where clients connect to receive frames.
const WebSocketPath = "/ws"

const writeWait = time.Second

// WebSocketTransport broadcasts frames as JSON text messages to every
// connected client. Send never blocks: frames are queued for the broadcast
// goroutine and dropped when the queue is full or when they arrive faster
// than the minimum send interval.
//
// Thread Safety:
// - Uses mutex for client map access
// - Handles concurrent connections safely
type WebSocketTransport struct {
	upgrader  websocket.Upgrader
	clients   map[*websocket.Conn]bool
	clientsMu sync.Mutex
	broadcast chan []byte
	server    *http.Server
	listener  net.Listener
	logger    *log.Logger

	minSendInterval time.Duration
	lastSend        time.Time

	closeOnce sync.Once
	done      chan struct{}
	wg        sync.WaitGroup
}

// WebSocketOption configures a WebSocketTransport.
type WebSocketOption func(*WebSocketTransport)

// WithMinSendInterval drops frames that arrive sooner than d after the
// previous broadcast.
func WithMinSendInterval(d time.Duration) WebSocketOption {
	return func(t *WebSocketTransport) { t.minSendInterval = d }
}

// NewWebSocketTransport listens on addr ("host:port", ":0" picks a free
// port) and serves WebSocketPath.
func NewWebSocketTransport(addr string, opts ...WebSocketOption) (*WebSocketTransport, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	wst := &WebSocketTransport{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true // visualizer pages are served from anywhere
			},
		},
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan []byte, 16),
		listener:  ln,
		logger:    log.New("websocket").With("addr", ln.Addr().String()),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(wst)
	}

	mux := http.NewServeMux()
	mux.HandleFunc(WebSocketPath, wst.handleWebSocket)
	wst.server = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	wst.wg.Add(2)
	go func() {
		defer wst.wg.Done()
		wst.logger.Infof("Starting WebSocket server")
		if err := wst.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			wst.logger.Errorf("Server error: %v", err)
		}
	}()
	go wst.handleBroadcasts()
	return wst, nil
}

// Addr is the address the server listens on.
func (wst *WebSocketTransport) Addr() net.Addr { return wst.listener.Addr() }

// Clients is the number of connected clients.
func (wst *WebSocketTransport) Clients() int {
	wst.clientsMu.Lock()
	defer wst.clientsMu.Unlock()
	return len(wst.clients)
}

func (wst *WebSocketTransport) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := wst.upgrader.Upgrade(w, r, nil)
	if err != nil {
		wst.logger.Warnf("Upgrade error: %v", err)
		return
	}

	wst.clientsMu.Lock()
	wst.clients[conn] = true
	total := len(wst.clients)
	wst.clientsMu.Unlock()
	wst.logger.With("remote", conn.RemoteAddr().String()).Infof("Client connected, total: %d", total)

	// Clients never send; a read error means they went away.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				wst.drop(conn)
				return
			}
		}
	}()
}

func (wst *WebSocketTransport) drop(conn *websocket.Conn) {
	wst.clientsMu.Lock()
	_, ok := wst.clients[conn]
	delete(wst.clients, conn)
	total := len(wst.clients)
	wst.clientsMu.Unlock()
	if ok {
		conn.Close()
		wst.logger.Infof("Client disconnected, total: %d", total)
	}
}

func (wst *WebSocketTransport) handleBroadcasts() {
	defer wst.wg.Done()
	for {
		select {
		case <-wst.done:
			return
		case msg := <-wst.broadcast:
			wst.clientsMu.Lock()
			for client := range wst.clients {
				client.SetWriteDeadline(time.Now().Add(writeWait))
				if err := client.WriteMessage(websocket.TextMessage, msg); err != nil {
					wst.logger.Warnf("Error sending to client: %v", err)
					client.Close()
					delete(wst.clients, client)
				}
			}
			wst.clientsMu.Unlock()
		}
	}
}

// Send queues frame for broadcast. It is called from the dispatcher
// goroutine only.
func (wst *WebSocketTransport) Send(frame analysis.VisualizerFrame) error {
	select {
	case <-wst.done:
		return ErrClosed
	default:
	}

	now := time.Now()
	if wst.minSendInterval > 0 && now.Sub(wst.lastSend) < wst.minSendInterval {
		return nil
	}

	msg, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	select {
	case wst.broadcast <- msg:
		wst.lastSend = now
	default:
		// Broadcast goroutine is behind; drop this frame.
	}
	return nil
}

// Close disconnects all clients and shuts the server down.
func (wst *WebSocketTransport) Close() error {
	var err error
	wst.closeOnce.Do(func() {
		wst.logger.Infof("Closing server")
		close(wst.done)
		err = wst.server.Close()

		wst.clientsMu.Lock()
		for client := range wst.clients {
			client.Close()
		}
		wst.clients = make(map[*websocket.Conn]bool)
		wst.clientsMu.Unlock()
		wst.wg.Wait()
	})
	return err
}

// Ensure WebSocketTransport satisfies the interface
var _ Transport = (*WebSocketTransport)(nil)
