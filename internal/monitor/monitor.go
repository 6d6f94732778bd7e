package monitor

import (
	"encoding/hex"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/doudar/swiftcontrol/internal/logging"
	"github.com/doudar/swiftcontrol/internal/tnp"
)

// Event is one decoded TNP frame as streamed to monitor clients.
type Event struct {
	Time      time.Time `json:"time"`
	Remote    string    `json:"remote"`
	Direction string    `json:"direction"` // "received" or "sent"
	Type      string    `json:"type"`
	Sequence  uint8     `json:"sequence"`
	Response  string    `json:"response"`
	BodyHex   string    `json:"body_hex"`
}

// Hub broadcasts decoded frames to connected WebSocket clients. A nil *Hub
// is valid and drops everything, so callers never need a nil check.
type Hub struct {
	mu       sync.Mutex
	clients  map[*websocket.Conn]struct{}
	upgrader websocket.Upgrader
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{
			// The monitor is a LAN debugging tool; origin checks add nothing.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// PublishFrame converts a frame into an event and broadcasts it.
func (h *Hub) PublishFrame(remote, direction string, f *tnp.Frame) {
	if h == nil {
		return
	}
	h.publish(Event{
		Time:      time.Now(),
		Remote:    remote,
		Direction: direction,
		Type:      tnp.MessageName(f.MessageID),
		Sequence:  f.Sequence,
		Response:  tnp.ResponseName(f.ResponseCode),
		BodyHex:   hex.EncodeToString(f.Body),
	})
}

func (h *Hub) publish(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			_ = conn.Close()
			delete(h.clients, conn)
		}
	}
}

// ServeHTTP upgrades the request to a WebSocket and registers the client.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn("Monitor upgrade failed",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}

	logging.LogConnection(conn.RemoteAddr().String(), "monitor_connected")

	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()

	// Drain (and discard) client messages so pings are answered and closes
	// are noticed.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.mu.Lock()
				delete(h.clients, conn)
				h.mu.Unlock()
				_ = conn.Close()
				logging.LogConnection(conn.RemoteAddr().String(), "monitor_disconnected")
				return
			}
		}
	}()
}

// ListenAndServe serves the monitor endpoint at /frames until the listener
// fails.
func (h *Hub) ListenAndServe(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/frames", h)
	logging.Info("Monitor listening", zap.String("addr", addr))
	return http.ListenAndServe(addr, mux)
}
