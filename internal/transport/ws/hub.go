package ws

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/KotFed0t/crypto_trading_sandbox/internal/model"
	"github.com/gorilla/websocket"
)

const writeTimeout = 10 * time.Second

// Hub keeps the set of live websocket subscribers and fans price updates out
// to all of them.
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]struct{}),
	}
}

type wsMessage struct {
	Type      string        `json:"type"`
	Message   string        `json:"message,omitempty"`
	Quotes    []model.Quote `json:"cryptocurrencies,omitempty"`
	Timestamp string        `json:"timestamp,omitempty"`
}

// ServeWS upgrades the request and registers the connection in the hub.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", slog.String("err", err.Error()))
		return
	}

	// the ack goes out before the connection is registered: once the hub can
	// see the connection, broadcasts must be its only writer
	ack := wsMessage{Type: "connection_established", Message: "connected to price feed"}
	if err := h.writeJSON(conn, ack); err != nil {
		_ = conn.Close()
		return
	}

	h.mu.Lock()
	h.clients[conn] = struct{}{}
	clientCount := len(h.clients)
	h.mu.Unlock()

	slog.Info("websocket client connected", slog.Int("clients", clientCount))

	// читаем только чтобы поймать закрытие соединения
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.drop(conn)
				return
			}
		}
	}()
}

// BroadcastPriceUpdate sends a price update to every connected client.
// Clients that fail the write are dropped.
func (h *Hub) BroadcastPriceUpdate(update model.PriceUpdate) {
	msg := wsMessage{
		Type:      "price_update",
		Quotes:    update.Quotes,
		Timestamp: update.Timestamp.Format(time.RFC3339),
	}

	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	for _, conn := range conns {
		if err := h.writeJSON(conn, msg); err != nil {
			slog.Debug("dropping websocket client", slog.String("err", err.Error()))
			h.drop(conn)
		}
	}
}

// Close disconnects all clients. Called on shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients {
		_ = conn.Close()
		delete(h.clients, conn)
	}
}

func (h *Hub) writeJSON(conn *websocket.Conn, msg wsMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteMessage(websocket.TextMessage, payload)
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	_, ok := h.clients[conn]
	if ok {
		delete(h.clients, conn)
	}
	h.mu.Unlock()

	if ok {
		_ = conn.Close()
		slog.Info("websocket client disconnected")
	}
}
