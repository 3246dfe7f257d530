package preview

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// MessageType is the type of a text message sent to browsers. Frames are
// sent as binary messages.
type MessageType string

const (
	MessageReset MessageType = "reset"
	MessageError MessageType = "error"
	MessageClear MessageType = "clear"
)

// Message is a control message sent to browsers.
type Message struct {
	Type  MessageType `json:"type"`
	Error string      `json:"error,omitempty"`
}

const writeWait = 5 * time.Second

// Hub manages the websocket clients and the frame history of the
// current run. Writes to every connection happen under the hub lock, so a
// client never sees frames out of order.
type Hub struct {
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]bool
	history [][]byte
}

// NewHub creates a Hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger:  logger,
		clients: make(map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true // Local preview tool
			},
		},
	}
}

// HandleWebSocket upgrades the connection, replays the history and keeps
// the client registered until it disconnects.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, req *http.Request) {
	conn, err := h.upgrader.Upgrade(w, req, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", "error", err)
		return
	}

	h.mu.Lock()
	ok := h.send(conn, websocket.TextMessage, encodeMessage(Message{Type: MessageReset}))
	for _, frame := range h.history {
		if !ok {
			break
		}
		ok = h.send(conn, websocket.BinaryMessage, frame)
	}
	if ok {
		h.clients[conn] = true
	}
	h.mu.Unlock()

	if !ok {
		conn.Close()
		return
	}
	h.logger.Debug("preview client connected", "remote", req.RemoteAddr)

	// Keep the connection until the client goes away.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	conn.Close()
}

// Reset forgets the history and tells clients to clear their tree.
func (h *Hub) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.history = nil
	h.broadcast(websocket.TextMessage, encodeMessage(Message{Type: MessageReset}))
}

// Frame appends an encoded frame to the history and sends it to clients.
func (h *Hub) Frame(data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.history = append(h.history, data)
	h.broadcast(websocket.BinaryMessage, data)
}

// Error shows an error overlay on clients.
func (h *Hub) Error(msg string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.broadcast(websocket.TextMessage, encodeMessage(Message{Type: MessageError, Error: msg}))
}

// ClearError removes the error overlay on clients.
func (h *Hub) ClearError() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.broadcast(websocket.TextMessage, encodeMessage(Message{Type: MessageClear}))
}

// broadcast must be called with h.mu held.
func (h *Hub) broadcast(kind int, data []byte) {
	for client := range h.clients {
		if !h.send(client, kind, data) {
			delete(h.clients, client)
			client.Close()
		}
	}
}

func (h *Hub) send(conn *websocket.Conn, kind int, data []byte) bool {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(kind, data); err != nil {
		h.logger.Debug("websocket write failed", "error", err)
		return false
	}
	return true
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close closes all client connections.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		client.Close()
		delete(h.clients, client)
	}
}

func encodeMessage(msg Message) []byte {
	data, _ := json.Marshal(msg)
	return data
}
