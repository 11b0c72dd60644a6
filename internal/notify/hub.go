// Package notify pushes sale and transfer events to connected POS screens
// over websockets, and mirrors them to an optional back-office webhook.
package notify

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Event is one broadcast notification
type Event struct {
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

const (
	EventSaleCompleted     = "sale.completed"
	EventPaymentFailed     = "payment.failed"
	EventPaymentVoided     = "payment.voided"
	EventTransferApproved  = "transfer.approved"
	EventTransferCompleted = "transfer.completed"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub fan-outs events to connected clients. Broadcast never blocks the
// caller; slow clients are dropped.
type Hub struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]chan Event
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]chan Event)}
}

// ServeWS upgrades the connection and streams events until the client leaves
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[Notify] Websocket upgrade failed: %v", err)
		return
	}

	ch := make(chan Event, 16)
	h.mu.Lock()
	h.clients[conn] = ch
	h.mu.Unlock()

	go h.writeLoop(conn, ch)
	go h.readLoop(conn)
}

// Broadcast sends an event to every connected client
func (h *Hub) Broadcast(eventType string, data interface{}) {
	event := Event{Type: eventType, Timestamp: time.Now(), Data: data}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for conn, ch := range h.clients {
		select {
		case ch <- event:
		default:
			// Client is not keeping up
			go h.drop(conn)
		}
	}
}

func (h *Hub) writeLoop(conn *websocket.Conn, ch chan Event) {
	for event := range ch {
		payload, err := json.Marshal(event)
		if err != nil {
			continue
		}
		conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.drop(conn)
			return
		}
	}
}

func (h *Hub) readLoop(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.drop(conn)
			return
		}
	}
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		close(ch)
		conn.Close()
	}
}
