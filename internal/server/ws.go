package server

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rohanpai/fallwatch/internal/store"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// EventsHub pushes newly persisted fall events to connected WebSocket
// clients so dashboards update without polling. All writes happen on a
// single delivery goroutine: gorilla/websocket allows at most one
// concurrent writer per connection.
type EventsHub struct {
	clients map[*websocket.Conn]bool
	mu      sync.RWMutex
	queue   chan eventMessage
}

// NewEventsHub creates an EventsHub with no clients and starts its
// delivery goroutine.
func NewEventsHub() *EventsHub {
	h := &EventsHub{
		clients: make(map[*websocket.Conn]bool),
		queue:   make(chan eventMessage, 64),
	}
	go h.deliver()
	return h
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *EventsHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
	}()

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// eventMessage is the wire format pushed to clients.
type eventMessage struct {
	ID         string  `json:"id"`
	CameraID   string  `json:"camera_id"`
	Timestamp  int64   `json:"timestamp"`
	Confidence float64 `json:"confidence"`
	Severity   string  `json:"severity"`
	Status     string  `json:"status"`
}

// Broadcast queues a fall event for delivery to all connected clients.
// It never blocks: callers sit on camera frame loops, so when the queue
// is full the event is dropped with a log line.
func (h *EventsHub) Broadcast(event *store.FallEvent) {
	msg := eventMessage{
		ID:         event.ID,
		CameraID:   event.CameraID,
		Timestamp:  event.Timestamp.UnixMilli(),
		Confidence: event.Confidence,
		Severity:   string(event.Severity),
		Status:     string(event.Status),
	}

	select {
	case h.queue <- msg:
	default:
		log.Printf("event feed backlog full, dropping event %s", event.ID)
	}
}

// deliver writes queued events to all connected clients. Clients whose
// write fails are closed and removed.
func (h *EventsHub) deliver() {
	for msg := range h.queue {
		h.mu.RLock()
		conns := make([]*websocket.Conn, 0, len(h.clients))
		for conn := range h.clients {
			conns = append(conns, conn)
		}
		h.mu.RUnlock()

		for _, conn := range conns {
			conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("websocket write error: %v", err)
				h.mu.Lock()
				delete(h.clients, conn)
				h.mu.Unlock()
				conn.Close()
			}
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *EventsHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
