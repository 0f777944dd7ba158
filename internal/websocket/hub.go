package websocket

import (
	"encoding/json"
	"log"
	"sync"
	"time"
)

// Event is one yard notification pushed to subscribers
type Event struct {
	Type    string      `json:"type"`
	YardID  string      `json:"yard_id,omitempty"`
	Payload interface{} `json:"payload,omitempty"`
	At      time.Time   `json:"at"`
}

// Yard event types
const (
	EventStackCreated      = "stack.created"
	EventStackDeactivated  = "stack.deactivated"
	EventStackReactivated  = "stack.reactivated"
	EventStackDeleted      = "stack.deleted"
	EventPositionCommitted = "position.committed"
	EventPositionVacated   = "position.vacated"
	EventBufferAllocated   = "buffer.allocated"
)

// Hub maintains the set of subscribed clients and broadcasts yard
// events to them
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte

	mu sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 64),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			log.Printf("📱 Subscriber connected (%d total)", h.count())

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			log.Printf("📴 Subscriber disconnected (%d total)", h.count())

		case message := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Slow consumer, drop it
					go func(c *Client) { h.unregister <- c }(client)
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *Hub) count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast pushes a yard event to every subscriber. Best-effort: a
// marshal failure is logged and dropped.
func (h *Hub) Broadcast(eventType, yardID string, payload interface{}) {
	msg, err := json.Marshal(Event{
		Type:    eventType,
		YardID:  yardID,
		Payload: payload,
		At:      time.Now().UTC(),
	})
	if err != nil {
		log.Printf("Error marshaling event %s: %v", eventType, err)
		return
	}
	select {
	case h.broadcast <- msg:
	default:
		log.Printf("⚠️  Event queue full, dropping %s", eventType)
	}
}
