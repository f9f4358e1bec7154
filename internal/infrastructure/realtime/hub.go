// Package realtime pushes committed order events to kitchen displays over
// websockets, one room per tenant.
package realtime

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/sangkips/tabsettle-api/internal/domain/event"
)

// tenantEvent routes a marshalled event to one tenant's room
type tenantEvent struct {
	tenantID uuid.UUID
	message  []byte
}

// Hub maintains the set of active clients and broadcasts messages to them
type Hub struct {
	// Registered clients by tenant ID
	rooms map[uuid.UUID]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan *tenantEvent
	done       chan struct{}

	mu sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[uuid.UUID]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *tenantEvent, 256),
		done:       make(chan struct{}),
	}
}

// Run is the hub's main loop. It returns when ctx is cancelled, closing every client.
func (h *Hub) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.closeAll()
			return nil

		case client := <-h.register:
			h.mu.Lock()
			if h.rooms[client.tenantID] == nil {
				h.rooms[client.tenantID] = make(map[*Client]bool)
			}
			h.rooms[client.tenantID][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()

		case evt := <-h.broadcast:
			h.mu.Lock()
			for client := range h.rooms[evt.tenantID] {
				select {
				case client.send <- evt.message:
				default:
					// Slow consumer; drop it rather than stall the room
					h.remove(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// remove must be called with mu held
func (h *Hub) remove(client *Client) {
	clients, ok := h.rooms[client.tenantID]
	if !ok {
		return
	}
	if _, exists := clients[client]; !exists {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.rooms, client.tenantID)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, clients := range h.rooms {
		for client := range clients {
			h.remove(client)
		}
	}
}

// ClientCount returns the number of connected clients for a tenant
func (h *Hub) ClientCount(tenantID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[tenantID])
}

// Publish implements event.Publisher. It never blocks: when the broadcast
// queue is full the event is dropped and logged.
func (h *Hub) Publish(ctx context.Context, evt event.Event) error {
	message, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	select {
	case h.broadcast <- &tenantEvent{tenantID: evt.TenantID, message: message}:
	case <-ctx.Done():
		return ctx.Err()
	default:
		log.Printf("[realtime] broadcast queue full, dropping %s for tenant %s", evt.Type, evt.TenantID)
	}
	return nil
}
