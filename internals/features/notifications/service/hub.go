package service

import (
	"sync"

	"github.com/google/uuid"
)

const clientBuffer = 32

// Client is one live subscriber. Messages are dropped when Send is full.
type Client struct {
	UserID  uuid.UUID
	IsAdmin bool
	Send    chan []byte
}

// Hub fans events out to WebSocket clients. Admins receive everything,
// faculty only events that name them.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*Client]struct{})}
}

func (h *Hub) Register(userID uuid.UUID, isAdmin bool) *Client {
	cl := &Client{UserID: userID, IsAdmin: isAdmin, Send: make(chan []byte, clientBuffer)}
	h.mu.Lock()
	h.clients[cl] = struct{}{}
	h.mu.Unlock()
	return cl
}

func (h *Hub) Unregister(cl *Client) {
	h.mu.Lock()
	if _, ok := h.clients[cl]; ok {
		delete(h.clients, cl)
		close(cl.Send)
	}
	h.mu.Unlock()
}

// Broadcast never blocks. audience lists the non-admin users allowed to see payload.
func (h *Hub) Broadcast(payload []byte, audience ...uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	delivered := 0
	for cl := range h.clients {
		if !cl.IsAdmin && !contains(audience, cl.UserID) {
			continue
		}
		select {
		case cl.Send <- payload:
			delivered++
		default:
		}
	}
	return delivered
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func contains(ids []uuid.UUID, id uuid.UUID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
