package services

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/zagwe-games/bingo-rooms/utils/logger"
)

// envelope is the wire format for every outbound event.
type envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// Hub fans events out to websocket clients grouped by room. It implements
// game.Broadcaster and never calls back into the game layer, so it is safe to
// broadcast while a room holds its own lock.
type Hub struct {
	mu      sync.RWMutex
	rooms   map[string]map[*Client]struct{}
	clients map[*Client]struct{}

	statsMu   sync.Mutex
	lastStats time.Time
}

func NewHub() *Hub {
	return &Hub{
		rooms:   make(map[string]map[*Client]struct{}),
		clients: make(map[*Client]struct{}),
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) Join(roomID string, c *Client) {
	h.mu.Lock()
	members, ok := h.rooms[roomID]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[roomID] = members
	}
	members[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) Leave(roomID string, c *Client) {
	h.mu.Lock()
	if members, ok := h.rooms[roomID]; ok {
		delete(members, c)
	}
	h.mu.Unlock()
}

// Drop removes the client from every room and the global set.
func (h *Hub) Drop(c *Client) {
	h.mu.Lock()
	delete(h.clients, c)
	for _, members := range h.rooms {
		delete(members, c)
	}
	h.mu.Unlock()
}

// Broadcast sends an event to every connection in a room, in the order rooms
// apply their mutations.
func (h *Hub) Broadcast(roomID string, event string, payload any) {
	b, err := json.Marshal(envelope{Event: event, Data: payload})
	if err != nil {
		logger.Errorf("[Hub] marshal %s: %v", event, err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[roomID] {
		c.enqueue(b)
	}
}

// BroadcastAll sends an event to every connection regardless of room.
func (h *Hub) BroadcastAll(event string, payload any) {
	b, err := json.Marshal(envelope{Event: event, Data: payload})
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		c.enqueue(b)
	}
}

// PushStats broadcasts an admin stats snapshot, throttled so roster churn
// cannot flood every connection.
func (h *Hub) PushStats(rooms, players int) {
	h.statsMu.Lock()
	if time.Since(h.lastStats) < 400*time.Millisecond {
		h.statsMu.Unlock()
		return
	}
	h.lastStats = time.Now()
	h.statsMu.Unlock()

	h.BroadcastAll("admin_stats", map[string]int{
		"active_rooms":   rooms,
		"active_players": players,
	})
}
