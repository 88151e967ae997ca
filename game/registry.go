package game

import (
	"sort"
	"sync"

	"github.com/zagwe-games/bingo-rooms/utils/logger"
)

// Registry is the process-wide room map. Rooms are created lazily on first
// reference and live for the process lifetime. The registry only guards the
// map; each room serializes its own state.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room
	cfg   Config
	deps  Deps
}

func NewRegistry(cfg Config, deps Deps) *Registry {
	return &Registry{
		rooms: make(map[string]*Room),
		cfg:   cfg,
		deps:  deps,
	}
}

// Get resolves a room id, creating the room on first reference.
func (g *Registry) Get(id string) *Room {
	g.mu.RLock()
	r, ok := g.rooms[id]
	g.mu.RUnlock()
	if ok {
		return r
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if r, ok = g.rooms[id]; ok {
		return r
	}
	r = NewRoom(id, g.cfg, g.deps)
	g.rooms[id] = r
	logger.Infof("[Registry] room %s created", id)
	return r
}

// Lookup resolves a room id without creating it.
func (g *Registry) Lookup(id string) (*Room, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	r, ok := g.rooms[id]
	return r, ok
}

// Create makes a room with explicit settings, reusing an existing one.
func (g *Registry) Create(id string, s Settings) *Room {
	r := g.Get(id)
	r.SetSettings(s)
	return r
}

// List returns per-room summaries ordered by id.
func (g *Registry) List() []Summary {
	g.mu.RLock()
	rooms := make([]*Room, 0, len(g.rooms))
	for _, r := range g.rooms {
		rooms = append(rooms, r)
	}
	g.mu.RUnlock()

	out := make([]Summary, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, r.Summary())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Stats counts active rooms and seated players for the admin dashboard.
func (g *Registry) Stats() (rooms int, players int) {
	g.mu.RLock()
	list := make([]*Room, 0, len(g.rooms))
	for _, r := range g.rooms {
		list = append(list, r)
	}
	g.mu.RUnlock()

	for _, r := range list {
		players += r.PlayerCount()
	}
	return len(list), players
}

// DisconnectEverywhere drops a user from every room. The transport layer does
// not know which rooms a dying connection was seated in.
func (g *Registry) DisconnectEverywhere(userID int64) {
	g.mu.RLock()
	list := make([]*Room, 0, len(g.rooms))
	for _, r := range g.rooms {
		list = append(list, r)
	}
	g.mu.RUnlock()

	for _, r := range list {
		r.Disconnect(userID)
	}
}
