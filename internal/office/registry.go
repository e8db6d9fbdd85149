package office

import (
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/remotehq/office/internal/domain"
)

// SortPolicy assigns a ranking weight to a room; higher sorts first.
// Installed at startup, recomputed on every List.
type SortPolicy func(room domain.Room) float64

// Registry is the authoritative room set. Rooms come only from Reload
// (wholesale replace) and are mutated only through Open/Close; the
// registry performs no I/O and owns no timers.
type Registry struct {
	mu     sync.RWMutex
	rooms  map[domain.RoomID]*domain.Room
	order  []domain.RoomID
	policy SortPolicy
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[domain.RoomID]*domain.Room)}
}

func (r *Registry) SetSortPolicy(p SortPolicy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.policy = p
}

// Reload replaces the room set with the feed. Closed flags of rooms
// present in both old and new sets are preserved, so a periodic reload
// does not undo a manual closure; brand-new rooms start open.
func (r *Registry) Reload(feed []domain.Room) {
	r.mu.Lock()
	defer r.mu.Unlock()
	next := make(map[domain.RoomID]*domain.Room, len(feed))
	order := make([]domain.RoomID, 0, len(feed))
	for i := range feed {
		room := feed[i]
		if _, dup := next[room.ID]; dup {
			continue
		}
		if prev, ok := r.rooms[room.ID]; ok {
			room.Closed = prev.Closed
		} else {
			room.Closed = false
		}
		next[room.ID] = &room
		order = append(order, room.ID)
	}
	r.rooms = next
	r.order = order
	log.Info().Str("module", "office.rooms").Int("count", len(next)).Msg("room set reloaded")
}

func (r *Registry) Get(id domain.RoomID) (domain.Room, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[id]
	if !ok {
		return domain.Room{}, false
	}
	return *room, true
}

// Close marks the room closed; no-op when the id is unknown.
// Reports whether the flag actually changed.
func (r *Registry) Close(id domain.RoomID) bool {
	return r.setClosed(id, true)
}

// Open marks the room open; no-op when the id is unknown.
func (r *Registry) Open(id domain.RoomID) bool {
	return r.setClosed(id, false)
}

func (r *Registry) setClosed(id domain.RoomID, closed bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[id]
	if !ok || room.Closed == closed {
		return false
	}
	room.Closed = closed
	log.Info().Str("module", "office.rooms").Str("room", string(id)).Bool("closed", closed).Msg("room flag changed")
	return true
}

// List returns the rooms ranked by the sort policy, stable against feed
// order so equal weights keep their configured position. Weights are
// computed outside the registry lock: the policy reads the directory,
// which has its own guard.
func (r *Registry) List() []domain.Room {
	r.mu.RLock()
	out := make([]domain.Room, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.rooms[id])
	}
	policy := r.policy
	r.mu.RUnlock()

	if policy == nil {
		return out
	}
	weights := make(map[domain.RoomID]float64, len(out))
	for _, room := range out {
		weights[room.ID] = policy(room)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return weights[out[i].ID] > weights[out[j].ID]
	})
	return out
}
