package ws

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/remotehq/office/internal/office"
)

// Hub tracks live connections and implements office.Emitter. A failed
// delivery is logged and isolated to its connection; the rest of a
// broadcast always proceeds.
type Hub struct {
	mu    sync.RWMutex
	conns map[office.ConnID]*conn
}

func NewHub() *Hub {
	return &Hub{conns: make(map[office.ConnID]*conn)}
}

func (h *Hub) add(c *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[c.id] = c
}

func (h *Hub) remove(id office.ConnID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, id)
}

func (h *Hub) get(id office.ConnID) (*conn, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.conns[id]
	return c, ok
}

func (h *Hub) Unicast(id office.ConnID, event string, payload any) {
	c, ok := h.get(id)
	if !ok {
		log.Debug().Str("module", "ws").Str("conn", string(id)).Str("event", event).Msg("unicast to unknown conn")
		return
	}
	h.deliver(c, event, payload)
}

func (h *Hub) Broadcast(event string, payload any) {
	h.mu.RLock()
	targets := make([]*conn, 0, len(h.conns))
	for _, c := range h.conns {
		targets = append(targets, c)
	}
	h.mu.RUnlock()
	for _, c := range targets {
		h.deliver(c, event, payload)
	}
}

func (h *Hub) deliver(c *conn, event string, payload any) {
	data, err := json.Marshal(struct {
		Event string `json:"event"`
		Data  any    `json:"data,omitempty"`
	}{Event: event, Data: payload})
	if err != nil {
		log.Error().Err(err).Str("module", "ws").Str("event", event).Msg("marshal event")
		return
	}
	if err := c.TrySend(data); err != nil {
		log.Warn().Err(err).Str("module", "ws").Str("conn", string(c.id)).Str("event", event).Msg("dropping frame")
	}
}
