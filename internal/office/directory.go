package office

import (
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/remotehq/office/internal/domain"
)

type dirEntry struct {
	user *domain.User
	room domain.RoomID
	conn ConnID
}

// Directory is the authoritative participant -> room assignment map.
// It holds exactly the currently connected participants; a participant
// with no live connection is removed, never kept in a disconnected
// state. All mutation is serialized by the coordinator; the mutex only
// guards read-only peeks from the HTTP layer.
type Directory struct {
	mu      sync.RWMutex
	entries map[domain.UserID]*dirEntry
}

func NewDirectory() *Directory {
	return &Directory{entries: make(map[domain.UserID]*dirEntry)}
}

// AddOrUpdate upserts the participant record and sets its assignment
// and latest connection handle. A participant has at most one room:
// re-assignment replaces. The in-meeting flag survives a profile
// refresh on reconnect.
func (d *Directory) AddOrUpdate(user *domain.User, room domain.RoomID, conn ConnID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if e, ok := d.entries[user.ID]; ok {
		if e.user != user {
			user.InMeeting = e.user.InMeeting
			e.user = user
		}
		e.room = room
		e.conn = conn
		log.Debug().Str("module", "office.directory").Str("user", string(user.ID)).Str("room", string(room)).Msg("assignment updated")
		return
	}
	d.entries[user.ID] = &dirEntry{user: user, room: room, conn: conn}
	log.Info().Str("module", "office.directory").Str("user", string(user.ID)).Str("room", string(room)).Msg("participant added")
}

func (d *Directory) Get(id domain.UserID) (domain.UserInRoom, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	e, ok := d.entries[id]
	if !ok {
		return domain.UserInRoom{}, false
	}
	return domain.UserInRoom{User: e.user, Room: e.room}, true
}

// Conn returns the latest connection handle recorded for a participant.
func (d *Directory) Conn(id domain.UserID) (ConnID, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	e, ok := d.entries[id]
	if !ok {
		return "", false
	}
	return e.conn, true
}

func (d *Directory) ListByRoom(room domain.RoomID) []domain.UserInRoom {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return lo.FilterMap(lo.Values(d.entries), func(e *dirEntry, _ int) (domain.UserInRoom, bool) {
		return domain.UserInRoom{User: e.user, Room: e.room}, e.room == room
	})
}

func (d *Directory) CountByRoom(room domain.RoomID) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return lo.CountBy(lo.Values(d.entries), func(e *dirEntry) bool {
		return e.room == room
	})
}

// SetInMeeting flips the in-meeting flag; no-op when the participant is
// absent. Reports whether the participant was found.
func (d *Directory) SetInMeeting(id domain.UserID, in bool) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	e, ok := d.entries[id]
	if !ok {
		return false
	}
	e.user.InMeeting = in
	return true
}

func (d *Directory) Remove(id domain.UserID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.entries, id)
	log.Info().Str("module", "office.directory").Str("user", string(id)).Msg("participant removed")
}

// Snapshot is the full-state view unicast to a newly joined client.
func (d *Directory) Snapshot() map[domain.UserID]domain.UserInRoom {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return lo.MapValues(d.entries, func(e *dirEntry, _ domain.UserID) domain.UserInRoom {
		return domain.UserInRoom{User: e.user, Room: e.room}
	})
}
