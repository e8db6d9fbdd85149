package office

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/remotehq/office/internal/domain"
)

// Coordinator is the single owner of the directory and the room
// registry. Every inbound action runs its whole read-mutate-emit
// sequence under one mutex, so no action ever observes another one
// half-applied. Emission goes through the Emitter and never blocks.
type Coordinator struct {
	mu    sync.Mutex
	dir   *Directory
	rooms *Registry
	emit  Emitter

	// conns tracks every live connection. More than one entry may map
	// to the same identity during a reconnect; the participant is only
	// gone when the last one closes.
	conns map[ConnID]domain.UserID

	defaultRoom domain.RoomID
	reopenDelay time.Duration
	sweepTimer  *time.Timer

	// lastActivity is process-wide: written by the heartbeat action,
	// read by the sort scheduling. Unix millis.
	lastActivity atomic.Int64
}

func NewCoordinator(dir *Directory, rooms *Registry, emit Emitter, defaultRoom domain.RoomID, reopenDelay time.Duration) *Coordinator {
	c := &Coordinator{
		dir:         dir,
		rooms:       rooms,
		emit:        emit,
		conns:       make(map[ConnID]domain.UserID),
		defaultRoom: defaultRoom,
		reopenDelay: reopenDelay,
	}
	c.lastActivity.Store(time.Now().UnixMilli())
	return c
}

// Connect admits an already-validated participant. The connection gets
// the full office snapshot, everyone else learns the new assignment.
func (c *Coordinator) Connect(conn ConnID, user *domain.User, room domain.RoomID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if room == "" {
		room = c.defaultRoom
	}
	c.conns[conn] = user.ID
	c.dir.AddOrUpdate(user, room, conn)
	log.Info().Str("module", "office").Str("user", string(user.ID)).Str("room", string(room)).Str("conn", string(conn)).Msg("connected")

	c.emit.Unicast(conn, EventSyncOffice, c.dir.Snapshot())
	if uir, ok := c.dir.Get(user.ID); ok {
		c.emit.Broadcast(EventEnterRoom, uir)
	}
	c.sweepLocked()
}

// Disconnect drops the connection. The participant is removed and
// announced only when no other live connection carries the same
// identity, which keeps a tab refresh from looking like a departure.
func (c *Coordinator) Disconnect(conn ConnID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	uid, ok := c.conns[conn]
	if !ok {
		return
	}
	delete(c.conns, conn)
	for _, other := range c.conns {
		if other == uid {
			log.Debug().Str("module", "office").Str("user", string(uid)).Msg("duplicate connection remains, keeping participant")
			return
		}
	}
	c.dir.Remove(uid)
	c.emit.Broadcast(EventDisconnect, uid)
	log.Info().Str("module", "office").Str("user", string(uid)).Msg("disconnected")
	c.scheduleSweepLocked()
}

// EnterRoom reassigns a connected participant. Unknown connections are
// a silent no-op; the room id is not checked against the registry, so
// an assignment can land during a registry reload without being lost.
func (c *Coordinator) EnterRoom(conn ConnID, room domain.RoomID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	uid, ok := c.conns[conn]
	if !ok {
		return
	}
	uir, ok := c.dir.Get(uid)
	if !ok {
		return
	}
	c.dir.AddOrUpdate(uir.User, room, conn)
	c.emit.Broadcast(EventEnterRoom, domain.UserInRoom{User: uir.User, Room: room})
	c.sweepLocked()
}

func (c *Coordinator) CloseRoom(room domain.RoomID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rooms.Close(room)
	c.publishRoomsLocked()
}

func (c *Coordinator) OpenRoom(room domain.RoomID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rooms.Open(room)
	c.publishRoomsLocked()
}

// Knock asks everyone currently inside the room to answer; no state
// changes.
func (c *Coordinator) Knock(conn ConnID, room domain.RoomID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	asker, ok := c.userOfLocked(conn)
	if !ok {
		return
	}
	payload := CallPayload{User: asker, Room: room}
	for _, occupant := range c.dir.ListByRoom(room) {
		if target, ok := c.dir.Conn(occupant.User.ID); ok {
			c.emit.Unicast(target, EventAnswerKnock, payload)
		}
	}
}

// CallUser invites the target participant into the asker's room.
// A target missing from the directory is a benign race, not an error.
func (c *Coordinator) CallUser(conn ConnID, target domain.UserID, room domain.RoomID) {
	c.invite(conn, target, room, EventGetUserToRoom)
}

// AllowUser tells the target its request to enter the room was granted.
func (c *Coordinator) AllowUser(conn ConnID, target domain.UserID, room domain.RoomID) {
	c.invite(conn, target, room, EventEnterRoomAllowed)
}

func (c *Coordinator) invite(conn ConnID, target domain.UserID, room domain.RoomID, event string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	asker, ok := c.userOfLocked(conn)
	if !ok {
		return
	}
	tc, ok := c.dir.Conn(target)
	if !ok {
		log.Debug().Str("module", "office").Str("target", string(target)).Str("event", event).Msg("target absent, dropping invite")
		return
	}
	c.emit.Unicast(tc, event, CallPayload{User: asker, Room: room})
}

func (c *Coordinator) StartMeet(id domain.UserID) {
	c.setMeet(id, true, EventStartMeet)
}

func (c *Coordinator) LeftMeet(id domain.UserID) {
	c.setMeet(id, false, EventLeftMeet)
}

func (c *Coordinator) setMeet(id domain.UserID, in bool, event string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.dir.SetInMeeting(id, in) {
		return
	}
	if uir, ok := c.dir.Get(id); ok {
		c.emit.Broadcast(event, uir)
	}
}

// Activity is the heartbeat: it only bumps the process-wide activity
// timestamp.
func (c *Coordinator) Activity() {
	c.lastActivity.Store(time.Now().UnixMilli())
}

func (c *Coordinator) LastActivity() time.Time {
	return time.UnixMilli(c.lastActivity.Load())
}

// PublishRooms broadcasts the current sorted room list. The room-source
// poller and the sort loop call this after touching the registry.
func (c *Coordinator) PublishRooms() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.publishRoomsLocked()
}

func (c *Coordinator) publishRoomsLocked() {
	c.emit.Broadcast(EventUpdateRooms, c.rooms.List())
}

// sweepLocked reopens every closed room with zero occupants. Closure is
// advisory: it holds only while someone is still inside. The sweep
// never closes a room, and a pass that changes anything emits exactly
// one consolidated room-list broadcast.
func (c *Coordinator) sweepLocked() {
	changed := false
	for _, room := range c.rooms.List() {
		if !room.Closed {
			continue
		}
		if c.dir.CountByRoom(room.ID) > 0 {
			continue
		}
		if c.rooms.Open(room.ID) {
			log.Info().Str("module", "office").Str("room", string(room.ID)).Msg("reopening empty room")
			changed = true
		}
	}
	if changed {
		c.publishRoomsLocked()
	}
}

// scheduleSweepLocked defers the post-disconnect sweep so a transient
// reconnect can settle before its rooms are declared empty. Only the
// latest scheduled sweep needs to run; overlapping ones are idempotent.
func (c *Coordinator) scheduleSweepLocked() {
	if c.reopenDelay <= 0 {
		c.sweepLocked()
		return
	}
	if c.sweepTimer != nil {
		c.sweepTimer.Stop()
	}
	c.sweepTimer = time.AfterFunc(c.reopenDelay, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.sweepLocked()
	})
}

func (c *Coordinator) userOfLocked(conn ConnID) (*domain.User, bool) {
	uid, ok := c.conns[conn]
	if !ok {
		return nil, false
	}
	uir, ok := c.dir.Get(uid)
	if !ok {
		return nil, false
	}
	return uir.User, true
}
