package ws

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/remotehq/office/internal/domain"
)

// envelope is the inbound frame shape: an event name plus its payload.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type roomPayload struct {
	Room domain.RoomID `json:"room"`
}

type userRoomPayload struct {
	User domain.UserID `json:"user"`
	Room domain.RoomID `json:"room"`
}

// dispatch routes one inbound frame to the coordinator. A malformed
// frame degrades to a logged no-op; it never takes the connection down.
func (h *Handler) dispatch(cn *conn, data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Warn().Err(err).Str("module", "ws").Str("conn", string(cn.id)).Msg("bad json frame")
		return
	}

	switch env.Event {
	case "enter-room":
		if p, ok := decodeRoom(cn, env); ok {
			h.coord.EnterRoom(cn.id, p.Room)
		}
	case "close-room":
		if p, ok := decodeRoom(cn, env); ok {
			h.coord.CloseRoom(p.Room)
		}
	case "open-room":
		if p, ok := decodeRoom(cn, env); ok {
			h.coord.OpenRoom(p.Room)
		}
	case "knock-room":
		if p, ok := decodeRoom(cn, env); ok {
			h.coord.Knock(cn.id, p.Room)
		}
	case "start-meet":
		if id, ok := decodeUserID(cn, env); ok {
			h.coord.StartMeet(id)
		}
	case "left-meet":
		if id, ok := decodeUserID(cn, env); ok {
			h.coord.LeftMeet(id)
		}
	case "get-user-to-room":
		if p, ok := decodeUserRoom(cn, env); ok {
			h.coord.CallUser(cn.id, p.User, p.Room)
		}
	case "allow-user-enter-room":
		if p, ok := decodeUserRoom(cn, env); ok {
			h.coord.AllowUser(cn.id, p.User, p.Room)
		}
	case "user-activity":
		h.coord.Activity()
	default:
		log.Warn().Str("module", "ws").Str("event", env.Event).Msg("unknown event")
	}
}

func decodeRoom(cn *conn, env envelope) (roomPayload, bool) {
	var p roomPayload
	if err := json.Unmarshal(env.Data, &p); err != nil {
		log.Warn().Err(err).Str("module", "ws").Str("conn", string(cn.id)).Str("event", env.Event).Msg("bad payload")
		return p, false
	}
	return p, true
}

// decodeUserID handles the meet events, whose payload is the bare user
// id string rather than an object.
func decodeUserID(cn *conn, env envelope) (domain.UserID, bool) {
	var id domain.UserID
	if err := json.Unmarshal(env.Data, &id); err != nil {
		log.Warn().Err(err).Str("module", "ws").Str("conn", string(cn.id)).Str("event", env.Event).Msg("bad payload")
		return "", false
	}
	return id, true
}

func decodeUserRoom(cn *conn, env envelope) (userRoomPayload, bool) {
	var p userRoomPayload
	if err := json.Unmarshal(env.Data, &p); err != nil {
		log.Warn().Err(err).Str("module", "ws").Str("conn", string(cn.id)).Str("event", env.Event).Msg("bad payload")
		return p, false
	}
	return p, true
}
