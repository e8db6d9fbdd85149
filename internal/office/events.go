// Package office holds the presence core: the participant directory,
// the room registry and the coordinator that keeps every connected
// client's view of the office consistent.
package office

import "github.com/remotehq/office/internal/domain"

// Outbound event names of the office wire protocol.
const (
	EventSyncOffice       = "sync-office"
	EventEnterRoom        = "enter-room"
	EventDisconnect       = "disconnect"
	EventUpdateRooms      = "update-rooms"
	EventAnswerKnock      = "answer-knock"
	EventGetUserToRoom    = "get-user-to-room"
	EventEnterRoomAllowed = "enter-room-allowed"
	EventStartMeet        = "start-meet"
	EventLeftMeet         = "left-meet"
)

// ConnID identifies one live connection. A participant identity may hold
// several of them at once during a reconnect.
type ConnID string

// Emitter is the transport capability the coordinator emits through.
// Delivery is fire-and-forget: a slow or dead connection is the
// transport's problem and must never block the caller.
type Emitter interface {
	Unicast(conn ConnID, event string, payload any)
	Broadcast(event string, payload any)
}

// CallPayload carries the asking participant and the room a knock,
// call or permission refers to.
type CallPayload struct {
	User *domain.User  `json:"user"`
	Room domain.RoomID `json:"room"`
}
