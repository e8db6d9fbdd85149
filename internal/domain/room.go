package domain

type RoomID string

// Room is owned by the room registry. The set of rooms comes from the
// external room source; closed is the only flag mutated in place.
type Room struct {
	ID     RoomID `json:"id"`
	Name   string `json:"name"`
	Closed bool   `json:"closed"`
}

// UserInRoom is the (participant, assignment) pair carried by every
// presence event on the wire.
type UserInRoom struct {
	User *User  `json:"user"`
	Room RoomID `json:"room"`
}
