// Package domain contains entity without logic, just meta-data
package domain

type UserID string

// User is the identity payload supplied by the client at handshake time.
// It is trusted as given; the id must be stable across reconnects.
type User struct {
	ID        UserID `json:"id" validate:"required"`
	Name      string `json:"name" validate:"max=64"`
	ImageURL  string `json:"imageUrl,omitempty"`
	InMeeting bool   `json:"inMeet"`
}
