package domain

import "time"

// SessionState is the per-connection lifecycle state.
type SessionState int

const (
	Disconnected SessionState = iota
	Handshaking
	Registered
)

func (s SessionState) String() string {
	switch s {
	case Handshaking:
		return "HANDSHAKING"
	case Registered:
		return "REGISTERED"
	default:
		return "DISCONNECTED"
	}
}

// Session maps a transport connection to a user identity.
// At most one session exists per connection id; until registration
// completes the connection is anonymous and UserID is empty.
type Session struct {
	ConnID      ConnID
	UserID      UserID
	State       SessionState
	ConnectedAt time.Time
}
