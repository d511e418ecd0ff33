package domain

import "time"

// Team is a named recipient group with explicit membership.
type Team struct {
	ID        string
	Name      string
	OwnerID   UserID
	Members   []UserID
	CreatedAt time.Time
}

// Key returns the team's group key.
func (t Team) Key() GroupKey {
	return TeamKey(t.ID)
}

// Conversation is a registered private pair. It exists so reconnect
// replay can enumerate the pair groups a user belongs to.
type Conversation struct {
	Key       GroupKey
	UserA     UserID
	UserB     UserID
	CreatedAt time.Time
}
