// Package event defines the domain events flowing from the fan-out
// pipeline to observers (projections, search index, telemetry).
// Events are facts about the past; consumers must not mutate them.
package event

import (
	"time"

	"github.com/google/uuid"

	"team-chat/domain"
)

type DomainEvent interface {
	GroupKey() domain.GroupKey
}

// MessageSent is emitted after a message has been persisted and its
// fan-out attempted. Outcome carries the aggregated delivery result;
// Censored reports whether moderation rewrote the content.
type MessageSent struct {
	ID       uuid.UUID
	Group    domain.GroupKey
	Sender   domain.UserID
	Content  string
	Type     domain.MessageType
	Lang     string
	At       time.Time
	Outcome  domain.DeliveryOutcome
	Censored bool
}

func (e MessageSent) GroupKey() domain.GroupKey { return e.Group }

// MessageReplayed is emitted when backlog replay pushed a pending
// message to a reconnecting user.
type MessageReplayed struct {
	ID    uuid.UUID
	Group domain.GroupKey
	To    domain.UserID
	At    time.Time
}

func (e MessageReplayed) GroupKey() domain.GroupKey { return e.Group }

// UserConnected is emitted when a connection completes registration.
// First reports whether this was the user's first live connection.
type UserConnected struct {
	User   domain.UserID
	Conn   domain.ConnID
	Active domain.GroupKey
	First  bool
	At     time.Time
}

func (e UserConnected) GroupKey() domain.GroupKey { return e.Active }

// UserDisconnected is emitted when a registered connection closes.
// Last reports whether this was the user's final connection.
type UserDisconnected struct {
	User   domain.UserID
	Conn   domain.ConnID
	Active domain.GroupKey
	Last   bool
	At     time.Time
}

func (e UserDisconnected) GroupKey() domain.GroupKey { return e.Active }
