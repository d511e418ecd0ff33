// Package domain contains core concepts of the messaging system.
// This file defines Message and related rules.
// Messages are immutable once persisted, except for the delivered flag.
package domain

import (
	"time"

	"github.com/google/uuid"
)

type MessageType string

const (
	TypeChat   MessageType = "CHAT"
	TypeSystem MessageType = "SYSTEM"
	TypeJoin   MessageType = "JOIN"
	TypeLeave  MessageType = "LEAVE"
)

// SystemSender is the reserved author of system messages.
const SystemSender UserID = "system"

// Message represents one chat event addressed to a group.
// Delivered transitions false->true at most once, the first time at
// least one live recipient receives it, and never reverts.
type Message struct {
	ID        uuid.UUID
	SenderID  UserID
	Group     GroupKey
	Content   string
	Type      MessageType
	Lang      string
	CreatedAt time.Time
	Delivered bool
}
