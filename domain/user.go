// Package domain contains core concepts of the messaging system.
// This file defines user identity and connection identity.
// No runtime, network, or UI logic should be added here.
package domain

import "time"

// UserID is the opaque stable identifier of a logical user.
type UserID string

// ConnID identifies a single transport-level connection.
// A user may hold several connections at once (multi-device).
type ConnID string

// User is the durable user record. The Online flag is a projection
// maintained by the lifecycle manager; presence itself is derived
// from live connections, never from this record.
type User struct {
	ID          UserID
	DisplayName string
	Online      bool
	CreatedAt   time.Time
}
