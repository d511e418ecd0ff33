package domain

import (
	"fmt"
	"strings"
)

// GroupKey is the canonical identifier of a recipient group, either a
// team or a private user pair. It scopes delivery tracking and
// membership lookup, and doubles as the storage key prefix.
type GroupKey string

const (
	teamPrefix = "team:"
	pairPrefix = "pair:"
)

// TeamKey builds the group key of a team.
func TeamKey(teamID string) GroupKey {
	return GroupKey(teamPrefix + teamID)
}

// PairKey builds the group key of a private conversation.
// Operands are lowercased and sorted so PairKey(a, b) == PairKey(b, a):
// the key is a pure function of membership, never of call order.
func PairKey(a, b UserID) GroupKey {
	lo := strings.ToLower(string(a))
	hi := strings.ToLower(string(b))
	if lo > hi {
		lo, hi = hi, lo
	}
	return GroupKey(fmt.Sprintf("%s%s_%s", pairPrefix, lo, hi))
}

// IsPair reports whether the key addresses a private conversation,
// which uses per-recipient delivery tracking instead of the
// broadcast "at least one member" semantics of teams.
func (g GroupKey) IsPair() bool {
	return strings.HasPrefix(string(g), pairPrefix)
}

// PairUsers returns the two members of a pair key.
func (g GroupKey) PairUsers() (UserID, UserID, bool) {
	if !g.IsPair() {
		return "", "", false
	}
	rest := strings.TrimPrefix(string(g), pairPrefix)
	parts := strings.SplitN(rest, "_", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	return UserID(parts[0]), UserID(parts[1]), true
}
