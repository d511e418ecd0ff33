package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPairKeyIsOrderIndependent(t *testing.T) {
	require.Equal(t, PairKey("alice", "bob"), PairKey("bob", "alice"))
	require.Equal(t, GroupKey("pair:alice_bob"), PairKey("bob", "alice"))
}

func TestPairKeyNormalizesCase(t *testing.T) {
	require.Equal(t, PairKey("Alice", "BOB"), PairKey("bob", "alice"))
}

func TestIsPair(t *testing.T) {
	require.True(t, PairKey("a", "b").IsPair())
	require.False(t, TeamKey("t1").IsPair())
}

func TestPairUsers(t *testing.T) {
	a, b, ok := PairKey("bob", "alice").PairUsers()
	require.True(t, ok)
	require.Equal(t, UserID("alice"), a)
	require.Equal(t, UserID("bob"), b)

	_, _, ok = TeamKey("t1").PairUsers()
	require.False(t, ok)
}

func TestPairUsersKeepsUnderscoreInSecondName(t *testing.T) {
	// Usernames may contain underscores; only the first separator splits.
	a, b, ok := GroupKey("pair:alice_bob_smith").PairUsers()
	require.True(t, ok)
	require.Equal(t, UserID("alice"), a)
	require.Equal(t, UserID("bob_smith"), b)
}
