package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"team-chat/domain"
	apperrors "team-chat/errors"
)

func newTestDirectory(t *testing.T) (*Directory, *TeamRepository, *ConversationRepository, *UserRepository) {
	t.Helper()
	db := testDB(t)
	teams := NewTeamRepository(db, testLogger())
	conversations := NewConversationRepository(db, testLogger())
	users := NewUserRepository(db, testLogger())
	return NewDirectory(testLogger(), teams, conversations, users), teams, conversations, users
}

func TestFindGroupMembersPair(t *testing.T) {
	// Pair membership lives in the key; no storage lookup needed.
	directory, _, _, _ := newTestDirectory(t)

	members, err := directory.FindGroupMembers(context.Background(), domain.PairKey("bob", "alice"))
	require.NoError(t, err)
	require.Equal(t, []domain.UserID{"alice", "bob"}, members)
}

func TestFindGroupMembersTeam(t *testing.T) {
	// Given a stored team
	directory, teams, _, _ := newTestDirectory(t)
	team := domain.Team{
		ID:        "t1",
		Name:      "backend",
		OwnerID:   "alice",
		Members:   []domain.UserID{"alice", "bob"},
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, teams.SaveTeam(context.Background(), team))

	// When membership is resolved through the directory
	members, err := directory.FindGroupMembers(context.Background(), domain.TeamKey("t1"))
	require.NoError(t, err)
	require.ElementsMatch(t, []domain.UserID{"alice", "bob"}, members)

	// Then an unknown team is a not-found error
	_, err = directory.FindGroupMembers(context.Background(), domain.TeamKey("nope"))
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestAddMemberIsIdempotent(t *testing.T) {
	// Given a team with one member
	directory, teams, _, _ := newTestDirectory(t)
	team := domain.Team{ID: "t1", Name: "backend", OwnerID: "alice",
		Members: []domain.UserID{"alice"}, CreatedAt: time.Now().UTC()}
	require.NoError(t, teams.SaveTeam(context.Background(), team))

	// When bob joins twice
	require.NoError(t, teams.AddMember(context.Background(), "t1", "bob"))
	require.NoError(t, teams.AddMember(context.Background(), "t1", "bob"))

	// Then he appears exactly once
	members, err := directory.FindGroupMembers(context.Background(), domain.TeamKey("t1"))
	require.NoError(t, err)
	require.ElementsMatch(t, []domain.UserID{"alice", "bob"}, members)
}

func TestGroupsForUnionsTeamsAndConversations(t *testing.T) {
	// Given bob in one team and one conversation
	directory, teams, conversations, _ := newTestDirectory(t)
	team := domain.Team{ID: "t1", Name: "backend", OwnerID: "alice",
		Members: []domain.UserID{"alice", "bob"}, CreatedAt: time.Now().UTC()}
	require.NoError(t, teams.SaveTeam(context.Background(), team))

	pair, err := conversations.Ensure(context.Background(), "alice", "bob")
	require.NoError(t, err)

	// When his groups are listed
	groups, err := directory.GroupsFor(context.Background(), "bob")

	// Then both group kinds are present
	require.NoError(t, err)
	require.ElementsMatch(t, []domain.GroupKey{domain.TeamKey("t1"), pair}, groups)

	// And a stranger has none
	groups, err = directory.GroupsFor(context.Background(), "mallory")
	require.NoError(t, err)
	require.Empty(t, groups)
}

func TestEnsureConversationIsIdempotentAndCanonical(t *testing.T) {
	directory, _, conversations, _ := newTestDirectory(t)

	// Registering in either direction yields the same canonical key
	first, err := conversations.Ensure(context.Background(), "alice", "bob")
	require.NoError(t, err)
	second, err := conversations.Ensure(context.Background(), "bob", "alice")
	require.NoError(t, err)
	require.Equal(t, first, second)

	// And each participant sees the conversation once
	groups, err := directory.GroupsFor(context.Background(), "alice")
	require.NoError(t, err)
	require.Equal(t, []domain.GroupKey{first}, groups)
}

func TestSetUserOnlineCreatesRecordOnTheFly(t *testing.T) {
	// Given a user with no durable record yet
	directory, _, _, users := newTestDirectory(t)

	// When the lifecycle marks her online
	require.NoError(t, directory.SetUserOnline(context.Background(), "alice", true))

	// Then a minimal record exists and carries the flag
	user, err := users.FindUser(context.Background(), "alice")
	require.NoError(t, err)
	require.True(t, user.Online)
	require.Equal(t, "alice", user.DisplayName)

	// And going offline flips it without losing the record
	require.NoError(t, directory.SetUserOnline(context.Background(), "alice", false))
	user, err = users.FindUser(context.Background(), "alice")
	require.NoError(t, err)
	require.False(t, user.Online)
}
