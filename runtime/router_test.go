package runtime

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"team-chat/domain"
	"team-chat/domain/event"
	"team-chat/errors"
)

func newTestRouter(store *fakeStore, directory *fakeDirectory, transport *fakeTransport) (*Router, *Presence, *Tracker) {
	presence := NewPresence()
	tracker := NewTracker(store, testLogger())
	router := NewRouter(testLogger(), store, directory, presence, tracker, transport, nil, nil)
	return router, presence, tracker
}

func TestSendToTeamWithNobodyOnline(t *testing.T) {
	// Given a team whose members are all offline
	store := newFakeStore()
	directory := newFakeDirectory()
	transport := newFakeTransport()
	group := domain.TeamKey("t1")
	directory.members[group] = []domain.UserID{"alice", "bob", "carol"}

	router, presence, _ := newTestRouter(store, directory, transport)

	// When alice sends a message while nobody listens
	msg, outcome, err := router.Send(context.Background(), "alice", group, "hi")

	// Then nothing was attempted but the message is durably pending
	require.NoError(t, err)
	require.Equal(t, domain.DeliveryOutcome{Attempted: 0, Delivered: 0}, outcome)
	require.False(t, msg.Delivered)

	pending, err := store.FindUndelivered(context.Background(), group)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, "hi", pending[0].Content)

	// When bob comes online and the backlog replays
	presence.Register("bob-conn", "bob")
	replayed, err := router.ReplayPendingFor(context.Background(), "bob", group)

	// Then the pending message reaches bob and becomes delivered
	require.NoError(t, err)
	require.Equal(t, domain.DeliveryOutcome{Attempted: 1, Delivered: 1}, replayed)
	require.Equal(t, 1, transport.received("bob-conn"))
	require.True(t, store.delivered(msg.ID))
}

func TestPrivateMessageReplayedExactlyOnce(t *testing.T) {
	// Given a private conversation with bob offline
	store := newFakeStore()
	directory := newFakeDirectory()
	transport := newFakeTransport()
	group := domain.PairKey("alice", "bob")
	directory.members[group] = []domain.UserID{"alice", "bob"}

	router, presence, _ := newTestRouter(store, directory, transport)

	// When alice sends while bob is away
	_, outcome, err := router.Send(context.Background(), "alice", group, "yo")
	require.NoError(t, err)
	require.Zero(t, outcome.Attempted)

	// When bob reconnects
	presence.Register("bob-conn", "bob")
	replayed, err := router.ReplayPendingFor(context.Background(), "bob", group)
	require.NoError(t, err)
	require.Equal(t, 1, replayed.Delivered)
	require.Equal(t, 1, transport.received("bob-conn"))

	// When bob reconnects again with no new traffic
	presence.Register("bob-conn-2", "bob")
	replayed, err = router.ReplayPendingFor(context.Background(), "bob", group)

	// Then nothing is replayed a second time
	require.NoError(t, err)
	require.Zero(t, replayed.Attempted)
	require.Zero(t, transport.received("bob-conn-2"))
}

func TestReplaySkipsSenderOwnBacklog(t *testing.T) {
	// Given alice's own undelivered message in the pair
	store := newFakeStore()
	directory := newFakeDirectory()
	transport := newFakeTransport()
	group := domain.PairKey("alice", "bob")
	directory.members[group] = []domain.UserID{"alice", "bob"}

	router, presence, _ := newTestRouter(store, directory, transport)
	_, _, err := router.Send(context.Background(), "alice", group, "yo")
	require.NoError(t, err)

	// When alice herself reconnects
	presence.Register("alice-conn", "alice")
	replayed, err := router.ReplayPendingFor(context.Background(), "alice", group)

	// Then her own message does not bounce back to her
	require.NoError(t, err)
	require.Zero(t, replayed.Attempted)
	require.Zero(t, transport.received("alice-conn"))
}

func TestPartialDeliveryFailureIsIsolated(t *testing.T) {
	// Given two online recipients, one with a broken socket
	store := newFakeStore()
	directory := newFakeDirectory()
	transport := newFakeTransport()
	group := domain.TeamKey("t1")
	directory.members[group] = []domain.UserID{"alice", "bob", "carol"}

	router, presence, tracker := newTestRouter(store, directory, transport)
	presence.Register("bob-conn", "bob")
	presence.Register("carol-conn", "carol")
	transport.failing["carol-conn"] = true

	// When alice sends
	msg, outcome, err := router.Send(context.Background(), "alice", group, "hello team")

	// Then the broken recipient never aborts the healthy one
	require.NoError(t, err)
	require.Equal(t, domain.DeliveryOutcome{Attempted: 2, Delivered: 1}, outcome)
	require.Equal(t, 1, transport.received("bob-conn"))
	require.True(t, tracker.Delivered(msg.ID))
}

func TestSendRejectsNonMemberBeforePersisting(t *testing.T) {
	// Given a team mallory does not belong to
	store := newFakeStore()
	directory := newFakeDirectory()
	group := domain.TeamKey("t1")
	directory.members[group] = []domain.UserID{"alice", "bob"}

	router, _, _ := newTestRouter(store, directory, newFakeTransport())

	// When mallory tries to send
	_, _, err := router.Send(context.Background(), "mallory", group, "hi")

	// Then the send fails and nothing was persisted
	require.ErrorIs(t, err, errors.ErrNotMember)
	require.Empty(t, store.messages)
}

func TestSendFailsClosedOnPersistenceError(t *testing.T) {
	// Given a store that cannot accept writes
	store := newFakeStore()
	store.saveErr = errors.Transient(fmt.Errorf("disk full"))
	directory := newFakeDirectory()
	transport := newFakeTransport()
	group := domain.TeamKey("t1")
	directory.members[group] = []domain.UserID{"alice", "bob"}

	router, presence, _ := newTestRouter(store, directory, transport)
	presence.Register("bob-conn", "bob")

	// When alice sends
	_, outcome, err := router.Send(context.Background(), "alice", group, "hi")

	// Then the call fails and no delivery was attempted
	require.Error(t, err)
	require.True(t, errors.IsTransient(err))
	require.Zero(t, outcome.Attempted)
	require.Zero(t, transport.received("bob-conn"))
}

func TestSenderExcludedFromOwnFanout(t *testing.T) {
	// Given alice online on two devices plus bob online
	store := newFakeStore()
	directory := newFakeDirectory()
	transport := newFakeTransport()
	group := domain.TeamKey("t1")
	directory.members[group] = []domain.UserID{"alice", "bob"}

	router, presence, _ := newTestRouter(store, directory, transport)
	presence.Register("alice-laptop", "alice")
	presence.Register("alice-phone", "alice")
	presence.Register("bob-conn", "bob")

	// When alice sends
	_, outcome, err := router.Send(context.Background(), "alice", group, "hi")

	// Then only bob's connection is attempted
	require.NoError(t, err)
	require.Equal(t, domain.DeliveryOutcome{Attempted: 1, Delivered: 1}, outcome)
	require.Zero(t, transport.received("alice-laptop"))
	require.Zero(t, transport.received("alice-phone"))
}

func TestSendSystemSkipsMembershipCheck(t *testing.T) {
	// Given a group and one online member
	store := newFakeStore()
	directory := newFakeDirectory()
	transport := newFakeTransport()
	group := domain.TeamKey("t1")
	directory.members[group] = []domain.UserID{"alice"}

	router, presence, _ := newTestRouter(store, directory, transport)
	presence.Register("alice-conn", "alice")

	// When the system broadcasts a leave notice
	outcome, err := router.SendSystem(context.Background(), group, "bob left the chat", domain.TypeLeave)

	// Then the notice is persisted and delivered
	require.NoError(t, err)
	require.Equal(t, 1, outcome.Delivered)
	require.Len(t, store.messages, 1)
	require.Equal(t, domain.SystemSender, store.messages[0].SenderID)
	require.Equal(t, domain.TypeLeave, store.messages[0].Type)
}

// maskingSanitizer masks one banned word, standing in for the
// Aho-Corasick moderator.
type maskingSanitizer struct{}

func (maskingSanitizer) Censor(s string) (string, []string) {
	if strings.Contains(s, "flip") {
		return strings.ReplaceAll(s, "flip", "****"), []string{"flip"}
	}
	return s, nil
}

func TestSendFlagsCensoredContent(t *testing.T) {
	// Given a router with moderation and an event observer
	store := newFakeStore()
	directory := newFakeDirectory()
	group := domain.TeamKey("t1")
	directory.members[group] = []domain.UserID{"alice", "bob"}

	events := make(chan event.DomainEvent, 2)
	presence := NewPresence()
	tracker := NewTracker(store, testLogger())
	router := NewRouter(testLogger(), store, directory, presence, tracker,
		newFakeTransport(), maskingSanitizer{}, events)

	// When alice sends a message with a banned word
	msg, _, err := router.Send(context.Background(), "alice", group, "flip this")
	require.NoError(t, err)

	// Then the persisted content is masked and the event flagged
	require.Equal(t, "**** this", msg.Content)
	sent, ok := (<-events).(event.MessageSent)
	require.True(t, ok)
	require.True(t, sent.Censored)

	// And a clean message is not flagged
	_, _, err = router.Send(context.Background(), "alice", group, "all good")
	require.NoError(t, err)
	sent, ok = (<-events).(event.MessageSent)
	require.True(t, ok)
	require.False(t, sent.Censored)
}

func TestSendDetectsLanguage(t *testing.T) {
	store := newFakeStore()
	directory := newFakeDirectory()
	group := domain.TeamKey("t1")
	directory.members[group] = []domain.UserID{"alice", "bob"}

	router, _, _ := newTestRouter(store, directory, newFakeTransport())

	msg, _, err := router.Send(context.Background(), "alice", group, "bonjour tout le monde, comment allez-vous aujourd'hui")
	require.NoError(t, err)
	require.Equal(t, "fr", msg.Lang)
}
