package repositories

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"

	"team-chat/domain"
	apperrors "team-chat/errors"
)

func testDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testLogger() *slog.Logger {
	return logs.GetLoggerFromLevel(slog.LevelDebug)
}

func chatMessage(group domain.GroupKey, sender domain.UserID, content string, at time.Time) domain.Message {
	return domain.Message{
		ID:        uuid.New(),
		SenderID:  sender,
		Group:     group,
		Content:   content,
		Type:      domain.TypeChat,
		CreatedAt: at,
	}
}

func TestSaveAndMarkDelivered(t *testing.T) {
	// Given a persisted undelivered message
	repo := NewMessageRepository(testDB(t), testLogger(), nil)
	group := domain.TeamKey("t1")
	msg := chatMessage(group, "alice", "hi", time.Now().UTC())

	id, err := repo.SaveMessage(context.Background(), msg)
	require.NoError(t, err)
	require.Equal(t, msg.ID, id)

	pending, err := repo.FindUndelivered(context.Background(), group)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	// When the delivered flag flips
	require.NoError(t, repo.MarkDelivered(context.Background(), group, msg.ID))

	// Then the message leaves the pending set, and flipping again is a no-op
	pending, err = repo.FindUndelivered(context.Background(), group)
	require.NoError(t, err)
	require.Empty(t, pending)
	require.NoError(t, repo.MarkDelivered(context.Background(), group, msg.ID))
}

func TestMarkDeliveredUnknownMessage(t *testing.T) {
	repo := NewMessageRepository(testDB(t), testLogger(), nil)

	err := repo.MarkDelivered(context.Background(), domain.TeamKey("t1"), uuid.New())
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestFindUndeliveredIsChronological(t *testing.T) {
	// Given three messages persisted out of creation order
	repo := NewMessageRepository(testDB(t), testLogger(), nil)
	group := domain.TeamKey("t1")
	base := time.Now().UTC()

	second := chatMessage(group, "alice", "second", base.Add(time.Second))
	first := chatMessage(group, "alice", "first", base)
	third := chatMessage(group, "alice", "third", base.Add(2*time.Second))
	for _, msg := range []domain.Message{second, first, third} {
		_, err := repo.SaveMessage(context.Background(), msg)
		require.NoError(t, err)
	}

	// When the backlog is read
	pending, err := repo.FindUndelivered(context.Background(), group)

	// Then the padded-timestamp keys yield ascending creation order
	require.NoError(t, err)
	require.Len(t, pending, 3)
	require.Equal(t, "first", pending[0].Content)
	require.Equal(t, "second", pending[1].Content)
	require.Equal(t, "third", pending[2].Content)
}

func TestFindUndeliveredScopedToGroup(t *testing.T) {
	repo := NewMessageRepository(testDB(t), testLogger(), nil)
	now := time.Now().UTC()

	_, err := repo.SaveMessage(context.Background(), chatMessage(domain.TeamKey("t1"), "alice", "for t1", now))
	require.NoError(t, err)
	_, err = repo.SaveMessage(context.Background(), chatMessage(domain.TeamKey("t2"), "alice", "for t2", now))
	require.NoError(t, err)

	pending, err := repo.FindUndelivered(context.Background(), domain.TeamKey("t1"))
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, "for t1", pending[0].Content)
}

func TestFindUndeliveredForTracksPerRecipient(t *testing.T) {
	// Given a pair message already delivered to bob but not to alice
	repo := NewMessageRepository(testDB(t), testLogger(), nil)
	group := domain.PairKey("alice", "bob")
	msg := chatMessage(group, "alice", "yo", time.Now().UTC())
	_, err := repo.SaveMessage(context.Background(), msg)
	require.NoError(t, err)

	require.NoError(t, repo.MarkDeliveredTo(context.Background(), group, msg.ID, "bob"))

	// Then bob's view is empty while alice's still holds it
	forBob, err := repo.FindUndeliveredFor(context.Background(), group, "bob")
	require.NoError(t, err)
	require.Empty(t, forBob)

	forAlice, err := repo.FindUndeliveredFor(context.Background(), group, "alice")
	require.NoError(t, err)
	require.Len(t, forAlice, 1)
}

func TestHistoryPagesBackwards(t *testing.T) {
	// Given five messages and a page size of two
	limit := 2
	repo := NewMessageRepository(testDB(t), testLogger(), &limit)
	group := domain.TeamKey("t1")
	base := time.Now().UTC()

	contents := []string{"m1", "m2", "m3", "m4", "m5"}
	for i, content := range contents {
		_, err := repo.SaveMessage(context.Background(),
			chatMessage(group, "alice", content, base.Add(time.Duration(i)*time.Second)))
		require.NoError(t, err)
	}

	// When the first page is read
	page, cursor, err := repo.History(context.Background(), group, nil)
	require.NoError(t, err)
	require.NotNil(t, cursor)

	// Then it holds the two newest messages in chronological order
	require.Len(t, page, 2)
	require.Equal(t, "m4", page[0].Content)
	require.Equal(t, "m5", page[1].Content)

	// When the cursor is passed back
	page, cursor, err = repo.History(context.Background(), group, cursor)
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.Equal(t, "m2", page[0].Content)
	require.Equal(t, "m3", page[1].Content)

	// Then the final page holds the oldest message
	page, _, err = repo.History(context.Background(), group, cursor)
	require.NoError(t, err)
	require.Len(t, page, 1)
	require.Equal(t, "m1", page[0].Content)
}

func TestHistoryEmptyGroup(t *testing.T) {
	repo := NewMessageRepository(testDB(t), testLogger(), nil)

	page, _, err := repo.History(context.Background(), domain.TeamKey("empty"), nil)
	require.NoError(t, err)
	require.Empty(t, page)
}
