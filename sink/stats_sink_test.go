package sink

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"team-chat/domain"
	"team-chat/domain/event"
	"team-chat/observability"
)

func TestStatsSinkCountsDeliveryOutcomes(t *testing.T) {
	monitor := observability.NewMonitor()
	sink := NewStatsSink(monitor)

	// Given one send with a partial outcome and one replay
	require.NoError(t, sink.Consume(context.Background(), event.MessageSent{
		ID:      uuid.New(),
		Group:   domain.TeamKey("t1"),
		Sender:  "alice",
		Outcome: domain.DeliveryOutcome{Attempted: 3, Delivered: 2},
	}))
	require.NoError(t, sink.Consume(context.Background(), event.MessageReplayed{
		ID: uuid.New(), Group: domain.TeamKey("t1"), To: "bob",
	}))

	// And one message that moderation rewrote
	require.NoError(t, sink.Consume(context.Background(), event.MessageSent{
		ID:       uuid.New(),
		Group:    domain.TeamKey("t1"),
		Sender:   "alice",
		Censored: true,
		Outcome:  domain.DeliveryOutcome{Attempted: 1, Delivered: 1},
	}))

	stats := monitor.Snapshot()
	require.Equal(t, uint64(2), stats.MessagesSent)
	require.Equal(t, uint64(3), stats.MessagesDelivered)
	require.Equal(t, uint64(1), stats.DeliveryFailures)
	require.Equal(t, uint64(1), stats.MessagesReplayed)
	require.Equal(t, uint64(1), stats.MessagesCensored)
}

func TestStatsSinkTracksOnlineUsersByFirstAndLast(t *testing.T) {
	monitor := observability.NewMonitor()
	sink := NewStatsSink(monitor)
	now := time.Now().UTC()

	// alice connects on two devices: only the first one counts
	require.NoError(t, sink.Consume(context.Background(),
		event.UserConnected{User: "alice", Conn: "c1", First: true, At: now}))
	require.NoError(t, sink.Consume(context.Background(),
		event.UserConnected{User: "alice", Conn: "c2", First: false, At: now}))
	require.Equal(t, int64(1), monitor.Snapshot().OnlineUsers)

	// dropping one device keeps her online; the last one decrements
	require.NoError(t, sink.Consume(context.Background(),
		event.UserDisconnected{User: "alice", Conn: "c1", Last: false, At: now}))
	require.Equal(t, int64(1), monitor.Snapshot().OnlineUsers)
	require.NoError(t, sink.Consume(context.Background(),
		event.UserDisconnected{User: "alice", Conn: "c2", Last: true, At: now}))
	require.Equal(t, int64(0), monitor.Snapshot().OnlineUsers)
}
