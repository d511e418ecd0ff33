package runtime

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"team-chat/domain"
)

func TestEncodeMessageFrame(t *testing.T) {
	msg := domain.Message{
		ID:        uuid.New(),
		SenderID:  "alice",
		Group:     domain.TeamKey("t1"),
		Content:   "hello",
		Type:      domain.TypeChat,
		Lang:      "en",
		CreatedAt: time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
	}

	var frame Frame
	require.NoError(t, json.Unmarshal(Encode(msg), &frame))
	require.Equal(t, FrameKindMessage, frame.Kind)
	require.Equal(t, msg.ID.String(), frame.ID)
	require.Equal(t, "team:t1", frame.Group)
	require.Equal(t, "alice", frame.Sender)
	require.Equal(t, "hello", frame.Content)
	require.Equal(t, "CHAT", frame.Type)
	require.Equal(t, "2026-03-14T09:26:53Z", frame.CreatedAt)
}

func TestEncodeTypingFrame(t *testing.T) {
	var frame TypingFrame
	b := EncodeTyping(domain.PairKey("alice", "bob"), "alice", true)
	require.NoError(t, json.Unmarshal(b, &frame))
	require.Equal(t, FrameKindTyping, frame.Kind)
	require.Equal(t, "pair:alice_bob", frame.Group)
	require.True(t, frame.Typing)
}
