package runtime

import (
	"encoding/json"
	"time"

	"team-chat/domain"
)

// Frame is the wire representation of one delivered message. The
// transport port receives opaque bytes; this is the shape both the
// websocket gateway and the terminal client agree on.
type Frame struct {
	Kind      string `json:"kind"`
	ID        string `json:"id"`
	Group     string `json:"group"`
	Sender    string `json:"sender"`
	Content   string `json:"content"`
	Type      string `json:"type"`
	Lang      string `json:"lang,omitempty"`
	CreatedAt string `json:"created_at"`
}

const (
	FrameKindMessage = "message"
	FrameKindTyping  = "typing"
)

// Encode serializes a message into its delivery payload.
func Encode(msg domain.Message) []byte {
	frame := Frame{
		Kind:      FrameKindMessage,
		ID:        msg.ID.String(),
		Group:     string(msg.Group),
		Sender:    string(msg.SenderID),
		Content:   msg.Content,
		Type:      string(msg.Type),
		Lang:      msg.Lang,
		CreatedAt: msg.CreatedAt.Format(time.RFC3339Nano),
	}
	// Marshalling a flat struct of strings cannot fail.
	b, _ := json.Marshal(frame)
	return b
}

// TypingFrame is the ephemeral typing indicator; never persisted.
type TypingFrame struct {
	Kind   string `json:"kind"`
	Group  string `json:"group"`
	Sender string `json:"sender"`
	Typing bool   `json:"typing"`
}

// EncodeTyping serializes a typing indicator payload.
func EncodeTyping(group domain.GroupKey, sender domain.UserID, typing bool) []byte {
	b, _ := json.Marshal(TypingFrame{
		Kind:   FrameKindTyping,
		Group:  string(group),
		Sender: string(sender),
		Typing: typing,
	})
	return b
}
