package sink

import (
	"context"

	"team-chat/domain"
	"team-chat/domain/event"
	"team-chat/projection"
)

// TimelineSink feeds the in-memory timeline projection.
type TimelineSink struct {
	timeline *projection.Timeline
}

func NewTimelineSink(timeline *projection.Timeline) TimelineSink {
	return TimelineSink{timeline: timeline}
}

func (s TimelineSink) Consume(_ context.Context, e event.DomainEvent) error {
	switch evt := e.(type) {
	case event.MessageSent:
		s.timeline.Append(domain.Message{
			ID:        evt.ID,
			SenderID:  evt.Sender,
			Group:     evt.Group,
			Content:   evt.Content,
			Type:      evt.Type,
			Lang:      evt.Lang,
			CreatedAt: evt.At,
			Delivered: evt.Outcome.Delivered > 0,
		})
	}
	return nil
}
