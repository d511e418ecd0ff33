// Package sink contains the event consumers attached to the fan-out
// pipeline: projections, the search index, and telemetry counters.
package sink

import (
	"context"
	"fmt"
	"log/slog"

	"team-chat/domain"
	"team-chat/domain/event"
	"team-chat/repositories"
)

// SearchSink feeds sent messages into the full-text index. Indexing
// failures are surfaced to the fanout worker, which logs and moves
// on; the index is rebuildable and never blocks delivery.
type SearchSink struct {
	search *repositories.SearchRepository
	log    *slog.Logger
}

func NewSearchSink(search *repositories.SearchRepository, log *slog.Logger) SearchSink {
	return SearchSink{search: search, log: log}
}

func (s SearchSink) Consume(ctx context.Context, e event.DomainEvent) error {
	switch evt := e.(type) {
	case event.MessageSent:
		if evt.Type != domain.TypeChat {
			return nil
		}
		return s.search.IndexMessage(ctx, domain.Message{
			ID:        evt.ID,
			SenderID:  evt.Sender,
			Group:     evt.Group,
			Content:   evt.Content,
			Type:      evt.Type,
			Lang:      evt.Lang,
			CreatedAt: evt.At,
		})
	default:
		s.log.Debug(fmt.Sprintf("Not an indexable event : %T", evt))
		return nil
	}
}
