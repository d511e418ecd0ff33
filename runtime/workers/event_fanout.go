package workers

import (
	"context"
	"log/slog"
	"time"

	"team-chat/contract"
	"team-chat/domain/event"
)

// EventFanout broadcasts domain events to multiple in-process
// consumers (projections, search index, telemetry counters).
//
// It provides best-effort fan-out with no guarantees regarding
// delivery, ordering, durability, or retries: it is not a message
// broker. Message delivery to users is the Router's job, not this
// worker's.
type EventFanout struct {
	log            *slog.Logger
	domainEvents   chan event.DomainEvent
	telemetryEvent chan event.DomainEvent
	sinkTimeout    time.Duration
	sinks          []contract.EventSink
}

func NewEventFanout(log *slog.Logger, domainEvents, telemetryEvent chan event.DomainEvent,
	sinkTimeout time.Duration, sinks ...contract.EventSink) *EventFanout {
	return &EventFanout{
		log:            log,
		domainEvents:   domainEvents,
		telemetryEvent: telemetryEvent,
		sinkTimeout:    sinkTimeout,
		sinks:          sinks,
	}
}

func (w *EventFanout) Add(sinks ...contract.EventSink) *EventFanout {
	w.sinks = append(w.sinks, sinks...)
	return w
}

func (w *EventFanout) Run(ctx context.Context) error {
	for {
		select {
		case evt := <-w.domainEvents:
			w.Fanout(ctx, evt)
			select {
			case w.telemetryEvent <- evt:
			default:
				w.log.Debug("Observability telemetry event lost")
			}
		case <-ctx.Done():
			w.log.Debug("Context done, stopping event fanout")
			return nil
		}
	}
}

// Fanout hands one event to each sink under an individual timeout. A
// slow or failing sink is logged and skipped, never fatal.
func (w *EventFanout) Fanout(ctx context.Context, evt event.DomainEvent) {
	for _, sink := range w.sinks {
		sinkCtx, cancel := context.WithTimeout(ctx, w.sinkTimeout)
		if err := sink.Consume(sinkCtx, evt); err != nil {
			w.log.Error("Sink failed to consume event", "err", err)
		}
		cancel()
	}
}
