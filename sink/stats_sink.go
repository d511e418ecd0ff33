package sink

import (
	"context"

	"team-chat/domain/event"
	"team-chat/observability"
)

// StatsSink translates domain events into telemetry counters.
type StatsSink struct {
	monitor *observability.Monitor
}

func NewStatsSink(monitor *observability.Monitor) StatsSink {
	return StatsSink{monitor: monitor}
}

func (s StatsSink) Consume(_ context.Context, e event.DomainEvent) error {
	switch evt := e.(type) {
	case event.MessageSent:
		s.monitor.IncrSent()
		s.monitor.AddDelivered(evt.Outcome.Delivered)
		s.monitor.AddFailures(evt.Outcome.Attempted - evt.Outcome.Delivered)
		if evt.Censored {
			s.monitor.IncrCensored()
		}
	case event.MessageReplayed:
		s.monitor.IncrReplayed()
	case event.UserConnected:
		if evt.First {
			s.monitor.UserConnected()
		}
	case event.UserDisconnected:
		if evt.Last {
			s.monitor.UserDisconnected()
		}
	}
	return nil
}
