package runtime

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"team-chat/contract"
	"team-chat/domain/event"
	"team-chat/moderation"
	"team-chat/runtime/workers"
)

//go:embed censored/*
var censoredFolder embed.FS

// Options groups the tunables of the delivery core.
type Options struct {
	BufferSize        int
	SinkTimeout       time.Duration
	CharReplacement   rune
	SweepInterval     time.Duration
	HandshakeDeadline time.Duration
}

// Orchestrator assembles the presence registry, delivery tracker,
// fan-out router, and lifecycle manager, and supervises the
// background workers that serve them. It wires components together
// without containing business rules itself.
type Orchestrator struct {
	mu              sync.Mutex
	log             *slog.Logger
	supervisor      contract.ISupervisor
	presence        *Presence
	tracker         *Tracker
	router          *Router
	lifecycle       *Lifecycle
	domainEvents    chan event.DomainEvent
	telemetryEvents chan event.DomainEvent
	permanentSinks  []contract.EventSink
	opts            Options
}

func NewOrchestrator(log *slog.Logger, supervisor contract.ISupervisor,
	store contract.MessageStore, directory contract.Directory,
	transport contract.Transport, opts Options) (*Orchestrator, error) {

	moderator, err := buildModeration(log, opts.CharReplacement)
	if err != nil {
		return nil, err
	}

	domainEvents := make(chan event.DomainEvent, opts.BufferSize)
	telemetryEvents := make(chan event.DomainEvent, opts.BufferSize)

	presence := NewPresence()
	tracker := NewTracker(store, log)
	router := NewRouter(log, store, directory, presence, tracker, transport, moderator, domainEvents)
	lifecycle := NewLifecycle(log, presence, directory, router, domainEvents)

	return &Orchestrator{
		log:             log,
		supervisor:      supervisor,
		presence:        presence,
		tracker:         tracker,
		router:          router,
		lifecycle:       lifecycle,
		domainEvents:    domainEvents,
		telemetryEvents: telemetryEvents,
		opts:            opts,
	}, nil
}

func (o *Orchestrator) Lifecycle() *Lifecycle { return o.lifecycle }
func (o *Orchestrator) Router() *Router       { return o.router }
func (o *Orchestrator) Presence() *Presence   { return o.presence }
func (o *Orchestrator) Tracker() *Tracker     { return o.tracker }

// Add registers permanent event sinks before Start.
func (o *Orchestrator) Add(sinks ...contract.EventSink) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.permanentSinks = append(o.permanentSinks, sinks...)
}

// Start registers the background workers and runs the supervisor.
// It blocks until the supervisor stops; callers run it in its own
// goroutine.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	fanout := workers.NewEventFanout(o.log, o.domainEvents, o.telemetryEvents,
		o.opts.SinkTimeout, o.permanentSinks...)
	sweeper := workers.NewSweeperWorker(o.log, o.lifecycle,
		o.opts.SweepInterval, o.opts.HandshakeDeadline)
	o.supervisor.Add(fanout, sweeper)
	o.mu.Unlock()

	o.log.Info("Starting orchestrator and all supervised workers")
	o.supervisor.Run(ctx)
	return nil
}

// Stop initiates a graceful shutdown: workers observe the canceled
// supervision context and drain.
func (o *Orchestrator) Stop() {
	o.log.Info("Requesting orchestrator shutdown")
	o.supervisor.Stop()
}

// buildModeration loads the embedded censored dictionaries and builds
// the Aho-Corasick automaton used on every inbound message.
func buildModeration(log *slog.Logger, charReplacement rune) (*moderation.Moderator, error) {
	loader := NewWordlistLoader(censoredFolder)
	data, err := loader.LoadAll("censored")
	if err != nil {
		return nil, err
	}

	log.Info(fmt.Sprintf("%d censored files loaded [%s]",
		len(data.Languages), strings.Join(data.Languages, ",")))
	log.Info(fmt.Sprintf("%d unique censored words loaded", len(data.Words)))

	moderator, err := moderation.NewModerator(data.Words, charReplacement)
	if err != nil {
		return nil, err
	}
	return moderator, nil
}
