package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"team-chat/contract"
	"team-chat/domain"
	"team-chat/domain/event"
)

// Lifecycle reacts to connection events and owns every mutation of
// the presence registry. Per connection the states are
// DISCONNECTED -> HANDSHAKING -> REGISTERED -> DISCONNECTED; until a
// registration message carries a user identity the connection is
// anonymous and no presence or delivery is associated with it.
type Lifecycle struct {
	mu       sync.Mutex
	log      *slog.Logger
	sessions map[domain.ConnID]*domain.Session
	// activeGroup remembers the group each user is viewing, for the
	// "left" notice emitted when their last connection drops.
	activeGroup map[domain.UserID]domain.GroupKey
	// gates serialize the durable online/offline writes per user so a
	// stale offline write can never land after a newer online one.
	gates map[domain.UserID]*sync.Mutex

	presence  contract.IPresence
	directory contract.Directory
	router    *Router
	events    chan<- event.DomainEvent
}

func NewLifecycle(log *slog.Logger, presence contract.IPresence, directory contract.Directory,
	router *Router, events chan<- event.DomainEvent) *Lifecycle {
	return &Lifecycle{
		log:         log,
		sessions:    make(map[domain.ConnID]*domain.Session),
		activeGroup: make(map[domain.UserID]domain.GroupKey),
		gates:       make(map[domain.UserID]*sync.Mutex),
		presence:    presence,
		directory:   directory,
		router:      router,
		events:      events,
	}
}

// OnConnectionEstablished puts a fresh connection into HANDSHAKING.
func (l *Lifecycle) OnConnectionEstablished(conn domain.ConnID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sessions[conn] = &domain.Session{
		ConnID:      conn,
		State:       domain.Handshaking,
		ConnectedAt: time.Now().UTC(),
	}
	l.log.Debug("Connection established", "conn", conn)
}

// OnRegister binds the connection to a user identity, marks the
// durable record online on the user's first connection, and replays
// the undelivered backlog of every group the user belongs to.
func (l *Lifecycle) OnRegister(ctx context.Context, conn domain.ConnID, user domain.UserID) error {
	l.mu.Lock()
	session, ok := l.sessions[conn]
	if !ok {
		// Register without a prior connect event; tolerate it the way
		// the transport would after a racy handshake.
		session = &domain.Session{ConnID: conn, ConnectedAt: time.Now().UTC()}
		l.sessions[conn] = session
	}
	session.UserID = user
	session.State = domain.Registered
	l.mu.Unlock()

	firstConn := l.presence.Register(conn, user)
	if firstConn {
		l.markOnline(ctx, user)
	}

	l.log.Info("User registered", "user", user, "conn", conn, "first_connection", firstConn)
	l.emit(event.UserConnected{User: user, Conn: conn, Active: l.ActiveGroup(user), First: firstConn, At: time.Now().UTC()})

	return l.replayBacklog(ctx, user)
}

// OnSend is the inbound entry point for a chat message.
func (l *Lifecycle) OnSend(ctx context.Context, sender domain.UserID, group domain.GroupKey, content string) (domain.Message, domain.DeliveryOutcome, error) {
	return l.router.Send(ctx, sender, group, content)
}

// OnDisconnect tears a connection down. Unknown connections are a
// no-op: a disconnect may arrive for a session that never completed
// registration, and that must not disturb the registry.
func (l *Lifecycle) OnDisconnect(ctx context.Context, conn domain.ConnID) {
	l.mu.Lock()
	delete(l.sessions, conn)
	l.mu.Unlock()

	// Reference-count, not boolean: with another device still attached
	// the user stays online. The last-connection decision is made
	// inside the registry lock.
	user, last, ok := l.presence.Unregister(conn)
	if !ok {
		l.log.Debug("Disconnect for unregistered connection", "conn", conn)
		return
	}
	active := l.ActiveGroup(user)

	if last {
		l.markOffline(ctx, user, active)
	}

	l.log.Info("User disconnected", "user", user, "conn", conn, "last_connection", last)
	l.emit(event.UserDisconnected{User: user, Conn: conn, Active: active, Last: last, At: time.Now().UTC()})
}

// markOnline pushes the durable online flag under the user's gate.
// The flag is only written while the state it describes still holds;
// a transition that raced in meanwhile owns the next write.
func (l *Lifecycle) markOnline(ctx context.Context, user domain.UserID) {
	gate := l.userGate(user)
	gate.Lock()
	defer gate.Unlock()

	if !l.presence.IsPresent(user) {
		l.log.Debug("Online transition superseded by disconnect", "user", user)
		return
	}
	if err := l.directory.SetUserOnline(ctx, user, true); err != nil {
		l.log.Error("Failed to mark user online", "user", user, "err", err)
	}
}

// markOffline pushes the durable offline flag and broadcasts the
// leave notice, both under the user's gate and only while the user is
// actually absent. A registration racing the disconnect queues behind
// the gate and overwrites the flag, so the durable record never ends
// up offline while a connection remains registered.
func (l *Lifecycle) markOffline(ctx context.Context, user domain.UserID, active domain.GroupKey) {
	gate := l.userGate(user)
	gate.Lock()
	defer gate.Unlock()

	if l.presence.IsPresent(user) {
		l.log.Debug("Offline transition superseded by reconnect", "user", user)
		return
	}
	if err := l.directory.SetUserOnline(ctx, user, false); err != nil {
		l.log.Error("Failed to mark user offline", "user", user, "err", err)
	}

	// The user may have reconnected during the write above; the queued
	// online write fixes the flag, and the notice must not go out.
	if l.presence.IsPresent(user) {
		return
	}
	if active != "" {
		content := fmt.Sprintf("%s left the chat", user)
		if _, err := l.router.SendSystem(ctx, active, content, domain.TypeLeave); err != nil {
			l.log.Error("Failed to broadcast leave notice", "user", user, "group", active, "err", err)
		}
	}
	l.mu.Lock()
	delete(l.activeGroup, user)
	l.mu.Unlock()
}

func (l *Lifecycle) userGate(user domain.UserID) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	gate, ok := l.gates[user]
	if !ok {
		gate = &sync.Mutex{}
		l.gates[user] = gate
	}
	return gate
}

// SetActiveGroup records the group a user is currently viewing.
func (l *Lifecycle) SetActiveGroup(user domain.UserID, group domain.GroupKey) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.activeGroup[user] = group
}

// ActiveGroup returns the group the user is viewing, if any.
func (l *Lifecycle) ActiveGroup(user domain.UserID) domain.GroupKey {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.activeGroup[user]
}

// Session returns a snapshot of the connection's session, if known.
func (l *Lifecycle) Session(conn domain.ConnID) (domain.Session, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.sessions[conn]
	if !ok {
		return domain.Session{}, false
	}
	return *s, true
}

// SweepIdle drops connections stuck in HANDSHAKING longer than the
// deadline. Returns the number of swept connections.
func (l *Lifecycle) SweepIdle(deadline time.Duration) int {
	now := time.Now().UTC()

	l.mu.Lock()
	var stale []domain.ConnID
	for conn, s := range l.sessions {
		if s.State == domain.Handshaking && now.Sub(s.ConnectedAt) > deadline {
			stale = append(stale, conn)
			delete(l.sessions, conn)
		}
	}
	l.mu.Unlock()

	for _, conn := range stale {
		l.log.Info("Swept idle handshake", "conn", conn)
	}
	return len(stale)
}

// replayBacklog runs backlog replay for every group the user belongs
// to. Failures are logged per group and do not abort the others.
func (l *Lifecycle) replayBacklog(ctx context.Context, user domain.UserID) error {
	groups, err := l.directory.GroupsFor(ctx, user)
	if err != nil {
		return fmt.Errorf("listing groups of %s: %w", user, err)
	}

	var total domain.DeliveryOutcome
	for _, group := range groups {
		outcome, err := l.router.ReplayPendingFor(ctx, user, group)
		if err != nil {
			l.log.Error("Backlog replay failed", "user", user, "group", group, "err", err)
			continue
		}
		total.Merge(outcome)
	}
	if total.Attempted > 0 {
		l.log.Info("Backlog replay finished", "user", user,
			"groups", len(groups), "attempted", total.Attempted, "delivered", total.Delivered)
	}
	return nil
}

func (l *Lifecycle) emit(e event.DomainEvent) {
	if l.events == nil {
		return
	}
	select {
	case l.events <- e:
	default:
		l.log.Warn("Event channel full, dropping lifecycle event")
	}
}
