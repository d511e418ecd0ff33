package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/abadojack/whatlanggo"
	"github.com/google/uuid"

	"team-chat/contract"
	"team-chat/domain"
	"team-chat/domain/event"
	"team-chat/errors"
)

// Sanitizer censors forbidden content before persistence.
type Sanitizer interface {
	Censor(original string) (string, []string)
}

// Router fans one logical message out to every currently-present
// member of its group. Durability precedes delivery: the message is
// persisted before any transport attempt, so a crash after the
// persist leaves it recoverable and a crash before it leaves nothing
// partial behind.
//
// No transport call is made while holding a presence or tracker lock.
type Router struct {
	log       *slog.Logger
	store     contract.MessageStore
	directory contract.Directory
	presence  contract.IPresence
	tracker   contract.ITracker
	transport contract.Transport
	sanitizer Sanitizer
	events    chan<- event.DomainEvent
}

func NewRouter(log *slog.Logger, store contract.MessageStore, directory contract.Directory,
	presence contract.IPresence, tracker contract.ITracker, transport contract.Transport,
	sanitizer Sanitizer, events chan<- event.DomainEvent) *Router {
	return &Router{
		log:       log,
		store:     store,
		directory: directory,
		presence:  presence,
		tracker:   tracker,
		transport: transport,
		sanitizer: sanitizer,
		events:    events,
	}
}

// Send persists then fans out one chat message.
//
// Membership is resolved on every call since it can change between
// sends. Non-members are rejected before anything is persisted. A
// persistence failure is fatal to the call and prevents any delivery
// attempt; a delivery failure for one recipient never aborts the
// remaining ones.
func (r *Router) Send(ctx context.Context, sender domain.UserID, group domain.GroupKey, content string) (domain.Message, domain.DeliveryOutcome, error) {
	members, err := r.directory.FindGroupMembers(ctx, group)
	if err != nil {
		return domain.Message{}, domain.DeliveryOutcome{}, fmt.Errorf("resolving members of %s: %w", group, err)
	}
	if !contains(members, sender) {
		return domain.Message{}, domain.DeliveryOutcome{}, fmt.Errorf("%w: %s in %s", errors.ErrNotMember, sender, group)
	}

	msg, censored := r.prepare(sender, group, content, domain.TypeChat)
	if _, err := r.store.SaveMessage(ctx, msg); err != nil {
		return domain.Message{}, domain.DeliveryOutcome{}, fmt.Errorf("persisting message: %w", err)
	}

	outcome := r.fanout(ctx, msg, members)
	msg.Delivered = outcome.Delivered > 0

	r.emit(event.MessageSent{
		ID:       msg.ID,
		Group:    group,
		Sender:   sender,
		Content:  msg.Content,
		Type:     msg.Type,
		Lang:     msg.Lang,
		At:       msg.CreatedAt,
		Outcome:  outcome,
		Censored: censored,
	})
	return msg, outcome, nil
}

// SendSystem broadcasts a join/leave/system notice to a group. System
// messages skip membership checks and moderation; they are authored
// by the system itself.
func (r *Router) SendSystem(ctx context.Context, group domain.GroupKey, content string, msgType domain.MessageType) (domain.DeliveryOutcome, error) {
	members, err := r.directory.FindGroupMembers(ctx, group)
	if err != nil {
		return domain.DeliveryOutcome{}, fmt.Errorf("resolving members of %s: %w", group, err)
	}

	msg := domain.Message{
		ID:        uuid.New(),
		SenderID:  domain.SystemSender,
		Group:     group,
		Content:   content,
		Type:      msgType,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := r.store.SaveMessage(ctx, msg); err != nil {
		return domain.DeliveryOutcome{}, fmt.Errorf("persisting system message: %w", err)
	}

	outcome := r.fanout(ctx, msg, members)
	r.emit(event.MessageSent{
		ID: msg.ID, Group: group, Sender: msg.SenderID,
		Content: msg.Content, Type: msg.Type, At: msg.CreatedAt, Outcome: outcome,
	})
	return outcome, nil
}

// ReplayPendingFor re-delivers the group's undelivered backlog to a
// freshly reconnected user, in ascending creation order, against only
// that user's connections. Pair groups skip messages the user already
// received so a second reconnect with no new traffic replays nothing.
func (r *Router) ReplayPendingFor(ctx context.Context, user domain.UserID, group domain.GroupKey) (domain.DeliveryOutcome, error) {
	var outcome domain.DeliveryOutcome

	conns := r.presence.ConnectionsFor(user)
	if len(conns) == 0 {
		return outcome, nil
	}

	var pending []domain.Message
	var err error
	if group.IsPair() {
		pending, err = r.store.FindUndeliveredFor(ctx, group, user)
	} else {
		pending, err = r.store.FindUndelivered(ctx, group)
	}
	if err != nil {
		return outcome, fmt.Errorf("loading backlog of %s: %w", group, err)
	}

	for _, msg := range pending {
		// The sender's own backlog is not replayed to the sender.
		if msg.SenderID == user {
			continue
		}
		delivered := false
		for _, conn := range conns {
			ok := r.transport.Deliver(conn, Encode(msg))
			outcome.Attempted++
			if ok {
				outcome.Delivered++
				delivered = true
			}
			r.tracker.RecordAttempt(ctx, group, msg.ID, user, ok)
		}
		if delivered {
			r.emit(event.MessageReplayed{ID: msg.ID, Group: group, To: user, At: msg.CreatedAt})
		}
	}

	if len(pending) > 0 {
		r.log.Info("Backlog replayed", "user", user, "group", group,
			"pending", len(pending), "delivered", outcome.Delivered)
	}
	return outcome, nil
}

// fanout pushes msg to every live connection of every member except
// the sender. Presence is snapshotted per member; the transport call
// happens outside any lock. Failed recipients are isolated: the loop
// records and continues.
func (r *Router) fanout(ctx context.Context, msg domain.Message, members []domain.UserID) domain.DeliveryOutcome {
	var outcome domain.DeliveryOutcome
	payload := Encode(msg)

	for _, member := range members {
		if member == msg.SenderID {
			continue
		}
		for _, conn := range r.presence.ConnectionsFor(member) {
			ok := r.transport.Deliver(conn, payload)
			outcome.Attempted++
			if ok {
				outcome.Delivered++
			}
			r.tracker.RecordAttempt(ctx, msg.Group, msg.ID, member, ok)
		}
	}
	return outcome
}

// prepare builds the message to persist and reports whether moderation
// rewrote its content.
func (r *Router) prepare(sender domain.UserID, group domain.GroupKey, content string, msgType domain.MessageType) (domain.Message, bool) {
	lang := whatlanggo.Detect(content).Lang.Iso6391()

	censored := content
	var found []string
	if r.sanitizer != nil {
		censored, found = r.sanitizer.Censor(content)
		if len(found) > 0 {
			r.log.Warn("Message censored", "sender", sender, "group", group, "words", len(found))
		}
	}

	return domain.Message{
		ID:        uuid.New(),
		SenderID:  sender,
		Group:     group,
		Content:   censored,
		Type:      msgType,
		Lang:      lang,
		CreatedAt: time.Now().UTC(),
	}, len(found) > 0
}

// emit forwards an event to the fan-out pipeline without blocking the
// send path; observers losing an event is preferable to stalling
// delivery.
func (r *Router) emit(e event.DomainEvent) {
	if r.events == nil {
		return
	}
	select {
	case r.events <- e:
	default:
		r.log.Warn(fmt.Sprintf("Event channel full for group %s, dropping event", e.GroupKey()))
	}
}

func contains(users []domain.UserID, target domain.UserID) bool {
	for _, u := range users {
		if u == target {
			return true
		}
	}
	return false
}
