package runtime

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"team-chat/contract"
	"team-chat/domain"
)

// deliveryState is the per-message bookkeeping entry.
type deliveryState struct {
	mu        sync.Mutex
	group     domain.GroupKey
	delivered bool
	// recipients that received the message, tracked for pair groups so
	// replay never duplicates a copy to the same user.
	seenBy map[domain.UserID]struct{}
}

// Tracker records delivery attempts per message. The delivered flag
// is a monotonic OR over attempts: one success from any recipient
// flips it, and nothing except an explicit Clear resets it. The flip
// is pushed to the message store exactly once.
//
// Read/unread state is a different concern owned by persistence and
// is deliberately not tracked here.
type Tracker struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]*deliveryState
	store   contract.MessageStore
	log     *slog.Logger
}

func NewTracker(store contract.MessageStore, log *slog.Logger) *Tracker {
	return &Tracker{
		entries: make(map[uuid.UUID]*deliveryState),
		store:   store,
		log:     log,
	}
}

func (t *Tracker) entry(group domain.GroupKey, msgID uuid.UUID) *deliveryState {
	t.mu.RLock()
	st, ok := t.entries[msgID]
	t.mu.RUnlock()
	if ok {
		return st
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if st, ok = t.entries[msgID]; ok {
		return st
	}
	st = &deliveryState{group: group, seenBy: make(map[domain.UserID]struct{})}
	t.entries[msgID] = st
	return st
}

// RecordAttempt registers the outcome of one transport invocation.
// The first success marks the message delivered, durably; failed
// attempts only count, they change no state.
func (t *Tracker) RecordAttempt(ctx context.Context, group domain.GroupKey, msgID uuid.UUID, recipient domain.UserID, ok bool) {
	if !ok {
		return
	}
	st := t.entry(group, msgID)

	st.mu.Lock()
	first := !st.delivered
	st.delivered = true
	st.seenBy[recipient] = struct{}{}
	st.mu.Unlock()

	// Durable writes happen outside the entry lock; the in-memory flag
	// already guarantees monotonicity if the store call is retried.
	if first {
		if err := t.store.MarkDelivered(ctx, group, msgID); err != nil {
			t.log.Error("Failed to persist delivered flag", "message", msgID, "err", err)
		}
	}
	if group.IsPair() {
		if err := t.store.MarkDeliveredTo(ctx, group, msgID, recipient); err != nil {
			t.log.Error("Failed to persist per-recipient delivery", "message", msgID, "recipient", recipient, "err", err)
		}
	}
}

// Delivered reports whether at least one successful attempt exists.
func (t *Tracker) Delivered(msgID uuid.UUID) bool {
	t.mu.RLock()
	st, ok := t.entries[msgID]
	t.mu.RUnlock()
	if !ok {
		return false
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.delivered
}

// SeenBy reports whether a specific recipient already received the
// message in this process lifetime.
func (t *Tracker) SeenBy(msgID uuid.UUID, user domain.UserID) bool {
	t.mu.RLock()
	st, ok := t.entries[msgID]
	t.mu.RUnlock()
	if !ok {
		return false
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	_, seen := st.seenBy[user]
	return seen
}

// PendingFor returns the group's undelivered messages in ascending
// creation order, straight from the store.
func (t *Tracker) PendingFor(ctx context.Context, group domain.GroupKey) ([]domain.Message, error) {
	return t.store.FindUndelivered(ctx, group)
}

// Clear is the administrative reset of a message's bookkeeping.
func (t *Tracker) Clear(msgID uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, msgID)
}
