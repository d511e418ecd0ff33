// Package projection builds local timelines from observed events.
// Handles ordering and deduplication. Does not emit events or
// interact with transport directly.
package projection

import (
	"sort"
	"sync"

	"github.com/google/uuid"

	"team-chat/domain"
)

// Timeline keeps an in-memory, chronologically ordered view of the
// recent messages per group. It backs the "what happened while I was
// reading" debug view and is bounded per group.
type Timeline struct {
	mu       sync.RWMutex
	limit    int
	messages map[domain.GroupKey][]domain.Message
	seen     map[uuid.UUID]struct{}
}

func NewTimeline(limit int) *Timeline {
	return &Timeline{
		limit:    limit,
		messages: make(map[domain.GroupKey][]domain.Message),
		seen:     make(map[uuid.UUID]struct{}),
	}
}

// Append inserts the message keeping creation order, ignoring
// duplicates (replays produce the same message id twice).
func (t *Timeline) Append(msg domain.Message) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, dup := t.seen[msg.ID]; dup {
		return
	}
	t.seen[msg.ID] = struct{}{}

	entries := append(t.messages[msg.Group], msg)
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})
	if t.limit > 0 && len(entries) > t.limit {
		dropped := entries[:len(entries)-t.limit]
		for _, d := range dropped {
			delete(t.seen, d.ID)
		}
		entries = entries[len(entries)-t.limit:]
	}
	t.messages[msg.Group] = entries
}

// Messages returns a snapshot of the group's timeline.
func (t *Timeline) Messages(group domain.GroupKey) []domain.Message {
	t.mu.RLock()
	defer t.mu.RUnlock()
	entries := t.messages[group]
	res := make([]domain.Message, len(entries))
	copy(res, entries)
	return res
}
