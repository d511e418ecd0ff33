package runtime

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"

	"team-chat/domain"
)

func testLogger() *slog.Logger {
	return logs.GetLoggerFromLevel(slog.LevelDebug)
}

// fakeStore is an in-memory message store for the core tests.
type fakeStore struct {
	mu        sync.Mutex
	messages  []domain.Message
	seen      map[string]map[domain.UserID]struct{} // msgID -> recipients
	saveErr   error
	markCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{seen: make(map[string]map[domain.UserID]struct{})}
}

func (s *fakeStore) SaveMessage(_ context.Context, msg domain.Message) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return uuid.Nil, s.saveErr
	}
	s.messages = append(s.messages, msg)
	return msg.ID, nil
}

func (s *fakeStore) MarkDelivered(_ context.Context, _ domain.GroupKey, msgID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markCalls++
	for i := range s.messages {
		if s.messages[i].ID == msgID {
			s.messages[i].Delivered = true
		}
	}
	return nil
}

func (s *fakeStore) MarkDeliveredTo(_ context.Context, _ domain.GroupKey, msgID uuid.UUID, user domain.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := msgID.String()
	if s.seen[key] == nil {
		s.seen[key] = make(map[domain.UserID]struct{})
	}
	s.seen[key][user] = struct{}{}
	return nil
}

func (s *fakeStore) FindUndelivered(_ context.Context, group domain.GroupKey) ([]domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var res []domain.Message
	for _, m := range s.messages {
		if m.Group == group && !m.Delivered {
			res = append(res, m)
		}
	}
	sort.SliceStable(res, func(i, j int) bool { return res[i].CreatedAt.Before(res[j].CreatedAt) })
	return res, nil
}

func (s *fakeStore) FindUndeliveredFor(ctx context.Context, group domain.GroupKey, user domain.UserID) ([]domain.Message, error) {
	all, err := s.FindUndelivered(ctx, group)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var res []domain.Message
	for _, m := range all {
		if _, ok := s.seen[m.ID.String()][user]; !ok {
			res = append(res, m)
		}
	}
	return res, nil
}

func (s *fakeStore) History(_ context.Context, group domain.GroupKey, _ *string) ([]domain.Message, *string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var res []domain.Message
	for _, m := range s.messages {
		if m.Group == group {
			res = append(res, m)
		}
	}
	return res, nil, nil
}

func (s *fakeStore) delivered(msgID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.messages {
		if m.ID == msgID {
			return m.Delivered
		}
	}
	return false
}

// fakeDirectory resolves membership from fixed maps. onSetOnline, when
// set, runs before an online-flag write lands; tests use it to stall a
// write mid-flight.
type fakeDirectory struct {
	mu          sync.Mutex
	members     map[domain.GroupKey][]domain.UserID
	groups      map[domain.UserID][]domain.GroupKey
	online      map[domain.UserID]bool
	onSetOnline func(user domain.UserID, online bool)
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		members: make(map[domain.GroupKey][]domain.UserID),
		groups:  make(map[domain.UserID][]domain.GroupKey),
		online:  make(map[domain.UserID]bool),
	}
}

func (d *fakeDirectory) FindGroupMembers(_ context.Context, group domain.GroupKey) ([]domain.UserID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.members[group], nil
}

func (d *fakeDirectory) GroupsFor(_ context.Context, user domain.UserID) ([]domain.GroupKey, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.groups[user], nil
}

func (d *fakeDirectory) SetUserOnline(_ context.Context, user domain.UserID, online bool) error {
	if d.onSetOnline != nil {
		d.onSetOnline(user, online)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.online[user] = online
	return nil
}

func (d *fakeDirectory) isOnline(user domain.UserID) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.online[user]
}

// fakeTransport records every delivery and can be told to fail
// specific connections.
type fakeTransport struct {
	mu       sync.Mutex
	payloads map[domain.ConnID][][]byte
	failing  map[domain.ConnID]bool
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		payloads: make(map[domain.ConnID][][]byte),
		failing:  make(map[domain.ConnID]bool),
	}
}

func (t *fakeTransport) Deliver(conn domain.ConnID, payload []byte) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.failing[conn] {
		return false
	}
	t.payloads[conn] = append(t.payloads[conn], payload)
	return true
}

func (t *fakeTransport) received(conn domain.ConnID) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.payloads[conn])
}
