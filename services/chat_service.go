//go:generate go run go.uber.org/mock/mockgen -source=chat_service.go -destination=../mocks/mock_chat_service.go -package=mocks
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"team-chat/contract"
	"team-chat/domain"
	"team-chat/repositories"
	"team-chat/runtime"
)

// IChatService is the application facade consumed by the transport
// layer and the test harness.
type IChatService interface {
	Send(ctx context.Context, sender domain.UserID, group domain.GroupKey, content string) (domain.Message, domain.DeliveryOutcome, error)
	SendPrivate(ctx context.Context, sender, recipient domain.UserID, content string) (domain.Message, domain.DeliveryOutcome, error)
	History(ctx context.Context, group domain.GroupKey, cursor *string) ([]domain.Message, *string, error)
	Search(ctx context.Context, text string, group domain.GroupKey, limit int) ([]repositories.SearchHit, error)
	CreateTeam(ctx context.Context, name string, owner domain.UserID, members []domain.UserID) (domain.Team, error)
	JoinTeam(ctx context.Context, teamID string, user domain.UserID) error
	Typing(sender, recipient domain.UserID, typing bool)
	OnlineUsers() []domain.UserID
	OnlineTeamMembers(ctx context.Context, teamID string) ([]domain.UserID, error)
}

type ChatService struct {
	log           *slog.Logger
	lifecycle     *runtime.Lifecycle
	router        *runtime.Router
	presence      *runtime.Presence
	messages      contract.MessageStore
	teams         *repositories.TeamRepository
	conversations *repositories.ConversationRepository
	search        *repositories.SearchRepository
	transport     contract.Transport
}

func NewChatService(log *slog.Logger, orch *runtime.Orchestrator,
	messages contract.MessageStore, teams *repositories.TeamRepository,
	conversations *repositories.ConversationRepository,
	search *repositories.SearchRepository, transport contract.Transport) *ChatService {
	return &ChatService{
		log:           log,
		lifecycle:     orch.Lifecycle(),
		router:        orch.Router(),
		presence:      orch.Presence(),
		messages:      messages,
		teams:         teams,
		conversations: conversations,
		search:        search,
		transport:     transport,
	}
}

// Send posts a chat message to a team or conversation the sender
// belongs to.
func (s *ChatService) Send(ctx context.Context, sender domain.UserID, group domain.GroupKey, content string) (domain.Message, domain.DeliveryOutcome, error) {
	return s.lifecycle.OnSend(ctx, sender, group, content)
}

// SendPrivate registers the pair conversation if needed, then routes
// the message through the regular fan-out path.
func (s *ChatService) SendPrivate(ctx context.Context, sender, recipient domain.UserID, content string) (domain.Message, domain.DeliveryOutcome, error) {
	group, err := s.conversations.Ensure(ctx, sender, recipient)
	if err != nil {
		return domain.Message{}, domain.DeliveryOutcome{}, fmt.Errorf("registering conversation: %w", err)
	}
	return s.lifecycle.OnSend(ctx, sender, group, content)
}

// History pages through a group's stored messages, oldest first.
func (s *ChatService) History(ctx context.Context, group domain.GroupKey, cursor *string) ([]domain.Message, *string, error) {
	return s.messages.History(ctx, group, cursor)
}

// Search runs a full-text query over indexed message content.
func (s *ChatService) Search(ctx context.Context, text string, group domain.GroupKey, limit int) ([]repositories.SearchHit, error) {
	return s.search.Search(ctx, text, group, limit)
}

// CreateTeam stores a new team. The owner is always a member.
func (s *ChatService) CreateTeam(ctx context.Context, name string, owner domain.UserID, members []domain.UserID) (domain.Team, error) {
	if !lo.Contains(members, owner) {
		members = append(members, owner)
	}
	team := domain.Team{
		ID:        uuid.NewString(),
		Name:      name,
		OwnerID:   owner,
		Members:   members,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.teams.SaveTeam(ctx, team); err != nil {
		return domain.Team{}, err
	}
	return team, nil
}

// JoinTeam adds the user, marks the team as their active group, and
// broadcasts a join notice to the members already present.
func (s *ChatService) JoinTeam(ctx context.Context, teamID string, user domain.UserID) error {
	if err := s.teams.AddMember(ctx, teamID, user); err != nil {
		return err
	}
	group := domain.TeamKey(teamID)
	s.lifecycle.SetActiveGroup(user, group)

	content := fmt.Sprintf("%s joined the team", user)
	if _, err := s.router.SendSystem(ctx, group, content, domain.TypeJoin); err != nil {
		s.log.Error("Failed to broadcast join notice", "user", user, "team", teamID, "err", err)
	}
	return nil
}

// Typing relays an ephemeral typing indicator to the recipient's
// connections. Nothing is persisted and offline recipients miss it.
func (s *ChatService) Typing(sender, recipient domain.UserID, typing bool) {
	group := domain.PairKey(sender, recipient)
	payload := runtime.EncodeTyping(group, sender, typing)
	for _, conn := range s.presence.ConnectionsFor(recipient) {
		s.transport.Deliver(conn, payload)
	}
}

// OnlineUsers lists every user with at least one live connection.
func (s *ChatService) OnlineUsers() []domain.UserID {
	return s.presence.OnlineUsers()
}

// OnlineTeamMembers filters a team's membership down to present users.
func (s *ChatService) OnlineTeamMembers(ctx context.Context, teamID string) ([]domain.UserID, error) {
	team, err := s.teams.FindTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	return lo.Filter(team.Members, func(u domain.UserID, _ int) bool {
		return s.presence.IsPresent(u)
	}), nil
}
