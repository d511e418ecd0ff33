package repositories

import (
	"context"
	"fmt"
	"log/slog"

	"team-chat/domain"
	apperrors "team-chat/errors"
)

// Directory resolves group membership across both group kinds and
// fronts the durable user record. It implements contract.Directory
// for the fan-out router and the lifecycle manager.
type Directory struct {
	log           *slog.Logger
	teams         *TeamRepository
	conversations *ConversationRepository
	users         *UserRepository
}

func NewDirectory(log *slog.Logger, teams *TeamRepository,
	conversations *ConversationRepository, users *UserRepository) *Directory {
	return &Directory{log: log, teams: teams, conversations: conversations, users: users}
}

// FindGroupMembers resolves the current membership of a group. Pair
// membership is encoded in the key itself; team membership is read
// from storage on every call since it can change between sends.
func (d *Directory) FindGroupMembers(ctx context.Context, group domain.GroupKey) ([]domain.UserID, error) {
	if a, b, ok := group.PairUsers(); ok {
		return []domain.UserID{a, b}, nil
	}

	teamID, ok := teamIDOf(group)
	if !ok {
		return nil, fmt.Errorf("%w: group %s", apperrors.ErrNotFound, group)
	}
	team, err := d.teams.FindTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	return team.Members, nil
}

// GroupsFor unions the user's teams and registered conversations.
func (d *Directory) GroupsFor(ctx context.Context, user domain.UserID) ([]domain.GroupKey, error) {
	teamIDs, err := d.teams.TeamsOf(ctx, user)
	if err != nil {
		return nil, err
	}
	groups := make([]domain.GroupKey, 0, len(teamIDs))
	for _, id := range teamIDs {
		groups = append(groups, domain.TeamKey(id))
	}

	convs, err := d.conversations.ConversationsOf(ctx, user)
	if err != nil {
		return nil, err
	}
	return append(groups, convs...), nil
}

// SetUserOnline updates the durable online projection.
func (d *Directory) SetUserOnline(ctx context.Context, user domain.UserID, online bool) error {
	return d.users.SetOnline(ctx, user, online)
}

func teamIDOf(group domain.GroupKey) (string, bool) {
	const prefix = "team:"
	s := string(group)
	if len(s) <= len(prefix) || s[:len(prefix)] != prefix {
		return "", false
	}
	return s[len(prefix):], true
}
