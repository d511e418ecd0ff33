package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"

	"team-chat/domain"
	apperrors "team-chat/errors"
)

type storedTeam struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Owner     string   `json:"owner"`
	Members   []string `json:"members"`
	CreatedAt int64    `json:"created_at"`
}

// TeamRepository persists teams under "teamdef:{id}" plus a
// per-member index "uteam:{user}:{teamID}" used to enumerate a user's
// teams on reconnect.
type TeamRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewTeamRepository(db *badger.DB, log *slog.Logger) *TeamRepository {
	return &TeamRepository{db: db, log: log}
}

func teamKey(id string) []byte { return []byte("teamdef:" + id) }

func memberTeamKey(user domain.UserID, teamID string) []byte {
	return []byte(fmt.Sprintf("uteam:%s:%s", user, teamID))
}

// SaveTeam stores the team and rebuilds its membership index.
func (r *TeamRepository) SaveTeam(ctx context.Context, team domain.Team) error {
	bytes, err := json.Marshal(fromTeam(team))
	if err != nil {
		return err
	}
	err = r.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(teamKey(team.ID), bytes); err != nil {
			return err
		}
		for _, member := range team.Members {
			if err := txn.Set(memberTeamKey(member, team.ID), []byte{1}); err != nil {
				return err
			}
		}
		return nil
	})
	return wrapBadger(err)
}

// FindTeam loads one team by id.
func (r *TeamRepository) FindTeam(ctx context.Context, id string) (domain.Team, error) {
	var stored storedTeam
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(teamKey(id))
		if err == badger.ErrKeyNotFound {
			return fmt.Errorf("%w: team %s", apperrors.ErrNotFound, id)
		}
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			return json.Unmarshal(v, &stored)
		})
	})
	if err != nil {
		return domain.Team{}, wrapBadger(err)
	}
	return toTeam(stored), nil
}

// AddMember appends a user to the team and updates the index.
func (r *TeamRepository) AddMember(ctx context.Context, teamID string, user domain.UserID) error {
	team, err := r.FindTeam(ctx, teamID)
	if err != nil {
		return err
	}
	if lo.Contains(team.Members, user) {
		return nil
	}
	team.Members = append(team.Members, user)
	return r.SaveTeam(ctx, team)
}

// TeamsOf lists the team ids a user belongs to via the index scan.
func (r *TeamRepository) TeamsOf(ctx context.Context, user domain.UserID) ([]string, error) {
	var teamIDs []string
	prefixStr := fmt.Sprintf("uteam:%s:", user)
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := []byte(prefixStr)
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			teamIDs = append(teamIDs, string(it.Item().Key()[len(prefixStr):]))
		}
		return nil
	})
	if err != nil {
		return nil, wrapBadger(err)
	}
	return teamIDs, nil
}

func fromTeam(team domain.Team) storedTeam {
	return storedTeam{
		ID:    team.ID,
		Name:  team.Name,
		Owner: string(team.OwnerID),
		Members: lo.Map(team.Members, func(u domain.UserID, _ int) string {
			return string(u)
		}),
		CreatedAt: team.CreatedAt.UnixNano(),
	}
}

func toTeam(stored storedTeam) domain.Team {
	return domain.Team{
		ID:      stored.ID,
		Name:    stored.Name,
		OwnerID: domain.UserID(stored.Owner),
		Members: lo.Map(stored.Members, func(s string, _ int) domain.UserID {
			return domain.UserID(s)
		}),
		CreatedAt: time.Unix(0, stored.CreatedAt).UTC(),
	}
}
