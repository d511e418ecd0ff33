package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"

	"team-chat/domain"
	apperrors "team-chat/errors"
)

type storedUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Online      bool   `json:"online"`
	CreatedAt   int64  `json:"created_at"`
}

// UserRepository owns the durable user record under "user:{id}".
// The Online flag stored here is a projection written by the
// lifecycle manager; live presence comes from the registry.
type UserRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewUserRepository(db *badger.DB, log *slog.Logger) *UserRepository {
	return &UserRepository{db: db, log: log}
}

func userKey(id domain.UserID) []byte { return []byte("user:" + string(id)) }

// SaveUser creates or overwrites the durable record.
func (r *UserRepository) SaveUser(ctx context.Context, user domain.User) error {
	stored := storedUser{
		ID:          string(user.ID),
		DisplayName: user.DisplayName,
		Online:      user.Online,
		CreatedAt:   user.CreatedAt.UnixNano(),
	}
	bytes, err := json.Marshal(stored)
	if err != nil {
		return err
	}
	err = r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(userKey(user.ID), bytes)
	})
	return wrapBadger(err)
}

// FindUser loads one durable record.
func (r *UserRepository) FindUser(ctx context.Context, id domain.UserID) (domain.User, error) {
	var stored storedUser
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(userKey(id))
		if err == badger.ErrKeyNotFound {
			return fmt.Errorf("%w: user %s", apperrors.ErrNotFound, id)
		}
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			return json.Unmarshal(v, &stored)
		})
	})
	if err != nil {
		return domain.User{}, wrapBadger(err)
	}
	return domain.User{
		ID:          domain.UserID(stored.ID),
		DisplayName: stored.DisplayName,
		Online:      stored.Online,
		CreatedAt:   time.Unix(0, stored.CreatedAt).UTC(),
	}, nil
}

// SetOnline updates the online projection. Unknown users get a
// minimal record created on the fly so presence survives restarts.
func (r *UserRepository) SetOnline(ctx context.Context, id domain.UserID, online bool) error {
	user, err := r.FindUser(ctx, id)
	if err != nil {
		user = domain.User{ID: id, DisplayName: string(id), CreatedAt: time.Now().UTC()}
	}
	user.Online = online
	return r.SaveUser(ctx, user)
}
