package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"

	"team-chat/domain"
)

type storedConversation struct {
	Key       string `json:"key"`
	UserA     string `json:"user_a"`
	UserB     string `json:"user_b"`
	CreatedAt int64  `json:"created_at"`
}

// ConversationRepository registers private pairs under
// "conv:{pairKey}" with a per-user index "uconv:{user}:{pairKey}".
// Registration is idempotent: the pair key is canonical, so the first
// message in either direction creates the same record.
type ConversationRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewConversationRepository(db *badger.DB, log *slog.Logger) *ConversationRepository {
	return &ConversationRepository{db: db, log: log}
}

func convKey(key domain.GroupKey) []byte { return []byte("conv:" + string(key)) }

func userConvKey(user domain.UserID, key domain.GroupKey) []byte {
	return []byte(fmt.Sprintf("uconv:%s:%s", user, key))
}

// Ensure registers the conversation between two users if it does not
// exist yet and returns its canonical group key.
func (r *ConversationRepository) Ensure(ctx context.Context, a, b domain.UserID) (domain.GroupKey, error) {
	key := domain.PairKey(a, b)
	conv := storedConversation{
		Key:       string(key),
		UserA:     string(a),
		UserB:     string(b),
		CreatedAt: time.Now().UTC().UnixNano(),
	}
	bytes, err := json.Marshal(conv)
	if err != nil {
		return "", err
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(convKey(key)); err == nil {
			return nil // already registered
		} else if err != badger.ErrKeyNotFound {
			return err
		}
		if err := txn.Set(convKey(key), bytes); err != nil {
			return err
		}
		if err := txn.Set(userConvKey(a, key), []byte{1}); err != nil {
			return err
		}
		return txn.Set(userConvKey(b, key), []byte{1})
	})
	if err != nil {
		return "", wrapBadger(err)
	}
	return key, nil
}

// ConversationsOf lists the pair group keys a user participates in.
func (r *ConversationRepository) ConversationsOf(ctx context.Context, user domain.UserID) ([]domain.GroupKey, error) {
	var keys []domain.GroupKey
	prefixStr := fmt.Sprintf("uconv:%s:", user)
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := []byte(prefixStr)
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, domain.GroupKey(it.Item().Key()[len(prefixStr):]))
		}
		return nil
	})
	if err != nil {
		return nil, wrapBadger(err)
	}
	return keys, nil
}
