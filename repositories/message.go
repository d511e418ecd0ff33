package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"team-chat/domain"
	apperrors "team-chat/errors"
)

// storedMessage is the on-disk shape of one message.
type storedMessage struct {
	ID        string `json:"id"`
	Sender    string `json:"sender"`
	Group     string `json:"group"`
	Content   string `json:"content"`
	Type      string `json:"type"`
	Lang      string `json:"lang,omitempty"`
	At        int64  `json:"at"`
	Delivered bool   `json:"delivered"`
}

// MessageRepository persists messages in BadgerDB.
//
// The primary key is "msg:{group}:{timestamp_padded}:{uuid}":
//  1. 19-digit zero padding makes lexicographic order chronological,
//     so prefix scans return messages already sorted by creation time.
//  2. The trailing UUID disambiguates two messages persisted in the
//     same nanosecond.
//
// A secondary key "msgid:{uuid}" points at the primary key so the
// delivered flag can be flipped without knowing the timestamp.
// Per-recipient delivery markers live under "dlv:{group}:{uuid}:{user}".
type MessageRepository struct {
	db            *badger.DB
	log           *slog.Logger
	limitMessages *int
}

func NewMessageRepository(db *badger.DB, log *slog.Logger, limitMessages *int) *MessageRepository {
	return &MessageRepository{db: db, log: log, limitMessages: limitMessages}
}

func messageKey(group domain.GroupKey, at time.Time, id uuid.UUID) []byte {
	return []byte(fmt.Sprintf("msg:%s:%019d:%s", group, at.UnixNano(), id))
}

func messageIDKey(id uuid.UUID) []byte {
	return []byte("msgid:" + id.String())
}

func deliveredToKey(group domain.GroupKey, id uuid.UUID, user domain.UserID) []byte {
	return []byte(fmt.Sprintf("dlv:%s:%s:%s", group, id, user))
}

// SaveMessage persists msg and returns its id. The message becomes
// durable before any delivery is attempted; a failure here must be
// treated as fatal to the send.
func (m *MessageRepository) SaveMessage(ctx context.Context, msg domain.Message) (uuid.UUID, error) {
	bytes, err := json.Marshal(fromMessage(msg))
	if err != nil {
		return uuid.Nil, err
	}
	key := messageKey(msg.Group, msg.CreatedAt, msg.ID)

	err = m.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(key, bytes); err != nil {
			return err
		}
		return txn.Set(messageIDKey(msg.ID), key)
	})
	if err != nil {
		return uuid.Nil, wrapBadger(err)
	}
	return msg.ID, nil
}

// MarkDelivered flips the durable delivered flag. The flag only ever
// goes false->true; flipping an already-delivered message is a no-op.
func (m *MessageRepository) MarkDelivered(ctx context.Context, group domain.GroupKey, msgID uuid.UUID) error {
	err := m.db.Update(func(txn *badger.Txn) error {
		idItem, err := txn.Get(messageIDKey(msgID))
		if err == badger.ErrKeyNotFound {
			return fmt.Errorf("%w: message %s", apperrors.ErrNotFound, msgID)
		}
		if err != nil {
			return err
		}
		var primaryKey []byte
		if err := idItem.Value(func(v []byte) error {
			primaryKey = append([]byte(nil), v...)
			return nil
		}); err != nil {
			return err
		}

		item, err := txn.Get(primaryKey)
		if err != nil {
			return err
		}
		var stored storedMessage
		if err := item.Value(func(v []byte) error {
			return json.Unmarshal(v, &stored)
		}); err != nil {
			return err
		}
		if stored.Delivered {
			return nil
		}
		stored.Delivered = true
		bytes, err := json.Marshal(stored)
		if err != nil {
			return err
		}
		return txn.Set(primaryKey, bytes)
	})
	return wrapBadger(err)
}

// MarkDeliveredTo records that one specific recipient received the
// message; used by the pair path so replay stays exactly-once per
// recipient.
func (m *MessageRepository) MarkDeliveredTo(ctx context.Context, group domain.GroupKey, msgID uuid.UUID, user domain.UserID) error {
	err := m.db.Update(func(txn *badger.Txn) error {
		return txn.Set(deliveredToKey(group, msgID, user), []byte{1})
	})
	return wrapBadger(err)
}

// FindUndelivered returns the group's messages still carrying
// delivered=false, in ascending creation order. The padded timestamp
// in the key makes the forward prefix scan naturally chronological.
func (m *MessageRepository) FindUndelivered(ctx context.Context, group domain.GroupKey) ([]domain.Message, error) {
	return m.scan(group, func(txn *badger.Txn, stored storedMessage) bool {
		return !stored.Delivered
	})
}

// FindUndeliveredFor filters a pair group's backlog to messages the
// given recipient has not received yet, regardless of the group-wide
// delivered flag.
func (m *MessageRepository) FindUndeliveredFor(ctx context.Context, group domain.GroupKey, user domain.UserID) ([]domain.Message, error) {
	return m.scan(group, func(txn *badger.Txn, stored storedMessage) bool {
		id, err := uuid.Parse(stored.ID)
		if err != nil {
			return false
		}
		_, err = txn.Get(deliveredToKey(group, id, user))
		return err == badger.ErrKeyNotFound
	})
}

// scan walks the group's messages in key order and keeps the ones the
// predicate accepts.
func (m *MessageRepository) scan(group domain.GroupKey, keep func(*badger.Txn, storedMessage) bool) ([]domain.Message, error) {
	var messages []domain.Message
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := []byte(fmt.Sprintf("msg:%s:", group))
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var stored storedMessage
			if err := it.Item().Value(func(v []byte) error {
				return json.Unmarshal(v, &stored)
			}); err != nil {
				return err
			}
			if !keep(txn, stored) {
				continue
			}
			msg, err := toMessage(stored)
			if err != nil {
				return err
			}
			messages = append(messages, msg)
		}
		return nil
	})
	if err != nil {
		return nil, wrapBadger(err)
	}
	return messages, nil
}

// History pages backwards through a group's messages using a reverse
// prefix scan. The cursor is the key suffix of the last returned
// message; passing it back resumes just before that position. It
// stops collecting once the configured limit is reached.
func (m *MessageRepository) History(ctx context.Context, group domain.GroupKey, cursor *string) ([]domain.Message, *string, error) {
	var stored []storedMessage
	var lastKey string

	err := m.db.View(func(txn *badger.Txn) error {
		prefixStr := fmt.Sprintf("msg:%s:", group)
		prefix := []byte(prefixStr)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		var seekKey []byte
		switch cursor {
		case nil:
			// Seek past the newest possible timestamp, then walk back.
			seekKey = append(prefix, []byte("9999999999999999999")...)
		default:
			seekKey = append(prefix, []byte(*cursor)...)
		}

		it.Seek(seekKey)
		if cursor != nil && it.ValidForPrefix(prefix) {
			it.Next()
		}

		for ; it.ValidForPrefix(prefix); it.Next() {
			if m.limitMessages != nil && len(stored) == *m.limitMessages {
				m.log.Debug(fmt.Sprintf("Maximum of %d messages reached", *m.limitMessages))
				break
			}
			item := it.Item()
			lastKey = string(item.Key()[len(prefixStr):])
			var sm storedMessage
			if err := item.Value(func(v []byte) error {
				return json.Unmarshal(v, &sm)
			}); err != nil {
				return err
			}
			stored = append(stored, sm)
		}
		return nil
	})
	if err != nil {
		return nil, nil, wrapBadger(err)
	}

	messages := make([]domain.Message, 0, len(stored))
	// Reverse scan yields newest first; flip to chronological order.
	for i := len(stored) - 1; i >= 0; i-- {
		msg, err := toMessage(stored[i])
		if err != nil {
			return nil, nil, err
		}
		messages = append(messages, msg)
	}
	return messages, &lastKey, nil
}

func fromMessage(msg domain.Message) storedMessage {
	return storedMessage{
		ID:        msg.ID.String(),
		Sender:    string(msg.SenderID),
		Group:     string(msg.Group),
		Content:   msg.Content,
		Type:      string(msg.Type),
		Lang:      msg.Lang,
		At:        msg.CreatedAt.UnixNano(),
		Delivered: msg.Delivered,
	}
}

func toMessage(stored storedMessage) (domain.Message, error) {
	parsedID, err := uuid.Parse(stored.ID)
	if err != nil {
		return domain.Message{}, err
	}
	return domain.Message{
		ID:        parsedID,
		SenderID:  domain.UserID(stored.Sender),
		Group:     domain.GroupKey(stored.Group),
		Content:   stored.Content,
		Type:      domain.MessageType(stored.Type),
		Lang:      stored.Lang,
		CreatedAt: time.Unix(0, stored.At).UTC(),
		Delivered: stored.Delivered,
	}, nil
}

// wrapBadger classifies storage failures. Transaction conflicts are
// transient and worth retrying by the caller; everything else is
// permanent.
func wrapBadger(err error) error {
	if err == nil {
		return nil
	}
	if err == badger.ErrConflict {
		return apperrors.Transient(err)
	}
	return err
}
