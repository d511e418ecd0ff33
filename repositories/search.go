package repositories

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/blugelabs/bluge"

	"team-chat/domain"
)

// SearchHit is one full-text match.
type SearchHit struct {
	MessageID string
	Group     domain.GroupKey
	Sender    domain.UserID
	Content   string
}

// SearchRepository maintains a Bluge full-text index over message
// content. Indexing happens asynchronously through the search sink;
// the index is a projection and can always be rebuilt from Badger.
type SearchRepository struct {
	writer *bluge.Writer
	log    *slog.Logger
}

func NewSearchRepository(writer *bluge.Writer, log *slog.Logger) *SearchRepository {
	return &SearchRepository{writer: writer, log: log}
}

// IndexMessage adds or replaces one message in the index.
func (r *SearchRepository) IndexMessage(ctx context.Context, msg domain.Message) error {
	doc := bluge.NewDocument(msg.ID.String()).
		AddField(bluge.NewTextField("content", msg.Content).StoreValue()).
		AddField(bluge.NewKeywordField("group", string(msg.Group)).StoreValue()).
		AddField(bluge.NewKeywordField("sender", string(msg.SenderID)).StoreValue())
	if err := r.writer.Update(doc.ID(), doc); err != nil {
		return fmt.Errorf("indexing message %s: %w", msg.ID, err)
	}
	return nil
}

// Search runs a match query over message content, optionally scoped
// to one group, returning at most limit hits.
func (r *SearchRepository) Search(ctx context.Context, text string, group domain.GroupKey, limit int) ([]SearchHit, error) {
	reader, err := r.writer.Reader()
	if err != nil {
		return nil, fmt.Errorf("opening index reader: %w", err)
	}
	defer reader.Close()

	query := bluge.NewBooleanQuery().
		AddMust(bluge.NewMatchQuery(text).SetField("content"))
	if group != "" {
		query.AddMust(bluge.NewTermQuery(string(group)).SetField("group"))
	}

	it, err := reader.Search(ctx, bluge.NewTopNSearch(limit, query))
	if err != nil {
		return nil, fmt.Errorf("searching %q: %w", text, err)
	}

	var hits []SearchHit
	for {
		match, err := it.Next()
		if err != nil {
			return nil, err
		}
		if match == nil {
			break
		}
		var hit SearchHit
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			switch field {
			case "_id":
				hit.MessageID = string(value)
			case "content":
				hit.Content = string(value)
			case "group":
				hit.Group = domain.GroupKey(value)
			case "sender":
				hit.Sender = domain.UserID(value)
			}
			return true
		})
		if err != nil {
			return nil, err
		}
		hits = append(hits, hit)
	}
	return hits, nil
}
