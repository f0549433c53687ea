package storage

import (
	"context"
	"strings"

	"sol/model"
)

const transcriptPreviewRunes = 100

// SearchIndex searches user and assistant turns across all stored
// conversations.
type SearchIndex struct {
	storage *ConversationStorage
}

func NewSearchIndex(storage *ConversationStorage) *SearchIndex {
	return &SearchIndex{storage: storage}
}

// Search returns at most limit turns containing query, newest conversation
// first. Tool turns are skipped.
func (si *SearchIndex) Search(ctx context.Context, query string, limit int) ([]model.ContextHit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	conversations, err := si.storage.all()
	if err != nil {
		return nil, err
	}

	queryLower := strings.ToLower(query)
	var hits []model.ContextHit

	for _, conv := range conversations {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, msg := range conv.Messages {
			if msg.Role == model.RoleTool || msg.Content == "" {
				continue
			}
			if !strings.Contains(strings.ToLower(msg.Content), queryLower) {
				continue
			}

			preview := msg.Content
			if r := []rune(preview); len(r) > transcriptPreviewRunes {
				preview = string(r[:transcriptPreviewRunes]) + "..."
			}

			hits = append(hits, model.ContextHit{
				Source:    SourceConversation,
				Title:     conv.Title,
				Snippet:   msg.Role.Label() + ": " + preview,
				Timestamp: msg.Timestamp,
			})
			if limit > 0 && len(hits) == limit {
				return hits, nil
			}
		}
	}

	return hits, nil
}
