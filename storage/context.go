package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"sol/config"
	"sol/model"
)

const (
	defaultContextLimit = 10
	snippetMaxRunes     = 200

	SourceClipboard    = "clipboard"
	SourceNote         = "note"
	SourceConversation = "conversation"
)

// ContextStore holds clipboard captures and notes, and searches them
// together with conversation transcripts.
type ContextStore struct {
	db            *DB
	conversations *SearchIndex
}

// Add records a clipboard capture.
func (s *ContextStore) Add(ctx context.Context, content, sourceApp string) (*model.ClipboardEntry, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("clipboard content is empty")
	}
	entry := model.ClipboardEntry{
		ID:        uuid.NewString(),
		Content:   content,
		SourceApp: sourceApp,
		CopiedAt:  s.db.now(),
	}
	_, err := s.db.db.ExecContext(ctx,
		`INSERT INTO clipboard (id, content, source_app, copied_at) VALUES (?, ?, ?, ?)`,
		entry.ID, entry.Content, entry.SourceApp, toMillis(entry.CopiedAt))
	if err != nil {
		return nil, fmt.Errorf("failed to save clipboard entry: %w", err)
	}
	return &entry, nil
}

// Recent returns the n newest clipboard captures, newest first.
func (s *ContextStore) Recent(ctx context.Context, n int) ([]model.ClipboardEntry, error) {
	if n <= 0 {
		return nil, nil
	}
	rows, err := s.db.db.QueryContext(ctx,
		`SELECT id, content, source_app, copied_at FROM clipboard ORDER BY copied_at DESC, rowid DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("failed to read clipboard: %w", err)
	}
	defer rows.Close()

	var entries []model.ClipboardEntry
	for rows.Next() {
		var (
			e      model.ClipboardEntry
			copied int64
		)
		if err := rows.Scan(&e.ID, &e.Content, &e.SourceApp, &copied); err != nil {
			return nil, fmt.Errorf("failed to scan clipboard entry: %w", err)
		}
		e.CopiedAt = fromMillis(copied)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// AddNote stores a free-text note.
func (s *ContextStore) AddNote(ctx context.Context, title, body string) error {
	if strings.TrimSpace(body) == "" {
		return fmt.Errorf("note body is empty")
	}
	_, err := s.db.db.ExecContext(ctx,
		`INSERT INTO notes (id, title, body, created_at) VALUES (?, ?, ?, ?)`,
		uuid.NewString(), title, body, toMillis(s.db.now()))
	if err != nil {
		return fmt.Errorf("failed to save note: %w", err)
	}
	return nil
}

// Search matches query case-insensitively against clipboard captures, notes
// and, when configured, conversation transcripts. Hits are newest first.
func (s *ContextStore) Search(ctx context.Context, query string, limit int) ([]model.ContextHit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = defaultContextLimit
	}
	p := likePattern(query)

	rows, err := s.db.db.QueryContext(ctx, `
	SELECT 'clipboard', source_app, content, copied_at FROM clipboard
		WHERE lower(content) LIKE ? ESCAPE '\'
	UNION ALL
	SELECT 'note', title, body, created_at FROM notes
		WHERE lower(title) LIKE ? ESCAPE '\' OR lower(body) LIKE ? ESCAPE '\'
	ORDER BY 4 DESC
	LIMIT ?
	`, p, p, p, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search context: %w", err)
	}
	defer rows.Close()

	var hits []model.ContextHit
	for rows.Next() {
		var (
			h  model.ContextHit
			ts int64
		)
		if err := rows.Scan(&h.Source, &h.Title, &h.Snippet, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan context hit: %w", err)
		}
		h.Snippet = snippet(h.Snippet, query)
		h.Timestamp = fromMillis(ts)
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if s.conversations != nil {
		convHits, err := s.conversations.Search(ctx, query, limit)
		if err != nil {
			// Transcripts are a best-effort addition to the database hits.
			config.DebugLog.Debugf("[Storage] conversation search failed: %v", err)
		} else {
			hits = append(hits, convHits...)
			sort.SliceStable(hits, func(i, j int) bool {
				return hits[i].Timestamp.After(hits[j].Timestamp)
			})
		}
	}

	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// snippet cuts text to a window around the first occurrence of query.
func snippet(text, query string) string {
	runes := []rune(text)
	if len(runes) <= snippetMaxRunes {
		return text
	}
	start := 0
	if idx := strings.Index(strings.ToLower(text), strings.ToLower(query)); idx > 0 && idx <= len(text) {
		start = len([]rune(text[:idx])) - snippetMaxRunes/4
		if start < 0 {
			start = 0
		}
	}
	end := start + snippetMaxRunes
	if end > len(runes) {
		end = len(runes)
		start = end - snippetMaxRunes
	}
	out := string(runes[start:end])
	if start > 0 {
		out = "..." + out
	}
	if end < len(runes) {
		out += "..."
	}
	return out
}
