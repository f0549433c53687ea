package storage

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"sol/config"
	"sol/model"
)

const (
	defaultMemoryLimit = 10
	learnedConfidence  = 0.7
	maxLearnedValue    = 100
)

// MemoryStore implements model.MemoryStore on the memories table.
type MemoryStore struct {
	db *DB
}

const memoryColumns = `id, category, key, value, confidence, source, usage_count, created_at, last_used_at`

func scanMemory(scan func(dest ...any) error) (model.MemoryFact, error) {
	var (
		f                 model.MemoryFact
		category          string
		created, lastUsed int64
	)
	err := scan(&f.ID, &category, &f.Key, &f.Value, &f.Confidence, &f.Source, &f.UsageCount, &created, &lastUsed)
	if err != nil {
		return f, err
	}
	f.Category = model.MemoryCategory(category)
	f.CreatedAt = fromMillis(created)
	f.LastUsedAt = fromMillis(lastUsed)
	return f, nil
}

func (s *MemoryStore) queryFacts(ctx context.Context, query string, args ...any) ([]model.MemoryFact, error) {
	rows, err := s.db.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var facts []model.MemoryFact
	for rows.Next() {
		f, err := scanMemory(rows.Scan)
		if err != nil {
			return nil, err
		}
		facts = append(facts, f)
	}
	return facts, rows.Err()
}

// Query returns facts whose key or value contains any keyword, best first.
// A query without keywords matches nothing.
func (s *MemoryStore) Query(ctx context.Context, q model.MemoryQuery) ([]model.MemoryFact, error) {
	if len(q.Keywords) == 0 {
		return nil, nil
	}
	limit := q.Limit
	if limit <= 0 {
		limit = defaultMemoryLimit
	}

	var (
		clauses []string
		args    []any
	)
	for _, kw := range q.Keywords {
		p := likePattern(kw)
		clauses = append(clauses, `(lower(key) LIKE ? ESCAPE '\' OR lower(value) LIKE ? ESCAPE '\')`)
		args = append(args, p, p)
	}
	where := "(" + strings.Join(clauses, " OR ") + ") AND confidence >= ?"
	args = append(args, q.MinConfidence)
	if q.Category != "" {
		where += " AND category = ?"
		args = append(args, string(q.Category))
	}
	args = append(args, limit)

	query := `SELECT ` + memoryColumns + ` FROM memories WHERE ` + where +
		` ORDER BY confidence DESC, usage_count DESC, created_at DESC LIMIT ?`

	facts, err := s.queryFacts(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query memories: %w", err)
	}
	return facts, nil
}

func (s *MemoryStore) MostUsed(ctx context.Context, limit int) ([]model.MemoryFact, error) {
	if limit <= 0 {
		limit = defaultMemoryLimit
	}
	facts, err := s.queryFacts(ctx,
		`SELECT `+memoryColumns+` FROM memories ORDER BY usage_count DESC, confidence DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list memories: %w", err)
	}
	return facts, nil
}

// List returns every fact, newest first.
func (s *MemoryStore) List(ctx context.Context) ([]model.MemoryFact, error) {
	facts, err := s.queryFacts(ctx, `SELECT `+memoryColumns+` FROM memories ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list memories: %w", err)
	}
	return facts, nil
}

func (s *MemoryStore) RecordUsage(ctx context.Context, id string) error {
	_, err := s.db.db.ExecContext(ctx,
		`UPDATE memories SET usage_count = usage_count + 1, last_used_at = ? WHERE id = ?`,
		toMillis(s.db.now()), id)
	if err != nil {
		return fmt.Errorf("failed to record memory usage: %w", err)
	}
	return nil
}

// Save upserts fact by category and key. An existing fact keeps its id,
// creation time and usage counters.
func (s *MemoryStore) Save(ctx context.Context, fact model.MemoryFact) (*model.MemoryFact, error) {
	if fact.Category == "" || fact.Key == "" {
		return nil, fmt.Errorf("memory needs a category and a key")
	}
	if fact.ID == "" {
		fact.ID = uuid.NewString()
	}
	if fact.CreatedAt.IsZero() {
		fact.CreatedAt = s.db.now()
	}

	_, err := s.db.db.ExecContext(ctx, `
	INSERT INTO memories (id, category, key, value, confidence, source, usage_count, created_at, last_used_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (category, key) DO UPDATE SET
		value = excluded.value,
		confidence = excluded.confidence,
		source = excluded.source
	`,
		fact.ID,
		string(fact.Category),
		fact.Key,
		fact.Value,
		fact.Confidence,
		fact.Source,
		fact.UsageCount,
		toMillis(fact.CreatedAt),
		toMillis(fact.LastUsedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to save memory: %w", err)
	}

	saved, err := s.lookup(ctx, fact.Category, fact.Key)
	if err != nil {
		return nil, err
	}
	if saved == nil {
		return nil, fmt.Errorf("memory %s/%s vanished after save", fact.Category, fact.Key)
	}
	return saved, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.db.ExecContext(ctx, `DELETE FROM memories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete memory: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("memory %s not found", id)
	}
	return nil
}

type learnPattern struct {
	re       *regexp.Regexp
	category model.MemoryCategory
	// key names the fact; subject is the captured text.
	key func(subject string) string
}

func prefixedKey(prefix string) func(string) string {
	return func(subject string) string { return prefix + ": " + strings.ToLower(subject) }
}

func fixedKey(key string) func(string) string {
	return func(string) string { return key }
}

var learnPatterns = []learnPattern{
	{
		re:       regexp.MustCompile(`(?i)\b(?:i|my)\s+(?:really\s+)?(?:prefer|like|love|enjoy)\s+([^.!?,;\n]+)`),
		category: model.MemoryUserPreference,
		key:      prefixedKey("likes"),
	},
	{
		re:       regexp.MustCompile(`(?i)\b(?:i|my)\s+(?:really\s+)?(?:hate|dislike|don't like|do not like)\s+([^.!?,;\n]+)`),
		category: model.MemoryUserPreference,
		key:      prefixedKey("dislikes"),
	},
	{
		re:       regexp.MustCompile(`(?i)\b(?:i'm|i am)\s+(?:a|an)\s+([^.!?,;\n]+)`),
		category: model.MemoryPersonalFact,
		key:      fixedKey("identity"),
	},
	{
		re:       regexp.MustCompile(`(?i)\b(?:i|my)\s+(?:work|job)\s+(?:is\s+|as\s+|at\s+)([^.!?,;\n]+)`),
		category: model.MemoryWorkPattern,
		key:      fixedKey("work"),
	},
	{
		re:       regexp.MustCompile(`(?i)\b(?:call me|my name is)\s+([^.!?,;\n]+)`),
		category: model.MemoryPersonalFact,
		key:      fixedKey("name"),
	},
}

// extractFacts applies the learn patterns to text.
func extractFacts(text string) []model.MemoryFact {
	var facts []model.MemoryFact
	for _, p := range learnPatterns {
		for _, m := range p.re.FindAllStringSubmatch(text, -1) {
			subject := strings.TrimSpace(m[1])
			if subject == "" {
				continue
			}
			if r := []rune(subject); len(r) > maxLearnedValue {
				subject = strings.TrimSpace(string(r[:maxLearnedValue]))
			}
			facts = append(facts, model.MemoryFact{
				Category:   p.category,
				Key:        p.key(subject),
				Value:      subject,
				Confidence: learnedConfidence,
			})
		}
	}
	return facts
}

// LearnFromInteraction saves facts the user stated about themselves. A
// learned fact never lowers the confidence of one already stored.
func (s *MemoryStore) LearnFromInteraction(ctx context.Context, in model.Interaction) error {
	for _, fact := range extractFacts(in.UserText) {
		existing, err := s.lookup(ctx, fact.Category, fact.Key)
		if err != nil {
			return err
		}
		if existing != nil && existing.Confidence > fact.Confidence {
			continue
		}
		fact.Source = "learned:" + in.ConversationID
		if _, err := s.Save(ctx, fact); err != nil {
			return fmt.Errorf("failed to learn %q: %w", fact.Key, err)
		}
		config.DebugLog.Debugf("[Memory] learned %s/%s from %s", fact.Category, fact.Key, in.ConversationID)
	}
	return nil
}

func (s *MemoryStore) lookup(ctx context.Context, category model.MemoryCategory, key string) (*model.MemoryFact, error) {
	row := s.db.db.QueryRowContext(ctx,
		`SELECT `+memoryColumns+` FROM memories WHERE category = ? AND key = ?`, string(category), key)
	f, err := scanMemory(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up memory: %w", err)
	}
	return &f, nil
}
