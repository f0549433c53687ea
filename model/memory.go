package model

import "time"

// MemoryCategory classifies a remembered fact about the user.
type MemoryCategory string

const (
	MemoryUserPreference     MemoryCategory = "userPreference"
	MemoryWorkPattern        MemoryCategory = "workPattern"
	MemoryRelationship       MemoryCategory = "relationship"
	MemoryProjectContext     MemoryCategory = "projectContext"
	MemoryPersonalFact       MemoryCategory = "personalFact"
	MemoryCommunicationStyle MemoryCategory = "communicationStyle"
)

var memoryCategories = []MemoryCategory{
	MemoryUserPreference,
	MemoryWorkPattern,
	MemoryRelationship,
	MemoryProjectContext,
	MemoryPersonalFact,
	MemoryCommunicationStyle,
}

// MemoryCategories returns the live category vocabulary in declaration order.
// Tool schemas build their enums from this list.
func MemoryCategories() []MemoryCategory {
	out := make([]MemoryCategory, len(memoryCategories))
	copy(out, memoryCategories)
	return out
}

// ParseMemoryCategory validates s against the live vocabulary.
func ParseMemoryCategory(s string) (MemoryCategory, bool) {
	for _, c := range memoryCategories {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// MemoryFact is a single remembered key/value fact.
type MemoryFact struct {
	ID         string         `json:"id"`
	Category   MemoryCategory `json:"category"`
	Key        string         `json:"key"`
	Value      string         `json:"value"`
	Confidence float64        `json:"confidence"`
	Source     string         `json:"source,omitempty"`
	UsageCount int            `json:"usage_count"`
	CreatedAt  time.Time      `json:"created_at"`
	LastUsedAt time.Time      `json:"last_used_at,omitempty"`
}

// MemoryQuery selects facts matching any of Keywords.
type MemoryQuery struct {
	Keywords      []string
	Category      MemoryCategory // empty matches all categories
	MinConfidence float64
	Limit         int
}

// Interaction is one completed user/assistant exchange, handed to the
// memory store so it can learn from it.
type Interaction struct {
	ConversationID string
	UserText       string
	AssistantText  string
	Intent         QueryIntent
}
