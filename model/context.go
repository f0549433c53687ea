package model

import "time"

// IntentType is the coarse classification of a user utterance.
type IntentType string

const (
	IntentScheduleMeeting   IntentType = "scheduleMeeting"
	IntentSendCommunication IntentType = "sendCommunication"
	IntentSearchInformation IntentType = "searchInformation"
	IntentCreateContent     IntentType = "createContent"
	IntentManageTask        IntentType = "manageTask"
	IntentGeneral           IntentType = "general"
)

// ExtractedEntities holds de-duplicated entity sets in first-seen order.
type ExtractedEntities struct {
	Keywords  []string `json:"keywords"`
	Names     []string `json:"names"`
	Dates     []string `json:"dates"`
	Locations []string `json:"locations"`
}

// QueryIntent is derived once per utterance.
type QueryIntent struct {
	Type              IntentType        `json:"type"`
	Entities          ExtractedEntities `json:"entities"`
	RequiresTools     bool              `json:"requires_tools"`
	RequiresClipboard bool              `json:"requires_clipboard"`
}

// Contact is a person known to the contacts store.
type Contact struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email,omitempty"`
	Phone           string    `json:"phone,omitempty"`
	Company         string    `json:"company,omitempty"`
	Title           string    `json:"title,omitempty"`
	Notes           string    `json:"notes,omitempty"`
	LastInteraction time.Time `json:"last_interaction,omitempty"`
}

// ClipboardEntry is one captured clipboard item.
type ClipboardEntry struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	SourceApp string    `json:"source_app,omitempty"`
	CopiedAt  time.Time `json:"copied_at"`
}

// ContextHit is a single result of a free-text context search.
type ContextHit struct {
	Source    string    `json:"source"`
	Title     string    `json:"title,omitempty"`
	Snippet   string    `json:"snippet"`
	Timestamp time.Time `json:"timestamp"`
}

// AssembledContext is the bounded snapshot handed to the protocol client for
// one turn. It is built fresh per turn and passed by value.
type AssembledContext struct {
	UserQuery           string
	Intent              QueryIntent
	Memories            []MemoryFact
	Contacts            []Contact
	WorkContext         string
	ClipboardContext    string
	ConversationHistory string
	Timestamp           time.Time
}
