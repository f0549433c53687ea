package model

import (
	"context"
	"errors"
	"time"
)

// ErrConversationNotFound is returned by ConversationStore.Load for unknown ids.
var ErrConversationNotFound = errors.New("conversation not found")

// ConversationStore persists conversations turn by turn.
type ConversationStore interface {
	Load(ctx context.Context, id string) (*Conversation, error)
	// Create starts an empty conversation. An empty id asks the store to
	// generate one.
	Create(ctx context.Context, id string) (*Conversation, error)
	Append(ctx context.Context, conversationID string, msg ChatMessage) error
	SetTitle(ctx context.Context, conversationID, title string) error
}

// MemoryStore holds remembered facts. Usage counters are advisory and
// last-write-wins.
type MemoryStore interface {
	Query(ctx context.Context, q MemoryQuery) ([]MemoryFact, error)
	MostUsed(ctx context.Context, limit int) ([]MemoryFact, error)
	RecordUsage(ctx context.Context, id string) error
	Save(ctx context.Context, fact MemoryFact) (*MemoryFact, error)
	LearnFromInteraction(ctx context.Context, in Interaction) error
}

// ContactStore finds people by name.
type ContactStore interface {
	FindByName(ctx context.Context, name string) ([]Contact, error)
}

// ClipboardStore exposes recent clipboard captures.
type ClipboardStore interface {
	Recent(ctx context.Context, n int) ([]ClipboardEntry, error)
}

// ContextSearcher runs free-text searches over captured context.
type ContextSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]ContextHit, error)
}

// WorkContextProvider describes what the user is currently working on.
// An empty string means nothing is known.
type WorkContextProvider interface {
	WorkContext(ctx context.Context) (string, error)
}

// CalendarEvent is an event on the user's calendar.
type CalendarEvent struct {
	ID        string    `json:"id,omitempty"`
	Title     string    `json:"title"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Attendees []string  `json:"attendees,omitempty"`
	Location  string    `json:"location,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	Calendar  string    `json:"calendar,omitempty"`
	// External is set by the companion when someone outside the user's
	// organisation attends.
	External bool `json:"is_external,omitempty"`
}

// AvailabilityRequest asks whether a slot is free. A zero Start checks the
// whole day.
type AvailabilityRequest struct {
	Date     time.Time
	Start    time.Time
	Duration time.Duration
}

// Availability is the answer to an AvailabilityRequest.
type Availability struct {
	Date      string          `json:"date"`
	Available bool            `json:"available"`
	Conflicts []CalendarEvent `json:"conflicts"`
	Events    []CalendarEvent `json:"events"`
}

// CalendarExecutor is the calendar sub-component used by the calendar tools.
type CalendarExecutor interface {
	CheckAvailability(ctx context.Context, req AvailabilityRequest) (*Availability, error)
	CreateEvent(ctx context.Context, event CalendarEvent) (*CalendarEvent, error)
}

// EventLister lists the events on one day.
type EventLister interface {
	Events(ctx context.Context, day time.Time) ([]CalendarEvent, error)
}

type ActionType string

const (
	ActionMeetingBrief    ActionType = "meeting_brief"
	ActionEmailDraft      ActionType = "email_draft"
	ActionResearchSummary ActionType = "research_summary"
	ActionReminder        ActionType = "reminder"
	ActionOther           ActionType = "other"
)

// Action is an item submitted to the companion's review queue. The user
// approves or dismisses it there.
type Action struct {
	Type              ActionType
	Title             string
	Summary           string
	DraftContent      string
	RelatedEventID    string
	RelatedEventTitle string
	ActionURL         string
}

// ActionSink accepts actions for review and returns the queued id.
type ActionSink interface {
	CreateAction(ctx context.Context, action Action) (string, error)
}
