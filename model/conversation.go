package model

import "time"

// Role identifies who produced a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	// RoleTool carries tool outcomes. The wire protocol has no tool role, so
	// providers re-map it when building requests.
	RoleTool Role = "tool"
)

// Label returns the capitalised role name used in history summaries.
func (r Role) Label() string {
	switch r {
	case RoleUser:
		return "User"
	case RoleAssistant:
		return "Assistant"
	case RoleTool:
		return "Tool"
	default:
		return string(r)
	}
}

// ConversationStatus is the lifecycle state of a conversation.
type ConversationStatus string

const (
	ConversationActive   ConversationStatus = "active"
	ConversationArchived ConversationStatus = "archived"
)

// ChatMessage is one appended turn of a conversation.
type ChatMessage struct {
	ID          string           `json:"id"`
	Role        Role             `json:"role"`
	Content     string           `json:"content"`
	ToolCalls   []ToolCallIntent `json:"tool_calls,omitempty"`
	ToolResults []ToolOutcome    `json:"tool_results,omitempty"`
	Timestamp   time.Time        `json:"timestamp"`
}

// Conversation is an ordered, append-only list of turns.
type Conversation struct {
	ID        string             `json:"id"`
	Title     string             `json:"title,omitempty"`
	Status    ConversationStatus `json:"status"`
	Messages  []ChatMessage      `json:"messages"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// LastMessages returns at most n trailing turns. The returned slice shares
// storage with the conversation and must not be modified.
func (c *Conversation) LastMessages(n int) []ChatMessage {
	if c == nil || n <= 0 {
		return nil
	}
	if len(c.Messages) <= n {
		return c.Messages
	}
	return c.Messages[len(c.Messages)-n:]
}

// FirstUserMessage returns the content of the earliest user turn.
func (c *Conversation) FirstUserMessage() (string, bool) {
	if c == nil {
		return "", false
	}
	for _, msg := range c.Messages {
		if msg.Role == RoleUser {
			return msg.Content, true
		}
	}
	return "", false
}

// ToolCallIntent is the model's request to run a named tool.
type ToolCallIntent struct {
	ID            string `json:"id"`
	ToolName      string `json:"tool_name"`
	ArgumentsJSON string `json:"arguments"`
}

// ToolOutcome answers exactly one ToolCallIntent, matched by ToolCallID.
type ToolOutcome struct {
	ToolCallID string `json:"tool_call_id"`
	ResultJSON string `json:"result"`
	Success    bool   `json:"success"`
}
