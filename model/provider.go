package model

import (
	"context"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
)

// Completer abstracts an LLM completion endpoint that supports tool use.
//
// This interface is defined in the model package (not provider package) to avoid
// import cycles: provider implementations import model, and the agent package can
// depend on Completer without importing provider.
type Completer interface {
	// Complete sends one completion request. Tools may be empty.
	Complete(ctx context.Context, messages []ChatMessage, systemPrompt string, tools []mcptypes.Tool, maxTokens int64) (*LLMResponse, error)

	// Model returns the model identifier sent on requests.
	Model() string
}

// Usage is token accounting as reported by the endpoint.
type Usage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
}

// Add returns the element-wise sum of u and o.
func (u Usage) Add(o Usage) Usage {
	return Usage{
		InputTokens:  u.InputTokens + o.InputTokens,
		OutputTokens: u.OutputTokens + o.OutputTokens,
	}
}

// LLMResponse is a parsed completion. A response without ToolCalls is the
// terminal state of a turn.
type LLMResponse struct {
	Content    string
	ToolCalls  []ToolCallIntent
	StopReason string
	Usage      Usage
}

// HasToolCalls reports whether the model asked for tools.
func (r *LLMResponse) HasToolCalls() bool {
	return r != nil && len(r.ToolCalls) > 0
}
