package testutil

import (
	"context"
	"errors"
	"sync"

	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"sol/model"
)

// ErrScriptExhausted is returned when a scripted MockCompleter runs out of
// responses.
var ErrScriptExhausted = errors.New("mock completer: no scripted response left")

// Call is one recorded Complete invocation.
type Call struct {
	Messages     []model.ChatMessage
	SystemPrompt string
	Tools        []string
	MaxTokens    int64
}

// MockCompleter implements model.Completer for testing.
type MockCompleter struct {
	// Configurable responses
	CompleteFunc func(ctx context.Context, messages []model.ChatMessage, systemPrompt string, tools []mcptypes.Tool, maxTokens int64) (*model.LLMResponse, error)

	// State
	mu           sync.Mutex
	currentModel string
	script       []*model.LLMResponse
	calls        []Call
}

// NewMockCompleter creates a mock that replays script in order and fails
// with ErrScriptExhausted afterwards.
func NewMockCompleter(modelName string, script ...*model.LLMResponse) *MockCompleter {
	mock := &MockCompleter{
		currentModel: modelName,
		script:       script,
	}
	mock.CompleteFunc = mock.defaultComplete
	return mock
}

func (m *MockCompleter) defaultComplete(ctx context.Context, messages []model.ChatMessage, systemPrompt string, tools []mcptypes.Tool, maxTokens int64) (*model.LLMResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.script) == 0 {
		return nil, ErrScriptExhausted
	}
	next := m.script[0]
	m.script = m.script[1:]
	return next, nil
}

func (m *MockCompleter) Complete(ctx context.Context, messages []model.ChatMessage, systemPrompt string, tools []mcptypes.Tool, maxTokens int64) (*model.LLMResponse, error) {
	names := make([]string, len(tools))
	for i, t := range tools {
		names[i] = t.Name
	}
	m.mu.Lock()
	m.calls = append(m.calls, Call{
		Messages:     append([]model.ChatMessage(nil), messages...),
		SystemPrompt: systemPrompt,
		Tools:        names,
		MaxTokens:    maxTokens,
	})
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return m.CompleteFunc(ctx, messages, systemPrompt, tools, maxTokens)
}

func (m *MockCompleter) Model() string {
	return m.currentModel
}

// Calls returns every recorded invocation.
func (m *MockCompleter) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}
