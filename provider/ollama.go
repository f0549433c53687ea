package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	mcptypes "github.com/mark3labs/mcp-go/mcp"
	"github.com/ollama/ollama/api"

	"sol/config"
	"sol/model"
	"sol/tools"
)

const (
	DefaultOllamaBaseURL = "http://localhost:11434"
	DefaultOllamaModel   = "llama3.1:latest"
)

// OllamaProvider implements model.Completer against a local Ollama server.
//
// Ollama's chat API carries no tool-call ids. Each returned call gets a
// fresh id, and stored outcomes are replayed as tool messages in the order
// of the calls they answer.
type OllamaProvider struct {
	client  *api.Client
	model   string
	baseURL string
	newID   func() string
}

// NewOllamaProvider creates a provider for the server at baseURL
// (default "http://localhost:11434"). No API key is needed.
func NewOllamaProvider(baseURL, model string) (*OllamaProvider, error) {
	if baseURL == "" {
		baseURL = DefaultOllamaBaseURL
	}
	if model == "" {
		model = DefaultOllamaModel
	}

	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Ollama URL: %w", err)
	}

	httpClient := &http.Client{Transport: classifyingTransport{component: "Ollama", check: requireObject("message")}}

	return &OllamaProvider{
		client:  api.NewClient(parsedURL, httpClient),
		model:   model,
		baseURL: baseURL,
		newID:   uuid.NewString,
	}, nil
}

// Complete implements model.Completer.
func (p *OllamaProvider) Complete(ctx context.Context, messages []model.ChatMessage, systemPrompt string, catalogue []mcptypes.Tool, maxTokens int64) (*model.LLMResponse, error) {
	if maxTokens <= 0 {
		maxTokens = config.DefaultMaxTokens
	}

	stream := false
	req := &api.ChatRequest{
		Model:    p.model,
		Messages: convertToOllamaMessages(systemPrompt, PrepareHistory(messages)),
		Stream:   &stream,
		Options:  map[string]any{"num_predict": maxTokens},
	}
	if len(catalogue) > 0 {
		req.Tools = tools.ToOllama(catalogue)
	}

	config.DebugLog.Debugf("[Ollama] POST /api/chat model=%s messages=%d tools=%d", p.model, len(req.Messages), len(req.Tools))

	var final *api.ChatResponse
	err := p.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		final = &resp
		return nil
	})
	if err != nil {
		return nil, classifyError(err, ollamaStatus)
	}
	if final == nil {
		return nil, &MalformedResponseError{Reason: "empty chat response"}
	}

	resp := convertFromOllamaResponse(final, p.newID)
	config.DebugLog.Debugf("[Ollama] done_reason=%s tool_calls=%d usage=%d/%d",
		resp.StopReason, len(resp.ToolCalls), resp.Usage.InputTokens, resp.Usage.OutputTokens)
	return resp, nil
}

// Model implements model.Completer.
func (p *OllamaProvider) Model() string {
	return p.model
}

func ollamaStatus(err error) (int, string, bool) {
	var statusErr api.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode, statusErr.ErrorMessage, true
	}
	return 0, "", false
}

// classifyingTransport runs every request through classifyExchange for
// clients that take an *http.Client rather than middleware.
type classifyingTransport struct {
	component string
	check     shapeCheck
}

func (t classifyingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return classifyExchange(t.component, req, http.DefaultTransport.RoundTrip, t.check)
}
