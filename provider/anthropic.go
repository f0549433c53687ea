package provider

import (
	"context"
	"errors"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"sol/config"
	"sol/model"
	"sol/tools"
)

const (
	DefaultAnthropicBaseURL = "https://api.anthropic.com"
	DefaultAnthropicModel   = "claude-sonnet-4-20250514"
)

// AnthropicProvider implements model.Completer using Anthropic's official API.
// It uses the official Anthropic Go SDK against the Messages endpoint.
type AnthropicProvider struct {
	client  *anthropic.Client
	model   anthropic.Model
	baseURL string
	apiKey  string
}

// NewAnthropicProvider creates a new Anthropic provider instance.
//
// Parameters:
//   - baseURL: Anthropic API base URL (default: "https://api.anthropic.com")
//   - apiKey: Anthropic API key; may be empty, Complete then fails with ErrMissingCredential
//   - model: Model to use (default: "claude-sonnet-4-20250514")
//
// The SDK's silent retries are disabled; callers decide whether to retry.
func NewAnthropicProvider(baseURL, apiKey, model string) *AnthropicProvider {
	if baseURL == "" {
		baseURL = DefaultAnthropicBaseURL
	}
	if model == "" {
		model = DefaultAnthropicModel
	}

	client := anthropic.NewClient(
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
		option.WithMiddleware(func(req *http.Request, next option.MiddlewareNext) (*http.Response, error) {
			return classifyExchange("Anthropic", req, next, requireArray("content"))
		}),
	)

	return &AnthropicProvider{
		client:  &client,
		model:   anthropic.Model(model),
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

// Complete implements model.Completer.
func (p *AnthropicProvider) Complete(ctx context.Context, messages []model.ChatMessage, systemPrompt string, catalogue []mcptypes.Tool, maxTokens int64) (*model.LLMResponse, error) {
	if p.apiKey == "" {
		return nil, ErrMissingCredential
	}
	if maxTokens <= 0 {
		maxTokens = config.DefaultMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     p.model,
		MaxTokens: maxTokens,
		Messages:  convertToAnthropicMessages(PrepareHistory(messages)),
	}
	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: systemPrompt}}
	}
	if len(catalogue) > 0 {
		params.Tools = tools.ToAnthropic(catalogue)
	}

	config.DebugLog.Debugf("[Anthropic] POST /v1/messages model=%s messages=%d tools=%d", p.model, len(params.Messages), len(params.Tools))

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, classifyError(err, anthropicStatus)
	}

	resp := convertFromAnthropicMessage(msg)
	config.DebugLog.Debugf("[Anthropic] stop_reason=%s tool_calls=%d usage=%d/%d",
		resp.StopReason, len(resp.ToolCalls), resp.Usage.InputTokens, resp.Usage.OutputTokens)
	return resp, nil
}

// Model implements model.Completer.
func (p *AnthropicProvider) Model() string {
	return string(p.model)
}

func anthropicStatus(err error) (int, string, bool) {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode, apiErr.Error(), true
	}
	return 0, "", false
}
