package provider

import (
	"context"
	"errors"
	"net/http"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"sol/config"
	"sol/model"
	"sol/tools"
)

const (
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	DefaultOpenAIModel   = "gpt-4o-mini"
)

// OpenAIProvider implements model.Completer for OpenAI-compatible chat
// completion endpoints.
type OpenAIProvider struct {
	client  openai.Client
	model   string
	baseURL string
	apiKey  string
}

// NewOpenAIProvider creates a new OpenAI provider instance.
//
// Parameters:
//   - baseURL: OpenAI API base URL (default: "https://api.openai.com/v1")
//   - apiKey: OpenAI API key; may be empty, Complete then fails with ErrMissingCredential
//   - model: Model to use (default: "gpt-4o-mini")
func NewOpenAIProvider(baseURL, apiKey, model string) *OpenAIProvider {
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}
	if model == "" {
		model = DefaultOpenAIModel
	}

	client := openai.NewClient(
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
		option.WithMiddleware(func(req *http.Request, next option.MiddlewareNext) (*http.Response, error) {
			return classifyExchange("OpenAI", req, next, requireArray("choices"))
		}),
	)

	return &OpenAIProvider{
		client:  client,
		model:   model,
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

// Complete implements model.Completer.
func (p *OpenAIProvider) Complete(ctx context.Context, messages []model.ChatMessage, systemPrompt string, catalogue []mcptypes.Tool, maxTokens int64) (*model.LLMResponse, error) {
	if p.apiKey == "" {
		return nil, ErrMissingCredential
	}
	if maxTokens <= 0 {
		maxTokens = config.DefaultMaxTokens
	}

	params := openai.ChatCompletionNewParams{
		Model:               openai.ChatModel(p.model),
		Messages:            convertToOpenAIMessages(systemPrompt, PrepareHistory(messages)),
		MaxCompletionTokens: openai.Int(maxTokens),
	}
	if len(catalogue) > 0 {
		params.Tools = tools.ToOpenAI(catalogue)
	}

	config.DebugLog.Debugf("[OpenAI] POST /chat/completions model=%s messages=%d tools=%d", p.model, len(params.Messages), len(params.Tools))

	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, classifyError(err, openAIStatus)
	}

	resp, err := convertFromOpenAICompletion(completion)
	if err != nil {
		return nil, err
	}
	config.DebugLog.Debugf("[OpenAI] finish_reason=%s tool_calls=%d usage=%d/%d",
		resp.StopReason, len(resp.ToolCalls), resp.Usage.InputTokens, resp.Usage.OutputTokens)
	return resp, nil
}

// Model implements model.Completer.
func (p *OpenAIProvider) Model() string {
	return p.model
}

func openAIStatus(err error) (int, string, bool) {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode, apiErr.Error(), true
	}
	return 0, "", false
}
