// Package provider implements model.Completer against hosted LLM endpoints.
//
// Sol talks to a completion service through one narrow contract: send the
// conversation window, a system prompt and a tool catalogue, get back the
// reply text plus any tool-call intents. Each provider owns the conversion
// between Sol's turns and its wire format.
//
// # Turn Conversions
//
// The stored conversation has three roles (user, assistant, tool). The
// Anthropic Messages API has no tool role, so tool turns are sent as user
// messages carrying tool_result blocks. OpenAI-compatible endpoints get
// genuine tool role messages keyed by call id. Ollama has no call ids at
// all: ids are minted on receipt and results are replayed by position.
// See conversions.go.
//
// # Errors
//
// Every failure returned by Complete is one of:
//   - ErrMissingCredential: no API key is configured (never for Ollama)
//   - *TransportError: the request produced no HTTP response
//   - *ProtocolError: a non-2xx status, body kept verbatim
//   - *MalformedResponseError: a 2xx body of the wrong shape
//
// Nothing is retried inside the client.
//
// # Usage
//
//	p, err := provider.NewProvider(provider.Config{
//	    Type:   provider.ProviderTypeAnthropic,
//	    Model:  "claude-sonnet-4-20250514",
//	    APIKey: os.Getenv("ANTHROPIC_API_KEY"),
//	})
//	if err != nil {
//	    // handle error
//	}
//	resp, err := p.Complete(ctx, conv.Messages, provider.BuildSystemPrompt(ac), tools.All(), 4096)
package provider

// Note: The Completer interface is defined in the model package
// (model/provider.go) to avoid import cycles. This package implements it.

// ProviderType identifies the provider implementation.
type ProviderType string

const (
	ProviderTypeAnthropic ProviderType = "anthropic"
	ProviderTypeOpenAI    ProviderType = "openai"
	ProviderTypeOllama    ProviderType = "ollama"
)

// Config holds provider-specific configuration.
type Config struct {
	Type    ProviderType
	BaseURL string
	Model   string
	APIKey  string
}
