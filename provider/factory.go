package provider

import (
	"fmt"

	"sol/config"
	"sol/model"
)

// NewProvider creates a completer based on configuration.
//
// Supported provider types:
//   - ProviderTypeAnthropic: Anthropic Messages API
//   - ProviderTypeOpenAI: OpenAI or any OpenAI-compatible endpoint
//   - ProviderTypeOllama: a local Ollama server, no API key
//
// An empty APIKey is accepted here; the provider reports
// ErrMissingCredential on its first Complete call.
func NewProvider(cfg Config) (model.Completer, error) {
	switch cfg.Type {
	case ProviderTypeAnthropic:
		return NewAnthropicProvider(cfg.BaseURL, cfg.APIKey, cfg.Model), nil
	case ProviderTypeOpenAI:
		return NewOpenAIProvider(cfg.BaseURL, cfg.APIKey, cfg.Model), nil
	case ProviderTypeOllama:
		return NewOllamaProvider(cfg.BaseURL, cfg.Model)
	default:
		return nil, fmt.Errorf("unknown provider type: %s", cfg.Type)
	}
}

// MapProviderIDToType converts a config provider ID to a ProviderType.
// Unknown IDs are passed through and rejected by NewProvider.
func MapProviderIDToType(id string) ProviderType {
	switch id {
	case "anthropic", "claude":
		return ProviderTypeAnthropic
	case "openai":
		return ProviderTypeOpenAI
	case "ollama":
		return ProviderTypeOllama
	default:
		return ProviderType(id)
	}
}

// FromConfig builds the configured completer, resolving the API key from the
// environment or the credential store.
func FromConfig(cfg *config.Config, creds *config.CredentialStore) (model.Completer, error) {
	p, err := NewProvider(Config{
		Type:    MapProviderIDToType(cfg.Provider),
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
		APIKey:  cfg.APIKey(creds),
	})
	if err != nil {
		return nil, err
	}
	config.DebugLog.Debugf("[Provider] Initialized %s with model %s", cfg.Provider, p.Model())
	return p, nil
}
