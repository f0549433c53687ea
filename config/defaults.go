package config

import "time"

const (
	DefaultProvider     = "anthropic"
	DefaultModel        = "claude-sonnet-4-20250514"
	DefaultMaxTokens    = 4096
	DefaultMaxToolTurns = 8
	DefaultHistoryLimit = 20
	DefaultCompanionURL = "http://localhost:7654"
)

func DefaultSystemConfig() *SystemConfig {
	return &SystemConfig{
		DataDirectory: "~/.local/share/sol",
	}
}

func DefaultUserConfig() *UserConfig {
	return &UserConfig{
		LLM: LLMConfig{
			Provider:  DefaultProvider,
			Model:     DefaultModel,
			MaxTokens: DefaultMaxTokens,
		},
		Agent: AgentConfig{
			MaxToolTurns: DefaultMaxToolTurns,
			HistoryLimit: DefaultHistoryLimit,
		},
		Companion: CompanionConfig{
			URL:            DefaultCompanionURL,
			TimeoutSeconds: 30,
		},
		Security: SecurityConfig{
			Method: SecurityPlainText,
		},
	}
}

func defaultConfig() *Config {
	return &Config{
		DataDirectory:    DefaultSystemConfig().DataDirectory,
		Provider:         DefaultProvider,
		Model:            DefaultModel,
		MaxTokens:        DefaultMaxTokens,
		MaxToolTurns:     DefaultMaxToolTurns,
		HistoryLimit:     DefaultHistoryLimit,
		CompanionURL:     DefaultCompanionURL,
		CompanionTimeout: 30 * time.Second,
		SecurityMethod:   SecurityPlainText,
	}
}

func GenerateSystemConfigTemplate() string {
	return `# Sol System Configuration
# Location: ~/.config/sol/settings.toml
# This file uses TOML format: https://toml.io

# Directory where conversations, the memory database and user config are stored
data_directory = "~/.local/share/sol"
`
}

func GenerateUserConfigTemplate() string {
	return `# Sol User Configuration
# Location: <data_directory>/config.toml
# This file uses TOML format: https://toml.io

[llm]
# "anthropic", "openai" (any OpenAI-compatible endpoint) or "ollama"
provider = "anthropic"
model = "claude-sonnet-4-20250514"

# Leave empty for the provider's public endpoint
base_url = ""

max_tokens = 4096

[agent]
# Tool round-trips allowed per message before the turn is aborted
max_tool_turns = 8

# Conversation turns sent with every completion request
history_limit = 20

# Extra attempts after a network failure, rate limit or server error
retries = 0

[companion]
# Local companion service (work context, calendar)
url = "http://localhost:7654"
timeout_seconds = 30

[security]
# "plaintext" (credentials.toml) or "ssh_key" (credentials.enc)
method = "plaintext"
ssh_key_path = ""
`
}
