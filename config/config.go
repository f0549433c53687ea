package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type SystemConfig struct {
	DataDirectory string `toml:"data_directory"`
}

type LLMConfig struct {
	Provider  string `toml:"provider"`
	Model     string `toml:"model"`
	BaseURL   string `toml:"base_url,omitempty"`
	MaxTokens int64  `toml:"max_tokens"`
}

type AgentConfig struct {
	MaxToolTurns int `toml:"max_tool_turns"`
	HistoryLimit int `toml:"history_limit"`
	Retries      int `toml:"retries"`
}

type CompanionConfig struct {
	URL            string `toml:"url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

type SecurityConfig struct {
	Method     SecurityMethod `toml:"method"`
	SSHKeyPath string         `toml:"ssh_key_path,omitempty"`
}

type UserConfig struct {
	LLM       LLMConfig       `toml:"llm"`
	Agent     AgentConfig     `toml:"agent"`
	Companion CompanionConfig `toml:"companion"`
	Security  SecurityConfig  `toml:"security"`
}

// Config is the resolved configuration after files, .env and environment
// variables have been applied.
type Config struct {
	DataDirectory    string
	Provider         string
	Model            string
	BaseURL          string
	MaxTokens        int64
	MaxToolTurns     int
	HistoryLimit     int
	Retries          int
	CompanionURL     string
	CompanionTimeout time.Duration
	SecurityMethod   SecurityMethod
	SSHKeyPath       string
}

var Debug = false

// DebugLog is a no-op until InitDebugLog enables it, so callers never need a
// nil check.
var DebugLog = zap.NewNop().Sugar()

func (c *Config) DataDir() string {
	return ExpandPath(c.DataDirectory)
}

func (c *Config) applyUserConfig(u *UserConfig) {
	c.Provider = u.LLM.Provider
	c.Model = u.LLM.Model
	c.BaseURL = u.LLM.BaseURL
	if u.LLM.MaxTokens > 0 {
		c.MaxTokens = u.LLM.MaxTokens
	}
	if u.Agent.MaxToolTurns > 0 {
		c.MaxToolTurns = u.Agent.MaxToolTurns
	}
	if u.Agent.HistoryLimit > 0 {
		c.HistoryLimit = u.Agent.HistoryLimit
	}
	c.Retries = u.Agent.Retries
	if u.Companion.URL != "" {
		c.CompanionURL = u.Companion.URL
	}
	if u.Companion.TimeoutSeconds > 0 {
		c.CompanionTimeout = time.Duration(u.Companion.TimeoutSeconds) * time.Second
	}
	if u.Security.Method != "" {
		c.SecurityMethod = u.Security.Method
	}
	c.SSHKeyPath = u.Security.SSHKeyPath
}

func (c *Config) applyEnvOverrides() {
	if provider := os.Getenv("SOL_PROVIDER"); provider != "" {
		c.Provider = provider
	}
	if model := os.Getenv("SOL_MODEL"); model != "" {
		c.Model = model
	}
	if baseURL := os.Getenv("SOL_LLM_BASE_URL"); baseURL != "" {
		c.BaseURL = baseURL
	}
	if apiURL := os.Getenv("SOL_API_URL"); apiURL != "" {
		c.CompanionURL = apiURL
	}
	if turns := os.Getenv("SOL_MAX_TOOL_TURNS"); turns != "" {
		if n, err := strconv.Atoi(turns); err == nil && n > 0 {
			c.MaxToolTurns = n
		}
	}
}

// APIKeyEnvVar names the environment variable holding a provider's credential.
func APIKeyEnvVar(provider string) string {
	switch provider {
	case "openai":
		return "OPENAI_API_KEY"
	default:
		return "ANTHROPIC_API_KEY"
	}
}

// RequiresAPIKey reports whether provider authenticates with an API key.
// A local Ollama server does not.
func RequiresAPIKey(provider string) bool {
	return provider != "ollama"
}

// APIKey resolves the credential for the configured provider. The
// environment wins over the credential store; creds may be nil.
func (c *Config) APIKey(creds *CredentialStore) string {
	if key := os.Getenv(APIKeyEnvVar(c.Provider)); key != "" {
		return key
	}
	if creds == nil {
		return ""
	}
	return creds.Get(c.Provider)
}

func CheckDebug() bool {
	debug := os.Getenv("SOL_DEBUG")
	return debug == "true" || debug == "1"
}

func InitDebugLog(dataDir string) {
	if !CheckDebug() {
		return
	}

	logPath := filepath.Join(dataDir, "debug.log")

	// 0600: prompts and tool payloads end up in here
	f, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not open debug log at %s: %v\n", logPath, err)
		return
	}

	encoderCfg := zap.NewDevelopmentEncoderConfig()
	encoderCfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000000")
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), zapcore.AddSync(f), zapcore.DebugLevel)

	Debug = true
	DebugLog = zap.New(core, zap.AddCaller()).Sugar()
	DebugLog.Debugf("=== Debug logging started (SOL_DEBUG=%s) ===", os.Getenv("SOL_DEBUG"))
	DebugLog.Debugf("Log path: %s", logPath)
}

// CloseDebugLog flushes buffered log entries.
func CloseDebugLog() {
	_ = DebugLog.Sync()
}

// Load resolves configuration: .env files, settings.toml, the user config in
// the data directory, then environment overrides.
func Load() (*Config, error) {
	LoadDotEnv(".")

	systemCfg, err := LoadSystemConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load system config: %w", err)
	}

	cfg := defaultConfig()
	cfg.DataDirectory = systemCfg.DataDirectory
	if dataDir := os.Getenv("SOL_DATA_DIR"); dataDir != "" {
		cfg.DataDirectory = dataDir
	}

	dataDir := cfg.DataDir()
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := EnsureDataDirPermissions(dataDir); err != nil {
		return nil, fmt.Errorf("failed to set data directory permissions: %w", err)
	}

	LoadDotEnv(dataDir)

	userCfg, err := LoadUserConfig(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	}
	cfg.applyUserConfig(userCfg)
	cfg.applyEnvOverrides()

	return cfg, nil
}
