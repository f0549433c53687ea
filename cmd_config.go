package main

import (
	"fmt"
	"slices"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"sol/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the resolved configuration",
	Long: `Print the configuration after settings.toml, the data directory's
config.toml, .env files and SOL_* environment variables have been applied.`,
	RunE: runConfig,
}

var credentialsCmd = &cobra.Command{
	Use:   "credentials",
	Short: "Manage stored provider API keys",
	RunE:  runCredentialsList,
}

var credentialsSetCmd = &cobra.Command{
	Use:   "set <provider> <api-key>",
	Short: "Store an API key for a provider",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return updateCredentials(func(creds *config.CredentialStore) {
			creds.Set(args[0], args[1])
		})
	},
}

var credentialsDeleteCmd = &cobra.Command{
	Use:   "delete <provider>",
	Short: "Remove a stored API key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return updateCredentials(func(creds *config.CredentialStore) {
			creds.Delete(args[0])
		})
	},
}

func init() {
	credentialsCmd.AddCommand(credentialsSetCmd, credentialsDeleteCmd)
}

func runConfig(cmd *cobra.Command, args []string) error {
	resolved := config.UserConfig{
		LLM: config.LLMConfig{
			Provider:  cfg.Provider,
			Model:     cfg.Model,
			BaseURL:   cfg.BaseURL,
			MaxTokens: cfg.MaxTokens,
		},
		Agent: config.AgentConfig{
			MaxToolTurns: cfg.MaxToolTurns,
			HistoryLimit: cfg.HistoryLimit,
		},
		Companion: config.CompanionConfig{
			URL:            cfg.CompanionURL,
			TimeoutSeconds: int(cfg.CompanionTimeout.Seconds()),
		},
		Security: config.SecurityConfig{
			Method:     cfg.SecurityMethod,
			SSHKeyPath: cfg.SSHKeyPath,
		},
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "# data directory: %s\n", cfg.DataDir())
	fmt.Fprintf(out, "# settings: %s\n\n", config.GetSettingsFilePath())
	return toml.NewEncoder(out).Encode(resolved)
}

func runCredentialsList(cmd *cobra.Command, args []string) error {
	creds, err := loadCredentials(cfg)
	if err != nil {
		return err
	}

	providers := creds.Providers()
	slices.Sort(providers)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "security method: %s\n", creds.Method())
	if len(providers) == 0 {
		fmt.Fprintln(out, "No stored credentials.")
		return nil
	}
	for _, p := range providers {
		fmt.Fprintf(out, "%-10s %s\n", p, maskKey(creds.Get(p)))
	}
	return nil
}

func updateCredentials(edit func(*config.CredentialStore)) error {
	creds, err := loadCredentials(cfg)
	if err != nil {
		return err
	}
	edit(creds)
	if err := creds.Save(cfg.DataDir()); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}
	return nil
}

func maskKey(key string) string {
	if len(key) <= 8 {
		return "********"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
