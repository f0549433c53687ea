package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"sol/config"
)

const (
	Version = "v0.01.00"
	License = "Apache-2.0"
)

var (
	// Global flags
	dataDirFlag  string
	providerFlag string
	modelFlag    string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "sol",
	Short: "Sol - a context-aware personal assistant",
	Long: `Sol answers messages using what it knows about you: remembered facts,
contacts, recent clipboard items and notes, and your current work context
from the companion service. It can call tools to look things up, save new
memories and manage your calendar.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if dataDirFlag != "" {
			os.Setenv("SOL_DATA_DIR", dataDirFlag)
		}
		if providerFlag != "" {
			os.Setenv("SOL_PROVIDER", providerFlag)
		}
		if modelFlag != "" {
			os.Setenv("SOL_MODEL", modelFlag)
		}

		loaded, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded

		// Initialize debug logging after config is loaded
		config.InitDebugLog(cfg.DataDir())
		config.DebugLog.Debugf("[Main] sol %s starting, data dir %s", Version, cfg.DataDir())
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		config.CloseDebugLog()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "", "Data directory (overrides SOL_DATA_DIR)")
	rootCmd.PersistentFlags().StringVar(&providerFlag, "provider", "", "LLM provider: anthropic, openai or ollama")
	rootCmd.PersistentFlags().StringVar(&modelFlag, "model", "", "Model name for the provider")

	rootCmd.AddCommand(
		runCmd,
		conversationsCmd,
		memoryCmd,
		contactsCmd,
		contextCmd,
		meetingPrepCmd,
		healthCmd,
		configCmd,
		credentialsCmd,
	)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
