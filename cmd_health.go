package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"sol/config"
)

var healthTimeout time.Duration

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the provider credential, the database and the companion service",
	RunE:  runHealth,
}

func init() {
	healthCmd.Flags().DurationVar(&healthTimeout, "timeout", 5*time.Second, "Timeout for all checks")
}

type healthCheck struct {
	name string
	run  func(ctx context.Context) error
}

func runHealth(cmd *cobra.Command, args []string) error {
	a, err := openApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	checks := []healthCheck{
		{"credential", func(ctx context.Context) error {
			if !config.RequiresAPIKey(a.cfg.Provider) {
				return nil
			}
			creds, err := loadCredentials(a.cfg)
			if err != nil {
				return err
			}
			if a.cfg.APIKey(creds) == "" {
				return fmt.Errorf("no API key for %s (set %s)", a.cfg.Provider, config.APIKeyEnvVar(a.cfg.Provider))
			}
			return nil
		}},
		{"database", func(ctx context.Context) error {
			_, err := a.db.Memories().MostUsed(ctx, 1)
			return err
		}},
		{"companion", a.companion.Health},
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), healthTimeout)
	defer cancel()

	results := make([]error, len(checks))
	g, gctx := errgroup.WithContext(ctx)
	for i, check := range checks {
		g.Go(func() error {
			results[i] = check.run(gctx)
			return nil
		})
	}
	_ = g.Wait()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "provider   %s (%s)\n", a.cfg.Provider, a.cfg.Model)
	fmt.Fprintf(out, "companion  %s\n\n", a.companion.BaseURL())
	for i, check := range checks {
		if results[i] != nil {
			fmt.Fprintf(out, "FAIL  %-10s %v\n", check.name, results[i])
			continue
		}
		fmt.Fprintf(out, "ok    %s\n", check.name)
	}
	return errors.Join(results...)
}
