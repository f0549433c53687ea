package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"sol/agent"
	"sol/config"
	"sol/provider"
)

var (
	conversationFlag string
	newConversation  bool
	metricsAddr      string
	showUsage        bool
	retries          int
)

var runCmd = &cobra.Command{
	Use:   "run [message]",
	Short: "Send a message to Sol",
	Long: `Send a message and print Sol's reply.

With a message argument a single turn is processed. Without one, messages
are read line by line from stdin until EOF. The conversation continues the
last one used unless --new or --conversation is given.`,
	RunE: runMessage,
}

func init() {
	runCmd.Flags().StringVarP(&conversationFlag, "conversation", "c", "", "Conversation id to continue")
	runCmd.Flags().BoolVar(&newConversation, "new", false, "Start a new conversation")
	runCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9464)")
	runCmd.Flags().BoolVar(&showUsage, "usage", false, "Print token usage after each reply")
	runCmd.Flags().IntVar(&retries, "retries", 0, "Retry a failed completion this many times on network, rate limit or server errors (overrides agent.retries)")
}

func runMessage(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := openApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	if cmd.Flags().Changed("retries") {
		a.cfg.Retries = retries
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	engine, err := a.engine(reg)
	if err != nil {
		return err
	}
	defer engine.Wait()

	if metricsAddr != "" {
		stop := serveMetrics(metricsAddr, reg)
		defer stop()
	}

	convID, err := startingConversation(a)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(args) > 0 {
		_, err := sendMessage(ctx, engine, a, out, strings.Join(args, " "), convID)
		return err
	}

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		id, err := sendMessage(ctx, engine, a, out, line, convID)
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			continue
		}
		convID = id
	}
	return scanner.Err()
}

func startingConversation(a *app) (string, error) {
	switch {
	case newConversation:
		return "", nil
	case conversationFlag != "":
		return conversationFlag, nil
	}
	id, err := a.convs.LoadCurrentID()
	if err != nil {
		return "", fmt.Errorf("failed to load current conversation: %w", err)
	}
	return id, nil
}

func sendMessage(ctx context.Context, engine *agent.Engine, a *app, out io.Writer, text, convID string) (string, error) {
	res, err := engine.ProcessMessage(ctx, text, convID)
	if err != nil {
		if errors.Is(err, provider.ErrMissingCredential) {
			return "", fmt.Errorf("%w: set %s or run 'sol credentials set %s <key>'",
				err, config.APIKeyEnvVar(a.cfg.Provider), a.cfg.Provider)
		}
		return "", err
	}

	if err := a.convs.SaveCurrentID(res.Conversation.ID); err != nil {
		config.DebugLog.Warnf("[Main] failed to save current conversation: %v", err)
	}

	fmt.Fprintln(out, res.Reply.Content)
	if showUsage {
		fmt.Fprintf(out, "[%s] %d in / %d out tokens, %d tool turns\n",
			res.Conversation.ID, res.Usage.InputTokens, res.Usage.OutputTokens, res.ToolTurns)
	}
	return res.Conversation.ID, nil
}

// serveMetrics starts the metrics listener and returns a func that shuts it
// down.
func serveMetrics(addr string, reg *prometheus.Registry) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", agent.Handler(reg))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(os.Stderr, "Warning: metrics server stopped: %v\n", err)
		}
	}()
	config.DebugLog.Infof("[Main] serving metrics on %s/metrics", addr)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
