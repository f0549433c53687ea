package main

import (
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"sol/agent"
	"sol/assembler"
	"sol/briefing"
	"sol/companion"
	"sol/config"
	"sol/provider"
	"sol/storage"
	"sol/tools"
)

// app holds the opened stores for one command invocation.
type app struct {
	cfg       *config.Config
	db        *storage.DB
	convs     *storage.ConversationStorage
	context   *storage.ContextStore
	companion *companion.Client
}

func openApp(cfg *config.Config) (*app, error) {
	dataDir := cfg.DataDir()

	db, err := storage.Open(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	convs, err := storage.NewConversationStorage(dataDir)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize conversation storage: %w", err)
	}

	client, err := companion.NewClient(cfg.CompanionURL, cfg.CompanionTimeout)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &app{
		cfg:       cfg,
		db:        db,
		convs:     convs,
		context:   db.Context(storage.NewSearchIndex(convs)),
		companion: client,
	}, nil
}

func (a *app) Close() {
	if err := a.db.Close(); err != nil {
		config.DebugLog.Warnf("[Main] failed to close database: %v", err)
	}
}

// loadCredentials reads the credential store matching the configured
// security method. SOL_SSH_PASSPHRASE unlocks an encrypted SSH key.
func loadCredentials(cfg *config.Config) (*config.CredentialStore, error) {
	creds := config.NewCredentialStoreFromConfig(cfg)
	if passphrase := os.Getenv("SOL_SSH_PASSPHRASE"); passphrase != "" {
		creds.SetPassphrase(passphrase)
	}
	if err := creds.Load(cfg.DataDir()); err != nil {
		return nil, fmt.Errorf("failed to load credentials: %w", err)
	}
	return creds, nil
}

// engine wires the agent against the opened stores. reg may be nil.
func (a *app) preparer() (*briefing.Preparer, error) {
	creds, err := loadCredentials(a.cfg)
	if err != nil {
		return nil, err
	}
	completer, err := provider.FromConfig(a.cfg, creds)
	if err != nil {
		return nil, err
	}
	return briefing.New(briefing.Deps{
		Calendar:    a.companion,
		Contacts:    a.db.Contacts(),
		WorkContext: a.companion,
		Completer:   completer,
		Actions:     a.companion,
	}, a.cfg.MaxTokens), nil
}

func (a *app) engine(reg prometheus.Registerer) (*agent.Engine, error) {
	creds, err := loadCredentials(a.cfg)
	if err != nil {
		return nil, err
	}

	completer, err := provider.FromConfig(a.cfg, creds)
	if err != nil {
		return nil, err
	}

	memories := a.db.Memories()
	contacts := a.db.Contacts()

	return agent.New(agent.Deps{
		Completer:     completer,
		Conversations: a.convs,
		Assembler: assembler.New(assembler.Options{
			Memory:      memories,
			Contacts:    contacts,
			Clipboard:   a.context,
			WorkContext: a.companion,
		}),
		Dispatcher: tools.NewDispatcher(tools.Deps{
			Contacts: contacts,
			Memory:   memories,
			Context:  a.context,
			Calendar: a.companion,
		}),
		Memory:  memories,
		Metrics: agent.NewMetrics(reg),
	}, agent.Options{
		MaxToolTurns: a.cfg.MaxToolTurns,
		HistoryLimit: a.cfg.HistoryLimit,
		MaxTokens:    a.cfg.MaxTokens,
		Retries:      a.cfg.Retries,
	}), nil
}
