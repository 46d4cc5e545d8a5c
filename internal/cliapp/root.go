// Package cliapp is gemsieve's single subcommand multiplexer (§6.1): one
// cobra root command fronting every verb, each opening its own store
// handle and orchestrator so commands never share state beyond the
// config file and the sqlite database on disk.
package cliapp

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/hoyack/gemsieve/internal/config"
	"github.com/hoyack/gemsieve/internal/knownentities"
	"github.com/hoyack/gemsieve/internal/mailprovider"
	"github.com/hoyack/gemsieve/internal/ner"
	"github.com/hoyack/gemsieve/internal/pipeline"
	"github.com/hoyack/gemsieve/internal/store"
)

// rootContext is the background context every CLI command runs under —
// there is no request to derive a deadline from, unlike the web surface.
func rootContext() context.Context {
	return context.Background()
}

var configPath string

var rootCmd = &cobra.Command{
	Use:   "gemsieve",
	Short: "Mines a mailbox for latent commercial opportunities",
}

// Execute runs the CLI, exiting non-zero on failure (§6.1 "exit 0 on
// success, non-zero on failure").
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("[cli] %v", err)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"path to config.yaml (default $GEMSIEVE_CONFIG or ./config.yaml)")
	rootCmd.AddCommand(
		ingestCmd, parseCmd, classifyCmd, profileCmd, gemsCmd,
		overrideCmd, overridesCmd, generateCmd,
		relationshipCmd, relationshipsCmd,
		statsCmd, exportCmd, dbCmd, runCmd, webCmd,
	)
}

func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	if v := os.Getenv("GEMSIEVE_CONFIG"); v != "" {
		return v
	}
	return "./config.yaml"
}

// loadConfig loads and env-overrides the config file every command shares.
func loadConfig() (config.Config, error) {
	cfg, err := config.LoadFromEnv(resolveConfigPath())
	if err != nil {
		return config.Config{}, fmt.Errorf("[cli] load config: %w", err)
	}
	return *cfg, nil
}

// openStore opens the configured sqlite store.
func openStore(cfg config.Config) (*store.Store, error) {
	st, err := store.Open(cfg.Storage.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("[cli] open store: %w", err)
	}
	return st, nil
}

// buildMailProvider builds the configured mail adapter, or nil when mail
// credentials aren't configured — every command but ingest tolerates a
// nil provider, since the orchestrator only touches it on the ingest
// stage.
func buildMailProvider(cfg config.Config) mailprovider.Provider {
	if cfg.Mail.CredentialsFile == "" || cfg.Mail.TokenFile == "" {
		return nil
	}
	gp, err := mailprovider.NewGmailProvider(rootContext(), cfg.Mail.CredentialsFile, cfg.Mail.TokenFile, cfg.Mail.UserID)
	if err != nil {
		log.Printf("[cli] mail provider unavailable: %v", err)
		return nil
	}
	return gp
}

// buildOrchestrator wires one Orchestrator the way every verb that drives
// a pipeline stage needs it — CLI-triggered, so AI calls are audited with
// a noop recorder (§4.10 "audit logging active only for web").
func buildOrchestrator(cfg config.Config, st *store.Store) (*pipeline.Orchestrator, error) {
	known, err := loadKnownEntities(cfg)
	if err != nil {
		return nil, err
	}
	var events pipeline.Broadcaster
	if cfg.Events.RedisAddr != "" {
		events = pipeline.NewRedisBroadcaster(cfg.Events)
	}
	orch, err := pipeline.New(st, cfg, buildMailProvider(cfg), ner.New(cfg.NER), known, events)
	if err != nil {
		return nil, fmt.Errorf("[cli] build orchestrator: %w", err)
	}
	return orch, nil
}

// loadKnownEntities loads the known-entities table shared by the
// orchestrator and the relationship-classification commands, falling back
// to an empty table when no file is configured.
func loadKnownEntities(cfg config.Config) (*knownentities.Table, error) {
	if cfg.Scoring.KnownEntitiesFile == "" {
		return knownentities.Empty(), nil
	}
	known, err := knownentities.Load(cfg.Scoring.KnownEntitiesFile)
	if err != nil {
		return nil, fmt.Errorf("[cli] load known entities: %w", err)
	}
	return known, nil
}
