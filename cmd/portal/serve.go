package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hphungg/chatbot-sub000/internal/agent"
	"github.com/hphungg/chatbot-sub000/internal/agent/providers"
	"github.com/hphungg/chatbot-sub000/internal/auth"
	"github.com/hphungg/chatbot-sub000/internal/calendar"
	"github.com/hphungg/chatbot-sub000/internal/config"
	"github.com/hphungg/chatbot-sub000/internal/directory"
	"github.com/hphungg/chatbot-sub000/internal/mail"
	"github.com/hphungg/chatbot-sub000/internal/observability"
	"github.com/hphungg/chatbot-sub000/internal/server"
	"github.com/hphungg/chatbot-sub000/internal/store"
	"github.com/hphungg/chatbot-sub000/internal/tools"
)

// buildServeCmd creates the "serve" command that starts the portal
// HTTP server.
func buildServeCmd() *cobra.Command {
	var (
		configPath string
		debug      bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the portal HTTP server",
		Long: `Start the portal server with the configured model backend.

The server will:
1. Load configuration from the specified file (or portal.yaml)
2. Connect to Postgres for conversations and the org directory
3. Build the tool catalog (directory, calendar, email, datetime)
4. Initialize the model provider (Anthropic or OpenAI)
5. Start the HTTP API with SSE streaming, health checks and metrics

Graceful shutdown is handled on SIGINT/SIGTERM signals.`,
		Example: `  # Start with default config
  portal serve

  # Start with custom config and debug logging
  portal serve --config /etc/portal/production.yaml --debug`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), configPath, debug)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "portal.yaml",
		"Path to YAML configuration file")
	cmd.Flags().BoolVarP(&debug, "debug", "d", false,
		"Enable debug logging (verbose output)")

	return cmd
}

// runServe implements the serve command logic: configuration loading,
// dependency wiring, and graceful shutdown.
func runServe(ctx context.Context, configPath string, debug bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if debug {
		cfg.Logging.Level = "debug"
	}

	logger := observability.NewLogger(cfg.Logging)
	slog.SetDefault(logger)

	logger.Info("starting portal",
		"version", version,
		"commit", commit,
		"config", configPath,
		"provider", cfg.Agent.Provider,
	)

	db, err := store.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	st := store.NewPostgresStore(db)
	dir := directory.NewPostgresDirectory(db)
	tokens := calendar.NewPostgresTokenStore(db)
	calSvc := calendar.NewGoogleService(cfg.Calendar, tokens)
	mailer := mail.NewSMTPMailer(cfg.Mail)

	registry, err := agent.NewRegistry(tools.Catalog(tools.Deps{
		Directory: dir,
		Calendar:  calSvc,
		Mailer:    mailer,
	})...)
	if err != nil {
		return fmt.Errorf("failed to build tool registry: %w", err)
	}
	executor := agent.NewExecutor(registry, agent.ExecConfig{
		Concurrency: cfg.Agent.ToolConcurrency,
		Timeout:     cfg.Agent.ToolTimeout,
	}, logger)

	provider, err := buildProvider(cfg.Agent.Provider)
	if err != nil {
		return err
	}
	settings := config.NewSettingsCache(config.NewSettingsSource(cfg.Agent), cfg.Agent.SettingsTTL)
	controller := agent.NewController(st, provider, registry, executor, settings, cfg.Agent, logger)

	jwtService := auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	srv := server.New(cfg.Server, st, controller, jwtService, logger)

	// Cancel on shutdown signals.
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	logger.Info("portal started",
		"addr", cfg.Server.Addr(),
		"tools", len(registry.Names()),
	)

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}
	logger.Info("shutdown signal received, draining requests")

	if err := srv.Shutdown(context.Background()); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	logger.Info("portal stopped gracefully")
	return nil
}

// buildProvider selects the completion backend by name.
func buildProvider(name string) (agent.Provider, error) {
	switch name {
	case "anthropic":
		return providers.NewAnthropicProvider(), nil
	case "openai":
		return providers.NewOpenAIProvider(), nil
	default:
		return nil, fmt.Errorf("unknown provider %q (expected anthropic or openai)", name)
	}
}
