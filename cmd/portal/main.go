// Package main provides the CLI entry point for the company portal
// assistant.
//
// The portal exposes an HTTP API that lets employees chat with an
// agent grounded in the company directory, Google Calendar, and
// outbound email.
//
// Start the server:
//
//	portal serve --config portal.yaml
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// Build information, populated by ldflags:
//
//	go build -ldflags "-X main.version=v1.0.0 -X main.commit=$(git rev-parse HEAD) -X main.date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := buildRootCmd().Execute(); err != nil {
		slog.Error("command execution failed", "error", err)
		os.Exit(1)
	}
}

func buildRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "portal",
		Short:        "Company portal chat assistant",
		Long:         "Portal serves the company chat assistant: an HTTP API with streaming agent turns backed by the org directory, Google Calendar, and SMTP.",
		Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		buildServeCmd(),
		buildMigrateCmd(),
		buildVersionCmd(),
	)

	return rootCmd
}
