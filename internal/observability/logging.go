// Package observability wires structured logging and Prometheus
// metrics for the portal agent runtime.
package observability

import (
	"log/slog"
	"os"
	"regexp"
	"strings"

	"github.com/hphungg/chatbot-sub000/internal/config"
)

var apiKeyPattern = regexp.MustCompile(`(sk-[A-Za-z0-9-]{8})[A-Za-z0-9-]+`)

// NewLogger builds the process logger from LoggingConfig. Attribute
// values that look like API keys are truncated before emission.
func NewLogger(cfg config.LoggingConfig) *slog.Logger {
	level := parseLevel(cfg.Level)
	opts := &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: redactSecrets,
	}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func redactSecrets(_ []string, a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindString {
		v := a.Value.String()
		if apiKeyPattern.MatchString(v) {
			a.Value = slog.StringValue(apiKeyPattern.ReplaceAllString(v, "$1***"))
		}
	}
	return a
}
