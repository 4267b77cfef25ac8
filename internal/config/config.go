// Package config loads and validates the portal configuration from a
// YAML file with environment variable expansion.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Agent    AgentConfig    `yaml:"agent"`
	Calendar CalendarConfig `yaml:"calendar"`
	Mail     MailConfig     `yaml:"mail"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Addr returns the listen address in host:port form.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig configures the relational store shared by the
// conversation store and the org directory.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`

	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// DSN builds a lib/pq connection string.
func (d DatabaseConfig) DSN() string {
	parts := []string{
		fmt.Sprintf("host=%s", d.Host),
		fmt.Sprintf("port=%d", d.Port),
		fmt.Sprintf("dbname=%s", d.Database),
		fmt.Sprintf("user=%s", d.User),
	}
	if d.Password != "" {
		parts = append(parts, fmt.Sprintf("password=%s", d.Password))
	}
	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "require"
	}
	parts = append(parts, fmt.Sprintf("sslmode=%s", sslMode))
	return strings.Join(parts, " ")
}

// AuthConfig configures bearer token verification.
type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

// AgentConfig configures the turn controller and its model backend.
// Provider selects which client serves completions; the API key and
// model name are served through a refreshing settings cache so key
// rotation does not require a restart.
type AgentConfig struct {
	Provider     string        `yaml:"provider"` // "anthropic" or "openai"
	Model        string        `yaml:"model"`
	APIKey       string        `yaml:"api_key"`
	APIKeyFile   string        `yaml:"api_key_file"`
	SettingsTTL  time.Duration `yaml:"settings_ttl"`
	SystemPrompt string        `yaml:"system_prompt"`

	MaxIterations   int           `yaml:"max_iterations"`
	MaxTokens       int           `yaml:"max_tokens"`
	TurnTimeout     time.Duration `yaml:"turn_timeout"`
	ToolTimeout     time.Duration `yaml:"tool_timeout"`
	ToolConcurrency int           `yaml:"tool_concurrency"`
	HistoryLimit    int           `yaml:"history_limit"`
}

// CalendarConfig configures the Google Calendar integration.
type CalendarConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	Timezone     string `yaml:"timezone"`
}

// MailConfig configures outbound SMTP.
type MailConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json or text
}

// defaultSystemPrompt is the assistant persona used when the config
// does not provide one.
const defaultSystemPrompt = `Bạn là trợ lý AI của cổng thông tin nội bộ công ty. ` +
	`Bạn giúp nhân viên tra cứu thông tin về nhân sự, phòng ban, dự án, ` +
	`quản lý lịch Google Calendar và gửi email nội bộ. ` +
	`Luôn trả lời bằng tiếng Việt, ngắn gọn và lịch sự. ` +
	`Khi tra cứu theo tên trả về nhiều kết quả, hãy liệt kê các lựa chọn và hỏi lại người dùng. ` +
	`Khi làm việc với ngày giờ, dùng múi giờ Việt Nam (Asia/Ho_Chi_Minh); ` +
	`nếu người dùng nói ngày tương đối (hôm nay, ngày mai), hãy gọi getCurrentDateTime trước.`

// Validate checks required fields and applies defaults.
func (c *Config) Validate() error {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database.database is required")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	if c.Auth.TokenTTL == 0 {
		c.Auth.TokenTTL = 24 * time.Hour
	}

	switch c.Agent.Provider {
	case "anthropic", "openai":
	case "":
		return fmt.Errorf("agent.provider is required")
	default:
		return fmt.Errorf("agent.provider %q not supported", c.Agent.Provider)
	}
	if c.Agent.Model == "" {
		return fmt.Errorf("agent.model is required")
	}
	if c.Agent.APIKey == "" && c.Agent.APIKeyFile == "" {
		return fmt.Errorf("agent.api_key or agent.api_key_file is required")
	}
	if c.Agent.SettingsTTL == 0 {
		c.Agent.SettingsTTL = 5 * time.Minute
	}
	if c.Agent.MaxIterations == 0 {
		c.Agent.MaxIterations = 10
	}
	if c.Agent.MaxTokens == 0 {
		c.Agent.MaxTokens = 4096
	}
	if c.Agent.TurnTimeout == 0 {
		c.Agent.TurnTimeout = 2 * time.Minute
	}
	if c.Agent.ToolTimeout == 0 {
		c.Agent.ToolTimeout = 30 * time.Second
	}
	if c.Agent.ToolConcurrency == 0 {
		c.Agent.ToolConcurrency = 4
	}
	if c.Agent.HistoryLimit == 0 {
		c.Agent.HistoryLimit = 50
	}
	if c.Agent.SystemPrompt == "" {
		c.Agent.SystemPrompt = defaultSystemPrompt
	}

	if c.Calendar.Timezone == "" {
		c.Calendar.Timezone = "Asia/Ho_Chi_Minh"
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	return nil
}
