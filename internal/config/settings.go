package config

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

// AgentSettings is the immutable model/credential pair handed to the
// turn controller. Callers receive a value copy; rotation produces a
// new value rather than mutating a shared one.
type AgentSettings struct {
	Model  string
	APIKey string
}

// SettingsSource produces the current agent settings. Implementations
// may read a key file, a secret manager, or return static values.
type SettingsSource interface {
	Fetch() (AgentSettings, error)
}

// SettingsCache serves AgentSettings with a TTL. Reads within the TTL
// return the cached value without touching the source; a stale cache
// is refreshed by the first reader to observe it. Invalidate forces
// the next read through to the source.
type SettingsCache struct {
	source SettingsSource
	ttl    time.Duration

	mu        sync.Mutex
	current   AgentSettings
	fetchedAt time.Time
	valid     bool
}

// NewSettingsCache wraps source with TTL-based caching.
func NewSettingsCache(source SettingsSource, ttl time.Duration) *SettingsCache {
	return &SettingsCache{source: source, ttl: ttl}
}

// Get returns the current settings, refreshing from the source when
// the cached value is older than the TTL. On refresh failure the last
// known good value is served if one exists.
func (c *SettingsCache) Get() (AgentSettings, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.valid && time.Since(c.fetchedAt) < c.ttl {
		return c.current, nil
	}

	settings, err := c.source.Fetch()
	if err != nil {
		if c.valid {
			return c.current, nil
		}
		return AgentSettings{}, fmt.Errorf("fetch agent settings: %w", err)
	}

	c.current = settings
	c.fetchedAt = time.Now()
	c.valid = true
	return c.current, nil
}

// Invalidate discards the cached value so the next Get refetches.
func (c *SettingsCache) Invalidate() {
	c.mu.Lock()
	c.valid = false
	c.mu.Unlock()
}

// staticSettingsSource serves settings from the loaded config,
// optionally re-reading the API key from a file on each fetch so key
// rotation on disk takes effect within one TTL.
type staticSettingsSource struct {
	model      string
	apiKey     string
	apiKeyFile string
}

// NewSettingsSource builds the default source from AgentConfig.
func NewSettingsSource(cfg AgentConfig) SettingsSource {
	return &staticSettingsSource{
		model:      cfg.Model,
		apiKey:     cfg.APIKey,
		apiKeyFile: cfg.APIKeyFile,
	}
}

func (s *staticSettingsSource) Fetch() (AgentSettings, error) {
	key := s.apiKey
	if s.apiKeyFile != "" {
		data, err := os.ReadFile(s.apiKeyFile)
		if err != nil {
			return AgentSettings{}, fmt.Errorf("read api key file: %w", err)
		}
		key = strings.TrimSpace(string(data))
	}
	if key == "" {
		return AgentSettings{}, fmt.Errorf("agent api key is empty")
	}
	return AgentSettings{Model: s.model, APIKey: key}, nil
}
