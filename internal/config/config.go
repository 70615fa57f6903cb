// Package config loads service configuration from an optional config.yaml
// overlaid with RELAY_-prefixed environment variables. Double underscores in
// env names separate nesting levels, e.g. RELAY_ZENDESK__KEY_ID maps to
// zendesk.key_id.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Storage   StorageConfig   `koanf:"storage"`
	Zendesk   ZendeskConfig   `koanf:"zendesk"`
	Support   SupportConfig   `koanf:"support"`
	Assistant AssistantConfig `koanf:"assistant"`
	AI        AIConfig        `koanf:"ai"`
}

type ServerConfig struct {
	Port int `koanf:"port"`
	// RunBudget is a duration string bounding one webhook processing run.
	RunBudget string `koanf:"run_budget"`
}

type StorageConfig struct {
	// Type selects the dedup store: sqlite or memory.
	Type   string       `koanf:"type"`
	SQLite SQLiteConfig `koanf:"sqlite"`
	// DedupTTL is a duration string for how long processed event ids are
	// remembered.
	DedupTTL string `koanf:"dedup_ttl"`
}

type SQLiteConfig struct {
	Path string `koanf:"path"`
}

// ZendeskConfig holds Sunshine Conversations API credentials.
type ZendeskConfig struct {
	BaseURL                  string `koanf:"base_url"`
	KeyID                    string `koanf:"key_id"`
	KeySecret                string `koanf:"key_secret"`
	SwitchboardIntegrationID string `koanf:"switchboard_integration_id"`
}

// SupportConfig holds Zendesk Support API credentials for ticket creation.
type SupportConfig struct {
	Subdomain string `koanf:"subdomain"`
	Email     string `koanf:"email"`
	APIToken  string `koanf:"api_token"`
}

// AssistantConfig is the identity the bot sends messages as.
type AssistantConfig struct {
	Name      string `koanf:"name"`
	AvatarURL string `koanf:"avatar_url"`
}

// AIConfig configures the QA generation endpoint.
type AIConfig struct {
	APIKey       string `koanf:"api_key"`
	BaseURL      string `koanf:"base_url"`
	Model        string `koanf:"model"`
	SystemPrompt string `koanf:"system_prompt"`
}

// Load reads config.yaml (if present) and RELAY_-prefixed env vars.
func Load() (*Config, error) {
	return LoadFile("config.yaml")
}

// LoadFile is Load with an explicit file path, for tests.
func LoadFile(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider("RELAY_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "RELAY_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	defaults := map[string]any{
		"server.port":         8080,
		"server.run_budget":   "300s",
		"storage.type":        "sqlite",
		"storage.sqlite.path": "./data/relaydesk.db",
		"storage.dedup_ttl":   "1000s",
		"assistant.name":      "AI Agent",
		"ai.model":            "inkeep-qa-expert",
	}
	for key, value := range defaults {
		if !k.Exists(key) {
			k.Set(key, value)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

// RunBudgetDuration parses server.run_budget, falling back to 300s.
func (c *Config) RunBudgetDuration() time.Duration {
	return parseDuration(c.Server.RunBudget, 300*time.Second)
}

// DedupTTLDuration parses storage.dedup_ttl, falling back to 1000s.
func (c *Config) DedupTTLDuration() time.Duration {
	return parseDuration(c.Storage.DedupTTL, 1000*time.Second)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
