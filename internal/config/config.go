package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the gateway
type Config struct {
	Telegram TelegramConfig `yaml:"telegram"`
	Anki     AnkiConfig     `yaml:"anki"`
	AI       AIConfig       `yaml:"ai"`
	Decks    DecksConfig    `yaml:"decks"`
	Server   ServerConfig   `yaml:"server"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// TelegramConfig defines the Telegram front end settings
type TelegramConfig struct {
	Token          string  `yaml:"token"`
	AllowedUserIDs []int64 `yaml:"allowed_user_ids"`
}

// AnkiConfig defines AnkiConnect connection settings
type AnkiConfig struct {
	URL            string `yaml:"url"`
	ProbeTimeout   string `yaml:"probe_timeout"`
	RequestTimeout string `yaml:"request_timeout"`
}

// GetProbeTimeout returns the probe timeout as a time.Duration
func (a *AnkiConfig) GetProbeTimeout() time.Duration {
	if a.ProbeTimeout == "" {
		return 5 * time.Second
	}
	d, err := time.ParseDuration(a.ProbeTimeout)
	if err != nil {
		return 5 * time.Second
	}
	return d
}

// GetRequestTimeout returns the request timeout as a time.Duration
func (a *AnkiConfig) GetRequestTimeout() time.Duration {
	if a.RequestTimeout == "" {
		return 10 * time.Second
	}
	d, err := time.ParseDuration(a.RequestTimeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// AIConfig defines the text-generation service settings
type AIConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url,omitempty"`
	Model   string `yaml:"model"`
}

// DecksConfig defines which decks are searched for existing cards
type DecksConfig struct {
	Search []string `yaml:"search"`
}

// ServerConfig defines the ops HTTP server settings
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// LoggingConfig defines logging settings
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultSearchDecks are the decks scanned for duplicates when the
// config does not name any.
var DefaultSearchDecks = []string{"0 USA::STEP 1", "0 USA::Self-Learning"}

// Load reads and parses the YAML config file at path. Values containing
// ${VAR} references are expanded from the environment, so secrets can
// stay out of the file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.Telegram.Token = os.ExpandEnv(cfg.Telegram.Token)
	cfg.AI.APIKey = os.ExpandEnv(cfg.AI.APIKey)

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Anki.URL == "" {
		c.Anki.URL = "http://localhost:8765"
	}
	if c.AI.Model == "" {
		c.AI.Model = "gpt-4o-mini"
	}
	if len(c.Decks.Search) == 0 {
		c.Decks.Search = append([]string{}, DefaultSearchDecks...)
	}
	if c.Server.Host == "" {
		c.Server.Host = "localhost"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 18870
	}
}

// Validate checks the configuration for missing or invalid values
func (c *Config) Validate() error {
	if c.Telegram.Token == "" {
		return fmt.Errorf("telegram.token is required")
	}
	if len(c.Telegram.AllowedUserIDs) == 0 {
		return fmt.Errorf("telegram.allowed_user_ids must list at least one user")
	}
	if c.AI.APIKey == "" {
		return fmt.Errorf("ai.api_key is required")
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range", c.Server.Port)
	}
	return nil
}
