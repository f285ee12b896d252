// Package config loads the CLI configuration from YAML files and
// environment variables via viper. Precedence (highest to lowest):
//  1. Environment variables (TURNWISE_*, plus the provider API keys)
//  2. Project config (turnwise.yaml in the working directory)
//  3. User config (~/.config/turnwise/config.yaml)
//  4. Built-in defaults
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration.
type Config struct {
	Model  ModelConfig  `mapstructure:"model"`
	Agent  AgentConfig  `mapstructure:"agent"`
	Store  StoreConfig  `mapstructure:"store"`
	Server ServerConfig `mapstructure:"server"`
	Log    LogConfig    `mapstructure:"log"`
	// Teams overrides the default team allow-lists when non-empty.
	Teams map[string][]string `mapstructure:"teams"`
	Jobs  []JobConfig         `mapstructure:"jobs"`
}

// ModelConfig selects and tunes the model adapter.
type ModelConfig struct {
	// Provider is "openai" or "anthropic".
	Provider string `mapstructure:"provider"`
	// Name is the provider model id; empty uses the adapter default.
	Name        string  `mapstructure:"name"`
	APIKey      string  `mapstructure:"api_key"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int64   `mapstructure:"max_tokens"`
	// BaseURL points the openai provider at a compatible server, e.g.
	// Ollama's http://localhost:11434/v1.
	BaseURL string `mapstructure:"base_url"`
}

// AgentConfig tunes turn execution.
type AgentConfig struct {
	LoopLimit     int           `mapstructure:"loop_limit"`
	ToolTimeout   time.Duration `mapstructure:"tool_timeout"`
	UseClassifier bool          `mapstructure:"use_classifier"`
	// WorkspaceDir sandboxes the file tools.
	WorkspaceDir string `mapstructure:"workspace_dir"`
}

// StoreConfig selects the conversation store backend.
type StoreConfig struct {
	// Backend is "memory", "sqlite" or "redis".
	Backend string `mapstructure:"backend"`
	// Path is the sqlite database file.
	Path string `mapstructure:"path"`
	// RedisURL is a redis connection URL, e.g. redis://localhost:6379/0.
	RedisURL string `mapstructure:"redis_url"`
	// TTL expires redis conversations; zero keeps them forever.
	TTL time.Duration `mapstructure:"ttl"`
}

// ServerConfig tunes the HTTP front-end.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// LogConfig tunes structured logging.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `mapstructure:"level"`
	// Format is "text" or "json".
	Format string `mapstructure:"format"`
}

// JobConfig declares one scheduled prompt.
type JobConfig struct {
	ID     string `mapstructure:"id"`
	Prompt string `mapstructure:"prompt"`
	Cron   string `mapstructure:"cron"`
	Team   string `mapstructure:"team"`
}

// Load reads configuration from the default locations. An explicit path
// skips the search and fails hard when the file is missing.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("turnwise")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(userConfigDir())
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("reading config: %w", err)
			}
		}
	}

	v.SetEnvPrefix("TURNWISE")
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if cfg.Model.APIKey == "" {
		cfg.Model.APIKey = providerKeyFromEnv(cfg.Model.Provider)
	}
	return cfg, nil
}

func providerKeyFromEnv(provider string) string {
	switch provider {
	case "anthropic":
		return os.Getenv("ANTHROPIC_API_KEY")
	default:
		return os.Getenv("OPENAI_API_KEY")
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("model.provider", "openai")
	v.SetDefault("model.temperature", 0.7)
	v.SetDefault("model.max_tokens", 4096)

	v.SetDefault("agent.loop_limit", 5)
	v.SetDefault("agent.tool_timeout", "30s")
	v.SetDefault("agent.use_classifier", true)
	v.SetDefault("agent.workspace_dir", "data")

	v.SetDefault("store.backend", "memory")
	v.SetDefault("store.path", "turnwise.db")

	v.SetDefault("server.addr", ":8080")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

func userConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "turnwise")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "turnwise")
	}
	return filepath.Join(home, ".config", "turnwise")
}
