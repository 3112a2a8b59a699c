// Package config loads and validates the application's configuration from a
// config file and environment variables using Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/mallku/firecircle/internal/logger"
)

// Supported voice providers.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderGemini    = "gemini"
	ProviderOllama    = "ollama"
	ProviderFake      = "fake"
)

// Config holds the application's configuration values.
type Config struct {
	Server   ServerConfig           `mapstructure:"server"`
	Database DBConfig               `mapstructure:"database"`
	GitHub   GitHubConfig           `mapstructure:"github"`
	Review   ReviewConfig           `mapstructure:"review"`
	Voices   map[string]VoiceConfig `mapstructure:"voices"`
	Logger   logger.Config          `mapstructure:"logger"`
}

// ServerConfig configures the webhook HTTP server.
type ServerConfig struct {
	Port string `mapstructure:"port"`
}

// DBConfig configures the Postgres connection.
type DBConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// GitHubConfig holds credentials for both App-installation and PAT auth.
type GitHubConfig struct {
	Token          string `mapstructure:"token"`
	AppID          int64  `mapstructure:"app_id"`
	WebhookSecret  string `mapstructure:"webhook_secret"`
	PrivateKeyPath string `mapstructure:"private_key_path"`
}

// ReviewConfig configures one review run.
type ReviewConfig struct {
	ManifestPath string        `mapstructure:"manifest_path"`
	ArtifactsDir string        `mapstructure:"artifacts_dir"`
	MaxWorkers   int           `mapstructure:"max_workers"`
	VoiceTimeout time.Duration `mapstructure:"voice_timeout"`
}

// VoiceConfig describes one reviewer voice: which provider serves it, which
// model it runs, and the credentials it needs.
type VoiceConfig struct {
	Provider string `mapstructure:"provider"`
	Model    string `mapstructure:"model"`
	APIKey   string `mapstructure:"api_key"`
	BaseURL  string `mapstructure:"base_url"`
}

// Load reads configuration from config.yaml and environment variables, sets
// sensible defaults, and validates required fields.
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.SetEnvPrefix("FIRECIRCLE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("server.port", "8080")
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.conn_max_lifetime", 30*time.Minute)
	viper.SetDefault("database.conn_max_idle_time", 5*time.Minute)
	viper.SetDefault("github.private_key_path", "keys/fire-circle-app.private-key.pem")
	viper.SetDefault("review.manifest_path", "fire_circle_chapters.yaml")
	viper.SetDefault("review.artifacts_dir", "artifacts")
	viper.SetDefault("review.max_workers", 4)
	viper.SetDefault("review.voice_timeout", 3*time.Minute)
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.format", "text")
	viper.SetDefault("logger.output", "stdout")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if len(c.Voices) == 0 {
		return fmt.Errorf("at least one voice must be configured")
	}
	for name, v := range c.Voices {
		switch v.Provider {
		case ProviderAnthropic, ProviderOpenAI, ProviderGemini:
			if v.APIKey == "" {
				return fmt.Errorf("voice %q: provider %s requires api_key", name, v.Provider)
			}
		case ProviderOllama, ProviderFake:
			// no credentials needed
		default:
			return fmt.Errorf("voice %q: unsupported provider %q", name, v.Provider)
		}
		if v.Model == "" && v.Provider != ProviderFake {
			return fmt.Errorf("voice %q: model must be set", name)
		}
	}
	if c.Review.MaxWorkers <= 0 {
		c.Review.MaxWorkers = 1
	}
	return nil
}

// VoiceNames returns the configured voice names, for manifest validation.
func (c *Config) VoiceNames() []string {
	names := make([]string, 0, len(c.Voices))
	for name := range c.Voices {
		names = append(names, name)
	}
	return names
}
