package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all runtime configuration.
type Config struct {
	Server    ServerConfig
	Embeds    EmbedConfig
	Inject    InjectConfig
	Sandbox   SandboxConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP host configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8300"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
}

// EmbedConfig holds embed registry configuration.
type EmbedConfig struct {
	ManifestDir string `envconfig:"EMBED_MANIFEST_DIR" default:"./embeds.d"`
	GeoEndpoint string `envconfig:"GEO_ENDPOINT" default:"https://geo.embedos.dev/v1/country"`
}

// InjectConfig holds script injection configuration.
type InjectConfig struct {
	FetchRetries  int      `envconfig:"SCRIPT_FETCH_RETRIES" default:"3"`
	FetchTimeout  int      `envconfig:"SCRIPT_FETCH_TIMEOUT_MS" default:"5000"`
	AllowedHosts  []string `envconfig:"SCRIPT_ALLOWED_HOSTS"`
	RequireHTTPS  bool     `envconfig:"SCRIPT_REQUIRE_HTTPS" default:"true"`
	MaxScriptSize int64    `envconfig:"SCRIPT_MAX_SIZE" default:"1048576"`
}

// SandboxConfig holds the per-frame JS sandbox configuration.
type SandboxConfig struct {
	Enabled   bool `envconfig:"SANDBOX_ENABLED" default:"true"`
	TimeoutMS int  `envconfig:"SANDBOX_TIMEOUT_MS" default:"2000"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8300",
			Host: "0.0.0.0",
		},
		Embeds: EmbedConfig{
			ManifestDir: "./embeds.d",
			GeoEndpoint: "https://geo.embedos.dev/v1/country",
		},
		Inject: InjectConfig{
			FetchRetries:  3,
			FetchTimeout:  5000,
			RequireHTTPS:  true,
			MaxScriptSize: 1 << 20,
		},
		Sandbox: SandboxConfig{
			Enabled:   true,
			TimeoutMS: 2000,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}
