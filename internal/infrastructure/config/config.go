package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all runtime configuration.
type Config struct {
	Server   ServerConfig
	Registry RegistryConfig
	Modules  ModulesConfig
	Styling  StylingConfig
	Storage  StorageConfig
	Logging  LogConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
}

// RegistryConfig holds component registry endpoint configuration.
type RegistryConfig struct {
	BaseURL  string        `envconfig:"REGISTRY_URL" default:"http://localhost:9000"`
	Timeout  time.Duration `envconfig:"REGISTRY_TIMEOUT" default:"30s"`
	RetryMax int           `envconfig:"REGISTRY_RETRY_MAX" default:"3"`
}

// ModulesConfig holds module loader configuration.
type ModulesConfig struct {
	HookTimeout time.Duration `envconfig:"MODULE_HOOK_TIMEOUT" default:"10s"`
	FetchLimit  int64         `envconfig:"MODULE_FETCH_LIMIT_BYTES" default:"10485760"`
}

// StylingConfig holds stylesheet injector configuration.
type StylingConfig struct {
	VerifyURLs bool `envconfig:"STYLING_VERIFY_URLS" default:"false"`
}

// StorageConfig holds persisted local-state configuration.
type StorageConfig struct {
	Path string `envconfig:"STORAGE_PATH" default:"./data/runtime-store.json"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
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
			Port: "8000",
			Host: "0.0.0.0",
		},
		Registry: RegistryConfig{
			BaseURL:  "http://localhost:9000",
			Timeout:  30 * time.Second,
			RetryMax: 3,
		},
		Modules: ModulesConfig{
			HookTimeout: 10 * time.Second,
			FetchLimit:  10 << 20,
		},
		Styling: StylingConfig{
			VerifyURLs: false,
		},
		Storage: StorageConfig{
			Path: "./data/runtime-store.json",
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
	}
}
