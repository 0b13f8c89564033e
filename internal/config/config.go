// Package config provides Viper-based configuration loading for the
// Chronicle Weave game server.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ServerConfig holds the HTTP/WebSocket listener settings.
type ServerConfig struct {
	// Host is the bind address for the HTTP listener.
	Host string `mapstructure:"host"`
	// Port is the TCP port for the HTTP listener.
	Port int `mapstructure:"port"`
	// StaticDir is the directory served at /static; empty disables static serving.
	StaticDir string `mapstructure:"static_dir"`
	// WriteTimeout is the per-frame websocket write deadline.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Addr returns the "host:port" listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// BackendConfig describes one configured model backend.
type BackendConfig struct {
	// Type is the provider kind: "anthropic", "openai", "gemini", or "local".
	Type string `mapstructure:"type"`
	// APIKeyEnv is the environment variable holding the provider credential.
	APIKeyEnv string `mapstructure:"api_key_env"`
	// Model is the provider model identifier.
	Model string `mapstructure:"model"`
}

// GatewayConfig holds model gateway settings: the backend map, cache
// sizing, and context retention.
type GatewayConfig struct {
	// Backends maps backend name to its provider configuration.
	Backends map[string]BackendConfig `mapstructure:"backends"`
	// DefaultBackend is the backend used when a request names none.
	DefaultBackend string `mapstructure:"default_backend"`
	// CacheMaxSize is the maximum number of cached responses.
	CacheMaxSize int `mapstructure:"cache_max_size"`
	// CacheTTL is the response cache time-to-live.
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
	// ContextMaxAge is the age past which a sweep removes context records.
	ContextMaxAge time.Duration `mapstructure:"context_max_age"`
	// RequestTimeout bounds a single backend call; expiry falls back to mock output.
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// ContentConfig holds paths to game content on disk.
type ContentConfig struct {
	// LocationsDir is the directory of location YAML files; empty uses the built-in world.
	LocationsDir string `mapstructure:"locations_dir"`
	// TownsDir is the directory where generated towns are cached as JSON.
	TownsDir string `mapstructure:"towns_dir"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// Config is the top-level application configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Gateway GatewayConfig `mapstructure:"gateway"`
	Content ContentConfig `mapstructure:"content"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateServer(c.Server); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateGateway(c.Gateway); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateServer(s ServerConfig) error {
	var errs []string
	if s.Port < 1 || s.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", s.Port))
	}
	if s.WriteTimeout < 0 {
		errs = append(errs, "server.write_timeout must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateGateway(g GatewayConfig) error {
	var errs []string
	if len(g.Backends) == 0 {
		errs = append(errs, "gateway.backends must configure at least one backend")
	}
	for name, b := range g.Backends {
		// An unknown type is not rejected here: the gateway logs and skips it.
		if b.Type == "" {
			errs = append(errs, fmt.Sprintf("gateway.backends.%s.type must not be empty", name))
		}
	}
	if g.DefaultBackend == "" {
		errs = append(errs, "gateway.default_backend must not be empty")
	}
	if g.CacheMaxSize < 1 {
		errs = append(errs, fmt.Sprintf("gateway.cache_max_size must be >= 1, got %d", g.CacheMaxSize))
	}
	if g.CacheTTL <= 0 {
		errs = append(errs, "gateway.cache_ttl must be positive")
	}
	if g.ContextMaxAge <= 0 {
		errs = append(errs, "gateway.context_max_age must be positive")
	}
	if g.RequestTimeout < 0 {
		errs = append(errs, "gateway.request_timeout must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

// Load reads configuration from the given file path, applies environment
// variable overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with WEAVE_ prefix
	v.SetEnvPrefix("WEAVE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.write_timeout", "10s")

	v.SetDefault("gateway.default_backend", "anthropic")
	v.SetDefault("gateway.cache_max_size", 1000)
	v.SetDefault("gateway.cache_ttl", "1h")
	v.SetDefault("gateway.context_max_age", "24h")
	v.SetDefault("gateway.request_timeout", "30s")
	v.SetDefault("gateway.backends", map[string]any{
		"anthropic": map[string]any{
			"type":        "anthropic",
			"api_key_env": "ANTHROPIC_API_KEY",
			"model":       "claude-3-opus-20240229",
		},
		"openai": map[string]any{
			"type":        "openai",
			"api_key_env": "OPENAI_API_KEY",
			"model":       "gpt-4",
		},
		"gemini": map[string]any{
			"type":        "gemini",
			"api_key_env": "GOOGLE_API_KEY",
			"model":       "gemini-1.5-flash-latest",
		},
		"local": map[string]any{
			"type": "local",
		},
	})

	v.SetDefault("content.towns_dir", "data/towns")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}
