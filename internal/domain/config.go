package domain

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Defaults applied before any file, environment or flag source.
const (
	DefaultTransportType = "stdio"
	DefaultHTTPHost      = "127.0.0.1"
	DefaultHTTPPort      = 8080
	DefaultOuraBaseURL   = "https://api.ouraring.com/v2"
	DefaultOuraTimeout   = "30s"
	DefaultLogLevel      = "info"
)

// AccessTokenEnv holds the Oura personal access token.
const AccessTokenEnv = "OURA_API_TOKEN"

// EnvPrefix scopes configuration overrides, e.g. OURA_MCP_LOG__LEVEL=debug.
// A double underscore separates nested keys.
const EnvPrefix = "OURA_MCP_"

// Config represents the server configuration.
type Config struct {
	Transport TransportConfig `koanf:"transport" yaml:"transport"`
	Oura      OuraConfig      `koanf:"oura" yaml:"oura"`
	Log       LogConfig       `koanf:"log" yaml:"log"`
}

// TransportConfig defines transport settings.
// Specifies whether to use stdio or HTTP transport.
type TransportConfig struct {
	Type string     `koanf:"type" yaml:"type"` // "stdio" or "http"
	HTTP HTTPConfig `koanf:"http" yaml:"http"`
}

// HTTPConfig defines HTTP transport settings.
// Only used when transport type is "http".
type HTTPConfig struct {
	Host string `koanf:"host" yaml:"host"`
	Port int    `koanf:"port" yaml:"port"`
}

// OuraConfig points the upstream client at the Oura API.
type OuraConfig struct {
	BaseURL     string `koanf:"base_url" yaml:"base_url"`
	Timeout     string `koanf:"timeout" yaml:"timeout"`
	AccessToken string `koanf:"access_token" yaml:"access_token"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level string `koanf:"level" yaml:"level"`
	File  string `koanf:"file" yaml:"file"`
}

// LoadConfig layers defaults, an optional YAML file, OURA_MCP_* environment
// variables and changed command-line flags, in that order.
// flags may be nil.
func LoadConfig(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	defaults := map[string]interface{}{
		"transport.type":      DefaultTransportType,
		"transport.http.host": DefaultHTTPHost,
		"transport.http.port": DefaultHTTPPort,
		"oura.base_url":       DefaultOuraBaseURL,
		"oura.timeout":        DefaultOuraTimeout,
		"log.level":           DefaultLogLevel,
	}
	for key, value := range defaults {
		if err := k.Set(key, value); err != nil {
			return nil, fmt.Errorf("failed to set default %s: %w", key, err)
		}
	}

	if path = strings.TrimSpace(path); path != "" {
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("configuration file not found: %s", path)
			}
			return nil, fmt.Errorf("failed to read configuration file: %w", err)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("invalid YAML syntax in configuration file: %w", err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	if config.Oura.AccessToken == "" {
		config.Oura.AccessToken = strings.TrimSpace(os.Getenv(AccessTokenEnv))
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	slog.Debug("configuration loaded", "path", path, "transport", config.Transport.Type)
	return &config, nil
}

// envKey maps OURA_MCP_OURA__BASE_URL to oura.base_url.
func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}

// Validate checks the configuration for completeness and correctness.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errors []string

	switch c.Transport.Type {
	case "":
		errors = append(errors, "transport type is required")
	case "stdio":
	case "http":
		if c.Transport.HTTP.Host == "" {
			errors = append(errors, "HTTP host is required when transport type is 'http'")
		}
		if c.Transport.HTTP.Port <= 0 || c.Transport.HTTP.Port > 65535 {
			errors = append(errors, fmt.Sprintf("invalid HTTP port %d: must be between 1 and 65535", c.Transport.HTTP.Port))
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid transport type '%s': must be 'stdio' or 'http'", c.Transport.Type))
	}

	if c.Oura.BaseURL == "" {
		errors = append(errors, "oura base_url is required")
	} else if parsedURL, err := url.Parse(c.Oura.BaseURL); err != nil {
		errors = append(errors, fmt.Sprintf("oura base_url is invalid: %v", err))
	} else if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		errors = append(errors, "oura base_url must use http or https scheme")
	} else if parsedURL.Host == "" {
		errors = append(errors, "oura base_url must include a host")
	}

	if _, err := c.Oura.RequestTimeout(); err != nil {
		errors = append(errors, fmt.Sprintf("oura timeout is invalid: %v", err))
	}

	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be debug, info, warn or error", c.Log.Level))
	}

	if len(errors) > 0 {
		return fmt.Errorf("validation errors: %s", strings.Join(errors, "; "))
	}

	return nil
}

// RequestTimeout parses the configured timeout, falling back to DefaultOuraTimeout.
// Zero disables the client timeout.
func (o OuraConfig) RequestTimeout() (time.Duration, error) {
	candidate := strings.TrimSpace(o.Timeout)
	if candidate == "" {
		candidate = DefaultOuraTimeout
	}
	d, err := time.ParseDuration(candidate)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", candidate, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("duration %q must not be negative", candidate)
	}
	return d, nil
}

// Redacted returns a copy safe to print, with the access token masked.
func (c Config) Redacted() Config {
	if c.Oura.AccessToken != "" {
		c.Oura.AccessToken = "********"
	}
	return c
}
