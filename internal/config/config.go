// Package config handles loading and validating application configuration.
//
// Configuration is loaded from a YAML file with environment variable
// overrides. Environment variables use the SALUTE_ prefix (e.g. SALUTE_PORT).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the complete application configuration.
type Config struct {
	// Env selects development or production behavior: development includes
	// stack traces in 500 envelopes and lowers the log level floor.
	Env string `yaml:"env"`

	Server        Server        `yaml:"server"`
	CORS          CORS          `yaml:"cors"`
	RateLimit     RateLimit     `yaml:"ratelimit"`
	Auth          Auth          `yaml:"auth"`
	Log           Log           `yaml:"log"`
	Observability Observability `yaml:"observability"`
}

// Server configures the HTTP listener.
type Server struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// CORS configures the CORS middleware.
type CORS struct {
	AllowOrigins     []string `yaml:"allow_origins"`
	AllowMethods     []string `yaml:"allow_methods"`
	AllowHeaders     []string `yaml:"allow_headers"`
	ExposeHeaders    []string `yaml:"expose_headers"`
	MaxAge           int      `yaml:"max_age"`
	AllowCredentials bool     `yaml:"allow_credentials"`
}

// RateLimit configures the fixed-window rate limiter.
type RateLimit struct {
	Max           int           `yaml:"max"`
	Window        time.Duration `yaml:"window"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

// Auth configures token authentication.
type Auth struct {
	// Required rejects unauthenticated requests globally. The demo API
	// leaves this off; admin routes enforce auth per-route regardless.
	Required bool `yaml:"required"`
}

// Log configures structured logging.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	// CloudFormat selects a cloud log flavor ("gcp" adds severity fields).
	CloudFormat string `yaml:"cloud_format"`
}

// Observability configures optional OpenTelemetry tracing.
type Observability struct {
	OTelEnabled     bool   `yaml:"otel_enabled"`
	OTelEndpoint    string `yaml:"otel_endpoint"`
	OTelServiceName string `yaml:"otel_service_name"`
}

// Defaults returns a Config with sensible defaults.
func Defaults() Config {
	return Config{
		Env: "development",
		Server: Server{
			Host:         "127.0.0.1",
			Port:         3000,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		CORS: CORS{
			AllowOrigins: []string{"*"},
			AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders: []string{"Content-Type", "Authorization", "X-Request-ID"},
			MaxAge:       3600,
		},
		RateLimit: RateLimit{
			Max:           100,
			Window:        time.Minute,
			SweepInterval: 5 * time.Minute,
		},
		Auth: Auth{
			Required: false,
		},
		Log: Log{
			Level:  "info",
			Format: "json",
		},
		Observability: Observability{
			OTelEnabled:     false,
			OTelEndpoint:    "http://localhost:4318",
			OTelServiceName: "salute",
		},
	}
}

// Load reads configuration from the given YAML file path, then applies
// environment variable overrides. If path is empty, only defaults and
// environment variables are used.
func Load(path string) (Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := validate(cfg); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides reads SALUTE_* environment variables and overrides the
// corresponding config values.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SALUTE_ENV"); v != "" {
		cfg.Env = strings.ToLower(v)
	}
	if v := os.Getenv("SALUTE_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("SALUTE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("SALUTE_CORS_ORIGINS"); v != "" {
		cfg.CORS.AllowOrigins = splitAndTrim(v)
	}
	if v := os.Getenv("SALUTE_RATELIMIT_MAX"); v != "" {
		if max, err := strconv.Atoi(v); err == nil {
			cfg.RateLimit.Max = max
		}
	}
	if v := os.Getenv("SALUTE_RATELIMIT_WINDOW"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.RateLimit.Window = d
		}
	}
	if v := os.Getenv("SALUTE_AUTH_REQUIRED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Auth.Required = b
		}
	}
	if v := os.Getenv("SALUTE_LOG_LEVEL"); v != "" {
		cfg.Log.Level = strings.ToLower(v)
	}
	if v := os.Getenv("SALUTE_LOG_FORMAT"); v != "" {
		cfg.Log.Format = strings.ToLower(v)
	}
	if v := os.Getenv("SALUTE_OTEL_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Observability.OTelEnabled = b
		}
	}
	if v := os.Getenv("SALUTE_OTEL_ENDPOINT"); v != "" {
		cfg.Observability.OTelEndpoint = strings.TrimSpace(v)
	}
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// validate checks that the configuration is internally consistent.
func validate(cfg Config) error {
	var errs []error

	if cfg.Env != "development" && cfg.Env != "production" {
		errs = append(errs, fmt.Errorf("env must be development or production; got %q", cfg.Env))
	}
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", cfg.Server.Port))
	}
	if cfg.RateLimit.Max < 1 {
		errs = append(errs, errors.New("ratelimit.max must be at least 1"))
	}
	if cfg.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("ratelimit.window must be positive"))
	}
	if cfg.RateLimit.SweepInterval <= 0 {
		errs = append(errs, errors.New("ratelimit.sweep_interval must be positive"))
	}
	if len(cfg.CORS.AllowOrigins) == 0 {
		errs = append(errs, errors.New("cors.allow_origins must not be empty"))
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Log.Level] {
		errs = append(errs, fmt.Errorf("log.level must be one of debug, info, warn, error; got %q", cfg.Log.Level))
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[cfg.Log.Format] {
		errs = append(errs, fmt.Errorf("log.format must be json or text; got %q", cfg.Log.Format))
	}

	return errors.Join(errs...)
}

// Development reports whether the server runs in development mode.
func (c Config) Development() bool {
	return c.Env == "development"
}

// Addr returns the listen address as "host:port".
func (s Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
