// Copyright (c) 2026 Dripside. All rights reserved.
// Author: dev@dripside.in

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (tokens, OTP, sessions) via constructors.
  - Fail Closed: Token secrets are validated before anything is wired.
*/
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/dripside-in/dripside-backend/internal/platform/constants"
)

// # Configuration Schema

// Config holds all runtime configuration for the Dripside API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"production"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value store (Redis) holding refresh sessions
	RedisURL string `env:"REDIS_URL,required"`

	// Tokens groups the signing secrets and lifetimes of every token kind.
	Tokens Tokens `envPrefix:"JWT_"`

	// OTP tunes the one-time code lifecycle.
	OTP OTP `envPrefix:"OTP_"`

	// Cookies names the session cookies.
	Cookies Cookies `envPrefix:"COOKIE_"`

	// Object Storage (S3-compatible)
	S3Bucket    string `env:"S3_BUCKET"`
	S3Region    string `env:"S3_REGION"     envDefault:"auto"`
	S3Endpoint  string `env:"S3_ENDPOINT"`
	S3AccessKey string `env:"S3_ACCESS_KEY"`
	S3SecretKey string `env:"S3_SECRET_KEY"`

	// MailSender is the From address handed to the notifier.
	MailSender string `env:"MAIL_SENDER" envDefault:"no-reply@dripside.in"`

	// Cross-Origin Resource Sharing
	ExtraOrigins string `env:"EXTRA_ORIGINS"`
}

// Tokens holds per-kind secrets and lifetimes. Every kind is keyed independently.
type Tokens struct {
	Issuer string `env:"TOKEN_ISSUER" envDefault:"dripside.in"`

	AccessSecret     string `env:"ACCESS_TOKEN_SECRET"`
	RefreshSecret    string `env:"REFRESH_TOKEN_SECRET"`
	ActivationSecret string `env:"ACTIVATION_TOKEN_SECRET"`
	ResetSecret      string `env:"RESET_TOKEN_SECRET"`

	AccessTTL     time.Duration `env:"ACCESS_TOKEN_TTL"     envDefault:"8760h"`
	RefreshTTL    time.Duration `env:"REFRESH_TOKEN_TTL"    envDefault:"8760h"`
	ActivationTTL time.Duration `env:"ACTIVATION_TOKEN_TTL" envDefault:"8760h"`
	ResetTTL      time.Duration `env:"RESET_TOKEN_TTL"      envDefault:"8760h"`
}

// OTP holds the one-time code tuning numbers.
type OTP struct {
	MaxFailedAttempts int           `env:"MAX_FAILED_ATTEMPTS" envDefault:"5"`
	ExpireTime        time.Duration `env:"EXPIRE_TIME"         envDefault:"5m"`
	FailedResetWindow time.Duration `env:"FAILED_RESET_TIME"   envDefault:"5h"`
}

// Cookies holds the names of the token cookies and their session-flag companions.
type Cookies struct {
	AccessToken    string `env:"ACCESS_TOKEN"    envDefault:"AccessToken"`
	AccessSession  string `env:"ACCESS_SESSION"  envDefault:"AccessSession"`
	RefreshToken   string `env:"REFRESH_TOKEN"   envDefault:"RefreshToken"`
	RefreshSession string `env:"REFRESH_SESSION" envDefault:"RefreshSession"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct and validates it.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == constants.EnvDevelopment
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == constants.EnvProduction
}

// StorageEnabled reports whether object storage is configured.
func (c *Config) StorageEnabled() bool {
	return c.S3Bucket != ""
}

// AllowedOrigins returns the comma-separated EXTRA_ORIGINS as a list.
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, origin := range strings.Split(c.ExtraOrigins, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

// # Validation

// minSecretLength is the shortest HMAC secret accepted outside development.
const minSecretLength = 32

var knownWeakSecrets = map[string]struct{}{
	"secret":      {},
	"changeme":    {},
	"password":    {},
	"test":        {},
	"dev":         {},
	"development": {},
}

// ErrWeakSecret marks a token secret rejected by [Config.Validate].
var ErrWeakSecret = errors.New("config: weak or missing token secret")

// Validate checks invariants that env tags cannot express.
//
// Outside development every token secret must be set, not a known default,
// at least 32 characters long, and distinct from the other kinds. In
// development weak secrets only produce a warning, but empty ones are still
// rejected.
func (c *Config) Validate() error {
	secrets := []struct {
		name  string
		value string
	}{
		{"JWT_ACCESS_TOKEN_SECRET", c.Tokens.AccessSecret},
		{"JWT_REFRESH_TOKEN_SECRET", c.Tokens.RefreshSecret},
		{"JWT_ACTIVATION_TOKEN_SECRET", c.Tokens.ActivationSecret},
		{"JWT_RESET_TOKEN_SECRET", c.Tokens.ResetSecret},
	}

	seen := make(map[string]string, len(secrets))
	for _, secret := range secrets {
		if secret.value == "" {
			return fmt.Errorf("%w: %s is required", ErrWeakSecret, secret.name)
		}

		_, weak := knownWeakSecrets[secret.value]
		short := len(secret.value) < minSecretLength
		if weak || short {
			if !c.IsDevelopment() {
				return fmt.Errorf("%w: %s must be at least %d characters and not a default value", ErrWeakSecret, secret.name, minSecretLength)
			}
			slog.Warn("weak_token_secret_in_development", slog.String("variable", secret.name))
		}

		if other, dup := seen[secret.value]; dup && !c.IsDevelopment() {
			return fmt.Errorf("%w: %s reuses the value of %s", ErrWeakSecret, secret.name, other)
		}
		seen[secret.value] = secret.name
	}

	if c.OTP.MaxFailedAttempts < 1 {
		return fmt.Errorf("config: OTP_MAX_FAILED_ATTEMPTS must be positive")
	}

	if c.OTP.ExpireTime <= 0 || c.OTP.FailedResetWindow <= 0 {
		return fmt.Errorf("config: OTP durations must be positive")
	}

	return nil
}
