// Copyright (c) 2026 Dripside. All rights reserved.
// Author: dev@dripside.in

package config_test

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dripside-in/dripside-backend/internal/platform/config"
)

func strongSecret(seed string) string {
	return seed + strings.Repeat("x", 40)
}

func validConfig(environment string) *config.Config {
	return &config.Config{
		Environment: environment,
		Tokens: config.Tokens{
			AccessSecret:     strongSecret("access"),
			RefreshSecret:    strongSecret("refresh"),
			ActivationSecret: strongSecret("activation"),
			ResetSecret:      strongSecret("reset"),
		},
		OTP: config.OTP{
			MaxFailedAttempts: 5,
			ExpireTime:        5 * time.Minute,
			FailedResetWindow: 5 * time.Hour,
		},
	}
}

/*
TestValidate_Secrets covers the fail-closed rules for token secrets.
*/
func TestValidate_Secrets(t *testing.T) {
	tests := []struct {
		name        string
		environment string
		mutate      func(cfg *config.Config)
		wantErr     bool
	}{
		{"strong_production", "production", func(*config.Config) {}, false},
		{"missing_in_production", "production", func(cfg *config.Config) { cfg.Tokens.ResetSecret = "" }, true},
		{"missing_in_development", "development", func(cfg *config.Config) { cfg.Tokens.AccessSecret = "" }, true},
		{"default_in_production", "production", func(cfg *config.Config) { cfg.Tokens.AccessSecret = "secret" }, true},
		{"default_in_development", "development", func(cfg *config.Config) { cfg.Tokens.AccessSecret = "secret" }, false},
		{"short_in_staging", "staging", func(cfg *config.Config) { cfg.Tokens.RefreshSecret = "short-but-custom" }, true},
		{"reused_in_production", "production", func(cfg *config.Config) { cfg.Tokens.RefreshSecret = cfg.Tokens.AccessSecret }, true},
		{"zero_otp_attempts", "production", func(cfg *config.Config) { cfg.OTP.MaxFailedAttempts = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(tt.environment)
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

/*
TestLoad_Defaults verifies environment parsing and the documented defaults.
*/
func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/dripside")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("JWT_ACCESS_TOKEN_SECRET", strongSecret("access"))
	t.Setenv("JWT_REFRESH_TOKEN_SECRET", strongSecret("refresh"))
	t.Setenv("JWT_ACTIVATION_TOKEN_SECRET", strongSecret("activation"))
	t.Setenv("JWT_RESET_TOKEN_SECRET", strongSecret("reset"))

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.OTP.MaxFailedAttempts)
	assert.Equal(t, 5*time.Minute, cfg.OTP.ExpireTime)
	assert.Equal(t, 5*time.Hour, cfg.OTP.FailedResetWindow)
	assert.Equal(t, 8760*time.Hour, cfg.Tokens.AccessTTL)
	assert.Equal(t, "AccessToken", cfg.Cookies.AccessToken)
	assert.Equal(t, "RefreshSession", cfg.Cookies.RefreshSession)
	assert.True(t, cfg.IsProduction())
	assert.False(t, cfg.StorageEnabled())
}

/*
TestLoad_RefusesDefaultSecret ensures the server cannot start on a literal default.
*/
func TestLoad_RefusesDefaultSecret(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/dripside")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("JWT_ACCESS_TOKEN_SECRET", "secret")
	t.Setenv("JWT_REFRESH_TOKEN_SECRET", strongSecret("refresh"))
	t.Setenv("JWT_ACTIVATION_TOKEN_SECRET", strongSecret("activation"))
	t.Setenv("JWT_RESET_TOKEN_SECRET", strongSecret("reset"))

	_, err := config.Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrWeakSecret)
}

/*
TestAllowedOrigins splits and trims EXTRA_ORIGINS.
*/
func TestAllowedOrigins(t *testing.T) {
	cfg := &config.Config{ExtraOrigins: " http://localhost:3000, ,https://admin.example.com "}
	assert.Equal(t, []string{"http://localhost:3000", "https://admin.example.com"}, cfg.AllowedOrigins())

	empty := &config.Config{}
	assert.Empty(t, empty.AllowedOrigins())
}

/*
TestLoad_UnsetEnvironmentFailsClosed treats a missing ENVIRONMENT as production.
*/
func TestLoad_UnsetEnvironmentFailsClosed(t *testing.T) {
	t.Setenv("ENVIRONMENT", "")
	require.NoError(t, os.Unsetenv("ENVIRONMENT"))
	t.Setenv("DATABASE_URL", "postgres://localhost/dripside")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("JWT_ACCESS_TOKEN_SECRET", "secret")
	t.Setenv("JWT_REFRESH_TOKEN_SECRET", strongSecret("refresh"))
	t.Setenv("JWT_ACTIVATION_TOKEN_SECRET", strongSecret("activation"))
	t.Setenv("JWT_RESET_TOKEN_SECRET", strongSecret("reset"))

	_, err := config.Load()
	assert.ErrorIs(t, err, config.ErrWeakSecret)

	t.Setenv("JWT_ACCESS_TOKEN_SECRET", strongSecret("access"))
	cfg, err := config.Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.False(t, cfg.IsDevelopment())
}
