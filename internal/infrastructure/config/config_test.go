package config

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"SESSION_SECRET": testSecret,
	}))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.True(t, cfg.Development())
	assert.Equal(t, 168*time.Hour, cfg.Session.TTL)
	assert.Equal(t, "learning_portal", cfg.Mongo.Database)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 5.0, cfg.Auth.RateLimit)
	assert.Equal(t, 10, cfg.Auth.RateBurst)
	assert.Equal(t, 4, cfg.AuditWorkers)
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"SESSION_SECRET":   testSecret,
		"SESSION_TTL":      "2h",
		"ENV":              "production",
		"GOOGLE_CLIENT_ID": "abc.apps.googleusercontent.com",
		"AUTH_RATE_LIMIT":  "0.5",
	}))
	require.NoError(t, err)

	assert.Equal(t, 2*time.Hour, cfg.Session.TTL)
	assert.False(t, cfg.Development())
	assert.Equal(t, "abc.apps.googleusercontent.com", cfg.Google.ClientID)
	assert.Equal(t, 0.5, cfg.Auth.RateLimit)
}

func TestLoad_SecretRequired(t *testing.T) {
	_, err := load(context.Background(), envconfig.MapLookuper(map[string]string{}))
	require.Error(t, err)

	_, err = load(context.Background(), envconfig.MapLookuper(map[string]string{"SESSION_SECRET": "short"}))
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "32 bytes"))
}

func TestLoad_RateLimitMustBePositive(t *testing.T) {
	for _, env := range []map[string]string{
		{"SESSION_SECRET": testSecret, "AUTH_RATE_LIMIT": "0"},
		{"SESSION_SECRET": testSecret, "AUTH_RATE_LIMIT": "-1"},
		{"SESSION_SECRET": testSecret, "AUTH_RATE_BURST": "0"},
	} {
		_, err := load(context.Background(), envconfig.MapLookuper(env))
		require.Error(t, err, "env %v", env)
		assert.Contains(t, err.Error(), "must be positive")
	}
}
