package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"HTTP_ADDR", "JWT_SECRET", "ACCESS_TOKEN_TTL", "REFRESH_TOKEN_TTL", "BCRYPT_COST", "CORS_ORIGINS", "SHUTDOWN_TIMEOUT"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestConfigFromEnv_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := ConfigFromEnv()
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0:8431", cfg.HTTPAddr)
	require.Equal(t, "s3cret", cfg.JWTSecret)
	require.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	require.Equal(t, 7*24*time.Hour, cfg.RefreshTokenTTL)
	require.Equal(t, 12, cfg.BcryptCost)
	require.Equal(t, []string{"http://localhost:3000"}, cfg.CORSOrigins)
	require.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
}

func TestConfigFromEnv_MissingSecret(t *testing.T) {
	clearEnv(t)

	_, err := ConfigFromEnv()
	require.Error(t, err)

	t.Setenv("JWT_SECRET", "")
	_, err = ConfigFromEnv()
	require.Error(t, err)
}

func TestConfigFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "k")
	t.Setenv("ACCESS_TOKEN_TTL", "1m")
	t.Setenv("CORS_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("BCRYPT_COST", "10")

	cfg, err := ConfigFromEnv()
	require.NoError(t, err)
	require.Equal(t, time.Minute, cfg.AccessTokenTTL)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	require.Equal(t, 10, cfg.BcryptCost)
}

func TestValidate(t *testing.T) {
	base := Config{JWTSecret: "k", AccessTokenTTL: time.Minute, RefreshTokenTTL: time.Hour, BcryptCost: 10}
	require.NoError(t, base.Validate())

	bad := base
	bad.BcryptCost = 2
	require.Error(t, bad.Validate())

	bad = base
	bad.BcryptCost = 40
	require.Error(t, bad.Validate())

	bad = base
	bad.AccessTokenTTL = 0
	require.Error(t, bad.Validate())

	bad = base
	bad.RefreshTokenTTL = -time.Second
	require.Error(t, bad.Validate())
}
