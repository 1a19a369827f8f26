package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keys = []string{
	"PORT", "APP_ENV", "DATABASE_URL", "DEFAULT_NETWORK", "MAX_MANIFEST_BYTES", "CACHE_SIZE",
	"STRICT_MANIFESTS", "LOG_LEVEL", "LOG_FORMAT", "MINIO_ENDPOINT", "MINIO_PORT", "MINIO_REGION",
	"MINIO_ACCESS_KEY", "MINIO_SECRET_KEY", "MINIO_ROOT_USER", "MINIO_ROOT_PASSWORD", "MINIO_BUCKET",
	"MINIO_USE_SSL", "MINIO_URL_EXPIRY", "AUTH_JWT_SECRET", "AUTH_ISSUER", "AUTH_ADMIN_ROLE",
	"CORS_ORIGINS", "FRONTEND_URL", "RATE_LIMIT_MAX", "RATE_LIMIT_WINDOW",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":3000", cfg.Port)
	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, "mainnet", cfg.DefaultNetwork)
	assert.Equal(t, 10<<20, cfg.MaxManifestBytes)
	assert.Equal(t, 512, cfg.CacheSize)
	assert.False(t, cfg.StrictManifests)
	assert.False(t, cfg.Storage.Enabled)
	assert.Equal(t, "pids-datasets", cfg.Storage.Bucket)
	assert.Equal(t, time.Hour, cfg.Storage.URLExpiry)
	assert.Equal(t, "admin", cfg.Auth.AdminRole)
	assert.Equal(t, []string{"http://localhost:8080"}, cfg.CORSOrigins)
	assert.Equal(t, 100, cfg.RateLimitMax)
	assert.Equal(t, 15*time.Minute, cfg.RateLimitWindow)
}

func TestLoad_FromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "8080")
	t.Setenv("DATABASE_URL", "postgres://localhost/pids")
	t.Setenv("DEFAULT_NETWORK", "calibration")
	t.Setenv("STRICT_MANIFESTS", "true")
	t.Setenv("MINIO_ENDPOINT", "minio")
	t.Setenv("MINIO_PORT", "9000")
	t.Setenv("MINIO_ROOT_USER", "root")
	t.Setenv("MINIO_SECRET_KEY", "secret")
	t.Setenv("MINIO_URL_EXPIRY", "15m")
	t.Setenv("AUTH_JWT_SECRET", "s3cret")
	t.Setenv("CORS_ORIGINS", "https://pids.example.org, https://admin.pids.example.org")
	t.Setenv("RATE_LIMIT_MAX", "500")
	t.Setenv("RATE_LIMIT_WINDOW", "1m")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Port)
	assert.Equal(t, "postgres://localhost/pids", cfg.DatabaseURL)
	assert.Equal(t, "calibration", cfg.DefaultNetwork)
	assert.True(t, cfg.StrictManifests)
	assert.True(t, cfg.Storage.Enabled)
	assert.Equal(t, "minio:9000", cfg.Storage.Endpoint)
	assert.Equal(t, "root", cfg.Storage.AccessKey)
	assert.Equal(t, "secret", cfg.Storage.SecretKey)
	assert.Equal(t, 15*time.Minute, cfg.Storage.URLExpiry)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, []string{"https://pids.example.org", "https://admin.pids.example.org"}, cfg.CORSOrigins)
	assert.Equal(t, 500, cfg.RateLimitMax)
	assert.Equal(t, time.Minute, cfg.RateLimitWindow)
}

func TestLoad_Invalid(t *testing.T) {
	clearEnv(t)
	t.Setenv("MAX_MANIFEST_BYTES", "lots")
	_, err := Load()
	assert.ErrorContains(t, err, "MAX_MANIFEST_BYTES")

	clearEnv(t)
	t.Setenv("MINIO_URL_EXPIRY", "soon")
	_, err = Load()
	assert.ErrorContains(t, err, "MINIO_URL_EXPIRY")

	clearEnv(t)
	t.Setenv("DEFAULT_NETWORK", "mainet")
	_, err = Load()
	assert.ErrorContains(t, err, "DEFAULT_NETWORK")

	clearEnv(t)
	t.Setenv("RATE_LIMIT_WINDOW", "-1m")
	_, err = Load()
	assert.ErrorContains(t, err, "RATE_LIMIT_WINDOW")
}
