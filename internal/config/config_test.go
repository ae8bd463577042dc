package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("CNAE_CACHE_TTL", "")
	t.Setenv("ALLOWED_ORIGINS", "")

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 5*time.Minute, cfg.CNAECacheTTL)
	assert.Equal(t, 24*time.Hour, cfg.AccessTokenTTL)
	assert.NotEmpty(t, cfg.AllowedOrigins)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("CNAE_CACHE_TTL", "30s")
	t.Setenv("DB_MAX_CONNS", "25")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("ACCESS_TOKEN_TTL", "not-a-duration")

	cfg := Load()
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 30*time.Second, cfg.CNAECacheTTL)
	assert.Equal(t, 25, cfg.DBMaxConns)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, 24*time.Hour, cfg.AccessTokenTTL)
}

func TestValidate(t *testing.T) {
	cfg := &Config{GinMode: "release", AccessTokenTTL: time.Hour, RefreshTokenTTL: time.Hour, CNAECacheTTL: time.Minute}
	assert.Error(t, cfg.Validate())

	cfg.GinMode = "debug"
	require.NoError(t, cfg.Validate())
	assert.NotEmpty(t, cfg.JWTSecret)

	cfg.CNAECacheTTL = 0
	assert.Error(t, cfg.Validate())
}

func TestDSN(t *testing.T) {
	cfg := &Config{DBUser: "u", DBPassword: "p", DBHost: "h", DBPort: "5432", DBName: "occ", DBSSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@h:5432/occ?sslmode=disable", cfg.DSN())
}
