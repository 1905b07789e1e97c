package config

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "")
	t.Setenv("GITHUB_HTTP_TIMEOUT", "")
	t.Setenv("PORT", "")

	cfg := Load(zerolog.Nop())
	assert.Equal(t, "8787", cfg.Port)
	assert.Equal(t, BackendFile, cfg.Storage.Backend)
	assert.Equal(t, 10*time.Second, cfg.GitHub.HTTPTimeout)
	assert.Equal(t, "https://api.github.com", cfg.GitHub.DefaultAPIURL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "Redis")
	t.Setenv("GITHUB_HTTP_TIMEOUT", "3s")
	t.Setenv("PR_REFRESH_INTERVAL", "not-a-duration")
	t.Setenv("CORS_ORIGINS", " http://a , ,http://b")

	cfg := Load(zerolog.Nop())
	assert.Equal(t, BackendRedis, cfg.Storage.Backend)
	assert.Equal(t, 3*time.Second, cfg.GitHub.HTTPTimeout)
	assert.Equal(t, 5*time.Minute, cfg.PRRefreshInterval)
	assert.Equal(t, []string{"http://a", "http://b"}, cfg.CORSOrigins)
}
