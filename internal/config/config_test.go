package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"API_ADDR", "APP_ENV", "NEXTJS_ENV", "CONTENT_BACKEND", "ALLOWED_EMAILS", "CONTACT_RATE_LIMIT", "CONTACT_REDIS_URL", "UPLOADS_USE_SSL"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, ":8787", cfg.Addr)
	assert.Equal(t, BackendRedis, cfg.Backend)
	assert.Equal(t, "production", cfg.Environment)
	assert.False(t, cfg.IsDevelopment())
	assert.Empty(t, cfg.AllowedEmails)
	assert.Equal(t, 3, cfg.ContactRateLimit)
	assert.Equal(t, time.Hour, cfg.ContactRateWindow)
	assert.True(t, cfg.UploadsUseSSL)
	assert.Equal(t, "redis://localhost:6379/1", cfg.ContactRedisURL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("NEXTJS_ENV", "development")
	t.Setenv("APP_ENV", "")
	t.Setenv("CONTENT_BACKEND", "Badger")
	t.Setenv("ALLOWED_EMAILS", " a@example.com,,b@example.com ")
	t.Setenv("CONTACT_RATE_LIMIT", "not-a-number")
	t.Setenv("CONTACT_RATE_WINDOW_SECONDS", "60")
	t.Setenv("UPLOADS_USE_SSL", "false")

	cfg := Load()
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, BackendBadger, cfg.Backend)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, cfg.AllowedEmails)
	assert.Equal(t, 3, cfg.ContactRateLimit)
	assert.Equal(t, time.Minute, cfg.ContactRateWindow)
	assert.False(t, cfg.UploadsUseSSL)
}

func TestAppEnvWinsOverNextEnv(t *testing.T) {
	t.Setenv("NEXTJS_ENV", "development")
	t.Setenv("APP_ENV", "production")
	assert.False(t, Load().IsDevelopment())
}

func TestLoadEnvFilesPrefersLocal(t *testing.T) {
	dir := t.TempDir()
	local := filepath.Join(dir, ".env.local")
	base := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(local, []byte("ATELIER_TEST_VALUE=local\n"), 0o600))
	require.NoError(t, os.WriteFile(base, []byte("ATELIER_TEST_VALUE=base\nATELIER_TEST_OTHER=base\n"), 0o600))

	t.Setenv("ATELIER_TEST_VALUE", "")
	t.Setenv("ATELIER_TEST_OTHER", "")
	os.Unsetenv("ATELIER_TEST_VALUE")
	os.Unsetenv("ATELIER_TEST_OTHER")

	require.NoError(t, LoadEnvFiles(local, base, filepath.Join(dir, "missing.env")))
	assert.Equal(t, "local", os.Getenv("ATELIER_TEST_VALUE"))
	assert.Equal(t, "base", os.Getenv("ATELIER_TEST_OTHER"))
}
