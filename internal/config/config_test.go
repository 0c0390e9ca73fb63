package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "0123456789abcdef0123456789abcdef"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", secret)

	cfg, err := Load()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 2*time.Second, cfg.Auth.LookupTimeout)
	assert.Equal(t, "memory", cfg.Cache.Type)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "_cp-verify", cfg.Domains.VerificationPrefix)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", secret)
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("JWT_TTL", "1h30m")
	t.Setenv("PLATFORM_ADMIN_EMAIL", "Root@Platform.Test")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.test, https://b.test,")
	t.Setenv("CACHE_ENABLED", "false")
	t.Setenv("TENANT_LOOKUP_TIMEOUT", "not-a-duration")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 90*time.Minute, cfg.Auth.TokenTTL)
	assert.Equal(t, "root@platform.test", cfg.Auth.PlatformAdminEmail)
	assert.Equal(t, []string{"https://a.test", "https://b.test"}, cfg.CORS.AllowedOrigins)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, 2*time.Second, cfg.Auth.LookupTimeout, "unparsable values fall back to the default")
}

func TestLoad_DotEnvFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("JWT_ISSUER=from-dotenv\n"), 0o600))
	t.Chdir(dir)
	t.Setenv("JWT_ISSUER", "")
	os.Unsetenv("JWT_ISSUER")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Auth.Issuer)
}

func TestValidate(t *testing.T) {
	t.Setenv("JWT_SECRET", secret)

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"short secret", func(c *Config) { c.Auth.JWTSecret = "short" }},
		{"empty issuer", func(c *Config) { c.Auth.Issuer = "" }},
		{"empty audience", func(c *Config) { c.Auth.Audience = "" }},
		{"zero ttl", func(c *Config) { c.Auth.TokenTTL = 0 }},
		{"zero lookup timeout", func(c *Config) { c.Auth.LookupTimeout = 0 }},
		{"unknown cache", func(c *Config) { c.Cache.Type = "memcached" }},
		{"unknown log format", func(c *Config) { c.Log.Format = "xml" }},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }},
		{"empty verification prefix", func(c *Config) { c.Domains.VerificationPrefix = "" }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := Load()
			require.NoError(t, err)
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
