package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("ACCESS_TOKEN_SECRET", "access")
	t.Setenv("ACCESS_TOKEN_EXPIRY", "15m")
	t.Setenv("REFRESH_TOKEN_SECRET", "refresh")
	t.Setenv("REFRESH_TOKEN_EXPIRY", "10d")
}

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "8000", c.Port)
	assert.Equal(t, "mongo", c.StoreDriver)
	assert.True(t, c.CookieSecure)
	assert.Equal(t, 5, c.LoginMaxAttempts)
	assert.Equal(t, 15*time.Minute, c.LoginCooldown)
}

func TestLoad_FromEnv(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test,")
	t.Setenv("COOKIE_SECURE", "false")
	t.Setenv("LOGIN_MAX_ATTEMPTS", "3")

	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 15*time.Minute, c.AccessTokenTTL)
	assert.Equal(t, 10*24*time.Hour, c.RefreshTokenTTL)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, c.AllowedOrigins)
	assert.False(t, c.CookieSecure)
	assert.Equal(t, 3, c.LoginMaxAttempts)
}

func TestLoad_MissingSecretsIsFatal(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("ACCESS_TOKEN_SECRET", "")
	t.Setenv("ACCESS_TOKEN_EXPIRY", "")
	t.Setenv("REFRESH_TOKEN_SECRET", "")
	t.Setenv("REFRESH_TOKEN_EXPIRY", "")

	_, err := Load()
	require.Error(t, err)
	for _, name := range []string{"ACCESS_TOKEN_SECRET", "ACCESS_TOKEN_EXPIRY", "REFRESH_TOKEN_SECRET", "REFRESH_TOKEN_EXPIRY"} {
		assert.Contains(t, err.Error(), name)
	}
}

func TestValidate_RejectsSharedSecret(t *testing.T) {
	var c Config
	c.LoadDefaults()
	c.AccessTokenSecret = "same"
	c.RefreshTokenSecret = "same"
	c.AccessTokenTTL = time.Minute
	c.RefreshTokenTTL = time.Hour

	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must differ")
}

func TestValidate_LoginCooldown(t *testing.T) {
	var c Config
	c.LoadDefaults()
	c.AccessTokenSecret, c.RefreshTokenSecret = "a", "r"
	c.AccessTokenTTL, c.RefreshTokenTTL = time.Minute, time.Hour

	c.LoginCooldown = 0
	assert.ErrorContains(t, c.Validate(), "LOGIN_COOLDOWN")

	c.LoginMaxAttempts = 0
	assert.NoError(t, c.Validate(), "throttling disabled needs no cooldown")
}

func TestLoad_ZeroCooldownRejected(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("LOGIN_COOLDOWN", "0s")

	_, err := Load()
	assert.ErrorContains(t, err, "LOGIN_COOLDOWN")
}

func TestValidate_StoreDriver(t *testing.T) {
	var c Config
	c.LoadDefaults()
	c.AccessTokenSecret, c.RefreshTokenSecret = "a", "r"
	c.AccessTokenTTL, c.RefreshTokenTTL = time.Minute, time.Hour

	c.StoreDriver = "postgres"
	assert.ErrorContains(t, c.Validate(), "POSTGRES_DSN")

	c.PostgresDSN = "postgres://localhost/db"
	assert.NoError(t, c.Validate())

	c.StoreDriver = "cassandra"
	assert.ErrorContains(t, c.Validate(), "unknown STORE_DRIVER")
}

func TestLoad_YAMLFileThenEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yml := `
port: "9090"
store_driver: memory
access_token_secret: file-access
access_token_expiry: 30m
refresh_token_secret: file-refresh
refresh_token_expiry: 2d
login_cooldown: 1m
media:
  backend: gcs
  gcs_bucket: avatars
seed:
  username: admin
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("ACCESS_TOKEN_SECRET", "")
	t.Setenv("ACCESS_TOKEN_EXPIRY", "")
	t.Setenv("REFRESH_TOKEN_SECRET", "env-refresh")
	t.Setenv("REFRESH_TOKEN_EXPIRY", "")
	t.Setenv("PORT", "")

	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", c.Port)
	assert.Equal(t, "memory", c.StoreDriver)
	assert.Equal(t, "file-access", c.AccessTokenSecret)
	assert.Equal(t, "env-refresh", c.RefreshTokenSecret)
	assert.Equal(t, 30*time.Minute, c.AccessTokenTTL)
	assert.Equal(t, 48*time.Hour, c.RefreshTokenTTL)
	assert.Equal(t, time.Minute, c.LoginCooldown)
	assert.Equal(t, "gcs", c.Media.Backend)
	assert.Equal(t, "avatars", c.Media.GCSBucket)
	assert.Equal(t, "admin", c.Seed.Username)
	assert.True(t, c.CookieSecure, "defaults survive the file overlay")
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"15m", 15 * time.Minute, false},
		{"1h", time.Hour, false},
		{"10d", 240 * time.Hour, false},
		{" 1d ", 24 * time.Hour, false},
		{"0d", 0, true},
		{"xd", 0, true},
		{"soon", 0, true},
	}
	for _, tc := range tests {
		got, err := ParseDuration(tc.in)
		if tc.wantErr {
			assert.Error(t, err, "input %q", tc.in)
			continue
		}
		require.NoError(t, err, "input %q", tc.in)
		assert.Equal(t, tc.want, got)
	}
}
