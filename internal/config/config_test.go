package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0644))
	return dir
}

func TestLoadConfig_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("STORAGE_TYPE", "minio")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, "guest", cfg.Identity.Provider)
	assert.Equal(t, uint(1), cfg.Identity.Guest.ID)
	assert.Equal(t, "guest@example.com", cfg.Identity.Guest.Email)
	assert.Equal(t, "Guest", cfg.Identity.Guest.Name)
	assert.Equal(t, "0 8 * * *", cfg.Reminder.Schedule)
	assert.Equal(t, 587, cfg.Email.Port)
	assert.Equal(t, 10*time.Minute, cfg.Redis.InsightTTL)
	assert.Equal(t, 72*time.Hour, cfg.JWT.ExpireTime)
	assert.Equal(t, "minio", cfg.Storage.Type)
	assert.Empty(t, cfg.ConfigFile)
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	dir := writeConfig(t, `
server:
  port: "8080"
  mode: debug
database:
  driver: sqlite
  path: test.db
storage:
  type: minio
email:
  host: smtp.example.com
  port: 2525
reminder:
  schedule: "30 7 * * *"
redis:
  insight_ttl: 90s
`)
	t.Setenv("DEFAULT_USER_EMAIL", "me@example.com")
	t.Setenv("EMAIL_PASS", "secret")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "smtp.example.com", cfg.Email.Host)
	assert.Equal(t, 2525, cfg.Email.Port)
	assert.Equal(t, "secret", cfg.Email.Password)
	assert.Equal(t, "me@example.com", cfg.Identity.Guest.Email)
	assert.Equal(t, "30 7 * * *", cfg.Reminder.Schedule)
	assert.Equal(t, 90*time.Second, cfg.Redis.InsightTTL)
	assert.Equal(t, filepath.Join(dir, "config.yaml"), cfg.ConfigFile)
}

func TestValidate(t *testing.T) {
	t.Run("unknown provider", func(t *testing.T) {
		cfg := &Config{Identity: IdentityConfig{Provider: "ldap"}, Database: DatabaseConfig{Driver: "mysql"}}
		assert.Error(t, cfg.Validate())
	})

	t.Run("jwt requires a secret", func(t *testing.T) {
		cfg := &Config{Identity: IdentityConfig{Provider: "jwt"}, Database: DatabaseConfig{Driver: "mysql"}}
		assert.Error(t, cfg.Validate())
	})

	t.Run("short secret rejected in release mode", func(t *testing.T) {
		cfg := &Config{
			Server:   ServerConfig{Mode: "release"},
			Identity: IdentityConfig{Provider: "jwt"},
			JWT:      JWTConfig{Secret: "short"},
			Database: DatabaseConfig{Driver: "mysql"},
		}
		assert.Error(t, cfg.Validate())
	})

	t.Run("unknown database driver", func(t *testing.T) {
		cfg := &Config{Identity: IdentityConfig{Provider: "guest"}, Database: DatabaseConfig{Driver: "postgres"}}
		assert.Error(t, cfg.Validate())
	})

	t.Run("guest with mysql", func(t *testing.T) {
		cfg := &Config{Identity: IdentityConfig{Provider: "guest"}, Database: DatabaseConfig{Driver: "mysql"}}
		assert.NoError(t, cfg.Validate())
	})
}
