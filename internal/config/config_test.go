package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("MONITOR_SOURCE", "api")
	t.Setenv("API_URL", "https://example.com/api/messages.php")
	t.Setenv("API_KEY", "secret")
	t.Setenv("DISCORD_WEBHOOK_URL", "https://discord.com/api/webhooks/1/abc")
}

func TestLoad_Defaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load(Options{})
	require.NoError(t, err)

	assert.Equal(t, SourceAPI, cfg.Source)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, BackendFile, cfg.State.Backend)
	assert.Equal(t, "last_message_count.txt", cfg.State.File)
	assert.Equal(t, "smtp.gmail.com", cfg.Email.SMTPHost)
	assert.Equal(t, 587, cfg.Email.SMTPPort)
	assert.True(t, cfg.DiscordEnabled())
	assert.False(t, cfg.EmailEnabled())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("RETRY_MAX_ATTEMPTS", "5")

	path := filepath.Join(t.TempDir(), "monitor.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
request_timeout: 10s
retry:
  max_attempts: 2
  delay: 1s
  backoff: exponential
schedule_cron: "*/5 * * * *"
`), 0o644))

	cfg, err := Load(Options{ConfigFile: path, LogLevel: "debug"})
	require.NoError(t, err)

	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 5, cfg.Retry.MaxAttempts)
	assert.Equal(t, time.Second, cfg.Retry.Delay)
	assert.Equal(t, "exponential", cfg.Retry.Backoff)
	assert.Equal(t, "*/5 * * * *", cfg.ScheduleCron)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets.env")
	require.NoError(t, os.WriteFile(path, []byte(`
MONITOR_SOURCE=admin
ADMIN_URL=https://example.com/admin.php
ADMIN_PASSWORD=hunter2
EMAIL_USER=owner@example.com
EMAIL_PASS=app-password
`), 0o644))
	t.Cleanup(func() {
		for _, k := range []string{"MONITOR_SOURCE", "ADMIN_URL", "ADMIN_PASSWORD", "EMAIL_USER", "EMAIL_PASS"} {
			_ = os.Unsetenv(k)
		}
	})

	cfg, err := Load(Options{EnvFile: path})
	require.NoError(t, err)

	assert.Equal(t, SourceAdmin, cfg.Source)
	assert.Equal(t, "https://example.com/admin.php", cfg.AdminLink())
	assert.True(t, cfg.EmailEnabled())
	assert.Equal(t, "owner@example.com", cfg.Recipient())
	assert.Equal(t, []string{"email"}, cfg.RequiredChannels())
}

func TestLoad_MissingExplicitEnvFile(t *testing.T) {
	_, err := Load(Options{EnvFile: filepath.Join(t.TempDir(), "nope.env")})
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.APIURL = "https://example.com/api"
		cfg.APIKey = "k"
		cfg.Desktop.Enabled = true
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{name: "valid api", mutate: func(*Config) {}, ok: true},
		{name: "unknown source", mutate: func(c *Config) { c.Source = "rss" }},
		{name: "api without key", mutate: func(c *Config) { c.APIKey = "" }},
		{name: "browser needs api url", mutate: func(c *Config) { c.Source = SourceBrowser; c.APIURL = "" }},
		{name: "admin without url", mutate: func(c *Config) { c.Source = SourceAdmin; c.AdminPassword = "p" }},
		{name: "admin without password", mutate: func(c *Config) {
			c.Source = SourceAdmin
			c.AdminURL = "https://example.com/admin"
		}},
		{name: "admin without email", mutate: func(c *Config) {
			c.Source = SourceAdmin
			c.AdminURL = "https://example.com/admin"
			c.AdminPassword = "p"
			c.Discord.WebhookURL = "https://discord.com/api/webhooks/1/abc"
		}},
		{name: "admin complete", ok: true, mutate: func(c *Config) {
			c.Source = SourceAdmin
			c.AdminURL = "https://example.com/admin"
			c.AdminPassword = "p"
			c.Email.User = "owner@example.com"
			c.Email.Password = "p"
		}},
		{name: "smtp login that is not an address", ok: true, mutate: func(c *Config) {
			c.Email.User = "smtp-relay-user"
			c.Email.Password = "p"
		}},
		{name: "explicit recipient must be an address", mutate: func(c *Config) {
			c.Email.User = "smtp-relay-user"
			c.Email.Password = "p"
			c.Email.NotifyTo = "not-an-address"
		}},
		{name: "no channels", mutate: func(c *Config) { c.Desktop.Enabled = false }},
		{name: "email user without password", mutate: func(c *Config) { c.Email.User = "me@example.com" }},
		{name: "zero attempts", mutate: func(c *Config) { c.Retry.MaxAttempts = 0 }},
		{name: "sqlite without path", mutate: func(c *Config) { c.State.Backend = BackendSQLite; c.State.DB = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestLoad_AdminRequiresEmail(t *testing.T) {
	t.Setenv("MONITOR_SOURCE", "admin")
	t.Setenv("ADMIN_URL", "https://example.com/admin.php")
	t.Setenv("ADMIN_PASSWORD", "hunter2")
	t.Setenv("DISCORD_WEBHOOK_URL", "https://discord.com/api/webhooks/1/abc")

	_, err := Load(Options{})
	require.ErrorContains(t, err, "EMAIL_USER")
}

func TestRecipient(t *testing.T) {
	cfg := Default()
	cfg.Email.User = "relay-login"
	assert.Equal(t, "relay-login", cfg.Recipient())

	cfg.Email.NotifyTo = "owner@example.com"
	assert.Equal(t, "owner@example.com", cfg.Recipient())
	assert.Nil(t, cfg.RequiredChannels())
}
