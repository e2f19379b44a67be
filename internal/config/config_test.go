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
	t.Setenv("PORT", "")
	t.Setenv("TELEGRAM_API_ID", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.Server.Addr)
	assert.Equal(t, "*", cfg.Server.CORSOrigin)
	assert.Equal(t, 30*time.Second, cfg.Telegram.CallTimeout)
	assert.Equal(t, 20*time.Second, cfg.Telegram.ConnectTimeout)
	assert.Equal(t, 10*time.Minute, cfg.Auth.SessionTTL)
	assert.Equal(t, time.Minute, cfg.Auth.SweepInterval)
	assert.Equal(t, 30, cfg.Comment.HistoryLimit)
	assert.Equal(t, 10, cfg.Comment.ReplyLimit)
	assert.Equal(t, 1, cfg.Comment.ThreadRetries)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "127.0.0.1:9000")
	t.Setenv("TELEGRAM_API_ID", "12345")
	t.Setenv("TELEGRAM_API_HASH", "hash")
	t.Setenv("AUTH_SESSION_TTL", "2m")
	t.Setenv("COMMENT_HISTORY_LIMIT", "5")
	t.Setenv("INTERNAL_SECRET", "s3cret")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, "s3cret", cfg.Server.InternalSecret)
	assert.Equal(t, 12345, cfg.Telegram.APIID)
	assert.Equal(t, "hash", cfg.Telegram.APIHash)
	assert.Equal(t, 2*time.Minute, cfg.Auth.SessionTTL)
	assert.Equal(t, 5, cfg.Comment.HistoryLimit)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadBarePort(t *testing.T) {
	t.Setenv("PORT", "8081")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8081", cfg.Server.Addr)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"PORT":                  "80 80",
		"TELEGRAM_API_ID":       "abc",
		"TELEGRAM_CALL_TIMEOUT": "soon",
		"AUTH_SWEEP_INTERVAL":   "-1s",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gateway.toml")
	content := "telegram_api_id = 777\ntelegram_api_hash = \"from-file\"\ncomment_reply_limit = 4\nauth_session_ttl = \"5m\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("TELEGRAM_API_HASH", "from-env")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 777, cfg.Telegram.APIID)
	assert.Equal(t, "from-env", cfg.Telegram.APIHash)
	assert.Equal(t, 4, cfg.Comment.ReplyLimit)
	assert.Equal(t, 5*time.Minute, cfg.Auth.SessionTTL)
}

func TestLoadMissingConfigFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.toml"))

	_, err := Load()
	assert.Error(t, err)
}
