package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vedsharma/apireplay/internal/model"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("APIREPLAY_DATA_DIR", dir)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 2*time.Second, cfg.ScriptTimeout)
	assert.Equal(t, int64(50*1024*1024), cfg.MaxResponseSize)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, filepath.Join(dir, "apireplay.log"), cfg.LogFile)
	assert.Equal(t, "127.0.0.1:8089", cfg.BindAddr)
	assert.False(t, cfg.RedactHeaders)
	assert.Nil(t, cfg.Limiter())
	assert.Nil(t, cfg.Settings.HeaderDefaults())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APIREPLAY_DATA_DIR", t.TempDir())
	t.Setenv("APIREPLAY_REQUEST_TIMEOUT", "5s")
	t.Setenv("APIREPLAY_RATE_LIMIT_RPS", "2.5")
	t.Setenv("APIREPLAY_RATE_LIMIT_BURST", "3")
	t.Setenv("APIREPLAY_LOG_LEVEL", "DEBUG")
	t.Setenv("APIREPLAY_REDACT_HEADERS", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.RedactHeaders)

	limiter := cfg.Limiter()
	require.NotNil(t, limiter)
	assert.Equal(t, 3, limiter.Burst())
}

func TestLoadRejectsBadDurations(t *testing.T) {
	t.Setenv("APIREPLAY_DATA_DIR", t.TempDir())
	t.Setenv("APIREPLAY_SCRIPT_TIMEOUT", "soon")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "APIREPLAY_SCRIPT_TIMEOUT")
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := expandHome("~/.apireplay")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".apireplay"), got)

	got, err = expandHome("/var/data")
	require.NoError(t, err)
	assert.Equal(t, "/var/data", got)
}

func TestLoadSettings(t *testing.T) {
	dir := t.TempDir()

	settings, err := LoadSettings(dir)
	require.NoError(t, err)
	assert.Empty(t, settings.CORSOrigins)

	doc := `
cors_origins = ["http://localhost:5173"]

[[default_headers]]
key = "Accept"
value = "application/vnd.api+json"

[[default_headers]]
key = "User-Agent"
value = "apireplay"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, SettingsFile), []byte(doc), 0o600))

	settings, err = LoadSettings(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"http://localhost:5173"}, settings.CORSOrigins)
	assert.Equal(t, []model.KeyValue{
		{Key: "Accept", Value: "application/vnd.api+json", Enabled: true},
		{Key: "User-Agent", Value: "apireplay", Enabled: true},
	}, settings.HeaderDefaults())

	require.NoError(t, os.WriteFile(filepath.Join(dir, SettingsFile), []byte("cors_origins = ["), 0o600))
	_, err = LoadSettings(dir)
	assert.Error(t, err)
}
