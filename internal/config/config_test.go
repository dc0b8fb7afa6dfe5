package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, env := range envNames {
		t.Setenv(env, "")
	}
	t.Setenv(configFileEnv, "")
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, int64(10<<20), cfg.Server.MaxUploadBytes)
	assert.Equal(t, "http://localhost:8000", cfg.Dashboard.AnalysisURL)
	assert.Equal(t, "https://api.aiornot.com/v2/image/sync", cfg.AIOrNot.Endpoint)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.Model)
	assert.False(t, cfg.OpenAI.Enabled())
	assert.Equal(t, slog.LevelInfo, cfg.Log.SlogLevel())
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv(configFileEnv, "")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SERVER_READ_TIMEOUT", "5s")
	t.Setenv("AIORNOT_API_KEY", "secret")
	t.Setenv("AIORNOT_REVERSE_SEARCH", "true")
	t.Setenv("OPENAI_PROVIDER", "Azure")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("ANALYSIS_SERVICE_URL", "http://analysis:8000")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "secret", cfg.AIOrNot.APIKey)
	assert.True(t, cfg.AIOrNot.ReverseSearch)
	assert.Equal(t, "azure", cfg.OpenAI.Provider)
	assert.True(t, cfg.OpenAI.Enabled())
	assert.Equal(t, "http://analysis:8000", cfg.Dashboard.AnalysisURL)
	assert.Equal(t, slog.LevelDebug, cfg.Log.SlogLevel())
	assert.NoError(t, cfg.ValidateServer())
	assert.NoError(t, cfg.ValidateDashboard())
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "7000"
aiornot:
  api_key: from-file
dashboard:
  request_timeout: 15s
`), 0o600))
	t.Setenv(configFileEnv, path)
	t.Setenv("SERVER_PORT", "7001")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "7001", cfg.Server.Port, "environment overrides the file")
	assert.Equal(t, "from-file", cfg.AIOrNot.APIKey)
	assert.Equal(t, 15*time.Second, cfg.Dashboard.RequestTimeout)
}

func TestLoadConfigMissingFile(t *testing.T) {
	t.Setenv(configFileEnv, filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestValidateServer(t *testing.T) {
	t.Setenv(configFileEnv, "")
	t.Setenv("AIORNOT_API_KEY", "")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.ErrorContains(t, cfg.ValidateServer(), "AIORNOT_API_KEY")

	cfg.AIOrNot.APIKey = "k"
	cfg.OpenAI.Provider = "anthropic"
	assert.ErrorContains(t, cfg.ValidateServer(), "OPENAI_PROVIDER")
}
