package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
server:
  port: 9090
  host: "0.0.0.0"

storage:
  sqlite_path: "./test-data/gemsieve.db"

mail:
  provider: "gmail"
  credentials_file: "./creds.json"
  historical_days: 90

ai:
  provider: "anthropic"
  model: "claude-3-5-sonnet-20241022"
  timeout_seconds: 45

entities:
  extract_monetary: true
  extract_dates: true
  extract_procurement: false

pipeline:
  max_concurrency: 8
  dormant_thread_days: 30

scoring:
  min_gem_score: 55
`
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "./test-data/gemsieve.db", cfg.Storage.SQLitePath)
	assert.Equal(t, 90, cfg.Mail.HistoricalDays)
	assert.Equal(t, "anthropic", cfg.AI.Provider)
	assert.Equal(t, 45, cfg.AI.TimeoutSeconds)
	assert.Equal(t, 8, cfg.Pipeline.MaxConcurrency)
	assert.Equal(t, 30, cfg.Pipeline.DormantThreadDays)
	assert.Equal(t, 55.0, cfg.Scoring.MinGemScore)
	assert.True(t, cfg.Entities.ExtractMonetary)
	assert.True(t, cfg.Entities.ExtractDates)
	assert.False(t, cfg.Entities.ExtractProcurement)

	// unset batch size falls back to the documented default.
	assert.Equal(t, 10, cfg.AI.BatchSize)
}

func TestLoadAppliesDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("server:\n  port: 1\n"), 0644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, "./gemsieve.db", cfg.Storage.SQLitePath)
	assert.Equal(t, "gmail", cfg.Mail.Provider)
	assert.Equal(t, "ollama", cfg.AI.Provider)
	assert.Equal(t, 14, cfg.Pipeline.DormantThreadDays)
	assert.Equal(t, "gemsieve:pipeline:events", cfg.Events.Channel)
}

func TestLoadFromEnvOverridesSecrets(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("ai:\n  provider: \"anthropic\"\n"), 0644))

	t.Setenv("ANTHROPIC_API_KEY", "sk-test-123")
	t.Setenv("GEMSIEVE_SQLITE_PATH", filepath.Join(tmpDir, "override.db"))

	cfg, err := LoadFromEnv(configPath)
	require.NoError(t, err)

	assert.Equal(t, "sk-test-123", cfg.AI.APIKey)
	assert.Equal(t, filepath.Join(tmpDir, "override.db"), cfg.Storage.SQLitePath)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}
