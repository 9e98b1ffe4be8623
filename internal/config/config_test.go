package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "full", cfg.Mode)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "blueprint.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "reducto", cfg.Providers.Primary)
	assert.Equal(t, []string{"reducto", "claude", "layoutlm", "donut", "ocr"}, cfg.Providers.Priority)
	assert.Equal(t, 45, cfg.Providers.TimeoutSecs)
	assert.Equal(t, int64(4096), cfg.Providers.Claude.MaxTokens)
	assert.InDelta(t, 0.75, cfg.Providers.Claude.BaseConfidence, 0.001)
	assert.InDelta(t, 0.1, cfg.Fusion.AgreementBoost, 0.001)
	assert.InDelta(t, 0.75, cfg.Hotspot.LowConfThreshold, 0.001)
	assert.Equal(t, 4, cfg.Hotspot.MaxRegionsPerPage)
	assert.InDelta(t, 0.6, cfg.Hotspot.CoverageThreshold, 0.001)
	assert.InDelta(t, 0.05, cfg.Conflict.Epsilon, 0.001)
	assert.InDelta(t, 0.55, cfg.Conflict.AdjudicationThreshold, 0.001)
	assert.Equal(t, "symbol", cfg.Conflict.PrimaryFields["WELD"])
	assert.False(t, cfg.Adjudicator.Enabled)
	assert.Equal(t, 2, cfg.Adjudicator.MaxAttempts)
	assert.Equal(t, "logs/parsing", cfg.Telemetry.LogPath)
	assert.Equal(t, 30, cfg.Fetch.TimeoutSecs)
	assert.Equal(t, "drawings", cfg.Fetch.DownloadDir)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
mode: counts
store:
  driver: postgres
  database_url: postgres://localhost/blueprint
log:
  level: debug
  format: console
hotspot:
  low_conf_threshold: 0.8
conflict:
  epsilon: 0.02
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "counts", cfg.Mode)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.InDelta(t, 0.8, cfg.Hotspot.LowConfThreshold, 0.001)
	assert.InDelta(t, 0.02, cfg.Conflict.Epsilon, 0.001)
	// Defaults still apply for unset values
	assert.Equal(t, 4, cfg.Hotspot.MaxRegionsPerPage)
	assert.Equal(t, "reducto", cfg.Providers.Primary)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: sqlite
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("BLUEPRINT_STORE_DRIVER", "postgres")
	t.Setenv("BLUEPRINT_PROVIDERS_TIMEOUT_SECS", "90")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, 90, cfg.Providers.TimeoutSecs)
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	assert.NotNil(t, zap.L())

	err := InitLogger(LogConfig{Level: "not-a-level"})
	assert.Error(t, err)
}
