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

	assert.Equal(t, "suburbscore.db", cfg.Store.Path)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 8, cfg.Batch.Workers)
	assert.Equal(t, 2, cfg.Batch.PerAreaTimeoutSecs)
	assert.InDelta(t, 10000.0, cfg.Scoring.SeverityK, 0.001)
	assert.InDelta(t, 20.0, cfg.Scoring.NeighborRadius, 0.001)
	assert.InDelta(t, 8.0, cfg.Scoring.NeighborDecay, 0.001)
	assert.True(t, cfg.Scoring.SyntheticAllow)
	assert.InDelta(t, 0.50, cfg.Safety.CrimeWeight, 0.001)
	assert.InDelta(t, 0.25, cfg.Safety.DemographicWeight, 0.001)
	assert.InDelta(t, 0.15, cfg.Safety.NeighborhoodWeight, 0.001)
	assert.InDelta(t, 0.10, cfg.Safety.TrendWeight, 0.001)
	assert.InDelta(t, 0.40, cfg.Convenience.TransportWeight, 0.001)
	assert.InDelta(t, 0.20, cfg.Convenience.ShoppingWeight, 0.001)
	assert.InDelta(t, 0.15, cfg.Convenience.EducationWeight, 0.001)
	assert.InDelta(t, 0.15, cfg.Convenience.HealthWeight, 0.001)
	assert.InDelta(t, 0.10, cfg.Convenience.RecreationWeight, 0.001)
	assert.Equal(t, "https://nominatim.openstreetmap.org", cfg.Geocode.BaseURL)
	assert.Equal(t, 4096, cfg.Geocode.CacheSize)
	assert.NotEmpty(t, cfg.Ingest.CrimeWorkbookURL)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  path: /var/lib/suburbscore/ref.db
log:
  level: debug
  format: console
server:
  port: 9090
batch:
  workers: 16
scoring:
  severity_k: 5000
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/suburbscore/ref.db", cfg.Store.Path)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 16, cfg.Batch.Workers)
	assert.InDelta(t, 5000.0, cfg.Scoring.SeverityK, 0.001)
	// Defaults still apply for unset values
	assert.InDelta(t, 20.0, cfg.Scoring.NeighborRadius, 0.001)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  path: from-file.db
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("SUBURBSCORE_STORE_PATH", "from-env.db")
	t.Setenv("SUBURBSCORE_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "from-env.db", cfg.Store.Path)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("SUBURBSCORE_SERVER_PORT", "3000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Store.Path = "suburbscore.db"
	cfg.Server.Port = 8080
	cfg.Batch.Workers = 8
	cfg.Scoring.SeverityK = 10000
	cfg.Scoring.NeighborRadius = 20
	cfg.Scoring.NeighborDecay = 8
	cfg.Safety = SafetyConfig{CrimeWeight: 0.50, DemographicWeight: 0.25, NeighborhoodWeight: 0.15, TrendWeight: 0.10}
	cfg.Convenience = ConvenienceConfig{
		TransportWeight:  0.40,
		ShoppingWeight:   0.20,
		EducationWeight:  0.15,
		HealthWeight:     0.15,
		RecreationWeight: 0.10,
	}
	cfg.Ingest.CrimeWorkbookURL = "https://example.test/crime.xlsx"
	return cfg
}

func TestValidateServe_Valid(t *testing.T) {
	assert.NoError(t, validDefaults().Validate("serve"))
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidateLoad_MissingWorkbookURL(t *testing.T) {
	cfg := validDefaults()
	cfg.Ingest.CrimeWorkbookURL = ""

	err := cfg.Validate("load")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "crime_workbook_url")
}

func TestValidateUnknownMode(t *testing.T) {
	err := validDefaults().Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestValidateWorkerBounds(t *testing.T) {
	cfg := validDefaults()

	cfg.Batch.Workers = 0
	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "batch.workers must be between 1 and 64")

	cfg.Batch.Workers = 65
	err = cfg.Validate("serve")
	assert.Error(t, err)

	cfg.Batch.Workers = 64
	assert.NoError(t, cfg.Validate("serve"))
}

func TestValidateWeightSums(t *testing.T) {
	cfg := validDefaults()
	cfg.Safety.CrimeWeight = 0.60

	err := cfg.Validate("score")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "safety weights must sum to 1.0")

	cfg = validDefaults()
	cfg.Convenience.TransportWeight = 0.10
	err = cfg.Validate("score")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "convenience weights must sum to 1.0")
}

func TestValidateScoringParams(t *testing.T) {
	cfg := validDefaults()
	cfg.Scoring.SeverityK = 0

	err := cfg.Validate("score")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "severity_k")
}
