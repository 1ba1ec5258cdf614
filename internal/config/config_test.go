package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.InDelta(t, 0.25, cfg.Scoring.Weights.Geopolitical, 0.001)
	assert.InDelta(t, 0.20, cfg.Scoring.Weights.Economic, 0.001)
	assert.InDelta(t, 0.20, cfg.Scoring.Weights.SupplyChain, 0.001)
	assert.InDelta(t, 0.15, cfg.Scoring.Weights.Cyber, 0.001)
	assert.InDelta(t, 0.10, cfg.Scoring.Weights.Regulatory, 0.001)
	assert.InDelta(t, 0.10, cfg.Scoring.Weights.Environmental, 0.001)
	assert.InDelta(t, 70.0, cfg.Scoring.HighRiskScore, 0.001)
	assert.Equal(t, "models/iscore.json", cfg.Model.Path)
	assert.Equal(t, "iscore", cfg.Model.Name)
	assert.Equal(t, 100, cfg.Model.Trees)
	assert.Equal(t, 100, cfg.Model.BoostStages)
	assert.InDelta(t, 0.1, cfg.Model.LearningRate, 0.001)
	assert.Equal(t, 3, cfg.Model.MaxDepth)
	assert.InDelta(t, 0.2, cfg.Model.TestFraction, 0.001)
	assert.Equal(t, uint64(42), cfg.Model.Seed)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "sentinel.db", cfg.Store.DatabaseURL)
	assert.Equal(t, 8, cfg.Batch.MaxConcurrency)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)

	assert.NoError(t, cfg.Validate())
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
scoring:
  weights:
    geopolitical: 0.5
store:
  driver: postgres
log:
  level: debug
  format: console
batch:
  max_concurrency: 2
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.InDelta(t, 0.5, cfg.Scoring.Weights.Geopolitical, 0.001)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 2, cfg.Batch.MaxConcurrency)
	// Defaults still apply for unset values
	assert.InDelta(t, 0.20, cfg.Scoring.Weights.Economic, 0.001)
	assert.Equal(t, 100, cfg.Model.Trees)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("SENTINEL_STORE_DRIVER", "postgres")
	t.Setenv("SENTINEL_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)

	t.Setenv("SENTINEL_MODEL_TREES", "25")
	t.Setenv("SENTINEL_SCORING_WEIGHTS_REGULATORY", "0.3")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 25, cfg.Model.Trees)
	assert.InDelta(t, 0.3, cfg.Scoring.Weights.Regulatory, 0.001)
}

func TestLoadMalformedFile(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("scoring: [unclosed"), 0644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
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
	cfg.Scoring.Weights = DefaultWeights()
	cfg.Scoring.HighRiskScore = 70
	cfg.Model = ModelConfig{
		Trees:        100,
		BoostStages:  100,
		LearningRate: 0.1,
		MaxDepth:     3,
		TestFraction: 0.2,
		Seed:         42,
	}
	cfg.Store.Driver = "sqlite"
	cfg.Batch.MaxConcurrency = 8
	return cfg
}

func TestValidate_Defaults(t *testing.T) {
	assert.NoError(t, validDefaults().Validate())
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := validDefaults()
	cfg.Scoring.Weights.Cyber = -1
	cfg.Model.Trees = 0
	cfg.Model.LearningRate = 0
	cfg.Model.TestFraction = 1
	cfg.Store.Driver = "mongo"
	cfg.Batch.MaxConcurrency = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cyber weight must be >= 0")
	assert.Contains(t, err.Error(), "model.trees must be >= 1")
	assert.Contains(t, err.Error(), "model.learning_rate")
	assert.Contains(t, err.Error(), "model.test_fraction")
	assert.Contains(t, err.Error(), `store.driver "mongo" is not supported`)
	assert.Contains(t, err.Error(), "batch.max_concurrency must be >= 1")
}

func TestValidate_HighRiskScoreBounds(t *testing.T) {
	cfg := validDefaults()
	cfg.Scoring.HighRiskScore = 101
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "high_risk_score")
}

func TestValidateWeights(t *testing.T) {
	tests := []struct {
		name    string
		weights Weights
		wantErr string
	}{
		{"reference weights", DefaultWeights(), ""},
		{"weights need not sum to one", Weights{Geopolitical: 2, Economic: 3, Regulatory: 1}, ""},
		{"negative weight", Weights{Geopolitical: -0.1, Economic: 0.2, Regulatory: 0.1}, "geopolitical weight must be >= 0"},
		{"consumed weights all zero", Weights{SupplyChain: 1}, "must not all be zero"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateWeights(tt.weights)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestWeightsMap(t *testing.T) {
	m := DefaultWeights().Map()
	assert.Len(t, m, 6)
	assert.InDelta(t, 0.25, m["geopolitical"], 0.001)
	assert.InDelta(t, 0.10, m["environmental"], 0.001)
}
