package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"offer-classifier/internal/embedding"
)

func writeConfig(t *testing.T, body string) string {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "server:\n  port: \"9000\"\n"))
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, "./data/offers.db", cfg.Database.Path)
	assert.Equal(t, 3, cfg.Embedding.MaxFailuresBeforeSwitch)
	assert.Equal(t, 0.8, cfg.Threshold())
	assert.Equal(t, int64(42), cfg.Training.Seed)
	assert.Equal(t, 0.2, cfg.Training.TestFraction)
	assert.Equal(t, "file", cfg.Artifacts.Backend)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
}

func TestLoadConfig_Full(t *testing.T) {
	t.Setenv("TEST_GEMINI_KEY", "secret")
	t.Setenv("TEST_PG_URL", "postgres://u:p@db/offers")

	cfg, err := LoadConfig(writeConfig(t, `
database:
  type: postgres
  url: ${TEST_PG_URL}
embedding:
  max_failures_before_switch: 2
  providers:
    - type: gemini
      api_key: ${TEST_GEMINI_KEY}
      model_name: text-embedding-004
      retry_delay: 3s
      requests_per_minute: 30
    - type: openai
      api_key: plain
      base_url: http://localhost:8000/v1
labeling:
  similarity_threshold: 0
  schedule: "0 0 3 * * *"
training:
  models: [logistic_regression, random_forest]
  parallelism: 2
artifacts:
  backend: gcs
  bucket: models
  prefix: offers/
`))
	require.NoError(t, err)

	assert.Equal(t, "postgres://u:p@db/offers", cfg.Database.URL)
	require.Len(t, cfg.Embedding.Providers, 2)
	assert.Equal(t, embedding.ProviderGemini, cfg.Embedding.Providers[0].Type)
	assert.Equal(t, "secret", cfg.Embedding.Providers[0].APIKey)
	assert.Equal(t, 3*time.Second, cfg.Embedding.Providers[0].RetryDelay)
	assert.Equal(t, 30, cfg.Embedding.Providers[0].RequestsPerMinute)
	assert.Equal(t, embedding.ProviderOpenAI, cfg.Embedding.Providers[1].Type)
	assert.Equal(t, 2, cfg.Embedding.MaxFailuresBeforeSwitch)
	assert.Equal(t, 0.0, cfg.Threshold(), "explicit zero threshold is kept")
	assert.Equal(t, "0 0 3 * * *", cfg.Labeling.Schedule)
	assert.Equal(t, []string{"logistic_regression", "random_forest"}, cfg.Training.Models)
	assert.Equal(t, 2, cfg.Training.Parallelism)
	assert.Equal(t, "models", cfg.Artifacts.Bucket)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown database", "database:\n  type: mysql\n"},
		{"postgres without url", "database:\n  type: postgres\n"},
		{"gcs without bucket", "artifacts:\n  backend: gcs\n"},
		{"unknown backend", "artifacts:\n  backend: s3\n"},
		{"bad fraction", "training:\n  test_fraction: 1.5\n"},
		{"bad yaml", "server: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)
}

func TestLoadConfig_RepositoryDefault(t *testing.T) {
	cfg, err := LoadConfig("../../configs/config.yml")
	require.NoError(t, err)
	assert.NotEmpty(t, cfg.Embedding.Providers)
}

func TestLoadConfig_RepositoryDefaultBatchSize(t *testing.T) {
	cfg, err := LoadConfig("../../configs/config.yml")
	require.NoError(t, err)
	require.Len(t, cfg.Embedding.Providers, 2)
	assert.Equal(t, 2048, cfg.Embedding.Providers[1].BatchSize)
}
