package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"SynthForge/internal/domain"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv(databaseDSNEnv, "")
	t.Setenv(modelAPIKeyEnv, "")
	t.Setenv(modelNameEnv, "")

	cfg := Load()
	require.Equal(t, "synthforge.db", cfg.Database.Path)
	require.Equal(t, "gpt-4o-mini", cfg.Model.Model)
	require.Equal(t, 4, cfg.Pipeline.Workers)
	require.Equal(t, uint64(3), cfg.Pipeline.RetryAttempts)
	require.False(t, cfg.Scheduler.Enabled)
	require.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  path: /var/lib/synthforge/data.db
model:
  model: local-model
  timeout: 10s
pipeline:
  workers: 8
  autoApprove: true
scheduler:
  enabled: true
  interval: 30m
logging:
  level: debug
sites:
  - name: Biology Reference
    topic: biology
    url: https://example.org/bio
    license: CC-BY
    reliability: high
`), 0o600))

	t.Setenv(configPathEnv, path)
	t.Setenv(databaseDSNEnv, "")
	t.Setenv(modelAPIKeyEnv, "")
	t.Setenv(modelNameEnv, "")

	cfg := Load()
	require.Equal(t, "/var/lib/synthforge/data.db", cfg.Database.Path)
	require.Equal(t, "local-model", cfg.Model.Model)
	require.Equal(t, 10*time.Second, cfg.Model.Timeout)
	// Untouched keys keep their defaults.
	require.Equal(t, "https://api.openai.com/v1/chat/completions", cfg.Model.Endpoint)

	require.Equal(t, 8, cfg.Pipeline.Workers)
	require.True(t, cfg.Pipeline.AutoApprove)
	require.True(t, cfg.Scheduler.Enabled)
	require.Equal(t, 30*time.Minute, cfg.Scheduler.Interval)
	require.Equal(t, "debug", cfg.Logging.Level)

	require.Len(t, cfg.Sites, 1)
	require.Equal(t, "biology", cfg.Sites[0].Topic)
	require.Equal(t, domain.ReliabilityHigh, cfg.Sites[0].Reliability)
}

func TestLoadEnvOverridesWinOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  path: from-file.db
model:
  apiKey: file-key
`), 0o600))

	t.Setenv(configPathEnv, path)
	t.Setenv(databaseDSNEnv, "from-env.db")
	t.Setenv(modelAPIKeyEnv, "env-key")
	t.Setenv(modelNameEnv, "env-model")

	cfg := Load()
	require.Equal(t, "from-env.db", cfg.Database.Path)
	require.Equal(t, "env-key", cfg.Model.APIKey)
	require.Equal(t, "env-model", cfg.Model.Model)
}

func TestLoadIgnoresUnreadableFile(t *testing.T) {
	t.Setenv(configPathEnv, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv(databaseDSNEnv, "")
	t.Setenv(modelAPIKeyEnv, "")
	t.Setenv(modelNameEnv, "")

	cfg := Load()
	require.Equal(t, "synthforge.db", cfg.Database.Path)
}
