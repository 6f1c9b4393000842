package configuration

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, time.Second, cfg.Retry.InitialInterval)
	assert.Equal(t, 30*time.Second, cfg.Retry.MaxInterval)
	assert.Equal(t, 2.0, cfg.Retry.Multiplier)
	assert.Equal(t, 3, cfg.Generation.SignificanceThreshold)
	assert.Equal(t, 2, cfg.Generation.MaxRepairAttempts)
	assert.Equal(t, "plantuml", cfg.Checker.Command)
	assert.Equal(t, "-tpng", cfg.Renderer.FormatFlag)
	assert.Equal(t, "scribe-generation", cfg.Temporal.TaskQueue)
	assert.Empty(t, cfg.Providers)
}

func TestLoad(t *testing.T) {
	t.Run("full config", func(t *testing.T) {
		path := writeConfigFile(t, `
providers:
  - name: openai
    model: gpt-4o
    api_key_env: TEST_SCRIBE_OPENAI_KEY
    retry_budget: 5
  - name: anthropic
    model: claude-sonnet-4
  - name: openai
    model: local-llama
    endpoint: http://localhost:8080/v1
retry:
  max_attempts: 4
  initial_interval: 2s
generation:
  significance_threshold: 5
output:
  dir: /tmp/scribe-docs
`)
		t.Setenv("TEST_SCRIBE_OPENAI_KEY", "sk-test")

		cfg, err := Load(path)
		require.NoError(t, err)

		require.Len(t, cfg.Providers, 3)
		assert.Equal(t, "openai", cfg.Providers[0].Name)
		assert.Equal(t, "sk-test", cfg.Providers[0].APIKey)
		assert.Equal(t, 5, cfg.Providers[0].RetryBudget)
		assert.Equal(t, "http://localhost:8080/v1", cfg.Providers[2].Endpoint)

		assert.Equal(t, 4, cfg.Retry.MaxAttempts)
		assert.Equal(t, 2*time.Second, cfg.Retry.InitialInterval)
		assert.Equal(t, 5, cfg.Generation.SignificanceThreshold)
		assert.Equal(t, "/tmp/scribe-docs", cfg.Output.Dir)
	})

	t.Run("partial config keeps defaults", func(t *testing.T) {
		path := writeConfigFile(t, `
output:
  dir: /tmp/out
`)
		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, DefaultRetryBudget, cfg.Retry.MaxAttempts)
		assert.Equal(t, DefaultMaxInterval, cfg.Retry.MaxInterval)
		assert.Equal(t, DefaultMaxRepairAttempts, cfg.Generation.MaxRepairAttempts)
		assert.Equal(t, DefaultCheckerTimeout, cfg.Checker.Timeout)
		assert.Equal(t, DefaultTaskQueue, cfg.Temporal.TaskQueue)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		require.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := writeConfigFile(t, "providers: [not: closed")
		_, err := Load(path)
		require.Error(t, err)
	})

	t.Run("provider without name rejected", func(t *testing.T) {
		path := writeConfigFile(t, `
providers:
  - model: gpt-4o
output:
  dir: /tmp/out
`)
		_, err := Load(path)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNoProviderName)
	})

	t.Run("missing output dir rejected", func(t *testing.T) {
		path := writeConfigFile(t, "output: {dir: \"\"}\n")
		_, err := Load(path)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNoOutputDir)
	})
}

func TestResolveAPIKeys(t *testing.T) {
	t.Setenv("TEST_SCRIBE_RESOLVE_KEY", "resolved")

	cfg := &Config{Providers: []ProviderRecord{
		{Name: "openai", APIKeyEnv: "TEST_SCRIBE_RESOLVE_KEY"},
		{Name: "anthropic", APIKeyEnv: "TEST_SCRIBE_UNSET_KEY"},
		{Name: "google", APIKey: "explicit", APIKeyEnv: "TEST_SCRIBE_RESOLVE_KEY"},
	}}
	cfg.ResolveAPIKeys()

	assert.Equal(t, "resolved", cfg.Providers[0].APIKey)
	assert.Empty(t, cfg.Providers[1].APIKey)
	assert.Equal(t, "explicit", cfg.Providers[2].APIKey, "explicit keys are never overwritten")
}

func TestValidate_EmptyProvidersAllowed(t *testing.T) {
	cfg := &Config{Output: OutputConfig{Dir: "/tmp/out"}}
	assert.NoError(t, cfg.Validate())
}
