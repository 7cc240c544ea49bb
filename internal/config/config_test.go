package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	t.Parallel()
	require.NoError(t, Default().Validate())
}

// Load reads process environment, so these tests do not run in parallel.
func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "emflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: "9090"
db:
  driver: postgres
  url: postgres://file
checkpoint:
  backend: postgres
  ttl: 2h
engine:
  max_steps: 20
  turn_timeout: 30s
`), 0o600))

	t.Setenv("EMFLOW_CONFIG", path)
	t.Setenv("DATABASE_URL", "postgres://env")
	t.Setenv("DEBUG", "yes")
	t.Setenv("MAX_STEPS", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "9090", cfg.Port)
	require.Equal(t, "postgres", cfg.DB.Driver)
	require.Equal(t, "postgres://env", cfg.DB.URL)
	require.Equal(t, "postgres", cfg.Checkpoint.Backend)
	require.Equal(t, 2*time.Hour, cfg.Checkpoint.TTL)
	require.Equal(t, 20, cfg.Engine.MaxSteps, "unparsable env values keep the previous value")
	require.Equal(t, 30*time.Second, cfg.Engine.TurnTimeout)
	require.True(t, cfg.Debug)
	require.Equal(t, "google/gemini-2.5-flash-lite", cfg.LLM.Model)
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("EMFLOW_CONFIG", "")
	t.Setenv("CHECKPOINT_BACKEND", "nats")
	t.Setenv("NATS_URL", "")

	_, err := Load()
	require.ErrorContains(t, err, "NATS_URL cannot be empty")

	t.Setenv("EMFLOW_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err = Load()
	require.ErrorContains(t, err, "failed to read config file")
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"unknown driver", func(c *Config) { c.DB.Driver = "mysql" }, `unknown DB_DRIVER "mysql"`},
		{"postgres without url", func(c *Config) { c.DB.Driver = "postgres" }, "DATABASE_URL cannot be empty"},
		{"postgres checkpoints on sqlite", func(c *Config) { c.Checkpoint.Backend = "postgres" }, "requires DB_DRIVER=postgres"},
		{"unknown backend", func(c *Config) { c.Checkpoint.Backend = "redis" }, `unknown CHECKPOINT_BACKEND "redis"`},
		{"zero steps", func(c *Config) { c.Engine.MaxSteps = 0 }, "MAX_STEPS must be > 0"},
		{"short timeout", func(c *Config) { c.Engine.TurnTimeout = time.Millisecond }, "TURN_TIMEOUT must be at least 1s"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			tc.mutate(cfg)
			require.ErrorContains(t, cfg.Validate(), tc.want)
		})
	}
}
