package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unsetEnv removes key for the duration of the test.
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	old, had := os.LookupEnv(key)
	require.NoError(t, os.Unsetenv(key))
	t.Cleanup(func() {
		if had {
			_ = os.Setenv(key, old)
		} else {
			_ = os.Unsetenv(key)
		}
	})
}

// isolate points Load at files that do not exist so the test only sees what it sets.
func isolate(t *testing.T) Options {
	t.Helper()
	for _, key := range []string{"DATABASE_URL", "DATABASE_SQLITE_PATH", "APP_NAME", "APP_ENV", "SERVER_PORT", "LOG_LEVEL"} {
		unsetEnv(t, key)
	}
	return Options{
		EnvFile: filepath.Join(t.TempDir(), "missing.env"),
	}
}

func TestLoadDefaults(t *testing.T) {
	opts := isolate(t)

	cfg, err := LoadWithOptions(opts)
	require.NoError(t, err)

	assert.Equal(t, "heritagehub-cms", cfg.App.Name)
	assert.Equal(t, EnvDevelopment, cfg.App.Env)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.Timeout.Read)
	assert.Equal(t, "/ready", cfg.Server.Path.Ready)
	assert.Equal(t, "data/site.db", cfg.Database.SQLite.Path)
	assert.False(t, cfg.Database.Networked())
	assert.Equal(t, int32(25), cfg.Database.Pool.Max.Connections)
	assert.Equal(t, 200*time.Millisecond, cfg.Database.Query.Slow.Threshold)
	assert.True(t, cfg.Database.Migrate.Auto)
	assert.True(t, cfg.Database.Sequences.Repair)
	assert.Empty(t, cfg.Database.Sequences.Schedule)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Observability.Enabled)
	assert.Equal(t, "stdout", cfg.Observability.Trace.Endpoint)
	assert.InDelta(t, 1.0, cfg.Observability.Trace.SampleRate, 0.0001)
	assert.Empty(t, cfg.Scheduler.Security.CIDRAllowlist)
	assert.Equal(t, 30*time.Second, cfg.Scheduler.Timeout.Shutdown)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 6379, cfg.Cache.Redis.Port)
}

func TestLoadEnvironmentSelectsNetworkedDialect(t *testing.T) {
	opts := isolate(t)
	t.Setenv("DATABASE_URL", "postgres://site:pw@localhost:5432/site")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadWithOptions(opts)
	require.NoError(t, err)

	assert.True(t, cfg.Database.Networked())
	assert.Equal(t, "postgres://site:pw@localhost:5432/site", cfg.Database.URL)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadInjectedEnvironment(t *testing.T) {
	opts := isolate(t)
	t.Setenv("LOG_LEVEL", "debug")
	opts.Environ = func() []string {
		return []string{
			"DATABASE_URL=postgres://site:pw@db:5432/site?options=-c%20search_path=cms",
			"SCHEDULER_TIMEOUT_SHUTDOWN=5s",
		}
	}

	cfg, err := LoadWithOptions(opts)
	require.NoError(t, err)

	assert.Equal(t, "postgres://site:pw@db:5432/site?options=-c%20search_path=cms", cfg.Database.URL)
	assert.Equal(t, 5*time.Second, cfg.Scheduler.Timeout.Shutdown)
	assert.Equal(t, "info", cfg.Log.Level, "process environment is not read when Environ is set")
}

func TestLoadYAMLFile(t *testing.T) {
	opts := isolate(t)
	path := filepath.Join(t.TempDir(), "site.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
app:
  name: museum-site
database:
  sqlite:
    path: /tmp/museum.db
  query:
    slow:
      threshold: 1s
`), 0o600))
	opts.ConfigFile = path

	cfg, err := LoadWithOptions(opts)
	require.NoError(t, err)

	assert.Equal(t, "museum-site", cfg.App.Name)
	assert.Equal(t, "/tmp/museum.db", cfg.Database.SQLite.Path)
	assert.Equal(t, time.Second, cfg.Database.Query.Slow.Threshold)
	assert.Equal(t, "museum-site", cfg.GetString("app.name", "x"))
	assert.Equal(t, "fallback", cfg.GetString("does.not.exist", "fallback"))
}

func TestLoadExplicitConfigFileMustExist(t *testing.T) {
	opts := isolate(t)
	opts.ConfigFile = filepath.Join(t.TempDir(), "nope.yaml")

	_, err := LoadWithOptions(opts)
	require.Error(t, err)
}

func TestLoadDotEnvFile(t *testing.T) {
	opts := isolate(t)

	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("APP_NAME=from-dotenv\n"), 0o600))
	opts.EnvFile = envFile

	cfg, err := LoadWithOptions(opts)
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.App.Name)
}

func TestLoadFlagsOverrideEnvironment(t *testing.T) {
	opts := isolate(t)
	t.Setenv("LOG_LEVEL", "warn")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("log-level", "info", "")
	flags.String("sqlite-path", "data/site.db", "")
	flags.Int("port", 8080, "")
	flags.String("repair-schedule", "", "")
	require.NoError(t, flags.Parse([]string{"--log-level=error", "--sqlite-path=:memory:", "--repair-schedule=daily 03:30"}))
	opts.Flags = flags

	cfg, err := LoadWithOptions(opts)
	require.NoError(t, err)

	assert.Equal(t, "error", cfg.Log.Level)
	assert.Equal(t, ":memory:", cfg.Database.SQLite.Path)
	assert.Equal(t, "daily 03:30", cfg.Database.Sequences.Schedule)
	assert.Equal(t, 8080, cfg.Server.Port, "unchanged flags must not override")
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	opts := isolate(t)
	t.Setenv("SERVER_PORT", "70000")

	_, err := LoadWithOptions(opts)
	require.Error(t, err)

	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "invalid", cfgErr.Category)
	assert.Equal(t, "server.port", cfgErr.Field)
}
