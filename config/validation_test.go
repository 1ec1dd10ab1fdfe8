package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		App: AppConfig{Name: "site", Version: "v1", Env: EnvProduction},
		Server: ServerConfig{
			Port: 8080,
			Timeout: TimeoutConfig{
				Read: time.Second, Write: time.Second, Idle: time.Second, Shutdown: time.Second,
			},
			Path: PathConfig{Health: "/health", Ready: "/ready"},
		},
		Database: DatabaseConfig{SQLite: SQLiteConfig{Path: ":memory:"}},
		Log:      LogConfig{Level: "info"},
	}
}

func TestValidateAcceptsValidConfig(t *testing.T) {
	require.NoError(t, Validate(validConfig()))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Config)
		field    string
		category string
	}{
		{name: "missing app name", mutate: func(c *Config) { c.App.Name = "" }, field: "app.name", category: "missing"},
		{name: "unknown env", mutate: func(c *Config) { c.App.Env = "qa" }, field: "app.env", category: "invalid"},
		{name: "zero port", mutate: func(c *Config) { c.Server.Port = 0 }, field: "server.port", category: "invalid"},
		{name: "relative ready path", mutate: func(c *Config) { c.Server.Path.Ready = "ready" }, field: "server.path.ready", category: "invalid"},
		{name: "zero shutdown timeout", mutate: func(c *Config) { c.Server.Timeout.Shutdown = 0 }, field: "server.timeout.shutdown", category: "invalid"},
		{name: "bad log level", mutate: func(c *Config) { c.Log.Level = "loud" }, field: "log.level", category: "invalid"},
		{name: "negative pool", mutate: func(c *Config) { c.Database.Pool.Max.Connections = -1 }, field: "database.pool.max.connections", category: "invalid"},
		{name: "bad trace protocol", mutate: func(c *Config) { c.Observability.Trace.Protocol = "thrift" }, field: "observability.trace.protocol", category: "invalid"},
		{name: "sample rate above one", mutate: func(c *Config) { c.Observability.Trace.SampleRate = 1.5 }, field: "observability.trace.samplerate", category: "invalid"},
		{name: "malformed cidr", mutate: func(c *Config) { c.Scheduler.Security.CIDRAllowlist = []string{"10.0.0.0/8", "office"} }, field: "scheduler.security.cidrallowlist[1]", category: "invalid"},
		{name: "cache without redis host", mutate: func(c *Config) { c.Cache.Enabled = true }, field: "cache.redis.host", category: "missing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			var cfgErr *ConfigError
			require.True(t, errors.As(err, &cfgErr), "got %v", err)
			assert.Equal(t, tt.field, cfgErr.Field)
			assert.Equal(t, tt.category, cfgErr.Category)
		})
	}
}

func TestValidateRequiresSQLitePathWithoutURL(t *testing.T) {
	cfg := validConfig()
	cfg.Database.SQLite.Path = " "

	err := Validate(cfg)
	require.ErrorIs(t, err, ErrMissingSQLitePath)
	assert.Contains(t, err.Error(), "DATABASE_SQLITE_PATH")

	cfg.Database.URL = "postgres://localhost/site"
	assert.NoError(t, Validate(cfg))
}
