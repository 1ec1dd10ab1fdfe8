// Package config loads application configuration from defaults, YAML files, a .env
// file, environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	envprovider "github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const (
	defaultConfigFile = "config.yaml"
	defaultEnvFile    = ".env"
)

// Options customises where Load looks for its sources.
type Options struct {
	// ConfigFile replaces config.yaml as the base YAML file.
	ConfigFile string
	// EnvFile replaces .env as the dotenv file.
	EnvFile string
	// Flags are applied last; only flags changed on the command line take effect.
	Flags *pflag.FlagSet
	// Environ replaces os.Environ as the source of environment variables.
	// Values from EnvFile only reach os.Environ.
	Environ func() []string
}

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"database-url":    "database.url",
	"sqlite-path":     "database.sqlite.path",
	"log-level":       "log.level",
	"log-pretty":      "log.pretty",
	"host":            "server.host",
	"port":            "server.port",
	"migrate":         "database.migrate.auto",
	"fix-sequences":   "database.sequences.repair",
	"repair-schedule": "database.sequences.schedule",
}

// Load loads configuration from multiple sources with priority:
// 1. Environment variables (highest priority)
// 2. YAML configuration files
// 3. Default values (lowest priority)
func Load() (*Config, error) {
	return LoadWithOptions(Options{})
}

// LoadWithOptions is Load with explicit file locations and command-line flags.
// Flags take precedence over every other source.
func LoadWithOptions(opts Options) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	configFile := opts.ConfigFile
	if configFile == "" {
		configFile = defaultConfigFile
	}
	if err := loadOptionalYAML(k, configFile, opts.ConfigFile != ""); err != nil {
		return nil, err
	}

	if env := k.String("app.env"); env != "" {
		if err := loadOptionalYAML(k, fmt.Sprintf("config.%s.yaml", env), false); err != nil {
			return nil, err
		}
	}

	envFile := opts.EnvFile
	if envFile == "" {
		envFile = defaultEnvFile
	}
	// godotenv never overrides variables already present in the environment.
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	if err := k.Load(envprovider.Provider(".", envprovider.Opt{
		TransformFunc: func(key, value string) (string, any) {
			// Convert UPPER_CASE to lower.case for koanf
			return strings.ReplaceAll(strings.ToLower(key), "_", "."), value
		},
		EnvironFunc: opts.Environ,
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if opts.Flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(opts.Flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(opts.Flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.k = k

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadOptionalYAML merges path into k. A missing file is only an error when required.
func loadOptionalYAML(k *koanf.Koanf, path string, required bool) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"app.name":    "heritagehub-cms",
		"app.version": "v1.0.0",
		"app.env":     EnvDevelopment,
		"app.debug":   false,

		"server.host":             "0.0.0.0",
		"server.port":             8080,
		"server.timeout.read":     "15s",
		"server.timeout.write":    "30s",
		"server.timeout.idle":     "60s",
		"server.timeout.shutdown": "10s",
		"server.path.health":      "/health",
		"server.path.ready":       "/ready",
		"server.ratelimit":        0,

		"database.url":                   "",
		"database.sqlite.path":           "data/site.db",
		"database.pool.max.connections":  25,
		"database.pool.idle.connections": 2,
		"database.pool.idle.time":        "5m",
		"database.pool.lifetime.max":     "30m",
		"database.query.slow.threshold":  "200ms",
		"database.query.log.parameters":  false,
		"database.query.log.maxlength":   1000,
		"database.migrate.auto":          true,
		"database.sequences.repair":      true,
		"database.sequences.schedule":    "",
		"database.startup":               "10s",

		"log.level":  "info",
		"log.pretty": false,

		"observability.enabled":          false,
		"observability.trace.endpoint":   "stdout",
		"observability.trace.protocol":   "http",
		"observability.trace.insecure":   false,
		"observability.trace.samplerate": 1.0,
		"observability.metrics.endpoint": "stdout",
		"observability.metrics.interval": "10s",

		"scheduler.security.cidrallowlist":  []string{},
		"scheduler.security.trustedproxies": []string{},
		"scheduler.timeout.shutdown":        "30s",

		"cache.enabled":            false,
		"cache.ttl":                "5m",
		"cache.redis.host":         "",
		"cache.redis.port":         6379,
		"cache.redis.database":     0,
		"cache.redis.poolsize":     10,
		"cache.redis.dialtimeout":  "5s",
		"cache.redis.readtimeout":  "3s",
		"cache.redis.writetimeout": "3s",
		"cache.redis.maxretries":   3,
	}

	return k.Load(confmap.Provider(defaults, "."), nil)
}
