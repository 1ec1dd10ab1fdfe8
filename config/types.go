package config

import (
	"strings"
	"time"

	"github.com/knadh/koanf/v2"
)

// Config represents the overall application configuration structure.
// The embedded koanf.Koanf instance allows access to keys not modelled in the struct.
type Config struct {
	App      AppConfig      `koanf:"app" json:"app" yaml:"app" mapstructure:"app"`
	Server   ServerConfig   `koanf:"server" json:"server" yaml:"server" mapstructure:"server"`
	Database DatabaseConfig `koanf:"database" json:"database" yaml:"database" mapstructure:"database"`
	Log      LogConfig      `koanf:"log" json:"log" yaml:"log" mapstructure:"log"`

	Observability ObservabilityConfig `koanf:"observability" json:"observability" yaml:"observability" mapstructure:"observability"`
	Scheduler     SchedulerConfig     `koanf:"scheduler" json:"scheduler" yaml:"scheduler" mapstructure:"scheduler"`
	Cache         CacheConfig         `koanf:"cache" json:"cache" yaml:"cache" mapstructure:"cache"`

	k *koanf.Koanf `json:"-" yaml:"-" mapstructure:"-"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name    string `koanf:"name" json:"name" yaml:"name" mapstructure:"name" validate:"required"`
	Version string `koanf:"version" json:"version" yaml:"version" mapstructure:"version" validate:"required"`
	Env     string `koanf:"env" json:"env" yaml:"env" mapstructure:"env" validate:"oneof=development staging production"`
	Debug   bool   `koanf:"debug" json:"debug" yaml:"debug" mapstructure:"debug"`
}

// ServerConfig holds settings for the operational HTTP listener.
type ServerConfig struct {
	Host    string        `koanf:"host" json:"host" yaml:"host" mapstructure:"host"`
	Port    int           `koanf:"port" json:"port" yaml:"port" mapstructure:"port" validate:"min=1,max=65535"`
	Timeout TimeoutConfig `koanf:"timeout" json:"timeout" yaml:"timeout" mapstructure:"timeout"`
	Path    PathConfig    `koanf:"path" json:"path" yaml:"path" mapstructure:"path"`

	// RateLimit is requests per second per client IP; 0 disables limiting.
	RateLimit int `koanf:"ratelimit" json:"ratelimit" yaml:"ratelimit" mapstructure:"ratelimit" validate:"gte=0"`
}

// TimeoutConfig holds various timeout durations for the server.
type TimeoutConfig struct {
	Read     time.Duration `koanf:"read" json:"read" yaml:"read" mapstructure:"read" validate:"gt=0"`
	Write    time.Duration `koanf:"write" json:"write" yaml:"write" mapstructure:"write" validate:"gt=0"`
	Idle     time.Duration `koanf:"idle" json:"idle" yaml:"idle" mapstructure:"idle" validate:"gt=0"`
	Shutdown time.Duration `koanf:"shutdown" json:"shutdown" yaml:"shutdown" mapstructure:"shutdown" validate:"gt=0"`
}

// PathConfig holds URL path settings for the server.
type PathConfig struct {
	Health string `koanf:"health" json:"health" yaml:"health" mapstructure:"health" validate:"required,startswith=/"`
	Ready  string `koanf:"ready" json:"ready" yaml:"ready" mapstructure:"ready" validate:"required,startswith=/"`
}

// DatabaseConfig holds database connection settings.
//
// URL selects the networked dialect (PostgreSQL) when set; otherwise the embedded
// SQLite database at SQLite.Path is used. The choice is made once per process.
type DatabaseConfig struct {
	URL    string       `koanf:"url" json:"url" yaml:"url" mapstructure:"url"`
	SQLite SQLiteConfig `koanf:"sqlite" json:"sqlite" yaml:"sqlite" mapstructure:"sqlite"`

	Pool      PoolConfig      `koanf:"pool" json:"pool" yaml:"pool" mapstructure:"pool"`
	Query     QueryConfig     `koanf:"query" json:"query" yaml:"query" mapstructure:"query"`
	Migrate   MigrateConfig   `koanf:"migrate" json:"migrate" yaml:"migrate" mapstructure:"migrate"`
	Sequences SequencesConfig `koanf:"sequences" json:"sequences" yaml:"sequences" mapstructure:"sequences"`

	// Startup bounds connection establishment and the startup ping.
	Startup time.Duration `koanf:"startup" json:"startup" yaml:"startup" mapstructure:"startup" validate:"gte=0"`
}

// Networked reports whether a PostgreSQL connection URL is configured.
func (d *DatabaseConfig) Networked() bool {
	return strings.TrimSpace(d.URL) != ""
}

// SQLiteConfig holds embedded database settings.
type SQLiteConfig struct {
	// Path is the database file. ":memory:" opens a private in-memory database.
	Path string `koanf:"path" json:"path" yaml:"path" mapstructure:"path"`
}

// PoolConfig holds connection pool settings for the networked dialect.
type PoolConfig struct {
	Max      PoolMaxConfig  `koanf:"max" json:"max" yaml:"max" mapstructure:"max"`
	Idle     PoolIdleConfig `koanf:"idle" json:"idle" yaml:"idle" mapstructure:"idle"`
	Lifetime LifetimeConfig `koanf:"lifetime" json:"lifetime" yaml:"lifetime" mapstructure:"lifetime"`
}

// PoolMaxConfig holds maximum connections settings.
type PoolMaxConfig struct {
	Connections int32 `koanf:"connections" json:"connections" yaml:"connections" mapstructure:"connections" validate:"gte=0"`
}

// PoolIdleConfig holds idle connections settings.
type PoolIdleConfig struct {
	Connections int32         `koanf:"connections" json:"connections" yaml:"connections" mapstructure:"connections" validate:"gte=0"`
	Time        time.Duration `koanf:"time" json:"time" yaml:"time" mapstructure:"time" validate:"gte=0"`
}

// LifetimeConfig holds maximum lifetime settings for connections.
type LifetimeConfig struct {
	Max time.Duration `koanf:"max" json:"max" yaml:"max" mapstructure:"max" validate:"gte=0"`
}

// QueryConfig holds settings related to query logging and slow query detection.
type QueryConfig struct {
	Slow SlowQueryConfig `koanf:"slow" json:"slow" yaml:"slow" mapstructure:"slow"`
	Log  QueryLogConfig  `koanf:"log" json:"log" yaml:"log" mapstructure:"log"`
}

// SlowQueryConfig holds settings for slow query detection.
type SlowQueryConfig struct {
	Threshold time.Duration `koanf:"threshold" json:"threshold" yaml:"threshold" mapstructure:"threshold" validate:"gte=0"`
}

// QueryLogConfig holds settings for query logging.
type QueryLogConfig struct {
	Parameters bool `koanf:"parameters" json:"parameters" yaml:"parameters" mapstructure:"parameters"`
	MaxLength  int  `koanf:"maxlength" json:"maxlength" yaml:"maxlength" mapstructure:"maxlength" validate:"gte=0"`
}

// MigrateConfig controls schema migrations at startup.
type MigrateConfig struct {
	Auto bool `koanf:"auto" json:"auto" yaml:"auto" mapstructure:"auto"`
}

// SequencesConfig controls sequence repair at startup and on a schedule.
type SequencesConfig struct {
	Repair bool `koanf:"repair" json:"repair" yaml:"repair" mapstructure:"repair"`
	// Schedule re-runs the repair periodically: a duration ("6h"), "daily HH:MM"
	// or a five-field cron expression. Empty disables the job.
	Schedule string `koanf:"schedule" json:"schedule" yaml:"schedule" mapstructure:"schedule"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `koanf:"level" json:"level" yaml:"level" mapstructure:"level" validate:"oneof=trace debug info warn error fatal panic disabled"`
	Pretty bool   `koanf:"pretty" json:"pretty" yaml:"pretty" mapstructure:"pretty"`
}

// ObservabilityConfig controls OpenTelemetry export of traces and metrics.
// When disabled, spans and instruments are recorded against no-op providers.
type ObservabilityConfig struct {
	Enabled bool          `koanf:"enabled" json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	Trace   TraceConfig   `koanf:"trace" json:"trace" yaml:"trace" mapstructure:"trace"`
	Metrics MetricsConfig `koanf:"metrics" json:"metrics" yaml:"metrics" mapstructure:"metrics"`
}

// TraceConfig configures the span exporter. Endpoint "stdout" prints spans locally.
type TraceConfig struct {
	Endpoint   string            `koanf:"endpoint" json:"endpoint" yaml:"endpoint" mapstructure:"endpoint"`
	Protocol   string            `koanf:"protocol" json:"protocol" yaml:"protocol" mapstructure:"protocol" validate:"omitempty,oneof=http grpc"`
	Insecure   bool              `koanf:"insecure" json:"insecure" yaml:"insecure" mapstructure:"insecure"`
	SampleRate float64           `koanf:"samplerate" json:"samplerate" yaml:"samplerate" mapstructure:"samplerate" validate:"gte=0,lte=1"`
	Headers    map[string]string `koanf:"headers" json:"headers" yaml:"headers" mapstructure:"headers"`
}

// MetricsConfig configures the metric exporter. Endpoint "stdout" prints metrics locally.
type MetricsConfig struct {
	Endpoint string        `koanf:"endpoint" json:"endpoint" yaml:"endpoint" mapstructure:"endpoint"`
	Interval time.Duration `koanf:"interval" json:"interval" yaml:"interval" mapstructure:"interval" validate:"gte=0"`
}

// SchedulerConfig holds settings for background maintenance jobs and their system API.
type SchedulerConfig struct {
	Security SchedulerSecurityConfig `koanf:"security" json:"security" yaml:"security" mapstructure:"security"`
	Timeout  SchedulerTimeoutConfig  `koanf:"timeout" json:"timeout" yaml:"timeout" mapstructure:"timeout"`
}

// SchedulerSecurityConfig restricts access to the /_sys/job endpoints.
type SchedulerSecurityConfig struct {
	// CIDRAllowlist holds ranges allowed to reach the job endpoints. Empty means localhost only.
	CIDRAllowlist []string `koanf:"cidrallowlist" json:"cidrallowlist" yaml:"cidrallowlist" mapstructure:"cidrallowlist" validate:"dive,cidr"`
	// TrustedProxies holds ranges whose X-Forwarded-For and X-Real-IP headers are honoured.
	TrustedProxies []string `koanf:"trustedproxies" json:"trustedproxies" yaml:"trustedproxies" mapstructure:"trustedproxies" validate:"dive,cidr"`
}

// SchedulerTimeoutConfig holds scheduler timeouts.
type SchedulerTimeoutConfig struct {
	Shutdown time.Duration `koanf:"shutdown" json:"shutdown" yaml:"shutdown" mapstructure:"shutdown" validate:"gte=0"`
}

// CacheConfig controls the Redis cache in front of site settings.
type CacheConfig struct {
	Enabled bool          `koanf:"enabled" json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	TTL     time.Duration `koanf:"ttl" json:"ttl" yaml:"ttl" mapstructure:"ttl" validate:"gte=0"`
	Redis   RedisConfig   `koanf:"redis" json:"redis" yaml:"redis" mapstructure:"redis"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Host         string        `koanf:"host" json:"host" yaml:"host" mapstructure:"host"`
	Port         int           `koanf:"port" json:"port" yaml:"port" mapstructure:"port" validate:"gte=0,lte=65535"`
	Password     string        `koanf:"password" json:"-" yaml:"password" mapstructure:"password"`
	Database     int           `koanf:"database" json:"database" yaml:"database" mapstructure:"database" validate:"gte=0,lte=15"`
	PoolSize     int           `koanf:"poolsize" json:"poolsize" yaml:"poolsize" mapstructure:"poolsize" validate:"gte=0"`
	DialTimeout  time.Duration `koanf:"dialtimeout" json:"dialtimeout" yaml:"dialtimeout" mapstructure:"dialtimeout" validate:"gte=0"`
	ReadTimeout  time.Duration `koanf:"readtimeout" json:"readtimeout" yaml:"readtimeout" mapstructure:"readtimeout"`
	WriteTimeout time.Duration `koanf:"writetimeout" json:"writetimeout" yaml:"writetimeout" mapstructure:"writetimeout"`
	MaxRetries   int           `koanf:"maxretries" json:"maxretries" yaml:"maxretries" mapstructure:"maxretries"`
}

// GetString returns the raw string value for key, or defaultVal when unset.
func (c *Config) GetString(key, defaultVal string) string {
	if c.k == nil || !c.k.Exists(key) {
		return defaultVal
	}
	return c.k.String(key)
}
