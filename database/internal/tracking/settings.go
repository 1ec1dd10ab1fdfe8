// Package tracking wraps a dialect gateway with query logging, slow statement
// detection, OpenTelemetry spans and client metrics.
package tracking

import (
	"time"

	"github.com/heritagehub/cms/config"
	"github.com/heritagehub/cms/database/types"
	"github.com/heritagehub/cms/logger"
)

const (
	// DefaultSlowQueryThreshold is the duration above which a statement is logged as slow
	DefaultSlowQueryThreshold = 200 * time.Millisecond
	// DefaultMaxQueryLength bounds the statement text written to logs
	DefaultMaxQueryLength = 1000
)

// Settings controls what the tracker logs.
type Settings struct {
	slowQueryThreshold time.Duration
	maxQueryLength     int
	logQueryParameters bool
}

// Context groups what TrackDBOperation needs besides the statement itself.
type Context struct {
	Logger   logger.Logger
	Dialect  types.Dialect
	Settings Settings
}

// NewSettings reads the query tracking options from cfg. A nil cfg or a
// non-positive threshold or length falls back to the defaults.
func NewSettings(cfg *config.DatabaseConfig) Settings {
	settings := Settings{
		slowQueryThreshold: DefaultSlowQueryThreshold,
		maxQueryLength:     DefaultMaxQueryLength,
	}

	if cfg == nil {
		return settings
	}

	if cfg.Query.Slow.Threshold > 0 {
		settings.slowQueryThreshold = cfg.Query.Slow.Threshold
	}
	if cfg.Query.Log.MaxLength > 0 {
		settings.maxQueryLength = cfg.Query.Log.MaxLength
	}
	settings.logQueryParameters = cfg.Query.Log.Parameters

	return settings
}

// SlowQueryThreshold returns the threshold for slow query detection
func (s Settings) SlowQueryThreshold() time.Duration {
	return s.slowQueryThreshold
}

// MaxQueryLength returns the maximum query length for logging
func (s Settings) MaxQueryLength() int {
	return s.maxQueryLength
}

// LogQueryParameters returns whether query parameters should be logged
func (s Settings) LogQueryParameters() bool {
	return s.logQueryParameters
}
