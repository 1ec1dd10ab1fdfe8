package tracking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/heritagehub/cms/config"
)

func TestNewSettings(t *testing.T) {
	tests := []struct {
		name      string
		cfg       *config.DatabaseConfig
		threshold time.Duration
		maxLen    int
		params    bool
	}{
		{
			name:      "nil config",
			threshold: DefaultSlowQueryThreshold,
			maxLen:    DefaultMaxQueryLength,
		},
		{
			name: "overrides",
			cfg: &config.DatabaseConfig{Query: config.QueryConfig{
				Slow: config.SlowQueryConfig{Threshold: 5 * time.Second},
				Log:  config.QueryLogConfig{MaxLength: 123, Parameters: true},
			}},
			threshold: 5 * time.Second,
			maxLen:    123,
			params:    true,
		},
		{
			name: "non-positive values keep defaults",
			cfg: &config.DatabaseConfig{Query: config.QueryConfig{
				Slow: config.SlowQueryConfig{Threshold: 0},
				Log:  config.QueryLogConfig{MaxLength: -10},
			}},
			threshold: DefaultSlowQueryThreshold,
			maxLen:    DefaultMaxQueryLength,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSettings(tt.cfg)
			assert.Equal(t, tt.threshold, s.SlowQueryThreshold())
			assert.Equal(t, tt.maxLen, s.MaxQueryLength())
			assert.Equal(t, tt.params, s.LogQueryParameters())
		})
	}
}
