//go:build integration

// Package containers starts throwaway backing services for integration tests.
package containers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/heritagehub/cms/config"
	"github.com/heritagehub/cms/logger"
	cmstesting "github.com/heritagehub/cms/testing"
)

// PostgresImage is the server the integration suites run against.
const PostgresImage = "postgres:17-alpine"

// PostgreSQL starts a PostgreSQL container that lives until t finishes and
// returns a networked database configuration pointing at it. t is skipped
// when no Docker daemon is reachable.
func PostgreSQL(ctx context.Context, t *testing.T) *config.DatabaseConfig {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctr, err := postgres.Run(ctx, PostgresImage,
		postgres.WithDatabase("cms_test"),
		postgres.WithUsername("cms"),
		postgres.WithPassword("cms-test"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err, "start PostgreSQL container")

	url, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	t.Logf("PostgreSQL ready at %s", logger.NewSensitiveDataFilter(nil).FilterString("database_url", url))

	return &config.DatabaseConfig{
		URL: url,
		Pool: config.PoolConfig{
			Max:  config.PoolMaxConfig{Connections: 10},
			Idle: config.PoolIdleConfig{Connections: 2, Time: 5 * time.Minute},
		},
		Startup: 30 * time.Second,
	}
}

// QuietLogger is the logger integration suites hand to the code under test.
func QuietLogger() logger.Logger {
	return logger.New(cmstesting.TestLoggerLevelDisabled, false)
}
