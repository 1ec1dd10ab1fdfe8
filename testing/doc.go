// Package testing provides shared test utilities for the CMS backend.
//
// # Mocks
//
// The mocks subpackage provides testify-based implementations of the query
// gateway (types.Querier, types.Gateway) and of cache.Cache, the latter for
// injecting cache failures.
//
// # Fixtures
//
// The fixtures subpackage opens real or mocked connections for tests:
//   - an in-memory SQLite connection with the site schema migrated
//   - a PostgreSQL connection backed by go-sqlmock
//   - a row seeder and sqlmock row builders for RETURNING responses
//
// # Containers
//
// The containers subpackage (build tag "integration") starts PostgreSQL with
// testcontainers-go for tests that need a real server.
package testing
