package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // pure Go driver, registered as "sqlite"

	"github.com/heritagehub/cms/config"
	"github.com/heritagehub/cms/logger"
)

// DriverName is the database/sql driver the embedded dialect uses.
const DriverName = "sqlite"

const (
	memoryPath       = ":memory:"
	defaultBusyTO    = 5000
	defaultStartupTO = 10 * time.Second
)

var (
	openSQLiteDB = func(dsn string) (*sql.DB, error) {
		return sql.Open(DriverName, dsn)
	}
	pingSQLiteDB = func(ctx context.Context, db *sql.DB) error {
		return db.PingContext(ctx)
	}
)

// IsMemory reports whether path names a private in-memory database.
func IsMemory(path string) bool {
	return path == memoryPath || strings.Contains(path, "mode=memory")
}

// DSN builds the driver connection string for path with the pragmas every
// connection needs. WAL is only requested for file databases.
func DSN(path string) string {
	pragmas := []string{
		"foreign_keys(1)",
		fmt.Sprintf("busy_timeout(%d)", defaultBusyTO),
	}
	if !IsMemory(path) {
		pragmas = append(pragmas, "journal_mode(WAL)")
	}

	q := url.Values{}
	for _, p := range pragmas {
		q.Add("_pragma", p)
	}

	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + q.Encode()
}

// Open opens the embedded database described by cfg. The parent directory of a
// file database is created when missing. The pool is limited to one connection:
// SQLite has a single writer and an in-memory database lives only as long as
// its connection.
func Open(cfg *config.DatabaseConfig, log logger.Logger) (*sql.DB, error) {
	path := strings.TrimSpace(cfg.SQLite.Path)
	if path == "" {
		return nil, config.ErrMissingSQLitePath
	}

	if !IsMemory(path) {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create SQLite directory %s: %w", dir, err)
			}
		}
	}

	db, err := openSQLiteDB(DSN(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	timeout := cfg.Startup
	if timeout <= 0 {
		timeout = defaultStartupTO
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := pingSQLiteDB(ctx, db); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("Failed to close SQLite database after ping failure")
		}
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	log.Info().
		Str("path", path).
		Msg("Connected to SQLite database")

	return db, nil
}
