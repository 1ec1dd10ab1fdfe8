package database

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heritagehub/cms/config"
	"github.com/heritagehub/cms/database/types"
	"github.com/heritagehub/cms/logger"
)

func memoryConfig() *config.DatabaseConfig {
	return &config.DatabaseConfig{SQLite: config.SQLiteConfig{Path: ":memory:"}}
}

func disabledLogger() logger.Logger {
	return logger.New("disabled", false)
}

func TestResolveDialect(t *testing.T) {
	assert.Equal(t, types.Embedded, ResolveDialect(&config.DatabaseConfig{SQLite: config.SQLiteConfig{Path: "x.db"}}))
	assert.Equal(t, types.Embedded, ResolveDialect(&config.DatabaseConfig{URL: "   "}))
	assert.Equal(t, types.Networked, ResolveDialect(&config.DatabaseConfig{URL: "postgres://u@h/db"}))
}

func TestNewGatewayUnsupportedDialect(t *testing.T) {
	_, err := NewGateway(types.Dialect(42), nil)
	assert.ErrorIs(t, err, ErrUnsupportedDialect)

	gw, err := NewGateway(types.Networked, nil)
	require.NoError(t, err)
	assert.Equal(t, types.Networked, gw.Dialect())
}

func TestNewConnectionEmbedded(t *testing.T) {
	conn, err := NewConnection(memoryConfig(), disabledLogger())
	require.NoError(t, err)
	defer conn.Close()

	ctx := context.Background()
	assert.Equal(t, types.Embedded, conn.Dialect())
	require.NoError(t, conn.Health(ctx))
	assert.Equal(t, 1, conn.Stats().MaxOpenConnections)

	_, err = conn.DB().ExecContext(ctx, "CREATE TABLE news (id INTEGER PRIMARY KEY AUTOINCREMENT, headline TEXT)")
	require.NoError(t, err)

	q := conn.Querier()
	res, err := q.Run(ctx, "INSERT INTO news (headline) VALUES (?)", "Autumn programme")
	require.NoError(t, err)
	id, ok := res.InsertedID()
	require.True(t, ok)

	row, err := q.Get(ctx, "SELECT headline FROM news WHERE id = ?", id)
	require.NoError(t, err)
	assert.Equal(t, "Autumn programme", row["headline"])

	report := conn.FixSequences(ctx, []string{"news"})
	require.Len(t, report, 1)
	assert.Equal(t, types.RepairSkippedNoSequence, report[0].Outcome)
}

func TestNewConnectionNetworkedUsesPostgres(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	orig := openPostgres
	t.Cleanup(func() { openPostgres = orig })
	var gotURL string
	openPostgres = func(cfg *config.DatabaseConfig, _ logger.Logger) (*sql.DB, error) {
		gotURL = cfg.URL
		return db, nil
	}

	conn, err := NewConnection(&config.DatabaseConfig{URL: "postgres://cms@db/cms"}, disabledLogger())
	require.NoError(t, err)
	assert.Equal(t, "postgres://cms@db/cms", gotURL)
	assert.Equal(t, types.Networked, conn.Dialect())

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM events WHERE id = $1")).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	row, err := conn.Querier().Get(context.Background(), "SELECT * FROM events WHERE id = ?", 3)
	require.NoError(t, err)
	assert.Nil(t, row)

	mock.ExpectClose()
	require.NoError(t, conn.Close())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewConnectionOpenError(t *testing.T) {
	orig := openSQLite
	t.Cleanup(func() { openSQLite = orig })
	boom := errors.New("disk full")
	openSQLite = func(*config.DatabaseConfig, logger.Logger) (*sql.DB, error) { return nil, boom }

	_, err := NewConnection(memoryConfig(), disabledLogger())
	assert.ErrorIs(t, err, boom)
}

func TestFixSequencesLogsEveryTable(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	var buf bytes.Buffer
	conn, err := Wrap(db, types.Networked, &config.DatabaseConfig{}, logger.NewWithWriter(&buf, "debug", false))
	require.NoError(t, err)

	boom := errors.New("permission denied")
	mock.ExpectQuery("information_schema.tables").WithArgs("events").WillReturnError(boom)
	mock.ExpectQuery("information_schema.tables").WithArgs("news").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	report := conn.FixSequences(context.Background(), []string{"events", "news"})
	require.Len(t, report, 2)
	assert.Equal(t, types.RepairFailed, report[0].Outcome)
	assert.ErrorIs(t, report[0].Err, boom)
	assert.Equal(t, types.RepairSkippedMissing, report[1].Outcome)

	out := buf.String()
	assert.Contains(t, out, "Sequence repair failed")
	assert.Contains(t, out, `"table":"events"`)
	assert.Contains(t, out, "Sequence repair skipped")
	assert.Contains(t, out, `"outcome":"missing"`)
	assert.Contains(t, out, "Sequence repair finished")
	require.NoError(t, mock.ExpectationsWereMet())
}
