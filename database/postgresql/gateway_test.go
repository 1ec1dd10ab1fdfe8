package postgresql

import (
	"context"
	"errors"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heritagehub/cms/database/types"
)

func newMockGateway(t *testing.T) (*Gateway, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return New(db), mock
}

func TestGatewayAllRebindsPlaceholders(t *testing.T) {
	g, mock := newMockGateway(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, title FROM blogs WHERE author = $1 AND published = $2 ORDER BY id")).
		WithArgs("ada", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title"}).
			AddRow(int32(3), "Restoring the mill").
			AddRow(int32(9), "Harvest fair"))

	rows, err := g.All(context.Background(), "SELECT id, title FROM blogs WHERE author = ? AND published = ? ORDER BY id", "ada", 1)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, types.Record{"id": int64(3), "title": "Restoring the mill"}, rows[0])
	assert.Equal(t, types.Record{"id": int64(9), "title": "Harvest fair"}, rows[1])
}

func TestGatewayAllEmptyIsNotNil(t *testing.T) {
	g, mock := newMockGateway(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM news WHERE id = $1")).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	rows, err := g.All(context.Background(), "SELECT * FROM news WHERE id = ?", 5)
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestGatewayGetAbsent(t *testing.T) {
	g, mock := newMockGateway(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM users WHERE email = $1")).
		WithArgs("nobody@example.org").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email"}))

	row, err := g.Get(context.Background(), "SELECT * FROM users WHERE email = ?", "nobody@example.org")
	require.NoError(t, err)
	assert.Nil(t, row)
}

func TestGatewayGetFirstRow(t *testing.T) {
	g, mock := newMockGateway(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM events ORDER BY id")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)).AddRow(int64(2)))

	row, err := g.Get(context.Background(), "SELECT id FROM events ORDER BY id")
	require.NoError(t, err)
	assert.Equal(t, types.Record{"id": int64(1)}, row)
}

func TestGatewayRunInsertAppendsReturning(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{
			name:  "plain",
			query: "INSERT INTO rsvps (event_id, name) VALUES (?, ?)",
			want:  "INSERT INTO rsvps (event_id, name) VALUES ($1, $2) RETURNING id",
		},
		{
			name:  "lower case with trailing semicolon",
			query: "  insert into rsvps (event_id, name) values (?, ?);",
			want:  "  insert into rsvps (event_id, name) values ($1, $2) RETURNING id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, mock := newMockGateway(t)
			mock.ExpectQuery(regexp.QuoteMeta(tt.want)).
				WithArgs(4, "Grace").
				WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int32(17)))

			res, err := g.Run(context.Background(), tt.query, 4, "Grace")
			require.NoError(t, err)
			id, ok := res.InsertedID()
			require.True(t, ok)
			assert.Equal(t, int64(17), id)
			assert.Equal(t, int64(1), res.RowsAffected())
		})
	}
}

func TestGatewayRunInsertKeepsCallerReturning(t *testing.T) {
	g, mock := newMockGateway(t)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO contacts (email) VALUES ($1) RETURNING created_at")).
		WithArgs("a@b.c").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow("2024-05-01"))

	res, err := g.Run(context.Background(), "INSERT INTO contacts (email) VALUES (?) RETURNING created_at", "a@b.c")
	require.NoError(t, err)
	_, ok := res.InsertedID()
	assert.False(t, ok)
	assert.Equal(t, int64(1), res.RowsAffected())
}

func TestGatewayRunMultiRowInsertReportsLastID(t *testing.T) {
	g, mock := newMockGateway(t)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO gallery (src) VALUES ($1), ($2), ($3) RETURNING id")).
		WithArgs("a.jpg", "b.jpg", "c.jpg").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(10)).AddRow(int64(11)).AddRow(int64(12)))

	res, err := g.Run(context.Background(), "INSERT INTO gallery (src) VALUES (?), (?), (?)", "a.jpg", "b.jpg", "c.jpg")
	require.NoError(t, err)
	id, ok := res.InsertedID()
	require.True(t, ok)
	assert.Equal(t, int64(12), id)
	assert.Equal(t, int64(3), res.RowsAffected())
}

func TestGatewayRunInsertConflictHasNoID(t *testing.T) {
	g, mock := newMockGateway(t)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO memberships (email) VALUES ($1) ON CONFLICT DO NOTHING RETURNING id")).
		WithArgs("dup@example.org").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	res, err := g.Run(context.Background(), "INSERT INTO memberships (email) VALUES (?) ON CONFLICT DO NOTHING", "dup@example.org")
	require.NoError(t, err)
	_, ok := res.InsertedID()
	assert.False(t, ok)
	assert.Equal(t, int64(0), res.RowsAffected())
}

func TestGatewayRunUpdateReportsAffected(t *testing.T) {
	g, mock := newMockGateway(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE banners SET active = $1 WHERE position > $2")).
		WithArgs(0, 3).
		WillReturnResult(sqlmock.NewResult(0, 4))

	res, err := g.Run(context.Background(), "UPDATE banners SET active = ? WHERE position > ?", 0, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(4), res.RowsAffected())
	_, ok := res.InsertedID()
	assert.False(t, ok)
}

func TestGatewayRunDeleteNothing(t *testing.T) {
	g, mock := newMockGateway(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM projects WHERE id = $1")).
		WithArgs(404).
		WillReturnResult(sqlmock.NewResult(0, 0))

	res, err := g.Run(context.Background(), "DELETE FROM projects WHERE id = ?", 404)
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.RowsAffected())
}

func TestGatewayErrorsPassThroughUnchanged(t *testing.T) {
	g, mock := newMockGateway(t)

	pgErr := &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"}
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users (email) VALUES ($1) RETURNING id")).
		WithArgs("x@example.org").
		WillReturnError(pgErr)

	_, err := g.Run(context.Background(), "INSERT INTO users (email) VALUES (?)", "x@example.org")
	var got *pgconn.PgError
	require.ErrorAs(t, err, &got)
	assert.Equal(t, "23505", got.Code)

	boom := errors.New("connection reset")
	mock.ExpectExec(regexp.QuoteMeta("UPDATE settings SET value = $1")).WillReturnError(boom)
	_, err = g.Run(context.Background(), "UPDATE settings SET value = ?", "x")
	assert.Same(t, boom, err)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM settings")).WillReturnError(boom)
	_, err = g.All(context.Background(), "SELECT * FROM settings")
	assert.Same(t, boom, err)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM settings")).WillReturnError(boom)
	_, err = g.Get(context.Background(), "SELECT * FROM settings")
	assert.Same(t, boom, err)
}

func TestGatewayDialect(t *testing.T) {
	assert.Equal(t, types.Networked, New(nil).Dialect())
}
