//go:build integration

package migration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heritagehub/cms/database/postgresql"
	"github.com/heritagehub/cms/database/types"
	"github.com/heritagehub/cms/testing/containers"
)

func TestUpCreatesSchemaOnPostgreSQL(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	dbCfg := containers.PostgreSQL(ctx, t)
	log := containers.QuietLogger()

	db, err := postgresql.Open(dbCfg, log)
	require.NoError(t, err)
	defer db.Close()

	m, err := New(db, types.Networked, log)
	require.NoError(t, err)

	applied, err := m.Up(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, applied)

	gw := postgresql.New(db)
	report := gw.RepairSequences(ctx, Tables)
	require.Len(t, report, len(Tables))
	for _, tr := range report {
		assert.Equal(t, types.RepairSkippedEmpty, tr.Outcome, tr.Table)
	}

	res, err := gw.Run(ctx, "INSERT INTO settings (key, value) VALUES (?, ?)", "site.title", "Heritage Hub")
	require.NoError(t, err)
	id, ok := res.InsertedID()
	require.True(t, ok)
	assert.Equal(t, int64(1), id)

	row, err := gw.Get(ctx, "SELECT key, value, updated_at FROM settings WHERE id = ?", id)
	require.NoError(t, err)
	assert.Equal(t, "site.title", row["key"])
	assert.IsType(t, "", row["updated_at"])
}
