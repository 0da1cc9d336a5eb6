package migration

import (
	"context"
	"math"
	"testing"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/Argor01/OkoZnaniy-sub000/internal/config"
	"github.com/Argor01/OkoZnaniy-sub000/internal/database/dbtest"
)

func TestEmbeddedMigrationsAreCollected(t *testing.T) {
	goose.SetBaseFS(migrations)
	t.Cleanup(func() { goose.SetBaseFS(nil) })

	found, err := goose.CollectMigrations(migrationsDir, 0, math.MaxInt64)
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, int64(1), found[0].Version)
	assert.Equal(t, int64(2), found[1].Version)
}

func TestGooseDialect(t *testing.T) {
	d, err := gooseDialect("pg")
	require.NoError(t, err)
	assert.Equal(t, "postgres", d)

	_, err = gooseDialect("mysql")
	assert.Error(t, err)
}

func TestSqliteUpBuildsSchema(t *testing.T) {
	conns := dbtest.New(t)
	var cfg config.Config
	cfg.Database.Driver = "sqlite"

	m, err := New(cfg, conns, zap.NewNop())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, m.Up(ctx))
	// idempotent on an existing schema
	require.NoError(t, m.Up(ctx))

	var tables []string
	require.NoError(t, conns.Writer.NewSelect().
		Table("sqlite_master").
		Column("name").
		Where("type = 'table' AND name IN (?)", bun.In([]string{"orders", "bids", "offers", "order_files", "order_events"})).
		Scan(ctx, &tables))
	assert.Len(t, tables, 5)

	assert.Error(t, m.Down(ctx, 1, false))

	version, err := m.Version(ctx)
	require.NoError(t, err)
	assert.Zero(t, version)
}
