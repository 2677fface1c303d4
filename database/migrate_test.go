package database_test

import (
	"context"
	"testing"

	"callstack/database"
	"callstack/database/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrate_IsIdempotentAndReportsStatus(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()

	require.NoError(t, database.Migrate(ctx, db, database.DriverSQLite))

	statuses, err := database.MigrationStatuses(ctx, db, database.DriverSQLite)
	require.NoError(t, err)
	require.NotEmpty(t, statuses)
	for _, s := range statuses {
		assert.True(t, s.Applied, "migration %d should be applied", s.Version)
	}
}

func TestMigrateDown_DropsSchema(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()

	require.NoError(t, database.MigrateDown(ctx, db, database.DriverSQLite))

	_, err := db.ExecContext(ctx, `SELECT COUNT(*) FROM projects`)
	assert.Error(t, err)
}

func TestNew_RejectsUnknownDriver(t *testing.T) {
	_, err := database.New(database.Config{Driver: "mysql"}, dbtest.Logger())
	assert.Error(t, err)
}
