// Package dbtest opens throwaway SQLite databases with the production schema
// applied, for repository and service tests.
package dbtest

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"callstack/database"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func New(t testing.TB) *sqlx.DB {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "callstack.db")
	db, err := database.New(database.Config{
		Driver:       database.DriverSQLite,
		DSN:          dsn,
		MaxOpenConns: 4,
	}, Logger())
	require.NoError(t, err)

	require.NoError(t, database.Migrate(context.Background(), db, database.DriverSQLite))

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

// Logger returns a logger that discards everything.
func Logger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}
