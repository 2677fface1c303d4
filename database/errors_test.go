package database_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"callstack/database"
	"callstack/database/dbtest"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUniqueViolation_Postgres(t *testing.T) {
	err := fmt.Errorf("insert: %w", &pq.Error{Code: "23505", Constraint: "uq_projects_user_name"})

	target, ok := database.UniqueViolation(err)
	assert.True(t, ok)
	assert.Equal(t, "uq_projects_user_name", target)

	_, ok = database.UniqueViolation(&pq.Error{Code: "23503"})
	assert.False(t, ok)
}

func TestUniqueViolation_SQLite(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	now := time.Now().UTC()

	insert := `INSERT INTO users (id, email, created_at, updated_at) VALUES (?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, insert, "u1", "a@example.com", now, now)
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, insert, "u2", "a@example.com", now, now)
	require.Error(t, err)

	target, ok := database.UniqueViolation(err)
	assert.True(t, ok)
	assert.Contains(t, target, "users.email")
}

func TestUniqueViolation_Other(t *testing.T) {
	assert.False(t, database.IsUniqueViolation(nil))
	assert.False(t, database.IsUniqueViolation(fmt.Errorf("boom")))
}
