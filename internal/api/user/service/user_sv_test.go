package userService_test

import (
	"context"
	"testing"
	"time"

	"callstack/database/dbtest"
	"callstack/internal/api/user"
	userRepository "callstack/internal/api/user/repository"
	userService "callstack/internal/api/user/service"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) (userService.IUserService, *sqlx.DB) {
	t.Helper()
	db := dbtest.New(t)
	log := dbtest.Logger()
	return userService.NewUserService(log, userRepository.New(db, log)), db
}

func TestUpsertUser_InsertsNewUser(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	u, err := svc.UpsertUser(ctx, "user-1", "one@example.com", "+15550001")
	require.NoError(t, err)

	assert.Equal(t, "user-1", u.ID)
	assert.Equal(t, "one@example.com", u.Email)
	assert.Equal(t, "+15550001", u.Phone)
}

func TestUpsertUser_PrefersExistingValues(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.UpsertUser(ctx, "user-1", "", "+15550001")
	require.NoError(t, err)

	u, err := svc.UpsertUser(ctx, "user-1", "one@example.com", "+15559999")
	require.NoError(t, err)
	assert.Equal(t, "one@example.com", u.Email, "missing email is filled")
	assert.Equal(t, "+15550001", u.Phone, "stored phone wins")

	u, err = svc.UpsertUser(ctx, "user-1", "other@example.com", "")
	require.NoError(t, err)
	assert.Equal(t, "one@example.com", u.Email, "stored email wins")
}

func TestUpsertUser_ReassignsIDMatchedByEmail(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()

	_, err := svc.UpsertUser(ctx, "legacy-id", "one@example.com", "")
	require.NoError(t, err)

	now := time.Now().UTC()
	_, err = db.ExecContext(ctx,
		`INSERT INTO projects (id, user_id, name, name_key, status, created_at, last_accessed) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		"01HZZZZZZZZZZZZZZZZZZZZZZZ", "legacy-id", "Launch", "launch", "active", now, now)
	require.NoError(t, err)

	u, err := svc.UpsertUser(ctx, "new-id", "one@example.com", "+15550001")
	require.NoError(t, err)
	assert.Equal(t, "new-id", u.ID)
	assert.Equal(t, "+15550001", u.Phone)

	_, err = svc.GetUser(ctx, "legacy-id")
	assert.ErrorIs(t, err, user.ErrUserNotFound)

	var owner string
	require.NoError(t, db.GetContext(ctx, &owner, `SELECT user_id FROM projects WHERE name = ?`, "Launch"))
	assert.Equal(t, "new-id", owner)
}

func TestUpsertUser_UsersWithoutEmailDoNotCollide(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.UpsertUser(ctx, "user-1", "", "")
	require.NoError(t, err)
	_, err = svc.UpsertUser(ctx, "user-2", "  ", "")
	require.NoError(t, err)
}

func TestUpsertUser_EmailOwnedByAnotherUserIsSkipped(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.UpsertUser(ctx, "id-1", "", "")
	require.NoError(t, err)
	_, err = svc.UpsertUser(ctx, "id-2", "shared@example.com", "")
	require.NoError(t, err)

	u, err := svc.UpsertUser(ctx, "id-1", "shared@example.com", "+15550002")
	require.NoError(t, err)
	assert.Equal(t, "id-1", u.ID)
	assert.Empty(t, u.Email)
	assert.Equal(t, "+15550002", u.Phone)

	other, err := svc.GetUser(ctx, "id-2")
	require.NoError(t, err)
	assert.Equal(t, "shared@example.com", other.Email)
}

func TestUpsertUser_RequiresID(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.UpsertUser(context.Background(), " ", "one@example.com", "")
	assert.ErrorIs(t, err, user.ErrInvalidUserID)
}
