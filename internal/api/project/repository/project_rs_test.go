package projectRepository_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"callstack/database/dbtest"
	"callstack/internal/api/project"
	projectRepository "callstack/internal/api/project/repository"
	"callstack/internal/entity"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedUser(t *testing.T, db *sqlx.DB, id string) {
	t.Helper()
	now := time.Now().UTC()
	_, err := db.Exec(`INSERT INTO users (id, created_at, updated_at) VALUES (?, ?, ?)`, id, now, now)
	require.NoError(t, err)
}

func newProject(id, userID, name string, at time.Time) entity.Project {
	return entity.Project{
		ID:           id,
		UserID:       userID,
		Name:         name,
		NameKey:      entity.ProjectNameKey(name),
		Status:       entity.ProjectStatusActive,
		CreatedAt:    at,
		LastAccessed: at,
	}
}

func TestTouchProject_IsMonotonic(t *testing.T) {
	db := dbtest.New(t)
	seedUser(t, db, "u1")
	ctx := context.Background()

	client, err := projectRepository.New(db, dbtest.Logger()).NewClient(false)
	require.NoError(t, err)

	created := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, client.Projects.CreateProject(ctx, newProject("p1", "u1", "Launch", created)))

	later := created.Add(time.Hour)
	require.NoError(t, client.Projects.TouchProject(ctx, "p1", later))
	require.NoError(t, client.Projects.TouchProject(ctx, "p1", later))

	p, err := client.Projects.GetProjectByID(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, p.LastAccessed.Equal(later), "got %s", p.LastAccessed)

	// a touch with an older clock reading never moves last_accessed back
	require.NoError(t, client.Projects.TouchProject(ctx, "p1", created.Add(time.Minute)))

	p, err = client.Projects.GetProjectByID(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, p.LastAccessed.Equal(later), "got %s", p.LastAccessed)
}

func TestTouchProject_UnknownID(t *testing.T) {
	db := dbtest.New(t)

	client, err := projectRepository.New(db, dbtest.Logger()).NewClient(false)
	require.NoError(t, err)

	err = client.Projects.TouchProject(context.Background(), "missing", time.Now())
	assert.ErrorIs(t, err, project.ErrProjectNotFound)
}

func TestGetProjectByName_IsCaseInsensitiveAndScopedToUser(t *testing.T) {
	db := dbtest.New(t)
	seedUser(t, db, "u1")
	seedUser(t, db, "u2")
	ctx := context.Background()

	client, err := projectRepository.New(db, dbtest.Logger()).NewClient(false)
	require.NoError(t, err)

	now := time.Now().UTC()
	require.NoError(t, client.Projects.CreateProject(ctx, newProject("p1", "u1", "Launch", now)))
	require.NoError(t, client.Projects.CreateProject(ctx, newProject("p2", "u2", "launch", now)))

	p, err := client.Projects.GetProjectByName(ctx, "u1", "LAUNCH")
	require.NoError(t, err)
	assert.Equal(t, "p1", p.ID)
	assert.Equal(t, "Launch", p.Name)

	p, err = client.Projects.GetProjectByName(ctx, "u2", "  Launch ")
	require.NoError(t, err)
	assert.Equal(t, "p2", p.ID)

	_, err = client.Projects.GetProjectByName(ctx, "u1", "Launchpad")
	assert.ErrorIs(t, err, project.ErrProjectNotFound)
}

func TestCreateProject_DuplicateFoldedName(t *testing.T) {
	db := dbtest.New(t)
	seedUser(t, db, "u1")
	ctx := context.Background()

	client, err := projectRepository.New(db, dbtest.Logger()).NewClient(false)
	require.NoError(t, err)

	now := time.Now().UTC()
	require.NoError(t, client.Projects.CreateProject(ctx, newProject("p1", "u1", "Launch", now)))

	err = client.Projects.CreateProject(ctx, newProject("p2", "u1", "LAUNCH", now))
	assert.ErrorIs(t, err, project.ErrProjectAlreadyExists)
}

func TestCreateProject_MapsPostgresUniqueViolation(t *testing.T) {
	mockDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer mockDB.Close()

	db := sqlx.NewDb(mockDB, "postgres")

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO projects")).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "uq_projects_user_name"})

	client, err := projectRepository.New(db, dbtest.Logger()).NewClient(false)
	require.NoError(t, err)

	err = client.Projects.CreateProject(context.Background(), newProject("p1", "u1", "Launch", time.Now()))
	assert.ErrorIs(t, err, project.ErrProjectAlreadyExists)

	var pqErr *pq.Error
	assert.ErrorAs(t, err, &pqErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateTask_RejectsForeignProject(t *testing.T) {
	mockDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer mockDB.Close()

	db := sqlx.NewDb(mockDB, "postgres")

	mock.ExpectQuery(`SELECT user_id FROM projects WHERE id = \$1`).
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow("someone-else"))

	client, err := projectRepository.New(db, dbtest.Logger()).NewClient(false)
	require.NoError(t, err)

	err = client.Tasks.CreateTask(context.Background(), entity.Task{
		ID:          "t1",
		ProjectID:   "p1",
		UserID:      "u1",
		Description: "write the press release",
		Status:      entity.TaskStatusPending,
		CreatedAt:   time.Now(),
	})
	assert.ErrorIs(t, err, project.ErrProjectNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
