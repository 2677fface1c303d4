package projectRepository

import (
	"time"

	"callstack/internal/entity"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

type SQLExecutor interface {
	sqlx.ExtContext
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row
	Rebind(query string) string
}

func New(db *sqlx.DB, log *logrus.Logger) Repository {
	return &repository{
		DB:  db,
		log: log,
	}
}

type repository struct {
	DB  *sqlx.DB
	log *logrus.Logger
}

type Repository interface {
	NewClient(tx bool) (Client, error)
}

func (r *repository) NewClient(tx bool) (Client, error) {
	var sqlExecutor SQLExecutor
	var commitFunc, rollbackFunc func() error

	sqlExecutor = r.DB

	if tx {
		txx, err := r.DB.Beginx()
		if err != nil {
			return Client{}, err
		}

		sqlExecutor = txx
		commitFunc = txx.Commit
		rollbackFunc = txx.Rollback
	} else {
		commitFunc = func() error { return nil }
		rollbackFunc = func() error { return nil }
	}

	return Client{
		Projects: &projectRepository{q: sqlExecutor, log: r.log},
		Tasks:    &taskRepository{q: sqlExecutor, log: r.log},
		Commit:   commitFunc,
		Rollback: rollbackFunc,
	}, nil
}

type Client struct {
	Projects interface {
		CreateProject(ctx context.Context, project entity.Project) error
		InsertProjectIfAbsent(ctx context.Context, project entity.Project) (bool, error)
		GetProjectByID(ctx context.Context, id string) (entity.Project, error)
		GetProjectByName(ctx context.Context, userID, name string) (entity.Project, error)
		GetUserProjects(ctx context.Context, userID string) ([]entity.Project, error)
		TouchProject(ctx context.Context, id string, now time.Time) error
		UpdateProjectStatus(ctx context.Context, id, userID, status string) error
		GetUserProjectsWithTaskCounts(ctx context.Context, userID string) ([]entity.ProjectTaskCounts, error)
	}

	Tasks interface {
		CreateTask(ctx context.Context, task entity.Task) error
		GetTaskByID(ctx context.Context, id string) (entity.Task, error)
		GetProjectTasks(ctx context.Context, projectID string) ([]entity.Task, error)
		UpdateTaskStatus(ctx context.Context, id string, status entity.TaskStatus, completedAt *time.Time) error
	}

	Commit   func() error
	Rollback func() error
}

type projectRepository struct {
	q   SQLExecutor
	log *logrus.Logger
}

type taskRepository struct {
	q   SQLExecutor
	log *logrus.Logger
}
