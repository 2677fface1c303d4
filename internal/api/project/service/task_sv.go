package projectService

import (
	"strings"
	"time"

	"callstack/internal/api/project"
	"callstack/internal/entity"
	contextPkg "callstack/pkg/context"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

// CreateTask assigns the id, status and creation time. task.UserID must own
// task.ProjectID.
func (s *projectService) CreateTask(ctx context.Context, task entity.Task) (string, error) {
	requestID := contextPkg.GetRequestID(ctx)

	task.Description = strings.TrimSpace(task.Description)
	if task.Description == "" {
		return "", project.ErrInvalidDescription
	}

	now := time.Now().UTC()
	id, err := s.utils.NewULIDFromTimestamp(now)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to generate ULID")
		return "", err
	}

	task.ID = id
	task.CreatedAt = now
	task.CompletedAt = nil
	if task.Status == "" {
		task.Status = entity.TaskStatusPending
	}
	if !task.Status.Valid() {
		return "", project.ErrInvalidTaskStatus
	}
	if task.Status == entity.TaskStatusCompleted {
		task.CompletedAt = &now
	}

	repo, err := s.projectRepo.NewClient(true)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create repository client")
		return "", err
	}
	defer repo.Rollback()

	if err := repo.Tasks.CreateTask(ctx, task); err != nil {
		return "", err
	}
	if task.CompletedAt != nil {
		if err := repo.Tasks.UpdateTaskStatus(ctx, task.ID, task.Status, task.CompletedAt); err != nil {
			return "", err
		}
	}

	if err := repo.Commit(); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to commit task")
		return "", err
	}

	return task.ID, nil
}

func (s *projectService) GetTaskByID(ctx context.Context, taskID string) (entity.Task, error) {
	repo, err := s.projectRepo.NewClient(false)
	if err != nil {
		return entity.Task{}, err
	}

	return repo.Tasks.GetTaskByID(ctx, taskID)
}

func (s *projectService) ListProjectTasks(ctx context.Context, userID, projectID string) ([]entity.Task, error) {
	if _, err := s.GetUserProject(ctx, userID, projectID); err != nil {
		return nil, err
	}

	repo, err := s.projectRepo.NewClient(false)
	if err != nil {
		return nil, err
	}

	return repo.Tasks.GetProjectTasks(ctx, projectID)
}

// UpdateTaskStatus stamps completed_at when a task becomes completed and
// clears it on any other status.
func (s *projectService) UpdateTaskStatus(ctx context.Context, taskID string, status entity.TaskStatus) (entity.Task, error) {
	if !status.Valid() {
		return entity.Task{}, project.ErrInvalidTaskStatus
	}

	var completedAt *time.Time
	if status == entity.TaskStatusCompleted {
		now := time.Now().UTC()
		completedAt = &now
	}

	repo, err := s.projectRepo.NewClient(true)
	if err != nil {
		return entity.Task{}, err
	}
	defer repo.Rollback()

	if err := repo.Tasks.UpdateTaskStatus(ctx, taskID, status, completedAt); err != nil {
		return entity.Task{}, err
	}

	task, err := repo.Tasks.GetTaskByID(ctx, taskID)
	if err != nil {
		return entity.Task{}, err
	}

	if err := repo.Commit(); err != nil {
		return entity.Task{}, err
	}

	s.log.WithFields(logrus.Fields{
		"request_id": contextPkg.GetRequestID(ctx),
		"task_id":    taskID,
		"status":     status,
	}).Info("Task status updated")

	return task, nil
}

func (s *projectService) UpdateUserTaskStatus(ctx context.Context, userID, taskID string, status entity.TaskStatus) (entity.Task, error) {
	task, err := s.GetTaskByID(ctx, taskID)
	if err != nil {
		return entity.Task{}, err
	}
	if task.UserID != userID {
		return entity.Task{}, project.ErrTaskNotFound
	}

	return s.UpdateTaskStatus(ctx, taskID, status)
}
