package projectService

import (
	"errors"
	"strings"
	"time"

	"callstack/internal/api/project"
	"callstack/internal/entity"
	contextPkg "callstack/pkg/context"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

func (s *projectService) CreateProject(ctx context.Context, userID, name, filePath string) (string, error) {
	requestID := contextPkg.GetRequestID(ctx)

	name = strings.TrimSpace(name)
	if entity.ProjectNameKey(name) == "" {
		return "", project.ErrInvalidProjectName
	}

	p, err := s.newProject(userID, name, filePath)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to generate ULID")
		return "", err
	}

	repo, err := s.projectRepo.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create new client")
		return "", err
	}

	if err := repo.Projects.CreateProject(ctx, p); err != nil {
		return "", err
	}

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"project_id": p.ID,
		"user_id":    userID,
	}).Info("Project created")

	return p.ID, nil
}

// GetProjectByName matches case-insensitively within the user's projects. The
// boolean is false when no project matches.
func (s *projectService) GetProjectByName(ctx context.Context, userID, name string) (entity.Project, bool, error) {
	if entity.ProjectNameKey(name) == "" {
		return entity.Project{}, false, nil
	}

	repo, err := s.projectRepo.NewClient(false)
	if err != nil {
		return entity.Project{}, false, err
	}

	p, err := repo.Projects.GetProjectByName(ctx, userID, name)
	if errors.Is(err, project.ErrProjectNotFound) {
		return entity.Project{}, false, nil
	}
	if err != nil {
		return entity.Project{}, false, err
	}

	return p, true, nil
}

func (s *projectService) GetProjectByID(ctx context.Context, projectID string) (entity.Project, error) {
	repo, err := s.projectRepo.NewClient(false)
	if err != nil {
		return entity.Project{}, err
	}

	return repo.Projects.GetProjectByID(ctx, projectID)
}

// GetUserProject hides projects owned by someone else behind not found.
func (s *projectService) GetUserProject(ctx context.Context, userID, projectID string) (entity.Project, error) {
	p, err := s.GetProjectByID(ctx, projectID)
	if err != nil {
		return entity.Project{}, err
	}
	if p.UserID != userID {
		s.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"project_id": projectID,
			"user_id":    userID,
		}).Warn("Project requested by non-owner")
		return entity.Project{}, project.ErrProjectNotFound
	}

	return p, nil
}

func (s *projectService) ListProjects(ctx context.Context, userID string) ([]entity.Project, error) {
	repo, err := s.projectRepo.NewClient(false)
	if err != nil {
		return nil, err
	}

	return repo.Projects.GetUserProjects(ctx, userID)
}

// EnsureProject returns the user's project with the given name, creating it
// if needed. Concurrent callers converge on one row through the unique
// (user_id, name_key) constraint.
func (s *projectService) EnsureProject(ctx context.Context, userID, name string) (entity.Project, error) {
	requestID := contextPkg.GetRequestID(ctx)

	name = strings.TrimSpace(name)
	if entity.ProjectNameKey(name) == "" {
		return entity.Project{}, project.ErrInvalidProjectName
	}

	p, err := s.newProject(userID, name, "")
	if err != nil {
		return entity.Project{}, err
	}

	repo, err := s.projectRepo.NewClient(true)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create repository client")
		return entity.Project{}, err
	}
	defer repo.Rollback()

	inserted, err := repo.Projects.InsertProjectIfAbsent(ctx, p)
	if err != nil {
		return entity.Project{}, err
	}

	stored, err := repo.Projects.GetProjectByName(ctx, userID, name)
	if err != nil {
		return entity.Project{}, err
	}

	if err := repo.Commit(); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to commit ensure project")
		return entity.Project{}, err
	}

	if inserted {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"project_id": stored.ID,
			"name":       stored.Name,
		}).Info("Project created on demand")
	}

	return stored, nil
}

func (s *projectService) TouchProject(ctx context.Context, projectID string) error {
	repo, err := s.projectRepo.NewClient(false)
	if err != nil {
		return err
	}

	return repo.Projects.TouchProject(ctx, projectID, time.Now().UTC())
}

func (s *projectService) UpdateProjectStatus(ctx context.Context, userID, projectID, status string) error {
	repo, err := s.projectRepo.NewClient(false)
	if err != nil {
		return err
	}

	return repo.Projects.UpdateProjectStatus(ctx, projectID, userID, status)
}

func (s *projectService) GetUserProjectsWithTaskCounts(ctx context.Context, userID string) ([]entity.ProjectTaskCounts, error) {
	repo, err := s.projectRepo.NewClient(false)
	if err != nil {
		return nil, err
	}

	return repo.Projects.GetUserProjectsWithTaskCounts(ctx, userID)
}

func (s *projectService) newProject(userID, name, filePath string) (entity.Project, error) {
	now := time.Now().UTC()

	id, err := s.utils.NewULIDFromTimestamp(now)
	if err != nil {
		return entity.Project{}, err
	}

	return entity.Project{
		ID:           id,
		UserID:       userID,
		Name:         name,
		NameKey:      entity.ProjectNameKey(name),
		FilePath:     strings.TrimSpace(filePath),
		Status:       entity.ProjectStatusActive,
		CreatedAt:    now,
		LastAccessed: now,
	}, nil
}
