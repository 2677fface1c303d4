package projectService

import (
	projectRepository "callstack/internal/api/project/repository"
	"callstack/internal/entity"
	"callstack/pkg/utils"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

// IProjectService is the entity store for projects and tasks. Every method
// runs in its own short transaction.
type IProjectService interface {
	CreateProject(ctx context.Context, userID, name, filePath string) (string, error)
	GetProjectByName(ctx context.Context, userID, name string) (entity.Project, bool, error)
	GetProjectByID(ctx context.Context, projectID string) (entity.Project, error)
	GetUserProject(ctx context.Context, userID, projectID string) (entity.Project, error)
	ListProjects(ctx context.Context, userID string) ([]entity.Project, error)
	EnsureProject(ctx context.Context, userID, name string) (entity.Project, error)
	TouchProject(ctx context.Context, projectID string) error
	UpdateProjectStatus(ctx context.Context, userID, projectID, status string) error

	CreateTask(ctx context.Context, task entity.Task) (string, error)
	GetTaskByID(ctx context.Context, taskID string) (entity.Task, error)
	ListProjectTasks(ctx context.Context, userID, projectID string) ([]entity.Task, error)
	UpdateTaskStatus(ctx context.Context, taskID string, status entity.TaskStatus) (entity.Task, error)
	UpdateUserTaskStatus(ctx context.Context, userID, taskID string, status entity.TaskStatus) (entity.Task, error)

	GetUserProjectsWithTaskCounts(ctx context.Context, userID string) ([]entity.ProjectTaskCounts, error)
}

type projectService struct {
	log         *logrus.Logger
	projectRepo projectRepository.Repository
	utils       utils.IUtils
}

func NewProjectService(log *logrus.Logger, pr projectRepository.Repository, utils utils.IUtils) IProjectService {
	return &projectService{
		log:         log,
		projectRepo: pr,
		utils:       utils,
	}
}
