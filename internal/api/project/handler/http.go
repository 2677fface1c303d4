package projectHandler

import (
	projectService "callstack/internal/api/project/service"
	userService "callstack/internal/api/user/service"
	"callstack/internal/middleware"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type ProjectHandler struct {
	log            *logrus.Logger
	validator      *validator.Validate
	middleware     middleware.Middleware
	projectService projectService.IProjectService
	userService    userService.IUserService
}

func New(
	log *logrus.Logger,
	validate *validator.Validate,
	middleware middleware.Middleware,
	ps projectService.IProjectService,
	us userService.IUserService,
) *ProjectHandler {
	return &ProjectHandler{
		log:            log,
		validator:      validate,
		middleware:     middleware,
		projectService: ps,
		userService:    us,
	}
}

func (h *ProjectHandler) Start(srv fiber.Router) {
	projects := srv.Group("/projects")
	projects.Use(h.middleware.NewRateLimiter, h.middleware.NewTokenMiddleware)

	projects.Get("/", h.ListProjects)
	projects.Post("/", h.CreateProject)
	projects.Get("/status", h.GetProjectsStatus)
	projects.Get("/:project_id", h.GetProject)
	projects.Patch("/:project_id/status", h.UpdateProjectStatus)
	projects.Get("/:project_id/tasks", h.ListTasks)
	projects.Post("/:project_id/tasks", h.CreateTask)

	tasks := srv.Group("/tasks")
	tasks.Use(h.middleware.NewRateLimiter, h.middleware.NewTokenMiddleware)

	tasks.Patch("/:task_id/status", h.UpdateTaskStatus)
}
