package projectHandler

import (
	"callstack/internal/api/project"
	"callstack/internal/entity"
	contextPkg "callstack/pkg/context"
	"callstack/pkg/handlerUtil"
	jwtPkg "callstack/pkg/jwt"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/net/context"
)

func (h *ProjectHandler) ListTasks(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	userData, err := jwtPkg.GetUserLoginData(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Unauthorized")
	}

	tasks, err := h.projectService.ListProjectTasks(c, userData.ID, ctx.Params("project_id"))
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "list_tasks")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, tasks)
	}
}

func (h *ProjectHandler) CreateTask(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	userData, err := jwtPkg.GetUserLoginData(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Unauthorized")
	}

	var req project.CreateTaskRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}
	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	id, err := h.projectService.CreateTask(c, entity.Task{
		ProjectID:     ctx.Params("project_id"),
		UserID:        userData.ID,
		Description:   req.Description,
		OutputSummary: req.OutputSummary,
	})
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "create_task")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusCreated, project.CreatedResponse{ID: id})
	}
}

func (h *ProjectHandler) UpdateTaskStatus(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	userData, err := jwtPkg.GetUserLoginData(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Unauthorized")
	}

	var req project.UpdateTaskStatusRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}
	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	task, err := h.projectService.UpdateUserTaskStatus(c, userData.ID, ctx.Params("task_id"), entity.TaskStatus(req.Status))
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "update_task_status")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, task)
	}
}
