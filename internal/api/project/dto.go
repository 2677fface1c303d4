package project

import (
	"time"

	"callstack/internal/entity"
)

type CreateProjectRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=255"`
	FilePath string `json:"file_path" validate:"omitempty,max=1024"`
}

type UpdateProjectStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active paused completed archived"`
}

type CreateTaskRequest struct {
	Description   string `json:"description" validate:"required,min=1,max=2000"`
	OutputSummary string `json:"output_summary" validate:"omitempty,max=4000"`
}

type UpdateTaskStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending in_progress completed"`
}

type ProjectResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	FilePath     string    `json:"file_path,omitempty"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	LastAccessed time.Time `json:"last_accessed"`
}

type ProjectStatusResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Status     string `json:"status"`
	Total      int    `json:"total"`
	Pending    int    `json:"pending"`
	InProgress int    `json:"in_progress"`
	Completed  int    `json:"completed"`
}

type CreatedResponse struct {
	ID string `json:"id"`
}

func NewProjectResponse(p entity.Project) ProjectResponse {
	return ProjectResponse{
		ID:           p.ID,
		Name:         p.Name,
		FilePath:     p.FilePath,
		Status:       p.Status,
		CreatedAt:    p.CreatedAt,
		LastAccessed: p.LastAccessed,
	}
}

func NewProjectStatusResponse(c entity.ProjectTaskCounts) ProjectStatusResponse {
	return ProjectStatusResponse{
		ID:         c.Project.ID,
		Name:       c.Project.Name,
		Status:     c.Project.Status,
		Total:      c.Total,
		Pending:    c.Pending,
		InProgress: c.InProgress,
		Completed:  c.Completed,
	}
}
