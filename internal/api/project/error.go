package project

import (
	"net/http"

	"callstack/pkg/response"
)

var (
	ErrProjectNotFound      = response.NewError(http.StatusNotFound, "project not found")
	ErrProjectAlreadyExists = response.NewError(http.StatusConflict, "project already exists")
	ErrInvalidProjectName   = response.NewError(http.StatusBadRequest, "project name is required")
	ErrTaskNotFound         = response.NewError(http.StatusNotFound, "task not found")
	ErrInvalidTaskStatus    = response.NewError(http.StatusBadRequest, "invalid task status")
	ErrInvalidDescription   = response.NewError(http.StatusBadRequest, "task description is required")
	ErrStorage              = response.NewError(http.StatusInternalServerError, "project storage failure")
)
