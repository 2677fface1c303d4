package user

import (
	"net/http"

	"callstack/pkg/response"
)

var (
	ErrUserNotFound  = response.NewError(http.StatusNotFound, "user not found")
	ErrInvalidUserID = response.NewError(http.StatusBadRequest, "user id is required")
	ErrUserConflict  = response.NewError(http.StatusConflict, "user could not be reconciled")
	ErrStorage       = response.NewError(http.StatusInternalServerError, "user storage failure")
)
