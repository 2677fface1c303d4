package callsession

import (
	"net/http"

	"callstack/pkg/response"
)

var (
	ErrSessionNotFound = response.NewError(http.StatusNotFound, "call session not found")
	ErrSessionEnded    = response.NewError(http.StatusConflict, "call session already ended")
	ErrForeignHistory  = response.NewError(http.StatusForbidden, "call history belongs to another user")
)
