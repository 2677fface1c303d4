package callSessionHandler

import (
	callSessionService "callstack/internal/api/call_session/service"
	userService "callstack/internal/api/user/service"
	"callstack/internal/middleware"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type CallSessionHandler struct {
	log            *logrus.Logger
	validator      *validator.Validate
	middleware     middleware.Middleware
	sessionService callSessionService.ICallSessionService
	userService    userService.IUserService
}

func New(
	log *logrus.Logger,
	validate *validator.Validate,
	middleware middleware.Middleware,
	cs callSessionService.ICallSessionService,
	us userService.IUserService,
) *CallSessionHandler {
	return &CallSessionHandler{
		log:            log,
		validator:      validate,
		middleware:     middleware,
		sessionService: cs,
		userService:    us,
	}
}

func (h *CallSessionHandler) Start(srv fiber.Router) {
	sessions := srv.Group("/call-sessions")
	sessions.Use(h.middleware.NewRateLimiter, h.middleware.NewTokenMiddleware)

	sessions.Get("/", h.ListSessions)
	sessions.Post("/", h.StartSession)
	sessions.Get("/:session_id", h.GetSession)
	sessions.Post("/:session_id/end", h.EndSession)
}

// StartHistory registers the per-user history path under srv, which is the
// unversioned /api group.
func (h *CallSessionHandler) StartHistory(srv fiber.Router) {
	srv.Get("/call-sessions/:user_id", h.middleware.NewRateLimiter, h.middleware.NewTokenMiddleware, h.GetUserHistory)
}
