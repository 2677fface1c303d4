package userHandler

import (
	userService "callstack/internal/api/user/service"
	"callstack/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type UserHandler struct {
	log         *logrus.Logger
	middleware  middleware.Middleware
	userService userService.IUserService
}

func New(log *logrus.Logger, middleware middleware.Middleware, us userService.IUserService) *UserHandler {
	return &UserHandler{
		log:         log,
		middleware:  middleware,
		userService: us,
	}
}

func (h *UserHandler) Start(srv fiber.Router) {
	users := srv.Group("/users")
	users.Use(h.middleware.NewRateLimiter, h.middleware.NewTokenMiddleware)

	users.Get("/me", h.GetMe)
}
