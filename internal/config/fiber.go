package config

import (
	"callstack/pkg/handlerUtil"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

func NewFiber(cfg *Config, logger *logrus.Logger) *fiber.App {
	bodyLimit := int(cfg.Transcription.MaxFileSize) + 1024*1024
	if bodyLimit < 4*1024*1024 {
		bodyLimit = 4 * 1024 * 1024
	}

	app := fiber.New(
		fiber.Config{
			AppName:               cfg.App.Name,
			BodyLimit:             bodyLimit,
			DisableKeepalive:      false,
			StrictRouting:         false,
			CaseSensitive:         true,
			DisableStartupMessage: cfg.IsProduction(),
			JSONEncoder:           jsoniter.Marshal,
			JSONDecoder:           jsoniter.Unmarshal,
			ErrorHandler:          errorHandler(logger),
		})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.App.CORSOrigins,
		AllowCredentials: cfg.App.CORSOrigins != "*",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))

	return app
}

func errorHandler(logger *logrus.Logger) fiber.ErrorHandler {
	return func(ctx *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return ctx.Status(fe.Code).JSON(handlerUtil.ErrorResponse{Error: fe.Message})
		}

		logger.WithField("error", err.Error()).Error("Unhandled error")
		return ctx.Status(fiber.StatusInternalServerError).JSON(handlerUtil.ErrorResponse{
			Error: "An unexpected error occurred",
		})
	}
}
