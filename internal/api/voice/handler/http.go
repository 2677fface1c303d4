package voiceHandler

import (
	voiceService "callstack/internal/api/voice/service"
	"callstack/internal/middleware"
	"callstack/pkg/utils"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
)

const (
	audioTimeout = 60 * time.Second
	textTimeout  = 30 * time.Second
)

type VoiceHandler struct {
	audioTimeout time.Duration
	textTimeout  time.Duration
	log          *logrus.Logger
	validator    *validator.Validate
	middleware   middleware.Middleware
	voiceService voiceService.IVoiceService
	utils        utils.IUtils
}

func New(
	log *logrus.Logger,
	validate *validator.Validate,
	middleware middleware.Middleware,
	vs voiceService.IVoiceService,
	utils utils.IUtils,
) *VoiceHandler {
	return &VoiceHandler{
		audioTimeout: audioTimeout,
		textTimeout:  textTimeout,
		log:          log,
		validator:    validate,
		middleware:   middleware,
		voiceService: vs,
		utils:        utils,
	}
}

func (h *VoiceHandler) Start(srv fiber.Router) {
	voice := srv.Group("/voice")

	voice.Use(h.middleware.NewRateLimiter, h.middleware.NewTokenMiddleware)

	voice.Post("/transcribe", h.Transcribe)
	voice.Post("/text", h.ProcessText)

	voice.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	voice.Get("/ws", websocket.New(h.handleWebSocket))
}

// StartRoot registers the unversioned upload path older clients post to.
func (h *VoiceHandler) StartRoot(srv fiber.Router) {
	srv.Post("/transcribe", h.middleware.NewRateLimiter, h.middleware.NewTokenMiddleware, h.Transcribe)
}
