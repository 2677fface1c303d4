package config

import (
	"callstack/database"
	callSessionHandler "callstack/internal/api/call_session/handler"
	callSessionRepository "callstack/internal/api/call_session/repository"
	callSessionService "callstack/internal/api/call_session/service"
	projectHandler "callstack/internal/api/project/handler"
	projectRepository "callstack/internal/api/project/repository"
	projectService "callstack/internal/api/project/service"
	userHandler "callstack/internal/api/user/handler"
	userRepository "callstack/internal/api/user/repository"
	userService "callstack/internal/api/user/service"
	voiceHandler "callstack/internal/api/voice/handler"
	voiceService "callstack/internal/api/voice/service"
	"callstack/internal/middleware"
	"callstack/pkg/audio"
	"callstack/pkg/bedrock"
	"callstack/pkg/classifier"
	"callstack/pkg/gemini"
	"callstack/pkg/identity"
	"callstack/pkg/nlp"
	openaiPkg "callstack/pkg/openai"
	"callstack/pkg/redis"
	"callstack/pkg/s3"
	"callstack/pkg/utils"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

type ServerOption func(*Server) error

type Server struct {
	cfg         *Config
	engine      *fiber.App
	db          *sqlx.DB
	log         *logrus.Logger
	middleware  middleware.Middleware
	validator   *validator.Validate
	utils       utils.IUtils
	handlers    []handler
	redisServer redis.IRedis
	s3Client    s3.ItfS3
	identity    identity.Provider
	transcriber audio.ITranscriber
	classifier  classifier.IClassifier
	closers     []io.Closer
}

type handler interface {
	Start(srv fiber.Router)
}

func NewServer(options ...ServerOption) (*Server, error) {
	server := &Server{}

	for _, option := range options {
		if err := option(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if server.cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if server.engine == nil {
		return nil, fmt.Errorf("fiber app is required")
	}
	if server.log == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if server.db == nil {
		return nil, fmt.Errorf("database is required")
	}
	if server.middleware == nil {
		return nil, fmt.Errorf("middleware is required")
	}
	if server.validator == nil {
		server.validator = NewValidator()
	}
	if server.utils == nil {
		server.utils = utils.New(server.cfg.Transcription.MaxFileSize)
	}

	return server, nil
}

func WithConfig(cfg *Config) ServerOption {
	return func(s *Server) error {
		s.cfg = cfg
		return nil
	}
}

func WithFiber(fiberApp *fiber.App) ServerOption {
	return func(s *Server) error {
		s.engine = fiberApp
		return nil
	}
}

func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) error {
		s.log = logger
		return nil
	}
}

func WithValidator(validator *validator.Validate) ServerOption {
	return func(s *Server) error {
		s.validator = validator
		return nil
	}
}

// WithDB uses an already opened database. Tests hand in a migrated SQLite
// file through it.
func WithDB(db *sqlx.DB) ServerOption {
	return func(s *Server) error {
		s.db = db
		return nil
	}
}

func WithDatabase() ServerOption {
	return func(s *Server) error {
		if s.cfg == nil || s.log == nil {
			return fmt.Errorf("config and logger must be initialized before database")
		}

		db, err := database.New(database.Config{
			Driver:          s.cfg.Database.Driver,
			DSN:             s.cfg.Database.DSN,
			MaxOpenConns:    s.cfg.Database.MaxOpenConns,
			MaxIdleConns:    s.cfg.Database.MaxIdleConns,
			ConnMaxLifetime: s.cfg.Database.ConnMaxLifetime,
			AutoMigrate:     s.cfg.Database.AutoMigrate,
		}, s.log)
		if err != nil {
			s.log.Errorf("Failed to connect to database: %v", err)
			return fmt.Errorf("failed to create database connection: %w", err)
		}
		s.db = db
		s.closers = append(s.closers, db)
		return nil
	}
}

// WithRedisServer connects to Redis when an address is configured. Without
// it identity lookups are not cached.
func WithRedisServer() ServerOption {
	return func(s *Server) error {
		if s.cfg == nil || s.cfg.Redis.Address == "" {
			return nil
		}

		client, err := redis.New(redis.Config{
			Address:  s.cfg.Redis.Address,
			Password: s.cfg.Redis.Password,
			DB:       s.cfg.Redis.DB,
		}, s.log)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		s.redisServer = client
		s.closers = append(s.closers, client)
		return nil
	}
}

func WithS3Client() ServerOption {
	return func(s *Server) error {
		if s.cfg == nil || s.cfg.S3.Bucket == "" {
			return nil
		}

		client, err := s3.New(s3.Config{
			Bucket:          s.cfg.S3.Bucket,
			Region:          s.cfg.S3.Region,
			Endpoint:        s.cfg.S3.Endpoint,
			AccessKeyID:     s.cfg.S3.AccessKeyID,
			SecretAccessKey: s.cfg.S3.SecretAccessKey,
			Prefix:          s.cfg.S3.Prefix,
		})
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to initialize S3 client: %v", err)
			}
			return fmt.Errorf("failed to create S3 client: %w", err)
		}
		s.s3Client = client
		return nil
	}
}

func WithIdentityProvider() ServerOption {
	return func(s *Server) error {
		if s.cfg == nil {
			return fmt.Errorf("config must be initialized before identity provider")
		}

		var cache identity.Cache
		if s.redisServer != nil {
			cache = s.redisServer
		}

		provider, err := identity.New(identity.Config{
			Provider:       s.cfg.Identity.Provider,
			SupabaseURL:    s.cfg.Identity.SupabaseURL,
			SupabaseAPIKey: s.cfg.Identity.SupabaseAPIKey,
			JWTSecret:      s.cfg.Identity.JWTSecret,
			DevUserID:      s.cfg.Identity.DevUserID,
			DevEmail:       s.cfg.Identity.DevEmail,
			DevPhone:       s.cfg.Identity.DevPhone,
		}, cache)
		if err != nil {
			return fmt.Errorf("failed to create identity provider: %w", err)
		}

		if provider.Name() == identity.VariantDevelopment && s.cfg.IsProduction() {
			return fmt.Errorf("development identity provider is not allowed in production")
		}

		s.identity = provider
		return nil
	}
}

// WithIdentity injects a ready provider.
func WithIdentity(provider identity.Provider) ServerOption {
	return func(s *Server) error {
		s.identity = provider
		return nil
	}
}

func WithMiddleware() ServerOption {
	return func(s *Server) error {
		if s.log == nil || s.identity == nil || s.cfg == nil {
			return fmt.Errorf("logger, config and identity provider must be initialized before middleware")
		}
		s.middleware = middleware.New(s.log, s.identity, s.cfg.RateLimit.RPS, s.cfg.RateLimit.Burst)
		return nil
	}
}

func WithTranscriber(transcriber audio.ITranscriber) ServerOption {
	return func(s *Server) error {
		s.transcriber = transcriber
		return nil
	}
}

func WithWhisper() ServerOption {
	return func(s *Server) error {
		if s.cfg == nil {
			return fmt.Errorf("config must be initialized before transcriber")
		}
		if s.cfg.Transcription.APIKey == "" && s.cfg.Transcription.BaseURL == "" {
			s.log.Warn("No transcription API key or base URL configured, audio uploads will fail")
		}

		s.transcriber = audio.NewTranscriptionService(audio.Config{
			APIKey:   s.cfg.Transcription.APIKey,
			BaseURL:  s.cfg.Transcription.BaseURL,
			Model:    s.cfg.Transcription.Model,
			Language: s.cfg.Transcription.Language,
		})
		return nil
	}
}

// WithClassifierBackend builds the classifier selected by
// classifier.backend.
func WithClassifierBackend() ServerOption {
	return func(s *Server) error {
		if s.cfg == nil {
			return fmt.Errorf("config must be initialized before classifier")
		}

		c := s.cfg.Classifier
		var (
			cl  classifier.IClassifier
			err error
		)

		switch strings.ToLower(c.Backend) {
		case classifier.BackendBedrock:
			cl, err = bedrock.New(bedrock.Config{
				Region:          c.Bedrock.Region,
				ModelID:         c.Bedrock.ModelID,
				AccessKeyID:     c.Bedrock.AccessKeyID,
				SecretAccessKey: c.Bedrock.SecretAccessKey,
				MaxTokens:       c.Bedrock.MaxTokens,
			})
		case classifier.BackendOpenAI:
			cl, err = openaiPkg.NewChatGPT(openaiPkg.Config{
				APIKey:  c.OpenAI.APIKey,
				BaseURL: c.OpenAI.BaseURL,
				Model:   c.OpenAI.Model,
			})
		case classifier.BackendGemini:
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			cl, err = gemini.NewGeminiClient(ctx, gemini.Config{
				APIKey: c.Gemini.APIKey,
				Model:  c.Gemini.Model,
			})
		case classifier.BackendKeyword:
			cl = nlp.NewKeywordClassifier()
		default:
			err = fmt.Errorf("unknown classifier backend %q", c.Backend)
		}
		if err != nil {
			return fmt.Errorf("failed to create %s classifier: %w", c.Backend, err)
		}

		if closer, ok := cl.(io.Closer); ok {
			s.closers = append(s.closers, closer)
		}

		s.log.WithField("backend", c.Backend).Info("Intent classifier ready")
		s.classifier = cl
		return nil
	}
}

func WithUtils() ServerOption {
	return func(s *Server) error {
		if s.cfg == nil {
			s.utils = utils.New(0)
			return nil
		}
		s.utils = utils.New(s.cfg.Transcription.MaxFileSize)
		return nil
	}
}

func (s *Server) RegisterHandler() {
	// Users
	userRepo := userRepository.New(s.db, s.log)
	userServices := userService.NewUserService(s.log, userRepo)
	userHandlers := userHandler.New(s.log, s.middleware, userServices)

	// Projects and tasks
	projectRepo := projectRepository.New(s.db, s.log)
	projectServices := projectService.NewProjectService(s.log, projectRepo, s.utils)
	projectHandlers := projectHandler.New(s.log, s.validator, s.middleware, projectServices, userServices)

	// Call sessions
	sessionRepo := callSessionRepository.New(s.db, s.log)
	sessionServices := callSessionService.NewCallSessionService(s.log, sessionRepo, s.utils)
	sessionHandlers := callSessionHandler.New(s.log, s.validator, s.middleware, sessionServices, userServices)

	// Voice pipeline
	voiceServices := voiceService.NewVoiceService(
		s.log,
		userServices,
		projectServices,
		sessionServices,
		s.transcriber,
		s.classifier,
		s.s3Client,
		s.utils,
		voiceService.Config{
			IntentTimeout: s.cfg.Classifier.Timeout,
			SystemPrompt:  s.cfg.Classifier.SystemPrompt,
			ArchiveAudio:  s.cfg.S3.ArchiveAudio,
		},
	)
	voiceHandlers := voiceHandler.New(s.log, s.validator, s.middleware, voiceServices, s.utils)

	s.engine.Use(s.middleware.NewRequestIDMiddleware())
	s.engine.Use(middleware.LoggerConfig())

	s.setupHealthCheck()

	voiceHandlers.StartRoot(s.engine)
	sessionHandlers.StartHistory(s.engine.Group("/api"))

	s.handlers = append(s.handlers, userHandlers, projectHandlers, sessionHandlers, voiceHandlers)

	router := s.engine.Group("/api/v1")
	for _, h := range s.handlers {
		h.Start(router)
	}
}

// App exposes the fiber engine, mostly for app.Test in handler tests.
func (s *Server) App() *fiber.App {
	return s.engine
}

func (s *Server) Run() error {
	port := s.cfg.App.Port
	if port == "" {
		port = "8000"
	}

	return s.engine.Listen(fmt.Sprintf(":%s", port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	err := s.engine.ShutdownWithContext(ctx)

	for i := len(s.closers) - 1; i >= 0; i-- {
		if cerr := s.closers[i].Close(); cerr != nil {
			s.log.WithField("error", cerr.Error()).Warn("Failed to close resource")
		}
	}

	return err
}

func (s *Server) setupHealthCheck() {
	s.engine.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.JSON(fiber.Map{
			"status":  "ok",
			"service": "callstack-api",
		})
	})

	s.engine.Get("/health", func(ctx *fiber.Ctx) error {
		c, cancel := context.WithTimeout(ctx.UserContext(), 2*time.Second)
		defer cancel()

		if err := s.db.PingContext(c); err != nil {
			s.log.WithField("error", err.Error()).Error("Health check failed")
			return ctx.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "unhealthy",
			})
		}

		return ctx.JSON(fiber.Map{"status": "healthy"})
	})
}
