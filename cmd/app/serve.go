package main

import (
	"callstack/internal/config"
	"callstack/pkg/log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/net/context"
)

func newServeCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(*envFile)
		},
	}
}

func runServe(envFile string) error {
	cfg, err := config.LoadEnv(envFile)
	if err != nil {
		return err
	}

	logger := log.NewLogger(log.Config{
		Level: cfg.Log.Level,
		Dir:   cfg.Log.Dir,
		Env:   cfg.App.Env,
	})

	fiberApp := config.NewFiber(cfg, logger)
	validator := config.NewValidator()

	server, err := config.NewServer(
		config.WithConfig(cfg),
		config.WithFiber(fiberApp),
		config.WithLogger(logger),
		config.WithValidator(validator),
		config.WithDatabase(),
		config.WithRedisServer(),
		config.WithS3Client(),
		config.WithIdentityProvider(),
		config.WithMiddleware(),
		config.WithWhisper(),
		config.WithClassifierBackend(),
		config.WithUtils(),
	)
	if err != nil {
		logger.Errorf("Failed to build server: %v", err)
		return err
	}

	server.RegisterHandler()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Run()
	}()

	logger.WithField("port", cfg.App.Port).Info("Server started successfully")

	select {
	case err := <-errChan:
		return err
	case <-sigChan:
	}

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	return server.Shutdown(ctx)
}
