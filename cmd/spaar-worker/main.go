package main

import (
	"context"
	"errors"
	"os"
	"time"

	"spaar/internal/backend"
	"spaar/internal/cli"
	"spaar/internal/log"
	"spaar/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg).WithComponent(log.ComponentWorker)

	logger.Info("Starting spaar-worker", log.FieldOperation, log.OpStartup)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}
	if !backend.BackendType(cfg.DataBackend).Shared() {
		logger.Warn("Worker runs with a non-shared backend; insights will not reach the server", "backend", cfg.DataBackend)
	}

	be := cli.Backend(context.Background(), cfg, logger)

	amqpClient, err := cli.NewAMQPClient(cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}

	svc, err := cli.NewServices(cfg, be.Backend, logger)
	if err != nil {
		logger.Error("Failed to initialize services", log.FieldError, err)
		os.Exit(1)
	}
	insightWorker := worker.NewInsightWorker(svc.Insights, logger)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(context.Context) {
		if err := amqpClient.Close(); err != nil {
			logger.Warn("AMQP close error", log.FieldError, err)
		}
		if be.Cleanup != nil {
			if err := be.Cleanup(); err != nil {
				logger.Warn("Backend cleanup error", log.FieldError, err)
			}
		}
	})

	// Catch up on imports that completed while the worker was down.
	if err := insightWorker.StartupRefresh(ctx); err != nil {
		logger.Error("Startup refresh failed", log.FieldError, err)
	}

	go func() {
		err := amqpClient.ConsumeImportCompleted(ctx, insightWorker.HandleImportCompleted)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", log.FieldError, err, log.FieldOperation, log.OpConsume)
			os.Exit(1)
		}
	}()

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker shutdown complete")
}
