package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"spaar/internal/amqp"
	"spaar/internal/cli"
	apphttp "spaar/internal/http"
	"spaar/internal/log"
	"spaar/internal/services"
	"spaar/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg)

	ctx := context.Background()
	be := cli.Backend(ctx, cfg, logger)

	amqpClient, err := cli.NewAMQPClient(cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}

	sheets, err := cli.NewSheetsExporter(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
		os.Exit(1)
	}

	// Without a broker, insights are refreshed in-process after each import.
	var refresher *worker.InsightWorker
	var publisher services.Publisher = services.PublisherFunc(func(ctx context.Context, msg *amqp.ImportCompletedMessage) error {
		return refresher.HandleImportCompleted(ctx, msg)
	})
	if amqpClient != nil {
		publisher = amqpClient
		logger.Info("Publishing import events", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("No AMQP_URL set, refreshing insights in-process")
	}

	opts := []services.ImportOption{services.WithPublisher(publisher)}
	if sheets != nil {
		opts = append(opts, services.WithExporter(sheets))
		logger.Info("Google Sheets export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	}

	svc, err := cli.NewServices(cfg, be.Backend, logger, opts...)
	if err != nil {
		logger.Error("Failed to initialize services", log.FieldError, err)
		os.Exit(1)
	}
	refresher = worker.NewInsightWorker(svc.Insights, logger)
	svc.Janitor.Start(time.Minute)

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Imports:    svc.Imports,
		Insights:   svc.Insights,
		Categories: svc.Categories,
		Budgets:    svc.Budgets,
		Logger:     logger,
	})
	srv.ReadTimeout = 30 * time.Second
	srv.WriteTimeout = 60 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		svc.Janitor.Stop()
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Warn("AMQP close error", log.FieldError, err)
			}
		}
		if be.Cleanup != nil {
			if err := be.Cleanup(); err != nil {
				logger.Warn("Backend cleanup error", log.FieldError, err)
			}
		}
	})

	logger.Info("Starting spaar server", "port", cfg.Port, "backend", cfg.DataBackend, log.FieldOperation, log.OpStartup)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Server stopped gracefully")
}
