// Package cli provides common CLI initialization utilities shared by
// cmd/spaar, cmd/spaar-worker and cmd/spaar-import.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"spaar/internal/amqp"
	"spaar/internal/backend"
	"spaar/internal/cache"
	"spaar/internal/config"
	"spaar/internal/core"
	"spaar/internal/csvimport"
	"spaar/internal/insights"
	"spaar/internal/log"
	"spaar/internal/services"
	gsheet "spaar/internal/sheets/google"
)

// SetupLogger builds the process logger from the config and installs it as
// the slog default.
func SetupLogger(cfg *config.Config) *log.Logger {
	logger := log.New(log.Config{
		Level:  log.ParseLevel(cfg.LogLevel),
		JSON:   cfg.LogJSON,
		Output: os.Stdout,
	})
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig() *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return cfg
}

// ImporterConfig derives the CSV dialect and rule tables from the config.
func ImporterConfig(cfg *config.Config) (csvimport.Config, error) {
	ic := csvimport.DefaultConfig()
	ic.Dialect = csvimport.Dialect{
		Delimiter: cfg.Delimiter(),
		HasHeader: cfg.CSVHasHeader,
		Encoding:  cfg.CSVEncoding,
	}
	ic.AutoCategorize = cfg.AutoCategorize
	if cfg.RulesFile != "" {
		rules, err := csvimport.LoadRules(cfg.RulesFile)
		if err != nil {
			return ic, fmt.Errorf("load rules: %w", err)
		}
		ic.Rules = rules
	}
	return ic, nil
}

// NewEngine builds the insight engine with the configured thresholds.
func NewEngine(cfg *config.Config) *insights.Engine {
	ec := insights.DefaultConfig()
	ec.AnomalyZThreshold = cfg.AnomalyZThreshold
	return insights.New(ec)
}

// Backend opens the configured store. Exits the process on failure.
func Backend(ctx context.Context, cfg *config.Config, logger *log.Logger) *backend.BackendResult {
	bc, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, bc)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, "backend", bc.Type)
		os.Exit(1)
	}
	return res
}

// Services wires the application services over one store.
type Services struct {
	Imports    *services.ImportService
	Insights   *services.InsightService
	Budgets    *services.BudgetService
	Categories *services.CategoryService
	Janitor    *cache.Janitor
}

// NewServices builds the services. The analysis cache is registered with a
// janitor the caller starts and stops.
func NewServices(cfg *config.Config, st backend.Backend, logger *log.Logger, opts ...services.ImportOption) (*Services, error) {
	ic, err := ImporterConfig(cfg)
	if err != nil {
		return nil, err
	}

	analyses := cache.NewLRU[core.SpendingAnalysis](cfg.AnalysisCacheSize, cfg.AnalysisCacheTTL)
	janitor := cache.NewJanitor(logger)
	janitor.Register(analyses)

	opts = append([]services.ImportOption{services.WithImportTimeout(cfg.ImportTimeout)}, opts...)
	insightSvc := services.NewInsightService(NewEngine(cfg), st, analyses, cfg.AnalysisWindowDays, logger)
	return &Services{
		Imports:    services.NewImportService(csvimport.New(ic), st, logger, opts...),
		Insights:   insightSvc,
		Budgets:    services.NewBudgetService(st, logger),
		Categories: services.NewCategoryService(st, insightSvc, logger),
		Janitor:    janitor,
	}, nil
}

// NewAMQPClient connects to the broker when one is configured. A nil client
// and nil error mean messaging is disabled.
func NewAMQPClient(cfg *config.Config, logger *log.Logger) (*amqp.Client, error) {
	if cfg.AMQPURL == "" {
		return nil, nil
	}
	return amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
}

// NewSheetsExporter returns the Google Sheets mirror when enabled, nil
// otherwise.
func NewSheetsExporter(ctx context.Context, cfg *config.Config, logger *log.Logger) (*gsheet.Client, error) {
	if !cfg.SheetsEnabled() {
		return nil, nil
	}
	return gsheet.New(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName, gsheet.Credentials{
		JSON: cfg.GoogleServiceAccountJSON,
		File: cfg.GoogleServiceAccountFile,
	}, logger)
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that signals when shutdown is complete.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String(), log.FieldOperation, log.OpShutdown)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		cancel()
		if cleanup != nil {
			cleanup(shutdownCtx)
		}
		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
		} else {
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and cleanup finished.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
