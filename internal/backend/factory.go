package backend

import (
	"context"
	"fmt"

	"spaar/internal/csvimport"
	"spaar/internal/log"
	"spaar/internal/storage"
	"spaar/internal/store/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.InfoContext(ctx, "Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{
		Backend: repo,
		Cleanup: repo.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(ctx context.Context, config Config) (*BackendResult, error) {
	dataDir := config.DataDirectory
	if dataDir == "" {
		dataDir = "data"
	}

	st := memory.NewFromFiles(dataDir, systemCategoryIDs())

	f.logger.InfoContext(ctx, "Initialized memory backend", "data_dir", dataDir)

	return &BackendResult{
		Backend: st,
		Cleanup: nil,
	}, nil
}

// systemCategoryIDs are the categories the built-in rules can assign.
func systemCategoryIDs() []string {
	rules := csvimport.DefaultCategoryRules()
	ids := make([]string, 0, len(rules))
	for _, r := range rules {
		ids = append(ids, r.CategoryID)
	}
	return ids
}
