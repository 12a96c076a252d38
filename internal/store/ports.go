// Package store declares the persistence ports the services depend on. The
// import and insight packages never see these; services hand them plain
// values.
package store

import (
	"context"

	"spaar/internal/core"
)

// Ports for outbound adapters.
type (
	TransactionWriter interface {
		// SaveTransactions persists one import batch.
		SaveTransactions(ctx context.Context, batchID string, txs []core.Transaction) error
	}

	// SnapshotReader hands back everything the insight engine analyzes.
	SnapshotReader interface {
		Snapshot(ctx context.Context) (core.Snapshot, error)
	}

	InsightWriter interface {
		// ReplaceInsights swaps the stored insight set for a freshly generated one.
		ReplaceInsights(ctx context.Context, insights []core.FinancialInsight) error
	}

	InsightReader interface {
		ListInsights(ctx context.Context) ([]core.FinancialInsight, error)
	}

	// CategoryAssigner is the only mutation allowed on a stored transaction.
	// A nil categoryID clears the assignment.
	CategoryAssigner interface {
		AssignCategory(ctx context.Context, txID string, categoryID *string) error
	}

	BudgetWriter interface {
		SaveBudget(ctx context.Context, b core.Budget) error
	}

	BudgetStore interface {
		BudgetWriter
		ListBudgets(ctx context.Context) ([]core.Budget, error)
		// DeleteBudget fails with core.ErrNotFound for unknown ids.
		DeleteBudget(ctx context.Context, id string) error
	}

	CategoryStore interface {
		ListCategories(ctx context.Context) ([]core.Category, error)
		SaveCategory(ctx context.Context, c core.Category) error
		// DeleteCategory fails with core.ErrSystemCategory for system categories.
		DeleteCategory(ctx context.Context, id string) error
	}

	// Store is implemented by every backend.
	Store interface {
		TransactionWriter
		SnapshotReader
		InsightWriter
		InsightReader
		CategoryAssigner
		BudgetStore
		CategoryStore
	}
)
