// Package insights derives heuristic observations and windowed spending
// aggregates from a read-only snapshot of transactions and budgets.
package insights

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"spaar/internal/core"
)

// Config holds the analyzer thresholds. Percentages are 0..100.
type Config struct {
	PatternShareThreshold      float64
	PatternHighShare           float64
	BudgetUtilizationThreshold float64
	AnomalyZThreshold          float64
	RecurringMinOccurrences    int
	TopCategories              int
}

func DefaultConfig() Config {
	return Config{
		PatternShareThreshold:      30,
		PatternHighShare:           50,
		BudgetUtilizationThreshold: 90,
		AnomalyZThreshold:          2.0,
		RecurringMinOccurrences:    3,
		TopCategories:              10,
	}
}

// Engine is stateless apart from its configuration and is safe for
// concurrent use.
type Engine struct {
	cfg   Config
	now   func() time.Time
	newID func() string
}

type Option func(*Engine)

// WithClock fixes the reference time used for CreatedAt and trend windows.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDs overrides insight id generation.
func WithIDs(newID func() string) Option {
	return func(e *Engine) { e.newID = newID }
}

// New builds an engine. Zero-valued config fields take their defaults.
func New(cfg Config, opts ...Option) *Engine {
	def := DefaultConfig()
	if cfg.PatternShareThreshold == 0 {
		cfg.PatternShareThreshold = def.PatternShareThreshold
	}
	if cfg.PatternHighShare == 0 {
		cfg.PatternHighShare = def.PatternHighShare
	}
	if cfg.BudgetUtilizationThreshold == 0 {
		cfg.BudgetUtilizationThreshold = def.BudgetUtilizationThreshold
	}
	if cfg.AnomalyZThreshold == 0 {
		cfg.AnomalyZThreshold = def.AnomalyZThreshold
	}
	if cfg.RecurringMinOccurrences == 0 {
		cfg.RecurringMinOccurrences = def.RecurringMinOccurrences
	}
	if cfg.TopCategories == 0 {
		cfg.TopCategories = def.TopCategories
	}

	e := &Engine{
		cfg:   cfg,
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Config() Config {
	return e.cfg
}

// Now is the engine's reference time.
func (e *Engine) Now() time.Time {
	return e.now()
}

// Generate runs every analyzer over the snapshot and concatenates the
// results in a fixed order: spending pattern, budget, unusual activity,
// recurring expenses.
func (e *Engine) Generate(ctx context.Context, snap core.Snapshot) ([]core.FinancialInsight, error) {
	analyzers := []func() []core.FinancialInsight{
		func() []core.FinancialInsight { return e.SpendingPatterns(snap.Transactions) },
		func() []core.FinancialInsight { return e.BudgetPerformance(snap.Transactions, snap.Budgets) },
		func() []core.FinancialInsight { return e.UnusualActivity(snap.Transactions) },
		func() []core.FinancialInsight { return e.RecurringExpenses(snap.Transactions) },
	}

	parts := make([][]core.FinancialInsight, len(analyzers))
	g, gctx := errgroup.WithContext(ctx)
	for i, analyze := range analyzers {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			parts[i] = analyze()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := []core.FinancialInsight{}
	for _, p := range parts {
		out = append(out, p...)
	}
	return out, nil
}

func (e *Engine) insight(kind core.InsightKind, impact core.Impact, confidence float64, title, desc string, suggestions ...string) core.FinancialInsight {
	return core.FinancialInsight{
		ID:          e.newID(),
		Kind:        kind,
		Title:       title,
		Description: desc,
		Impact:      impact,
		Actionable:  true,
		Suggestions: suggestions,
		Confidence:  confidence,
		CreatedAt:   e.now(),
	}
}

func debits(txs []core.Transaction) []core.Transaction {
	out := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx.IsDebit() {
			out = append(out, tx)
		}
	}
	return out
}
