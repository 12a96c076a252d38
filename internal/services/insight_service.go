package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"spaar/internal/cache"
	"spaar/internal/core"
	"spaar/internal/insights"
	"spaar/internal/log"
	"spaar/internal/store"
)

// InsightStore is the slice of the store the insight service needs.
type InsightStore interface {
	store.SnapshotReader
	store.InsightWriter
	store.InsightReader
	store.BudgetWriter
	store.CategoryAssigner
}

// InsightService regenerates the stored insight set and answers windowed
// spending queries. Analysis results are cached per window and day until
// the data changes.
type InsightService struct {
	engine     *insights.Engine
	store      InsightStore
	analyses   cache.Cache[core.SpendingAnalysis]
	defaultWin int
	logger     *log.Logger
}

func NewInsightService(engine *insights.Engine, st InsightStore, analyses cache.Cache[core.SpendingAnalysis], defaultWindowDays int, logger *log.Logger) *InsightService {
	if logger == nil {
		logger = log.Discard()
	}
	if defaultWindowDays <= 0 {
		defaultWindowDays = 30
	}
	return &InsightService{
		engine:     engine,
		store:      st,
		analyses:   analyses,
		defaultWin: defaultWindowDays,
		logger:     logger.WithComponent(log.ComponentInsights),
	}
}

// Refresh recomputes budget spending, regenerates the insights and replaces
// the stored set.
func (s *InsightService) Refresh(ctx context.Context) ([]core.FinancialInsight, error) {
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	snap.Budgets = insights.RecomputeBudgets(snap.Budgets, snap.Transactions)
	for _, b := range snap.Budgets {
		if err := s.store.SaveBudget(ctx, b); err != nil {
			return nil, fmt.Errorf("save budget %s: %w", b.ID, err)
		}
	}

	generated, err := s.engine.Generate(ctx, snap)
	if err != nil {
		return nil, fmt.Errorf("generate insights: %w", err)
	}
	if err := s.store.ReplaceInsights(ctx, generated); err != nil {
		return nil, fmt.Errorf("replace insights: %w", err)
	}
	s.invalidate()

	s.logger.InfoContext(ctx, "Insights refreshed",
		log.FieldInsightCount, len(generated),
		log.FieldOperation, log.OpRefresh)
	return generated, nil
}

func (s *InsightService) Insights(ctx context.Context) ([]core.FinancialInsight, error) {
	list, err := s.store.ListInsights(ctx)
	if err != nil {
		return nil, fmt.Errorf("list insights: %w", err)
	}
	return list, nil
}

// Analyze aggregates the last days of activity. A non-positive days uses
// the configured default window.
func (s *InsightService) Analyze(ctx context.Context, days int) (core.SpendingAnalysis, error) {
	if days <= 0 {
		days = s.defaultWin
	}
	key := analysisKey(days, s.engine.Now())
	if s.analyses != nil {
		if a, ok := s.analyses.Get(key); ok {
			return a, nil
		}
	}

	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return core.SpendingAnalysis{}, fmt.Errorf("load snapshot: %w", err)
	}
	a := s.engine.AnalyzeTrends(snap, days)
	if s.analyses != nil {
		s.analyses.Set(key, a)
	}

	s.logger.DebugContext(ctx, "Spending analysis computed",
		log.FieldWindowDays, days,
		log.FieldOperation, log.OpAnalyze)
	return a, nil
}

// analysisKey keys a cached analysis by window and calendar day, so the
// window moves forward at midnight even while the entry is live.
func analysisKey(days int, now time.Time) string {
	return strconv.Itoa(days) + "@" + now.UTC().Format("2006-01-02")
}

// AssignCategory sets or clears (nil) the category of a stored transaction.
func (s *InsightService) AssignCategory(ctx context.Context, txID string, categoryID *string) error {
	if err := s.store.AssignCategory(ctx, txID, categoryID); err != nil {
		return fmt.Errorf("assign category to %s: %w", txID, err)
	}
	s.invalidate()

	fields := []any{log.FieldTransaction, txID, log.FieldOperation, log.OpAssign}
	if categoryID != nil {
		fields = append(fields, log.FieldCategory, *categoryID)
	}
	s.logger.InfoContext(ctx, "Category assigned", fields...)
	return nil
}

// Invalidate drops cached analyses. The API calls it after an import.
func (s *InsightService) Invalidate() {
	s.invalidate()
}

func (s *InsightService) invalidate() {
	if s.analyses != nil {
		s.analyses.Purge()
	}
}
