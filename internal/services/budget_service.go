package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"spaar/internal/core"
	"spaar/internal/insights"
	"spaar/internal/log"
	"spaar/internal/store"
)

// BudgetStore is the slice of the store the budget service needs.
type BudgetStore interface {
	store.SnapshotReader
	store.BudgetStore
}

// BudgetView is a budget with its derived remaining amount.
type BudgetView struct {
	core.Budget
	Remaining decimal.Decimal `json:"remaining"`
}

func viewOf(b core.Budget) BudgetView {
	return BudgetView{Budget: b, Remaining: b.Remaining()}
}

// BudgetSummary totals the active budgets.
type BudgetSummary struct {
	TotalBudgets   int             `json:"total_budgets"`
	ActiveBudgets  int             `json:"active_budgets"`
	TotalBudgeted  decimal.Decimal `json:"total_budgeted"`
	TotalSpent     decimal.Decimal `json:"total_spent"`
	TotalRemaining decimal.Decimal `json:"total_remaining"`
}

// BudgetService manages budgets. Spent is always derived from the stored
// transactions; values sent by callers are ignored.
type BudgetService struct {
	store  BudgetStore
	now    func() time.Time
	newID  func() string
	logger *log.Logger
}

type BudgetOption func(*BudgetService)

// WithBudgetClock sets the clock used for default start dates.
func WithBudgetClock(now func() time.Time) BudgetOption {
	return func(s *BudgetService) { s.now = now }
}

func WithBudgetIDs(newID func() string) BudgetOption {
	return func(s *BudgetService) { s.newID = newID }
}

func NewBudgetService(st BudgetStore, logger *log.Logger, opts ...BudgetOption) *BudgetService {
	if logger == nil {
		logger = log.Discard()
	}
	s := &BudgetService{
		store:  st,
		now:    time.Now,
		newID:  uuid.NewString,
		logger: logger.WithComponent(log.ComponentBudgets),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns every budget with spent recomputed from the transactions.
func (s *BudgetService) List(ctx context.Context) ([]BudgetView, error) {
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	budgets := insights.RecomputeBudgets(snap.Budgets, snap.Transactions)
	out := make([]BudgetView, 0, len(budgets))
	for _, b := range budgets {
		out = append(out, viewOf(b))
	}
	return out, nil
}

// Create stores a new active budget. A missing period defaults to monthly
// and a missing start date to today.
func (s *BudgetService) Create(ctx context.Context, b core.Budget) (BudgetView, error) {
	b.ID = s.newID()
	b.IsActive = true
	if b.Period == "" {
		b.Period = core.PeriodMonthly
	}
	if b.StartDate.IsZero() {
		b.StartDate = core.Midday(s.now())
	}
	return s.save(ctx, b)
}

// Update replaces the caller-editable fields of an existing budget.
func (s *BudgetService) Update(ctx context.Context, id string, b core.Budget) (BudgetView, error) {
	budgets, err := s.store.ListBudgets(ctx)
	if err != nil {
		return BudgetView{}, fmt.Errorf("list budgets: %w", err)
	}
	found := false
	for _, existing := range budgets {
		if existing.ID == id {
			found = true
			if b.StartDate.IsZero() {
				b.StartDate = existing.StartDate
			}
			if b.Period == "" {
				b.Period = existing.Period
			}
			break
		}
	}
	if !found {
		return BudgetView{}, fmt.Errorf("budget %s: %w", id, core.ErrNotFound)
	}
	b.ID = id
	return s.save(ctx, b)
}

func (s *BudgetService) save(ctx context.Context, b core.Budget) (BudgetView, error) {
	if err := b.Validate(); err != nil {
		return BudgetView{}, err
	}
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return BudgetView{}, fmt.Errorf("load snapshot: %w", err)
	}
	b = b.WithSpent(insights.BudgetSpent(b, snap.Transactions))
	if err := s.store.SaveBudget(ctx, b); err != nil {
		return BudgetView{}, fmt.Errorf("save budget %s: %w", b.ID, err)
	}

	s.logger.InfoContext(ctx, "Budget saved",
		log.FieldBudget, b.ID,
		log.FieldOperation, log.OpSaveBudget)
	return viewOf(b), nil
}

func (s *BudgetService) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteBudget(ctx, id); err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	s.logger.InfoContext(ctx, "Budget deleted",
		log.FieldBudget, id,
		log.FieldOperation, log.OpDeleteBudget)
	return nil
}

// Summary totals the active budgets. TotalBudgets counts all of them.
func (s *BudgetService) Summary(ctx context.Context) (BudgetSummary, error) {
	views, err := s.List(ctx)
	if err != nil {
		return BudgetSummary{}, err
	}
	sum := BudgetSummary{TotalBudgets: len(views)}
	for _, v := range views {
		if !v.IsActive {
			continue
		}
		sum.ActiveBudgets++
		sum.TotalBudgeted = sum.TotalBudgeted.Add(v.Amount)
		sum.TotalSpent = sum.TotalSpent.Add(v.Spent)
		sum.TotalRemaining = sum.TotalRemaining.Add(v.Remaining)
	}
	return sum, nil
}
