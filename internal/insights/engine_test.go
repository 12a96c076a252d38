package insights

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"spaar/internal/core"
)

var refNow = time.Date(2024, 12, 1, 12, 0, 0, 0, time.UTC)

func newTestEngine(cfg Config) *Engine {
	n := 0
	return New(cfg,
		WithClock(func() time.Time { return refNow }),
		WithIDs(func() string { n++; return fmt.Sprintf("ins-%d", n) }),
	)
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func debit(desc string, amount string, date time.Time, category string) core.Transaction {
	tx := core.Transaction{
		Description: desc,
		Amount:      decimal.RequireFromString(amount),
		Date:        date,
		Direction:   core.Debit,
	}
	if category != "" {
		tx.CategoryID = &category
	}
	return tx
}

func credit(desc string, amount string, date time.Time) core.Transaction {
	return core.Transaction{
		Description: desc,
		Amount:      decimal.RequireFromString(amount),
		Date:        date,
		Direction:   core.Credit,
	}
}

func TestNewFillsDefaults(t *testing.T) {
	e := New(Config{AnomalyZThreshold: 1.5})
	cfg := e.Config()
	if cfg.AnomalyZThreshold != 1.5 {
		t.Fatalf("explicit value overwritten")
	}
	if cfg.TopCategories != 10 || cfg.RecurringMinOccurrences != 3 || cfg.BudgetUtilizationThreshold != 90 {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
}

func TestGenerateEmptySnapshot(t *testing.T) {
	got, err := newTestEngine(DefaultConfig()).Generate(context.Background(), core.Snapshot{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}

func TestGenerateOrderAndContent(t *testing.T) {
	food := "food"
	snap := core.Snapshot{
		Budgets: []core.Budget{{
			ID: "b1", Name: "Eten", CategoryID: &food,
			Amount: decimal.NewFromInt(100), IsActive: true,
			StartDate: day(2024, 1, 1),
		}},
	}
	// Three identical Netflix debits on Mondays plus food spending.
	for _, d := range []int{4, 11, 18} {
		snap.Transactions = append(snap.Transactions, debit("Netflix", "9.99", day(2024, 11, d), ""))
	}
	snap.Transactions = append(snap.Transactions,
		debit("Albert Heijn", "60", day(2024, 11, 11), "food"),
		debit("Jumbo", "35", day(2024, 11, 12), "food"),
	)

	got, err := newTestEngine(DefaultConfig()).Generate(context.Background(), snap)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var kinds []core.InsightKind
	for _, in := range got {
		kinds = append(kinds, in.Kind)
	}
	want := []core.InsightKind{core.InsightSpendingPattern, core.InsightBudgetOptimization, core.InsightRecurringExpense}
	if fmt.Sprint(kinds) != fmt.Sprint(want) {
		t.Fatalf("expected kinds %v, got %v", want, kinds)
	}
	for _, in := range got {
		if in.Confidence < 0 || in.Confidence > 1 {
			t.Fatalf("confidence out of range: %v", in.Confidence)
		}
		if !in.CreatedAt.Equal(refNow) || in.ID == "" || !in.Actionable {
			t.Fatalf("unexpected metadata %+v", in)
		}
	}
}

func TestGenerateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := newTestEngine(DefaultConfig()).Generate(ctx, core.Snapshot{}); err == nil {
		t.Fatalf("expected context error")
	}
}
