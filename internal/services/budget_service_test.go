package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"spaar/internal/core"
	"spaar/internal/store/memory"
)

func seededStore(t *testing.T) *memory.Store {
	t.Helper()
	st := memory.New(memory.SystemCategories([]string{"supermarkt"}))
	cat := "supermarkt"
	txs := []core.Transaction{
		{ID: "t1", Description: "Jumbo", Amount: decimal.NewFromInt(30), Direction: core.Debit,
			Date: time.Date(2024, 11, 5, 12, 0, 0, 0, time.UTC), CategoryID: &cat},
		{ID: "t2", Description: "Parkeren", Amount: decimal.NewFromInt(8), Direction: core.Debit,
			Date: time.Date(2024, 11, 6, 12, 0, 0, 0, time.UTC)},
	}
	if err := st.SaveTransactions(context.Background(), "seed", txs); err != nil {
		t.Fatal(err)
	}
	return st
}

func newBudgetService(st *memory.Store) *BudgetService {
	n := 0
	return NewBudgetService(st, nil,
		WithBudgetClock(func() time.Time { return refNow }),
		WithBudgetIDs(func() string { n++; return fmt.Sprintf("budget-%d", n) }))
}

func TestBudgetServiceCreateDefaults(t *testing.T) {
	svc := newBudgetService(seededStore(t))

	v, err := svc.Create(context.Background(), core.Budget{Name: "Overig", Amount: decimal.NewFromInt(50), IsActive: false})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if v.ID != "budget-1" || !v.IsActive || v.Period != core.PeriodMonthly {
		t.Errorf("defaults not applied: %+v", v)
	}
	if !v.StartDate.Equal(core.Midday(refNow)) {
		t.Errorf("StartDate = %v, want %v", v.StartDate, core.Midday(refNow))
	}
	// Both seeded debits predate the default start date.
	if !v.Spent.IsZero() || !v.Remaining.Equal(decimal.NewFromInt(50)) {
		t.Errorf("spent/remaining = %s/%s", v.Spent, v.Remaining)
	}
}

func TestBudgetServiceDerivesSpent(t *testing.T) {
	tests := []struct {
		name     string
		category *string
		want     int64
	}{
		{"categorized", ptr("supermarkt"), 30},
		{"uncategorized", nil, 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newBudgetService(seededStore(t))
			v, err := svc.Create(context.Background(), core.Budget{
				Name: tt.name, CategoryID: tt.category, Amount: decimal.NewFromInt(100),
				Spent:     decimal.NewFromInt(999),
				StartDate: time.Date(2024, 11, 1, 12, 0, 0, 0, time.UTC),
			})
			if err != nil {
				t.Fatalf("Create() error = %v", err)
			}
			if !v.Spent.Equal(decimal.NewFromInt(tt.want)) {
				t.Errorf("Spent = %s, want %d", v.Spent, tt.want)
			}
		})
	}
}

func TestBudgetServiceUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	st := seededStore(t)
	svc := newBudgetService(st)

	start := time.Date(2024, 11, 1, 12, 0, 0, 0, time.UTC)
	created, err := svc.Create(ctx, core.Budget{
		Name: "Boodschappen", CategoryID: ptr("supermarkt"), Amount: decimal.NewFromInt(100),
		Period: core.PeriodQuarterly, StartDate: start,
	})
	if err != nil {
		t.Fatal(err)
	}

	updated, err := svc.Update(ctx, created.ID, core.Budget{
		Name: "Boodschappen", CategoryID: ptr("supermarkt"), Amount: decimal.NewFromInt(40), IsActive: true,
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if !updated.StartDate.Equal(start) || updated.Period != core.PeriodQuarterly {
		t.Errorf("update lost start date or period: %+v", updated)
	}
	if !updated.Remaining.Equal(decimal.NewFromInt(10)) {
		t.Errorf("Remaining = %s, want 10", updated.Remaining)
	}

	if _, err := svc.Update(ctx, "nope", core.Budget{Name: "x", Amount: decimal.NewFromInt(1)}); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Update(unknown) error = %v, want ErrNotFound", err)
	}
	if _, err := svc.Update(ctx, created.ID, core.Budget{Name: "x"}); !errors.Is(err, core.ErrInvalidInput) {
		t.Errorf("Update(zero amount) error = %v, want ErrInvalidInput", err)
	}

	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := svc.Delete(ctx, created.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}

func TestBudgetServiceSummaryCountsActiveOnly(t *testing.T) {
	ctx := context.Background()
	st := seededStore(t)
	svc := newBudgetService(st)
	start := time.Date(2024, 11, 1, 12, 0, 0, 0, time.UTC)

	if _, err := svc.Create(ctx, core.Budget{Name: "Super", CategoryID: ptr("supermarkt"), Amount: decimal.NewFromInt(100), StartDate: start}); err != nil {
		t.Fatal(err)
	}
	paused, err := svc.Create(ctx, core.Budget{Name: "Overig", Amount: decimal.NewFromInt(20), StartDate: start})
	if err != nil {
		t.Fatal(err)
	}
	paused.IsActive = false
	if _, err := svc.Update(ctx, paused.ID, paused.Budget); err != nil {
		t.Fatal(err)
	}

	sum, err := svc.Summary(ctx)
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if sum.TotalBudgets != 2 || sum.ActiveBudgets != 1 {
		t.Errorf("counts = %d/%d, want 2/1", sum.TotalBudgets, sum.ActiveBudgets)
	}
	if !sum.TotalBudgeted.Equal(decimal.NewFromInt(100)) || !sum.TotalSpent.Equal(decimal.NewFromInt(30)) ||
		!sum.TotalRemaining.Equal(decimal.NewFromInt(70)) {
		t.Errorf("totals = %+v", sum)
	}
}

type countingInvalidator struct{ n int }

func (c *countingInvalidator) Invalidate() { c.n++ }

func TestCategoryServiceCreateAndDelete(t *testing.T) {
	ctx := context.Background()
	st := seededStore(t)
	inv := &countingInvalidator{}
	svc := NewCategoryService(st, inv, nil)

	c, err := svc.Create(ctx, core.Category{ID: "ignored", Name: "Vervoer", IsSystem: true})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if c.ID == "" || c.ID == "ignored" || c.IsSystem {
		t.Errorf("created = %+v", c)
	}

	tests := []struct {
		name string
		cat  core.Category
		want error
	}{
		{"duplicate name", core.Category{Name: " vervoer "}, core.ErrInvalidInput},
		{"empty name", core.Category{Name: ""}, core.ErrInvalidInput},
		{"unknown parent", core.Category{Name: "Trein", ParentID: ptr("reizen")}, core.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Create(ctx, tt.cat); !errors.Is(err, tt.want) {
				t.Errorf("Create() error = %v, want %v", err, tt.want)
			}
		})
	}
	if _, err := svc.Create(ctx, core.Category{Name: "Trein", ParentID: &c.ID}); err != nil {
		t.Errorf("Create(child) error = %v", err)
	}

	if err := svc.Delete(ctx, "supermarkt"); !errors.Is(err, core.ErrSystemCategory) {
		t.Errorf("Delete(system) error = %v, want ErrSystemCategory", err)
	}
	if inv.n != 0 {
		t.Errorf("failed delete invalidated the cache")
	}
	if err := svc.Delete(ctx, c.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if inv.n != 1 {
		t.Errorf("Invalidate called %d times, want 1", inv.n)
	}
}

func ptr(s string) *string { return &s }
