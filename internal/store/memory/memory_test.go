package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"spaar/internal/core"
)

func sampleTx(id string) core.Transaction {
	return core.Transaction{
		ID:          id,
		Description: "Jumbo",
		Amount:      decimal.NewFromInt(5),
		Date:        time.Date(2024, 11, 12, 12, 0, 0, 0, time.UTC),
		Direction:   core.Debit,
		Tags:        []string{"pinbetaling"},
	}
}

func TestSaveAndSnapshot(t *testing.T) {
	ctx := context.Background()
	s := New(SystemCategories([]string{"supermarkt"}))
	if err := s.SaveTransactions(ctx, "batch-1", []core.Transaction{sampleTx("a"), sampleTx("b")}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ids := s.Batch("batch-1"); len(ids) != 2 || ids[0] != "a" {
		t.Fatalf("unexpected batch ids %v", ids)
	}

	snap, err := s.Snapshot(ctx)
	if err != nil || len(snap.Transactions) != 2 || len(snap.Categories) != 1 {
		t.Fatalf("unexpected snapshot %+v err=%v", snap, err)
	}
	if snap.Categories[0].Name != "Supermarkt" || !snap.Categories[0].IsSystem {
		t.Fatalf("unexpected category %+v", snap.Categories[0])
	}

	snap.Transactions[0].Tags[0] = "changed"
	again, _ := s.Snapshot(ctx)
	if again.Transactions[0].Tags[0] != "pinbetaling" {
		t.Fatalf("snapshot aliased store state")
	}
}

func TestSaveRejectsInvalidTransaction(t *testing.T) {
	bad := sampleTx("a")
	bad.Direction = "sideways"
	if err := New(nil).SaveTransactions(context.Background(), "b", []core.Transaction{bad}); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestAssignCategory(t *testing.T) {
	ctx := context.Background()
	s := New(SystemCategories([]string{"supermarkt"}))
	_ = s.SaveTransactions(ctx, "b", []core.Transaction{sampleTx("a")})

	cat := "supermarkt"
	if err := s.AssignCategory(ctx, "a", &cat); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	snap, _ := s.Snapshot(ctx)
	if snap.Transactions[0].CategoryID == nil || *snap.Transactions[0].CategoryID != "supermarkt" {
		t.Fatalf("category not assigned")
	}

	if err := s.AssignCategory(ctx, "missing", &cat); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	unknown := "nope"
	if err := s.AssignCategory(ctx, "a", &unknown); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown category, got %v", err)
	}
	if err := s.AssignCategory(ctx, "a", nil); err != nil {
		t.Fatalf("clearing should succeed: %v", err)
	}
}

func TestCategoriesProtectSystemEntries(t *testing.T) {
	ctx := context.Background()
	s := New(SystemCategories([]string{"supermarkt"}))

	if err := s.DeleteCategory(ctx, "supermarkt"); !errors.Is(err, core.ErrSystemCategory) {
		t.Fatalf("expected ErrSystemCategory, got %v", err)
	}
	if err := s.SaveCategory(ctx, core.Category{ID: "koffie", Name: "Koffie"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.SaveCategory(ctx, core.Category{ID: "other", Name: "koffie"}); !errors.Is(err, core.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for duplicate name, got %v", err)
	}
	cat := "koffie"
	tx := sampleTx("a")
	tx.CategoryID = &cat
	_ = s.SaveTransactions(ctx, "batch-1", []core.Transaction{tx})
	_ = s.SaveBudget(ctx, core.Budget{ID: "b", Name: "Koffie", CategoryID: &cat, Amount: decimal.NewFromInt(20)})
	if err := s.DeleteCategory(ctx, "koffie"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	snap, _ := s.Snapshot(ctx)
	if snap.Transactions[0].CategoryID != nil || snap.Budgets[0].CategoryID != nil {
		t.Fatalf("deleted category still referenced: %+v %+v", snap.Transactions[0], snap.Budgets[0])
	}
	if err := s.DeleteCategory(ctx, "koffie"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestInsightsAndBudgets(t *testing.T) {
	ctx := context.Background()
	s := New(nil)
	_ = s.ReplaceInsights(ctx, []core.FinancialInsight{{ID: "1"}, {ID: "2"}})
	_ = s.ReplaceInsights(ctx, []core.FinancialInsight{{ID: "3"}})
	got, _ := s.ListInsights(ctx)
	if len(got) != 1 || got[0].ID != "3" {
		t.Fatalf("expected replaced insights, got %+v", got)
	}

	b := core.Budget{ID: "b", Name: "Eten", Amount: decimal.NewFromInt(100)}
	_ = s.SaveBudget(ctx, b)
	b.Amount = decimal.NewFromInt(150)
	_ = s.SaveBudget(ctx, b)
	snap, _ := s.Snapshot(ctx)
	if len(snap.Budgets) != 1 || !snap.Budgets[0].Amount.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("expected upserted budget, got %+v", snap.Budgets)
	}
	if err := s.SaveBudget(ctx, core.Budget{}); err == nil {
		t.Fatalf("expected error for budget without id")
	}

	_ = s.SaveBudget(ctx, core.Budget{ID: "c", Name: "Vervoer", Amount: decimal.NewFromInt(40)})
	list, _ := s.ListBudgets(ctx)
	if len(list) != 2 || list[0].ID != "b" || list[1].ID != "c" {
		t.Fatalf("expected budgets in insertion order, got %+v", list)
	}
	if err := s.DeleteBudget(ctx, "b"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.DeleteBudget(ctx, "b"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if list, _ = s.ListBudgets(ctx); len(list) != 1 || list[0].ID != "c" {
		t.Fatalf("unexpected budgets after delete %+v", list)
	}
}

func TestNewFromFilesSeedsAndDedupe(t *testing.T) {
	dir := t.TempDir()
	s := NewFromFiles(dir, []string{"supermarkt", "woning", "supermarkt"})
	cats, _ := s.ListCategories(context.Background())
	if len(cats) != 2 {
		t.Fatalf("expected fallback ids, got %+v", cats)
	}

	content := "# header\nkoffie\nboeken\nkoffie\n\n"
	if err := os.WriteFile(filepath.Join(dir, "seed_categories.txt"), []byte(content), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	s = NewFromFiles(dir, []string{"supermarkt"})
	cats, _ = s.ListCategories(context.Background())
	if len(cats) != 2 || cats[0].ID != "koffie" || cats[1].ID != "boeken" {
		t.Fatalf("unexpected cats: %+v", cats)
	}
}
