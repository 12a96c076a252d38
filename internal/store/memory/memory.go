package memory

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"spaar/internal/core"
)

// Store keeps everything in process memory. It is meant for development
// and tests.
type Store struct {
	mu         sync.Mutex
	txs        []core.Transaction
	batches    map[string][]string
	categories []core.Category
	budgets    []core.Budget
	insights   []core.FinancialInsight
}

func New(categories []core.Category) *Store {
	return &Store{
		categories: append([]core.Category(nil), categories...),
		batches:    map[string][]string{},
	}
}

// NewFromFiles seeds system categories from <base>/seed_categories.txt (one
// id per line, # comments). When the file is missing or empty the fallback
// ids are used.
func NewFromFiles(base string, fallback []string) *Store {
	ids := readLines(filepath.Join(base, "seed_categories.txt"))
	if len(ids) == 0 {
		ids = dedupe(fallback)
	}
	return New(SystemCategories(ids))
}

// SystemCategories turns category ids into protected categories with a
// display name derived from the id.
func SystemCategories(ids []string) []core.Category {
	title := cases.Title(language.Dutch)
	out := make([]core.Category, 0, len(ids))
	for _, id := range ids {
		out = append(out, core.Category{ID: id, Name: title.String(id), IsSystem: true})
	}
	return out
}

func (s *Store) SaveTransactions(_ context.Context, batchID string, txs []core.Transaction) error {
	for _, tx := range txs {
		if err := tx.Validate(); err != nil {
			return fmt.Errorf("transaction %s: %w", tx.ID, err)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(txs))
	for _, tx := range txs {
		s.txs = append(s.txs, cloneTx(tx))
		ids = append(ids, tx.ID)
	}
	s.batches[batchID] = append(s.batches[batchID], ids...)
	return nil
}

// Batch returns the transaction ids saved under batchID.
func (s *Store) Batch(batchID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.batches[batchID]...)
}

func (s *Store) Snapshot(_ context.Context) (core.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := core.Snapshot{
		Transactions: make([]core.Transaction, len(s.txs)),
		Categories:   append([]core.Category(nil), s.categories...),
		Budgets:      append([]core.Budget(nil), s.budgets...),
	}
	for i, tx := range s.txs {
		snap.Transactions[i] = cloneTx(tx)
	}
	return snap, nil
}

func (s *Store) ReplaceInsights(_ context.Context, insights []core.FinancialInsight) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insights = append([]core.FinancialInsight(nil), insights...)
	return nil
}

func (s *Store) ListInsights(_ context.Context) ([]core.FinancialInsight, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.FinancialInsight{}, s.insights...), nil
}

func (s *Store) AssignCategory(_ context.Context, txID string, categoryID *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if categoryID != nil && s.categoryIndex(*categoryID) < 0 {
		return fmt.Errorf("category %s: %w", *categoryID, core.ErrNotFound)
	}
	for i := range s.txs {
		if s.txs[i].ID == txID {
			s.txs[i] = s.txs[i].WithCategory(categoryID)
			return nil
		}
	}
	return fmt.Errorf("transaction %s: %w", txID, core.ErrNotFound)
}

// SaveBudget inserts or replaces the budget with the same id.
func (s *Store) SaveBudget(_ context.Context, b core.Budget) error {
	if b.ID == "" {
		return fmt.Errorf("budget id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.budgets {
		if s.budgets[i].ID == b.ID {
			s.budgets[i] = b
			return nil
		}
	}
	s.budgets = append(s.budgets, b)
	return nil
}

func (s *Store) ListBudgets(_ context.Context) ([]core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Budget{}, s.budgets...), nil
}

func (s *Store) DeleteBudget(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.budgets {
		if s.budgets[i].ID == id {
			s.budgets = append(s.budgets[:i], s.budgets[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("budget %s: %w", id, core.ErrNotFound)
}

func (s *Store) ListCategories(_ context.Context) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Category(nil), s.categories...), nil
}

// SaveCategory inserts or replaces by id. Names must stay unique.
func (s *Store) SaveCategory(_ context.Context, c core.Category) error {
	if err := c.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.categories {
		if existing.ID != c.ID && strings.EqualFold(existing.Name, c.Name) {
			return fmt.Errorf("%w: category name %q already in use", core.ErrInvalidInput, c.Name)
		}
	}
	if i := s.categoryIndex(c.ID); i >= 0 {
		s.categories[i] = c
		return nil
	}
	s.categories = append(s.categories, c)
	return nil
}

// DeleteCategory removes a user category and clears it from transactions
// and budgets.
func (s *Store) DeleteCategory(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.categoryIndex(id)
	if i < 0 {
		return fmt.Errorf("category %s: %w", id, core.ErrNotFound)
	}
	if s.categories[i].IsSystem {
		return fmt.Errorf("category %s: %w", id, core.ErrSystemCategory)
	}
	s.categories = append(s.categories[:i], s.categories[i+1:]...)
	for j := range s.txs {
		if s.txs[j].CategoryID != nil && *s.txs[j].CategoryID == id {
			s.txs[j].CategoryID = nil
		}
	}
	for j := range s.budgets {
		if s.budgets[j].CategoryID != nil && *s.budgets[j].CategoryID == id {
			s.budgets[j].CategoryID = nil
		}
	}
	return nil
}

func (s *Store) categoryIndex(id string) int {
	for i, c := range s.categories {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func cloneTx(tx core.Transaction) core.Transaction {
	tx.Tags = append([]string{}, tx.Tags...)
	return tx.WithCategory(tx.CategoryID)
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return dedupe(out)
}

func dedupe(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
