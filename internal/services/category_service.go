package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"spaar/internal/core"
	"spaar/internal/log"
	"spaar/internal/store"
)

// Invalidator drops derived data that depends on categories.
type Invalidator interface {
	Invalidate()
}

// CategoryService manages user categories. System categories come from the
// seed and can be neither created nor deleted here.
type CategoryService struct {
	store       store.CategoryStore
	invalidator Invalidator
	newID       func() string
	logger      *log.Logger
}

func NewCategoryService(st store.CategoryStore, inv Invalidator, logger *log.Logger) *CategoryService {
	if logger == nil {
		logger = log.Discard()
	}
	return &CategoryService{
		store:       st,
		invalidator: inv,
		newID:       uuid.NewString,
		logger:      logger.WithComponent(log.ComponentCategories),
	}
}

func (s *CategoryService) ListCategories(ctx context.Context) ([]core.Category, error) {
	cats, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return cats, nil
}

// Create stores a user category under a fresh id.
func (s *CategoryService) Create(ctx context.Context, c core.Category) (core.Category, error) {
	c.ID = s.newID()
	c.IsSystem = false
	if err := c.Validate(); err != nil {
		return core.Category{}, fmt.Errorf("%w: %v", core.ErrInvalidInput, err)
	}
	existing, err := s.store.ListCategories(ctx)
	if err != nil {
		return core.Category{}, fmt.Errorf("list categories: %w", err)
	}
	for _, e := range existing {
		if strings.EqualFold(strings.TrimSpace(e.Name), strings.TrimSpace(c.Name)) {
			return core.Category{}, fmt.Errorf("%w: category name %q already in use", core.ErrInvalidInput, c.Name)
		}
	}
	if c.ParentID != nil && !hasCategory(existing, *c.ParentID) {
		return core.Category{}, fmt.Errorf("parent category %s: %w", *c.ParentID, core.ErrNotFound)
	}
	if err := s.store.SaveCategory(ctx, c); err != nil {
		return core.Category{}, fmt.Errorf("save category: %w", err)
	}

	s.logger.InfoContext(ctx, "Category created",
		log.FieldCategory, c.ID,
		log.FieldOperation, log.OpSaveCategory)
	return c, nil
}

// Delete removes a user category. Transactions and budgets that used it
// become uncategorized.
func (s *CategoryService) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteCategory(ctx, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if s.invalidator != nil {
		s.invalidator.Invalidate()
	}

	s.logger.InfoContext(ctx, "Category deleted",
		log.FieldCategory, id,
		log.FieldOperation, log.OpDeleteCategory)
	return nil
}

func hasCategory(cats []core.Category, id string) bool {
	for _, c := range cats {
		if c.ID == id {
			return true
		}
	}
	return false
}
