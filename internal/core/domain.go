package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Credit Direction = "credit"
	Debit  Direction = "debit"
)

const (
	Weekly    Frequency = "weekly"
	Monthly   Frequency = "monthly"
	Quarterly Frequency = "quarterly"
	Yearly    Frequency = "yearly"
)

const (
	PeriodWeekly    BudgetPeriod = "weekly"
	PeriodMonthly   BudgetPeriod = "monthly"
	PeriodQuarterly BudgetPeriod = "quarterly"
	PeriodYearly    BudgetPeriod = "yearly"
)

type (
	// Direction tells whether money came in (credit) or went out (debit).
	Direction string

	// Frequency is the cadence label of a recurring transaction. The zero
	// value means no cadence was recognised.
	Frequency string

	BudgetPeriod string

	// Transaction is the canonical, normalized record produced by an import.
	// Amount is always a non-negative magnitude; the sign lives in Direction.
	Transaction struct {
		ID            string           `json:"id"`
		Description   string           `json:"description"`
		Amount        decimal.Decimal  `json:"amount"`
		Date          time.Time        `json:"date"`
		Direction     Direction        `json:"transaction_type"`
		CategoryID    *string          `json:"category_id,omitempty"`
		AccountNumber string           `json:"account_number,omitempty"`
		AccountHolder string           `json:"account_holder,omitempty"`
		BalanceAfter  *decimal.Decimal `json:"balance_after,omitempty"`
		Notes         string           `json:"notes,omitempty"`
		Tags          []string         `json:"tags"`
		IsRecurring   bool             `json:"is_recurring"`
		Frequency     Frequency        `json:"recurring_frequency,omitempty"`
		CreatedAt     time.Time        `json:"created_at"`
	}

	Category struct {
		ID          string           `json:"id"`
		Name        string           `json:"name"`
		ParentID    *string          `json:"parent_id,omitempty"`
		IsSystem    bool             `json:"is_system"`
		BudgetShare *decimal.Decimal `json:"budget_percentage,omitempty"`
	}

	// Budget caps spending for an optional category over a validity window.
	// Spent is accumulated from matching transactions; the remaining amount is
	// always derived through Remaining.
	Budget struct {
		ID         string          `json:"id"`
		Name       string          `json:"name"`
		CategoryID *string         `json:"category_id,omitempty"`
		Amount     decimal.Decimal `json:"amount"`
		Period     BudgetPeriod    `json:"period"`
		Spent      decimal.Decimal `json:"spent"`
		IsActive   bool            `json:"is_active"`
		StartDate  time.Time       `json:"start_date"`
		EndDate    *time.Time      `json:"end_date,omitempty"`
	}

	// Snapshot is the read-only view of the store fed to the insight engine.
	Snapshot struct {
		Transactions []Transaction
		Categories   []Category
		Budgets      []Budget
	}
)

// IsValid reports whether d is one of the two known directions.
func (d Direction) IsValid() bool {
	return d == Credit || d == Debit
}

func (p BudgetPeriod) IsValid() bool {
	switch p {
	case PeriodWeekly, PeriodMonthly, PeriodQuarterly, PeriodYearly:
		return true
	}
	return false
}

// IsDebit is a shorthand used throughout the analyzers.
func (t Transaction) IsDebit() bool {
	return t.Direction == Debit
}

// SignedAmount returns the amount with the direction applied (debits negative).
func (t Transaction) SignedAmount() decimal.Decimal {
	if t.IsDebit() {
		return t.Amount.Neg()
	}
	return t.Amount
}

// WithCategory returns a copy of t assigned to categoryID. Category
// reassignment is the only mutation a stored transaction allows.
func (t Transaction) WithCategory(categoryID *string) Transaction {
	if categoryID != nil {
		id := *categoryID
		categoryID = &id
	}
	t.CategoryID = categoryID
	return t
}

func (t Transaction) Validate() error {
	if t.Date.IsZero() {
		return errors.New("date cannot be zero")
	}
	if strings.TrimSpace(t.Description) == "" {
		return errors.New("empty description")
	}
	if t.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	if !t.Direction.IsValid() {
		return fmt.Errorf("invalid direction %q", t.Direction)
	}
	return nil
}

// Validate checks the fields a caller supplies. Spent is derived and not
// checked.
func (b Budget) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return fmt.Errorf("%w: empty budget name", ErrInvalidInput)
	}
	if !b.Amount.IsPositive() {
		return fmt.Errorf("%w: budget amount must be positive", ErrInvalidInput)
	}
	if !b.Period.IsValid() {
		return fmt.Errorf("%w: invalid budget period %q", ErrInvalidInput, b.Period)
	}
	if b.StartDate.IsZero() {
		return fmt.Errorf("%w: budget start date is required", ErrInvalidInput)
	}
	if b.EndDate != nil && b.EndDate.Before(b.StartDate) {
		return fmt.Errorf("%w: budget ends before it starts", ErrInvalidInput)
	}
	return nil
}

// Remaining is Amount minus Spent. It is never stored.
func (b Budget) Remaining() decimal.Decimal {
	return b.Amount.Sub(b.Spent)
}

// WithSpent returns a copy of b with Spent replaced.
func (b Budget) WithSpent(spent decimal.Decimal) Budget {
	b.Spent = spent
	return b
}

// Covers reports whether date falls inside the budget validity window.
// The end date is inclusive; a nil end date means open-ended.
func (b Budget) Covers(date time.Time) bool {
	if date.Before(b.StartDate) {
		return false
	}
	return b.EndDate == nil || !date.After(*b.EndDate)
}

// Matches reports whether the transaction counts towards the budget. A budget
// without a category tracks uncategorized debits only.
func (b Budget) Matches(t Transaction) bool {
	if !t.IsDebit() || !b.Covers(t.Date) {
		return false
	}
	return sameCategory(b.CategoryID, t.CategoryID)
}

// sameCategory compares optional category ids; nil equals nil.
func sameCategory(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return errors.New("empty category id")
	}
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("empty category name")
	}
	return nil
}
