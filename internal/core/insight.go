package core

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	InsightSpendingPattern    InsightKind = "spending_pattern"
	InsightBudgetOptimization InsightKind = "budget_optimization"
	InsightUnusualActivity    InsightKind = "unusual_activity"
	InsightRecurringExpense   InsightKind = "recurring_expense"
)

const (
	ImpactHigh   Impact = "high"
	ImpactMedium Impact = "medium"
	ImpactLow    Impact = "low"
)

const (
	TrendIncreasing TrendDirection = "increasing"
	TrendDecreasing TrendDirection = "decreasing"
	TrendStable     TrendDirection = "stable"
)

// UncategorizedID buckets debits without a category in spending breakdowns.
const UncategorizedID = "uncategorized"

type (
	InsightKind    string
	Impact         string
	TrendDirection string

	// FinancialInsight is immutable once created. Insights are regenerated
	// wholesale on every analysis run.
	FinancialInsight struct {
		ID          string      `json:"id"`
		Kind        InsightKind `json:"insight_type"`
		Title       string      `json:"title"`
		Description string      `json:"description"`
		Impact      Impact      `json:"impact"`
		Actionable  bool        `json:"actionable"`
		Suggestions []string    `json:"action_suggestions"`
		Confidence  float64     `json:"confidence_score"`
		CreatedAt   time.Time   `json:"created_at"`
	}

	// CategorySpending is one row of the ranked category breakdown.
	CategorySpending struct {
		CategoryID   string          `json:"category_id"`
		CategoryName string          `json:"category_name"`
		Amount       decimal.Decimal `json:"amount"`
		Count        int             `json:"transaction_count"`
		Percentage   float64         `json:"percentage"`
	}

	// SpendingAnalysis aggregates one window of transactions and compares its
	// expenses with the preceding window of equal length.
	SpendingAnalysis struct {
		TotalSpending        decimal.Decimal    `json:"total_spending"`
		TotalIncome          decimal.Decimal    `json:"total_income"`
		NetSavings           decimal.Decimal    `json:"net_savings"`
		TopCategories        []CategorySpending `json:"top_categories"`
		AverageDailySpending decimal.Decimal    `json:"average_daily_spending"`
		Trend                TrendDirection     `json:"spending_trend"`
		PeriodStart          time.Time          `json:"period_start"`
		PeriodEnd            time.Time          `json:"period_end"`
	}
)
