package insights

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"spaar/internal/core"
)

const uncategorizedName = "Ongecategoriseerd"

type bucket struct {
	amount decimal.Decimal
	count  int
}

// AnalyzeTrends aggregates the window [now-days, now] and compares its
// expenses with the preceding window [now-2*days, now-days).
func (e *Engine) AnalyzeTrends(snap core.Snapshot, periodDays int) core.SpendingAnalysis {
	if periodDays < 0 {
		periodDays = 0
	}
	now := e.now()
	span := time.Duration(periodDays) * 24 * time.Hour
	start := now.Add(-span)
	prevStart := start.Add(-span)

	income, expenses, prevExpenses := decimal.Zero, decimal.Zero, decimal.Zero
	buckets := map[string]*bucket{}
	for _, tx := range snap.Transactions {
		switch {
		case !tx.Date.Before(start) && !tx.Date.After(now):
			if !tx.IsDebit() {
				income = income.Add(tx.Amount)
				continue
			}
			expenses = expenses.Add(tx.Amount)
			id := core.UncategorizedID
			if tx.CategoryID != nil {
				id = *tx.CategoryID
			}
			b, ok := buckets[id]
			if !ok {
				b = &bucket{amount: decimal.Zero}
				buckets[id] = b
			}
			b.amount = b.amount.Add(tx.Amount)
			b.count++
		case !tx.Date.Before(prevStart) && tx.Date.Before(start):
			if tx.IsDebit() {
				prevExpenses = prevExpenses.Add(tx.Amount)
			}
		}
	}

	trend := core.TrendStable
	switch expenses.Cmp(prevExpenses) {
	case 1:
		trend = core.TrendIncreasing
	case -1:
		trend = core.TrendDecreasing
	}

	avg := decimal.Zero
	if periodDays > 0 {
		avg = expenses.Div(decimal.NewFromInt(int64(periodDays)))
	}

	return core.SpendingAnalysis{
		TotalSpending:        expenses,
		TotalIncome:          income,
		NetSavings:           income.Sub(expenses),
		TopCategories:        e.topCategories(buckets, expenses, snap.Categories),
		AverageDailySpending: avg,
		Trend:                trend,
		PeriodStart:          start,
		PeriodEnd:            now,
	}
}

func (e *Engine) topCategories(buckets map[string]*bucket, total decimal.Decimal, categories []core.Category) []core.CategorySpending {
	names := make(map[string]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}

	out := make([]core.CategorySpending, 0, len(buckets))
	for id, b := range buckets {
		name, ok := names[id]
		switch {
		case ok:
		case id == core.UncategorizedID:
			name = uncategorizedName
		default:
			name = id
		}
		pct := 0.0
		if total.IsPositive() {
			pct = b.amount.Div(total).Mul(decimal.NewFromInt(100)).InexactFloat64()
		}
		out = append(out, core.CategorySpending{
			CategoryID:   id,
			CategoryName: name,
			Amount:       b.amount,
			Count:        b.count,
			Percentage:   pct,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Amount.Cmp(out[j].Amount); c != 0 {
			return c > 0
		}
		return out[i].CategoryID < out[j].CategoryID
	})
	if len(out) > e.cfg.TopCategories {
		out = out[:e.cfg.TopCategories]
	}
	return out
}
