package insights

import (
	"fmt"

	"github.com/shopspring/decimal"

	"spaar/internal/core"
)

// BudgetSpent sums the debits that count towards b.
func BudgetSpent(b core.Budget, txs []core.Transaction) decimal.Decimal {
	spent := decimal.Zero
	for _, tx := range txs {
		if b.Matches(tx) {
			spent = spent.Add(tx.Amount)
		}
	}
	return spent
}

// RecomputeBudgets returns copies of budgets with Spent derived from txs.
// Spent is never taken from callers.
func RecomputeBudgets(budgets []core.Budget, txs []core.Transaction) []core.Budget {
	out := make([]core.Budget, len(budgets))
	for i, b := range budgets {
		out[i] = b.WithSpent(BudgetSpent(b, txs))
	}
	return out
}

// Utilization is spent as a percentage of the budget amount; 0 when the
// amount is not positive.
func Utilization(b core.Budget, spent decimal.Decimal) float64 {
	if !b.Amount.IsPositive() {
		return 0
	}
	return spent.Div(b.Amount).Mul(decimal.NewFromInt(100)).InexactFloat64()
}

// BudgetPerformance flags active budgets that are nearly exhausted.
func (e *Engine) BudgetPerformance(txs []core.Transaction, budgets []core.Budget) []core.FinancialInsight {
	var out []core.FinancialInsight
	for _, b := range budgets {
		if !b.IsActive {
			continue
		}
		spent := BudgetSpent(b, txs)
		util := Utilization(b, spent)
		if util <= e.cfg.BudgetUtilizationThreshold {
			continue
		}
		out = append(out, e.insight(
			core.InsightBudgetOptimization, core.ImpactHigh, 0.9,
			fmt.Sprintf("Budget bijna bereikt: %s", b.Name),
			fmt.Sprintf("U heeft %.1f%% van uw budget voor %s gebruikt (%s van %s).",
				util, b.Name, core.FormatEuros(spent), core.FormatEuros(b.Amount)),
			"Beperk verdere uitgaven in deze categorie",
			"Overweeg het budget te verhogen indien nodig",
			"Zoek naar manieren om te besparen in deze categorie",
		))
	}
	return out
}
