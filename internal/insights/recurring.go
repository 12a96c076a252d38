package insights

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"spaar/internal/core"
)

type recurringKey struct {
	description string
	amount      string
}

type recurringGroup struct {
	description string
	count       int
	total       decimal.Decimal
}

// RecurringExpenses reports debits repeated with the same description and
// amount. Groups are reported in order of first occurrence.
func (e *Engine) RecurringExpenses(txs []core.Transaction) []core.FinancialInsight {
	groups := map[recurringKey]*recurringGroup{}
	var order []recurringKey
	for _, tx := range debits(txs) {
		k := recurringKey{description: strings.ToLower(tx.Description), amount: tx.Amount.String()}
		g, ok := groups[k]
		if !ok {
			g = &recurringGroup{description: tx.Description, total: decimal.Zero}
			groups[k] = g
			order = append(order, k)
		}
		g.count++
		g.total = g.total.Add(tx.Amount)
	}

	var out []core.FinancialInsight
	for _, k := range order {
		g := groups[k]
		if g.count < e.cfg.RecurringMinOccurrences {
			continue
		}
		avg := g.total.Div(decimal.NewFromInt(int64(g.count)))
		out = append(out, e.insight(
			core.InsightRecurringExpense, core.ImpactLow, 0.8,
			"Vaste uitgavepatroon gedetecteerd",
			fmt.Sprintf("U heeft een patroon van %d uitgaven aan %s van gemiddeld %s gedetecteerd.",
				g.count, g.description, core.FormatEuros(avg)),
			"Overweeg om dit als een vaste last in te stellen",
			"Zoek naar goedkopere alternatieven indien mogelijk",
		))
	}
	return out
}
