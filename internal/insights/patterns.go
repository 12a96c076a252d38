package insights

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"spaar/internal/core"
)

var dayNames = [7]string{"Maandag", "Dinsdag", "Woensdag", "Donderdag", "Vrijdag", "Zaterdag", "Zondag"}

// mondayIndex maps time.Weekday onto 0 = Monday .. 6 = Sunday.
func mondayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}

// SpendingPatterns reports the weekday that carries an outsized share of all
// debit spending. Ties go to the earliest day from Monday.
func (e *Engine) SpendingPatterns(txs []core.Transaction) []core.FinancialInsight {
	var days [7]decimal.Decimal
	total := decimal.Zero
	for _, tx := range debits(txs) {
		i := mondayIndex(tx.Date.Weekday())
		days[i] = days[i].Add(tx.Amount)
		total = total.Add(tx.Amount)
	}
	if !total.IsPositive() {
		return nil
	}

	best := 0
	for i := 1; i < len(days); i++ {
		if days[i].GreaterThan(days[best]) {
			best = i
		}
	}

	share := days[best].Div(total).Mul(decimal.NewFromInt(100)).InexactFloat64()
	if share <= e.cfg.PatternShareThreshold {
		return nil
	}
	impact := core.ImpactMedium
	if share > e.cfg.PatternHighShare {
		impact = core.ImpactHigh
	}

	return []core.FinancialInsight{e.insight(
		core.InsightSpendingPattern, impact, 0.8,
		fmt.Sprintf("Hoog uitgavenpatroon op %s", dayNames[best]),
		fmt.Sprintf("U geeft %.1f%% van uw wekelijkse uitgaven uit op %s (%s).", share, dayNames[best], core.FormatEuros(days[best])),
		"Bekijk welke aankopen dit veroorzaken",
		"Overweeg een budget in te stellen voor deze dag",
		"Plan grote aankopen op andere dagen",
	)}
}
