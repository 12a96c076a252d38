package insights

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"spaar/internal/core"
)

// UnusualActivity flags debits whose z-score against all debits exceeds the
// configured threshold. The sample standard deviation is used, so fewer than
// two debits or identical amounts produce nothing.
func (e *Engine) UnusualActivity(txs []core.Transaction) []core.FinancialInsight {
	ds := debits(txs)
	n := len(ds)
	if n < 2 {
		return nil
	}

	sum := decimal.Zero
	for _, tx := range ds {
		sum = sum.Add(tx.Amount)
	}
	mean := sum.Div(decimal.NewFromInt(int64(n)))

	var ss float64
	for _, tx := range ds {
		d := tx.Amount.Sub(mean).InexactFloat64()
		ss += d * d
	}
	sd := math.Sqrt(ss / float64(n-1))
	if sd == 0 {
		return nil
	}

	var out []core.FinancialInsight
	for _, tx := range ds {
		z := tx.Amount.Sub(mean).InexactFloat64() / sd
		if z <= e.cfg.AnomalyZThreshold {
			continue
		}
		out = append(out, e.insight(
			core.InsightUnusualActivity, core.ImpactMedium, 0.7,
			"Ongebruikelijk hoge uitgave gedetecteerd",
			fmt.Sprintf("De transactie '%s' (%s) is significant hoger dan uw gemiddelde uitgaven.",
				tx.Description, core.FormatEuros(tx.Amount)),
			"Controleer of deze uitgave correct is",
			"Overweeg om dit soort uitgaven in de toekomst te plannen",
		))
	}
	return out
}
