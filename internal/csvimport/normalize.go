package csvimport

import (
	"strings"

	"github.com/shopspring/decimal"

	"spaar/internal/core"
)

// normalizer turns one resolved row into a canonical transaction. ID and
// CreatedAt are left to the importer.
type normalizer struct {
	rules    *Rules
	resolver Resolver
}

func (n *normalizer) normalize(rec Record) (core.Transaction, error) {
	get := func(f Field) string { return n.resolver.Value(rec.Fields, f) }

	rawDate := get(FieldDate)
	if rawDate == "" {
		return core.Transaction{}, &core.RowError{Line: rec.Line, Field: string(FieldDate), Err: core.ErrMissingRequiredField}
	}
	date, err := core.ParseDate(rawDate)
	if err != nil {
		return core.Transaction{}, &core.RowError{Line: rec.Line, Field: string(FieldDate), Value: rawDate, Err: err}
	}

	rawAmount := get(FieldAmount)
	if rawAmount == "" {
		return core.Transaction{}, &core.RowError{Line: rec.Line, Field: string(FieldAmount), Err: core.ErrMissingRequiredField}
	}
	amount, err := core.ParseAmount(rawAmount)
	if err != nil {
		return core.Transaction{}, &core.RowError{Line: rec.Line, Field: string(FieldAmount), Value: rawAmount, Err: err}
	}

	counterparty := get(FieldCounterparty)
	kind := get(FieldKind)
	remarks := get(FieldRemarks)

	tx := core.Transaction{
		Description:   n.describe(counterparty, kind, remarks),
		Amount:        amount.Abs(),
		Date:          date,
		Direction:     n.direction(get(FieldDirection), amount),
		AccountNumber: get(FieldAccount),
		AccountHolder: get(FieldCounterAccount),
		Notes:         remarks,
		Tags:          n.tags(counterparty, kind, remarks),
		IsRecurring:   containsAny(strings.ToLower(counterparty+" "+kind), lowerAll(n.rules.RecurringKeywords)),
		Frequency:     n.frequency(counterparty),
	}
	if raw := get(FieldBalance); raw != "" {
		if bal, err := parseBalance(raw); err == nil {
			tx.BalanceAfter = &bal
		}
	}
	return tx, nil
}

// describe joins counterparty, kind and remarks with " - ". No-op kinds
// such as "GT" are left out.
func (n *normalizer) describe(counterparty, kind, remarks string) string {
	parts := make([]string, 0, 3)
	if counterparty != "" {
		parts = append(parts, counterparty)
	}
	if kind != "" && !n.isNoop(kind) {
		parts = append(parts, kind)
	}
	if remarks != "" {
		parts = append(parts, remarks)
	}
	if len(parts) == 0 {
		return n.rules.Placeholder
	}
	return strings.Join(parts, " - ")
}

func (n *normalizer) isNoop(kind string) bool {
	for _, c := range n.rules.NoopKinds {
		if strings.EqualFold(kind, c) {
			return true
		}
	}
	return false
}

// direction prefers an explicit token and falls back to the amount sign.
func (n *normalizer) direction(token string, amount decimal.Decimal) core.Direction {
	t := strings.ToLower(strings.TrimSpace(token))
	if t != "" {
		for _, c := range n.rules.Directions.Credit {
			if t == strings.ToLower(c) {
				return core.Credit
			}
		}
		for _, d := range n.rules.Directions.Debit {
			if t == strings.ToLower(d) {
				return core.Debit
			}
		}
	}
	if amount.IsNegative() {
		return core.Debit
	}
	return core.Credit
}

func (n *normalizer) tags(counterparty, kind, remarks string) []string {
	text := strings.ToLower(counterparty + " " + kind + " " + remarks)
	tags := []string{}
	for _, fam := range n.rules.Tags {
		if containsAny(text, lowerAll(fam.Keywords)) {
			tags = append(tags, fam.Tag)
		}
	}
	return tags
}

func (n *normalizer) frequency(counterparty string) core.Frequency {
	text := strings.ToLower(counterparty)
	for _, f := range n.rules.Frequencies {
		if containsAny(text, lowerAll(f.Phrases)) {
			return f.Frequency
		}
	}
	return ""
}

// parseBalance accepts zero, unlike transaction amounts.
func parseBalance(raw string) (decimal.Decimal, error) {
	d, err := core.ParseAmount(raw)
	if err == nil {
		return d, nil
	}
	clean := strings.NewReplacer("€", "", " ", "", ".", "", ",", ".").Replace(raw)
	return decimal.NewFromString(clean)
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}
