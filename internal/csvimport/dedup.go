package csvimport

import (
	"time"

	"spaar/internal/core"
)

type dedupKey struct {
	date        time.Time
	description string
	amount      string
}

// dedupSet remembers (date, description, amount) triples seen in one batch.
type dedupSet map[dedupKey]struct{}

// seen records tx and reports whether an identical triple was already present.
func (s dedupSet) seen(tx core.Transaction) bool {
	k := dedupKey{
		date:        tx.Date,
		description: tx.Description,
		amount:      tx.Amount.String(),
	}
	if _, ok := s[k]; ok {
		return true
	}
	s[k] = struct{}{}
	return false
}
