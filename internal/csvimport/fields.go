package csvimport

import "strings"

// Field is a logical column of a statement row.
type Field string

const (
	FieldDate           Field = "date"
	FieldCounterparty   Field = "counterparty"
	FieldAccount        Field = "account"
	FieldCounterAccount Field = "counter_account"
	FieldCode           Field = "code"
	FieldDirection      Field = "direction"
	FieldAmount         Field = "amount"
	FieldKind           Field = "kind"
	FieldRemarks        Field = "remarks"
	FieldBalance        Field = "balance"
)

// FieldSynonyms lists the header names a field may appear under, most
// specific first.
type FieldSynonyms struct {
	Field Field    `yaml:"field"`
	Names []string `yaml:"names"`
}

type Synonyms []FieldSynonyms

// RabobankSynonyms is the header table for Rabobank-style exports.
func RabobankSynonyms() Synonyms {
	return Synonyms{
		{Field: FieldDate, Names: []string{"Datum", "datum"}},
		{Field: FieldCounterparty, Names: []string{"Naam/Omschrijving", "Naam", "Omschrijving"}},
		{Field: FieldAccount, Names: []string{"Rekening", "rekening"}},
		{Field: FieldCounterAccount, Names: []string{"Tegenrekening", "tegenrekening"}},
		{Field: FieldCode, Names: []string{"Code"}},
		{Field: FieldDirection, Names: []string{"Af/Bij", "Af", "Bij"}},
		{Field: FieldAmount, Names: []string{"Bedrag", "bedrag"}},
		{Field: FieldKind, Names: []string{"MutatieSoort", "Mutatie"}},
		{Field: FieldRemarks, Names: []string{"Mededelingen", "Mededeling"}},
		{Field: FieldBalance, Names: []string{"Saldo na mutatie", "Saldo na trn", "Saldo"}},
	}
}

// RabobankRequiredHeaders are the columns a Rabobank export must carry.
func RabobankRequiredHeaders() []string {
	return []string{
		"Datum",
		"Naam/Omschrijving",
		"Rekening",
		"Tegenrekening",
		"Code",
		"Af/Bij",
		"Bedrag",
		"MutatieSoort",
		"Mededelingen",
	}
}

// ColumnMapping pins fields to zero-based column indexes for exports without
// a header row.
type ColumnMapping map[Field]int

// DefaultColumns is the generic headerless layout.
func DefaultColumns() ColumnMapping {
	return ColumnMapping{
		FieldDate:           0,
		FieldCounterparty:   1,
		FieldAmount:         2,
		FieldAccount:        3,
		FieldCounterAccount: 4,
		FieldDirection:      5,
		FieldBalance:        6,
	}
}

// Resolver extracts a logical field from a tokenized row. Missing columns and
// fields resolve to "".
type Resolver interface {
	Value(rec []string, f Field) string
}

type indexResolver map[Field]int

func (r indexResolver) Value(rec []string, f Field) string {
	i, ok := r[f]
	if !ok || i < 0 || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

// NewHeaderResolver maps fields to header positions. Header names are compared
// case-insensitively after trimming; for each field the first synonym present
// in the header wins.
func NewHeaderResolver(header []string, synonyms Synonyms) Resolver {
	positions := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if _, dup := positions[key]; !dup {
			positions[key] = i
		}
	}

	index := make(indexResolver, len(synonyms))
	for _, s := range synonyms {
		for _, name := range s.Names {
			if i, ok := positions[strings.ToLower(strings.TrimSpace(name))]; ok {
				index[s.Field] = i
				break
			}
		}
	}
	return index
}

// NewColumnResolver resolves fields through a fixed column mapping.
func NewColumnResolver(mapping ColumnMapping) Resolver {
	index := make(indexResolver, len(mapping))
	for f, i := range mapping {
		index[f] = i
	}
	return index
}

// ValidateStructure reports whether every required name appears in header.
// Unlike field resolution this check is exact, apart from trimming.
func ValidateStructure(header, required []string) bool {
	present := make(map[string]struct{}, len(header))
	for _, h := range header {
		present[strings.TrimSpace(h)] = struct{}{}
	}
	for _, name := range required {
		if _, ok := present[name]; !ok {
			return false
		}
	}
	return true
}
