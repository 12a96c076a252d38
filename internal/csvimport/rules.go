package csvimport

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"spaar/internal/core"
)

// TagFamily adds Tag when any keyword occurs in the row text.
type TagFamily struct {
	Tag      string   `yaml:"tag"`
	Keywords []string `yaml:"keywords"`
}

// FrequencyPhrase labels a counterparty with a recurrence cadence.
type FrequencyPhrase struct {
	Frequency core.Frequency `yaml:"frequency"`
	Phrases   []string       `yaml:"phrases"`
}

// DirectionTokens are the explicit credit/debit markers, compared lower-case.
type DirectionTokens struct {
	Credit []string `yaml:"credit"`
	Debit  []string `yaml:"debit"`
}

// Rules bundles every keyword table the importer consults. All tables can be
// overridden from YAML; sections left out keep their defaults.
type Rules struct {
	Synonyms          Synonyms          `yaml:"synonyms"`
	RequiredHeaders   []string          `yaml:"required_headers"`
	Categories        []CategoryRule    `yaml:"categories"`
	Tags              []TagFamily       `yaml:"tags"`
	RecurringKeywords []string          `yaml:"recurring_keywords"`
	Frequencies       []FrequencyPhrase `yaml:"frequencies"`
	Directions        DirectionTokens   `yaml:"directions"`
	NoopKinds         []string          `yaml:"noop_kinds"`
	Placeholder       string            `yaml:"placeholder"`
}

// DefaultRules returns the Rabobank rule set.
func DefaultRules() *Rules {
	return &Rules{
		Synonyms:        RabobankSynonyms(),
		RequiredHeaders: RabobankRequiredHeaders(),
		Categories:      DefaultCategoryRules(),
		Tags: []TagFamily{
			{Tag: "automatische incasso", Keywords: []string{"incasso", "sepa"}},
			{Tag: "iDEAL", Keywords: []string{"ideal"}},
			{Tag: "pinbetaling", Keywords: []string{"pin"}},
			{Tag: "online", Keywords: []string{"online", "webshop"}},
			{Tag: "contant", Keywords: []string{"cash", "geldautomaat"}},
			{Tag: "geschenk", Keywords: []string{"gift", "cadeau"}},
		},
		RecurringKeywords: []string{
			"incasso", "periodiek", "maandelijks", "kwartaal", "jaarlijks", "abonnement", "verzekering",
		},
		Frequencies: []FrequencyPhrase{
			{Frequency: core.Monthly, Phrases: []string{"maandelijks", "per maand"}},
			{Frequency: core.Weekly, Phrases: []string{"wekelijks", "per week"}},
			{Frequency: core.Quarterly, Phrases: []string{"kwartaal", "per kwartaal"}},
			{Frequency: core.Yearly, Phrases: []string{"jaarlijks", "per jaar"}},
		},
		Directions: DirectionTokens{
			Credit: []string{"bij", "credit", "c", "cr"},
			Debit:  []string{"af", "debit", "d", "dr"},
		},
		NoopKinds:   []string{"GT"},
		Placeholder: "Onbekende transactie",
	}
}

// ParseRules decodes a YAML rule file on top of DefaultRules.
func ParseRules(data []byte) (*Rules, error) {
	var in Rules
	if err := yaml.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}

	r := DefaultRules()
	if len(in.Synonyms) > 0 {
		r.Synonyms = in.Synonyms
	}
	if len(in.RequiredHeaders) > 0 {
		r.RequiredHeaders = in.RequiredHeaders
	}
	if len(in.Categories) > 0 {
		r.Categories = in.Categories
	}
	if len(in.Tags) > 0 {
		r.Tags = in.Tags
	}
	if len(in.RecurringKeywords) > 0 {
		r.RecurringKeywords = in.RecurringKeywords
	}
	if len(in.Frequencies) > 0 {
		r.Frequencies = in.Frequencies
	}
	if len(in.Directions.Credit) > 0 {
		r.Directions.Credit = in.Directions.Credit
	}
	if len(in.Directions.Debit) > 0 {
		r.Directions.Debit = in.Directions.Debit
	}
	if len(in.NoopKinds) > 0 {
		r.NoopKinds = in.NoopKinds
	}
	if in.Placeholder != "" {
		r.Placeholder = in.Placeholder
	}

	for _, f := range r.Frequencies {
		switch f.Frequency {
		case core.Weekly, core.Monthly, core.Quarterly, core.Yearly:
		default:
			return nil, fmt.Errorf("parse rules: unknown frequency %q", f.Frequency)
		}
	}
	return r, nil
}

// LoadRules reads a YAML rule file from disk.
func LoadRules(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load rules %s: %w", path, err)
	}
	return ParseRules(data)
}
