package csvimport

import "strings"

// CategoryRule assigns CategoryID when any keyword occurs in a description.
type CategoryRule struct {
	CategoryID string   `yaml:"category"`
	Keywords   []string `yaml:"keywords"`
}

// Categorizer evaluates rules in order; the first rule with a hit wins.
// Matching is plain lower-case substring search, so short keywords such as
// "ah" or "ns" also hit inside longer words.
type Categorizer struct {
	rules []CategoryRule
}

func NewCategorizer(rules []CategoryRule) *Categorizer {
	lowered := make([]CategoryRule, 0, len(rules))
	for _, r := range rules {
		kw := make([]string, 0, len(r.Keywords))
		for _, k := range r.Keywords {
			if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
				kw = append(kw, k)
			}
		}
		lowered = append(lowered, CategoryRule{CategoryID: r.CategoryID, Keywords: kw})
	}
	return &Categorizer{rules: lowered}
}

// Categorize returns the category id for desc, or nil when no rule matches.
func (c *Categorizer) Categorize(desc string) *string {
	d := strings.ToLower(desc)
	for _, r := range c.rules {
		if containsAny(d, r.Keywords) {
			id := r.CategoryID
			return &id
		}
	}
	return nil
}

// Categories lists the rule category ids in evaluation order, without repeats.
func (c *Categorizer) Categories() []string {
	seen := make(map[string]struct{}, len(c.rules))
	out := make([]string, 0, len(c.rules))
	for _, r := range c.rules {
		if _, ok := seen[r.CategoryID]; ok {
			continue
		}
		seen[r.CategoryID] = struct{}{}
		out = append(out, r.CategoryID)
	}
	return out
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// DefaultCategoryRules is the Dutch keyword table. Order matters: "ziggo" and
// "kpn" resolve to telecom before internet is considered.
func DefaultCategoryRules() []CategoryRule {
	return []CategoryRule{
		{CategoryID: "supermarkt", Keywords: []string{"albert heijn", "jumbo", "plus", "dirk", "c1000", "vomar", "dekamarkt", "ekoplaza"}},
		{CategoryID: "boodschappen", Keywords: []string{"ah", "picnic", "gorillas", "flinck", "crisp"}},
		{CategoryID: "restaurant", Keywords: []string{"restaurant", "cafe", "bar", "eetcafe", "lunch", "diner"}},
		{CategoryID: "fastfood", Keywords: []string{"mcdonald", "bk", "burger king", "kfc", "subway", "dominos"}},
		{CategoryID: "woning", Keywords: []string{"huur", "hypotheek", "energie", "gas", "elektra", "water", "vve"}},
		{CategoryID: "verzekering", Keywords: []string{"verzekering", "inz", "cz", "menzis", "aegon", "nn"}},
		{CategoryID: "telecom", Keywords: []string{"kpn", "vodafone", "t-mobile", "ziggo", "tele2"}},
		{CategoryID: "transport", Keywords: []string{"ns", "ov", "trein", "bus", "tram", "metro", "benzine", "shell", "bp", "total"}},
		{CategoryID: "internet", Keywords: []string{"ziggo", "kpn", "t-mobile", "online"}},
		{CategoryID: "salaris", Keywords: []string{"salaris", "loon", "inkomen"}},
		{CategoryID: "belasting", Keywords: []string{"belasting", "toeslag", "douane"}},
		{CategoryID: "entertainment", Keywords: []string{"netflix", "spotify", "videoland", "bol.com", "amazon", "coolblue"}},
		{CategoryID: "sport", Keywords: []string{"sportschool", "fitness", "gym", "basic-fit"}},
		{CategoryID: "kleding", Keywords: []string{"h&m", "zara", "c&a", "we", "bijenkorf"}},
		{CategoryID: "gezondheid", Keywords: []string{"apotheek", "huisarts", "ziekenhuis", "tandarts"}},
		{CategoryID: "onderwijs", Keywords: []string{"school", "universiteit", "studie", "les", "cursus"}},
	}
}
