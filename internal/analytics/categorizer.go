// Package analytics is the ledger's aggregation and reporting engine.
//
// Everything here is pure: functions read the entries they are given, never
// mutate them, and keep no state between calls, so they are safe to call
// from any number of goroutines.
package analytics

import "strings"

// Category is a coarse classification bucket for an entry's purpose.
type Category string

const (
	Food          Category = "food"
	Groceries     Category = "groceries"
	Transport     Category = "transport"
	Bills         Category = "bills"
	Entertainment Category = "entertainment"
	Shopping      Category = "shopping"
	Other         Category = "other"

	// Funds collects top-up entries. It is never guessed from text.
	Funds Category = "funds"
)

// CategoryRule binds a category to the keywords that select it.
type CategoryRule struct {
	Category Category `toml:"name"`
	Keywords []string `toml:"keywords"`
}

// DefaultRules returns the built-in keyword table. Order matters: the first
// rule with a matching keyword wins.
func DefaultRules() []CategoryRule {
	return []CategoryRule{
		{Food, []string{"restaurant", "dinner", "lunch", "breakfast", "coffee", "pizza", "burger", "cafe", "canteen", "tea", "snack", "snacks"}},
		{Groceries, []string{"grocery", "groceries", "supermarket", "veg", "vegetables", "fruits"}},
		{Transport, []string{"uber", "ola", "taxi", "bus", "fuel", "petrol", "diesel", "train", "metro", "auto"}},
		{Bills, []string{"electricity", "internet", "phone", "bill", "rent", "subscription"}},
		{Entertainment, []string{"movie", "netflix", "concert", "party", "games", "game"}},
		{Shopping, []string{"amazon", "flipkart", "shop", "shopping", "clothes"}},
		{Other, nil},
	}
}

// Categorizer guesses a Category from free text by keyword substring match.
// The zero value is not usable; build one with NewCategorizer.
type Categorizer struct {
	rules []CategoryRule
}

// NewCategorizer copies rules into an immutable table. Keywords are
// lower-cased and blank keywords dropped, since an empty keyword would match
// every description.
func NewCategorizer(rules []CategoryRule) *Categorizer {
	table := make([]CategoryRule, 0, len(rules))
	for _, r := range rules {
		kws := make([]string, 0, len(r.Keywords))
		for _, kw := range r.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw == "" {
				continue
			}
			kws = append(kws, kw)
		}
		table = append(table, CategoryRule{Category: r.Category, Keywords: kws})
	}
	return &Categorizer{rules: table}
}

// DefaultCategorizer returns a Categorizer over DefaultRules.
func DefaultCategorizer() *Categorizer {
	return NewCategorizer(DefaultRules())
}

// Rules returns a copy of the categorizer's table in match order.
func (c *Categorizer) Rules() []CategoryRule {
	out := make([]CategoryRule, len(c.rules))
	for i, r := range c.rules {
		out[i] = CategoryRule{Category: r.Category, Keywords: append([]string(nil), r.Keywords...)}
	}
	return out
}

// Guess maps a description to a category. Matching is plain substring
// containment on the normalized text, so "teaching" matches "tea".
// Text without any keyword, including empty text, yields Other.
func (c *Categorizer) Guess(description string) Category {
	txt := Normalize(description)
	if txt == "" {
		return Other
	}
	for _, r := range c.rules {
		for _, kw := range r.Keywords {
			if strings.Contains(txt, kw) {
				return r.Category
			}
		}
	}
	return Other
}

// Normalize lower-cases s, turns every character other than a-z, 0-9 and
// whitespace into a space, collapses whitespace runs and trims the result.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	mapped := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		return ' '
	}, strings.ToLower(s))
	return strings.Join(strings.Fields(mapped), " ")
}
