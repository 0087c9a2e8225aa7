package analytics

import (
	"math"
	"sort"
	"strings"

	"canteen/internal/core"
)

// topExpensesLimit bounds Summary.TopExpenses.
const topExpensesLimit = 5

// Aggregator turns ledger entries into summaries. It holds only its
// immutable categorizer and may be shared between goroutines.
type Aggregator struct {
	categorizer *Categorizer
}

// NewAggregator returns an Aggregator that guesses missing categories with c.
// A nil c uses DefaultCategorizer.
func NewAggregator(c *Categorizer) *Aggregator {
	if c == nil {
		c = DefaultCategorizer()
	}
	return &Aggregator{categorizer: c}
}

// CategoryText picks the text used to guess an entry's category: the
// description, else the item names joined by spaces, else the literal
// "other".
func CategoryText(e core.Entry) string {
	if e.Description != "" {
		return e.Description
	}
	if names := strings.Join(e.ItemNames(), " "); names != "" {
		return names
	}
	return string(Other)
}

// Resolve returns the effective category of an entry: Funds for top-ups,
// the explicit category when set, otherwise a guess from CategoryText.
func (a *Aggregator) Resolve(e core.Entry) Category {
	if e.IsFund() {
		return Funds
	}
	if e.Category != "" {
		return Category(e.Category)
	}
	return a.categorizer.Guess(CategoryText(e))
}

// FilterByRange returns the entries dated within [start, end]. Either bound
// may be nil. With no bounds the result is a copy of entries. Entries whose
// date is missing or was unparsable are dropped as soon as any bound is set.
// Relative order is preserved and entries is never modified.
func FilterByRange(entries []core.Entry, start, end *core.Date) []core.Entry {
	if start == nil && end == nil {
		return append(make([]core.Entry, 0, len(entries)), entries...)
	}
	out := make([]core.Entry, 0, len(entries))
	for _, e := range entries {
		if e.Date.IsEmpty() {
			continue
		}
		if start != nil && e.Date.Before(start.Time) {
			continue
		}
		if end != nil && e.Date.After(end.Time) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Summarize aggregates entries. Count covers every input entry and both
// totals are computed in one pass; category statistics re-resolve each
// entry per category.
func (a *Aggregator) Summarize(entries []core.Entry) Summary {
	s := Summary{
		Count:         len(entries),
		ByCategory:    make([]CategoryAmount, 0),
		BySpender:     make([]SpenderAmount, 0),
		CategoryStats: make([]CategoryStat, 0),
	}

	catIdx := make(map[Category]int)
	spIdx := make(map[string]int)
	for _, e := range entries {
		amt := e.Amount
		s.GrossTotal = s.GrossTotal.Add(amt)
		if !e.IsFund() {
			s.NetSpend = s.NetSpend.Add(amt)
		}

		cat := a.Resolve(e)
		if i, ok := catIdx[cat]; ok {
			s.ByCategory[i].Amount = s.ByCategory[i].Amount.Add(amt)
		} else {
			catIdx[cat] = len(s.ByCategory)
			s.ByCategory = append(s.ByCategory, CategoryAmount{Name: cat, Amount: amt})
		}

		who := e.SpenderOrUnknown()
		if i, ok := spIdx[who]; ok {
			s.BySpender[i].Amount = s.BySpender[i].Amount.Add(amt)
		} else {
			spIdx[who] = len(s.BySpender)
			s.BySpender = append(s.BySpender, SpenderAmount{Name: who, Amount: amt})
		}
	}

	s.TopExpenses = topExpenses(entries)

	for _, ca := range s.ByCategory {
		var amounts []float64
		for _, e := range entries {
			if a.Resolve(e) == ca.Name {
				amounts = append(amounts, e.Amount.Units())
			}
		}
		mean, stddev := meanStdDev(amounts)
		s.CategoryStats = append(s.CategoryStats, CategoryStat{
			Name:   ca.Name,
			Total:  ca.Amount,
			Mean:   mean,
			StdDev: stddev,
		})
	}

	return s
}

// topExpenses returns up to five entries with the largest amounts,
// descending. Equal amounts keep their input order.
func topExpenses(entries []core.Entry) []core.Entry {
	sorted := append(make([]core.Entry, 0, len(entries)), entries...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Amount.Cents > sorted[j].Amount.Cents
	})
	if len(sorted) > topExpensesLimit {
		sorted = sorted[:topExpensesLimit]
	}
	return sorted
}

// meanStdDev returns the arithmetic mean and population standard deviation.
// The denominator is at least 1, so an empty input yields 0, 0.
func meanStdDev(xs []float64) (mean, stddev float64) {
	n := math.Max(1, float64(len(xs)))
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean = sum / n
	var sq float64
	for _, x := range xs {
		sq += (x - mean) * (x - mean)
	}
	return mean, math.Sqrt(sq / n)
}
