package analytics

import (
	"bytes"
	"encoding/json"

	"canteen/internal/core"
)

// CategoryAmount is an amount aggregated under one category.
type CategoryAmount struct {
	Name   Category   `json:"name"`
	Amount core.Money `json:"amount"`
}

// SpenderAmount is an amount aggregated under one spender.
type SpenderAmount struct {
	Name   string     `json:"name"`
	Amount core.Money `json:"amount"`
}

// CategoryStat describes the per-entry distribution inside one category.
// Mean and StdDev are in currency units.
type CategoryStat struct {
	Name   Category   `json:"name"`
	Total  core.Money `json:"total"`
	Mean   float64    `json:"mean"`
	StdDev float64    `json:"stddev"`
}

// Summary is the aggregate view of a set of entries. It is rebuilt on every
// call and never shared.
//
// GrossTotal is every amount that moved through the ledger, top-ups
// included; it is what the "total" of a report shows. NetSpend leaves the
// top-ups out and is the money actually spent.
//
// ByCategory, BySpender and CategoryStats keep the order in which each key
// was first seen. On the wire they are objects keyed by name, in that order.
type Summary struct {
	GrossTotal    core.Money       `json:"total"`
	NetSpend      core.Money       `json:"netSpend"`
	Count         int              `json:"count"`
	ByCategory    []CategoryAmount `json:"byCategory"`
	BySpender     []SpenderAmount  `json:"bySpender"`
	TopExpenses   []core.Entry     `json:"topExpenses"`
	CategoryStats []CategoryStat   `json:"categoryStats"`
}

// CategoryTotal returns the summed amount for c, zero if absent.
func (s Summary) CategoryTotal(c Category) core.Money {
	for _, ca := range s.ByCategory {
		if ca.Name == c {
			return ca.Amount
		}
	}
	return core.Money{}
}

// SpenderTotal returns the summed amount for a spender, zero if absent.
func (s Summary) SpenderTotal(name string) core.Money {
	for _, sa := range s.BySpender {
		if sa.Name == name {
			return sa.Amount
		}
	}
	return core.Money{}
}

// Stat returns the statistics of category c.
func (s Summary) Stat(c Category) (CategoryStat, bool) {
	for _, st := range s.CategoryStats {
		if st.Name == c {
			return st, true
		}
	}
	return CategoryStat{}, false
}

// TopCategory returns the category with the largest total. Ties go to the
// category seen first.
func (s Summary) TopCategory() (CategoryAmount, bool) {
	if len(s.ByCategory) == 0 {
		return CategoryAmount{}, false
	}
	top := s.ByCategory[0]
	for _, ca := range s.ByCategory[1:] {
		if ca.Amount.Cents > top.Amount.Cents {
			top = ca
		}
	}
	return top, true
}

// TopSpender returns the spender with the largest total. Ties go to the
// spender seen first.
func (s Summary) TopSpender() (SpenderAmount, bool) {
	if len(s.BySpender) == 0 {
		return SpenderAmount{}, false
	}
	top := s.BySpender[0]
	for _, sa := range s.BySpender[1:] {
		if sa.Amount.Cents > top.Amount.Cents {
			top = sa
		}
	}
	return top, true
}

// ElevatedCategories lists the categories whose total exceeds
// mean + 2*stddev of their own per-entry amounts.
//
// The test compares an aggregate against a per-entry bound, so any category
// with several similar entries trips it. Reports depend on this exact rule.
func (s Summary) ElevatedCategories() []Category {
	var out []Category
	for _, st := range s.CategoryStats {
		if st.Mean+2*st.StdDev < s.CategoryTotal(st.Name).Units() {
			out = append(out, st.Name)
		}
	}
	return out
}

type wireStat struct {
	Total  core.Money `json:"total"`
	Mean   float64    `json:"mean"`
	StdDev float64    `json:"stddev"`
}

// MarshalJSON writes the keyed breakdowns as JSON objects in first-seen
// order.
func (s Summary) MarshalJSON() ([]byte, error) {
	byCategory, err := orderedObject(len(s.ByCategory), func(i int) (string, any) {
		return string(s.ByCategory[i].Name), s.ByCategory[i].Amount
	})
	if err != nil {
		return nil, err
	}
	bySpender, err := orderedObject(len(s.BySpender), func(i int) (string, any) {
		return s.BySpender[i].Name, s.BySpender[i].Amount
	})
	if err != nil {
		return nil, err
	}
	stats, err := orderedObject(len(s.CategoryStats), func(i int) (string, any) {
		st := s.CategoryStats[i]
		return string(st.Name), wireStat{Total: st.Total, Mean: st.Mean, StdDev: st.StdDev}
	})
	if err != nil {
		return nil, err
	}
	top := s.TopExpenses
	if top == nil {
		top = []core.Entry{}
	}
	return json.Marshal(struct {
		GrossTotal    core.Money      `json:"total"`
		NetSpend      core.Money      `json:"netSpend"`
		Count         int             `json:"count"`
		ByCategory    json.RawMessage `json:"byCategory"`
		BySpender     json.RawMessage `json:"bySpender"`
		TopExpenses   []core.Entry    `json:"topExpenses"`
		CategoryStats json.RawMessage `json:"categoryStats"`
	}{s.GrossTotal, s.NetSpend, s.Count, byCategory, bySpender, top, stats})
}

func orderedObject(n int, pair func(i int) (string, any)) (json.RawMessage, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i := 0; i < n; i++ {
		k, v := pair(i)
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
