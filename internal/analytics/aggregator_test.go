package analytics

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"canteen/internal/core"
)

func cents(c int64) core.Money { return core.Money{Cents: c} }

func dateP(y, m, d int) *core.Date {
	v := core.NewDate(y, m, d)
	return &v
}

func TestCategoryText(t *testing.T) {
	tests := []struct {
		name string
		e    core.Entry
		want string
	}{
		{"description wins", core.Entry{Description: "pizza", Items: []core.Item{{Name: "bread"}}}, "pizza"},
		{"item names", core.Entry{Items: []core.Item{{Name: "bread"}, {Name: "milk"}}}, "bread milk"},
		{"nothing", core.Entry{}, "other"},
		{"empty item names", core.Entry{Items: []core.Item{{Name: ""}}}, "other"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CategoryText(tt.e))
		})
	}
}

func TestResolve(t *testing.T) {
	a := NewAggregator(nil)
	assert.Equal(t, Funds, a.Resolve(core.Entry{Type: core.FundType, Category: "food", Description: "pizza"}))
	assert.Equal(t, Category("bills"), a.Resolve(core.Entry{Category: "bills", Description: "pizza"}))
	assert.Equal(t, Groceries, a.Resolve(core.Entry{Items: []core.Item{{Name: "vegetables"}}}))
	assert.Equal(t, Other, a.Resolve(core.Entry{}))
}

func TestFilterByRangeNoBoundsCopies(t *testing.T) {
	entries := []core.Entry{
		{ID: "a", Amount: cents(100)},
		{ID: "b", Amount: cents(200)},
	}
	got := FilterByRange(entries, nil, nil)
	require.Equal(t, entries, got)

	got[0].ID = "changed"
	assert.Equal(t, "a", entries[0].ID)
}

func TestFilterByRangeInclusive(t *testing.T) {
	entries := []core.Entry{
		{ID: "1", Date: core.NewDate(2025, 10, 1)},
		{ID: "2", Date: core.NewDate(2025, 10, 15)},
		{ID: "3", Date: core.NewDate(2025, 11, 1)},
	}
	got := FilterByRange(entries, dateP(2025, 10, 1), dateP(2025, 10, 31))
	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, "2", got[1].ID)
}

func TestFilterByRangeSingleBound(t *testing.T) {
	entries := []core.Entry{
		{ID: "1", Date: core.NewDate(2025, 10, 1)},
		{ID: "2", Date: core.NewDate(2025, 10, 15)},
		{ID: "3"},
	}

	from := FilterByRange(entries, dateP(2025, 10, 15), nil)
	require.Len(t, from, 1)
	assert.Equal(t, "2", from[0].ID)

	to := FilterByRange(entries, nil, dateP(2025, 10, 1))
	require.Len(t, to, 1)
	assert.Equal(t, "1", to[0].ID)

	assert.Len(t, FilterByRange(entries, nil, nil), 3, "undated entries are kept without bounds")
}

func TestSummarizeEmpty(t *testing.T) {
	s := NewAggregator(nil).Summarize(nil)

	assert.Zero(t, s.GrossTotal.Cents)
	assert.Zero(t, s.NetSpend.Cents)
	assert.Zero(t, s.Count)
	assert.Empty(t, s.ByCategory)
	assert.Empty(t, s.BySpender)
	assert.Empty(t, s.TopExpenses)
	assert.Empty(t, s.CategoryStats)

	raw, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"total":0,"netSpend":0,"count":0,"byCategory":{},"bySpender":{},"topExpenses":[],"categoryStats":{}}`,
		string(raw))
}

func TestSummarizeFundAndExpense(t *testing.T) {
	entries := []core.Entry{
		{Amount: cents(10000), Spender: "A", Description: "pizza"},
		{Amount: cents(5000), Type: core.FundType, Description: "top-up"},
	}
	s := NewAggregator(nil).Summarize(entries)

	assert.Equal(t, int64(150), s.GrossTotal.Rounded())
	assert.Equal(t, int64(100), s.NetSpend.Rounded())
	assert.Equal(t, cents(10000), s.CategoryTotal(Food))
	assert.Equal(t, cents(5000), s.CategoryTotal(Funds))
	assert.Equal(t, cents(10000), s.SpenderTotal("A"))
	assert.Equal(t, cents(5000), s.SpenderTotal(core.UnknownSpender))
	assert.Equal(t, 2, s.Count)

	// Keys keep first-appearance order.
	require.Len(t, s.ByCategory, 2)
	assert.Equal(t, Food, s.ByCategory[0].Name)
	assert.Equal(t, Funds, s.ByCategory[1].Name)
}

func TestSummaryJSONKeepsKeyOrder(t *testing.T) {
	entries := []core.Entry{
		{Amount: cents(5000), Spender: "Zed", Type: core.FundType, Description: "top-up"},
		{Amount: cents(10000), Spender: "Asha", Description: "pizza"},
		{Amount: cents(2000), Spender: "Zed", Description: "pizza"},
	}
	raw, err := json.Marshal(NewAggregator(nil).Summarize(entries))
	require.NoError(t, err)

	var generic map[string]any
	require.NoError(t, json.Unmarshal(raw, &generic))
	assert.Equal(t, map[string]any{"funds": 50.0, "food": 120.0}, generic["byCategory"])
	assert.Equal(t, map[string]any{"Zed": 70.0, "Asha": 100.0}, generic["bySpender"])
	assert.Equal(t,
		map[string]any{"total": 120.0, "mean": 60.0, "stddev": 40.0},
		generic["categoryStats"].(map[string]any)["food"])

	body := string(raw)
	assert.Less(t, strings.Index(body, `"funds":50`), strings.Index(body, `"food":120`))
	assert.Less(t, strings.Index(body, `"Zed":70`), strings.Index(body, `"Asha":100`))
}

func TestSummarizeTopExpenses(t *testing.T) {
	var entries []core.Entry
	for _, c := range []int64{300, 100, 700, 700, 200, 900, 50, 400} {
		entries = append(entries, core.Entry{Amount: cents(c), Description: "snack"})
	}
	entries[2].ID = "first-700"
	entries[3].ID = "second-700"

	s := NewAggregator(nil).Summarize(entries)
	require.Len(t, s.TopExpenses, 5)
	for i := 1; i < len(s.TopExpenses); i++ {
		assert.GreaterOrEqual(t, s.TopExpenses[i-1].Amount.Cents, s.TopExpenses[i].Amount.Cents)
	}
	assert.Equal(t, int64(900), s.TopExpenses[0].Amount.Cents)
	assert.Equal(t, "first-700", s.TopExpenses[1].ID)
	assert.Equal(t, "second-700", s.TopExpenses[2].ID)

	// Input order is untouched.
	assert.Equal(t, int64(300), entries[0].Amount.Cents)
}

func TestSummarizeCategoryStats(t *testing.T) {
	entries := []core.Entry{
		{Amount: cents(1000), Description: "coffee"},
		{Amount: cents(3000), Description: "lunch"},
		{Amount: cents(2500), Description: "uber"},
	}
	s := NewAggregator(nil).Summarize(entries)

	food, ok := s.Stat(Food)
	require.True(t, ok)
	assert.InDelta(t, 20.0, food.Mean, 1e-9)
	assert.InDelta(t, 10.0, food.StdDev, 1e-9)
	assert.Equal(t, cents(4000), food.Total)

	transport, ok := s.Stat(Transport)
	require.True(t, ok)
	assert.InDelta(t, 25.0, transport.Mean, 1e-9)
	assert.Zero(t, transport.StdDev)

	_, ok = s.Stat(Bills)
	assert.False(t, ok)
}

func TestSummarizeIdempotent(t *testing.T) {
	entries := []core.Entry{
		{Amount: cents(1234), Spender: "A", Description: "pizza", Date: core.NewDate(2025, 10, 2)},
		{Amount: cents(999), Spender: "B", Items: []core.Item{{Name: "milk", Qty: 1, Price: cents(999)}}},
		{Amount: cents(5000), Type: core.FundType},
	}
	a := NewAggregator(nil)
	assert.Equal(t, a.Summarize(entries), a.Summarize(entries))
}

func TestMeanStdDev(t *testing.T) {
	mean, sd := meanStdDev(nil)
	assert.Zero(t, mean)
	assert.Zero(t, sd)

	mean, sd = meanStdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	assert.InDelta(t, 5.0, mean, 1e-9)
	assert.InDelta(t, 2.0, sd, 1e-9)
	assert.False(t, math.IsNaN(sd))
}

func TestTopCategoryTieGoesToFirst(t *testing.T) {
	s := Summary{ByCategory: []CategoryAmount{
		{Name: Transport, Amount: cents(500)},
		{Name: Food, Amount: cents(500)},
	}}
	top, ok := s.TopCategory()
	require.True(t, ok)
	assert.Equal(t, Transport, top.Name)

	_, ok = Summary{}.TopSpender()
	assert.False(t, ok)
}
