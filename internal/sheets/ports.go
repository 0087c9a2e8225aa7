package sheets

import (
	"context"
	"strings"
	"time"

	"canteen/internal/analytics"
)

// SummaryRow is one period summary as written to a spreadsheet.
type SummaryRow struct {
	Period      string
	GeneratedAt time.Time
	GrossTotal  float64
	NetSpend    float64
	Count       int
	TopCategory string
	TopSpender  string
	Insights    string
}

// SummaryWriter is the outbound port for published summaries.
type SummaryWriter interface {
	AppendSummary(ctx context.Context, row SummaryRow) (rowRef string, err error)
}

// NewSummaryRow flattens a summary into a row.
func NewSummaryRow(period string, s analytics.Summary, at time.Time) SummaryRow {
	row := SummaryRow{
		Period:      period,
		GeneratedAt: at.UTC(),
		GrossTotal:  s.GrossTotal.Units(),
		NetSpend:    s.NetSpend.Units(),
		Count:       s.Count,
	}
	if top, ok := s.TopCategory(); ok {
		row.TopCategory = string(top.Name)
	}
	if top, ok := s.TopSpender(); ok {
		row.TopSpender = top.Name
	}
	elevated := s.ElevatedCategories()
	names := make([]string, len(elevated))
	for i, c := range elevated {
		names[i] = string(c)
	}
	row.Insights = strings.Join(names, ", ")
	return row
}

// Values returns the row in column order A..H.
func (r SummaryRow) Values() []any {
	return []any{
		r.Period,
		r.GeneratedAt.Format(time.RFC3339),
		r.GrossTotal,
		r.NetSpend,
		r.Count,
		r.TopCategory,
		r.TopSpender,
		r.Insights,
	}
}
