package analytics

import (
	"fmt"
	"strings"
)

// DefaultCurrency is the symbol used by GenerateTemplateSummary.
const DefaultCurrency = "₹"

// Reporter renders summaries as plain text. Only the currency symbol is
// configurable; line order and wording are what the UI displays.
type Reporter struct {
	Currency string
}

// GenerateTemplateSummary renders s for the named period with the default
// currency symbol.
func GenerateTemplateSummary(s Summary, period string) string {
	return Reporter{Currency: DefaultCurrency}.Render(s, period)
}

// Render produces one statement per line: header, total, top category, top
// spender, transaction count and an optional insights line. The category
// and spender lines are left out when there is nothing to report.
func (r Reporter) Render(s Summary, period string) string {
	cur := r.Currency
	lines := []string{
		fmt.Sprintf("Summary for %s:", period),
		fmt.Sprintf("• Total spent: %s%d", cur, s.GrossTotal.Rounded()),
	}
	if top, ok := s.TopCategory(); ok {
		lines = append(lines, fmt.Sprintf("• Top category: %s (%s%d)", top.Name, cur, top.Amount.Rounded()))
	}
	if top, ok := s.TopSpender(); ok {
		lines = append(lines, fmt.Sprintf("• Top spender: %s (%s%d)", top.Name, cur, top.Amount.Rounded()))
	}
	lines = append(lines, fmt.Sprintf("• Number of transactions: %d", s.Count))

	if elevated := s.ElevatedCategories(); len(elevated) > 0 {
		findings := make([]string, len(elevated))
		for i, c := range elevated {
			findings[i] = fmt.Sprintf("%s looks elevated vs average", c)
		}
		lines = append(lines, "• Quick insights: "+strings.Join(findings, "; "))
	}

	return strings.Join(lines, "\n")
}
