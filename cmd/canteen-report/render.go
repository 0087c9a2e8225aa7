package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"canteen/internal/analytics"
	"canteen/internal/core"
)

var (
	colorBorder = lipgloss.Color("#575653")
	colorAccent = lipgloss.Color("#3AA99F")
	colorText   = lipgloss.Color("#FFFCF0")
	colorWarn   = lipgloss.Color("#DA702C")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorText).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	warnStyle   = cellStyle.Foreground(colorWarn)
)

// renderBreakdown draws a title, a totals line and the category and
// spender tables. Elevated categories are marked in the last column.
func renderBreakdown(s analytics.Summary, label, currency string) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Breakdown for " + label))
	b.WriteString("\n")

	if s.Count == 0 {
		b.WriteString(fmt.Sprintf("No entries for %s.\n", label))
		return b.String()
	}

	b.WriteString(fmt.Sprintf("Total %s  ·  Net spend %s  ·  %d transactions\n\n",
		formatMoney(currency, s.GrossTotal), formatMoney(currency, s.NetSpend), s.Count))

	elevated := make(map[analytics.Category]bool)
	for _, c := range s.ElevatedCategories() {
		elevated[c] = true
	}

	catRows := make([][]string, 0, len(s.CategoryStats))
	for _, st := range s.CategoryStats {
		flag := ""
		if elevated[st.Name] {
			flag = "elevated"
		}
		catRows = append(catRows, []string{
			string(st.Name),
			formatMoney(currency, st.Total),
			fmt.Sprintf("%s%.2f", currency, st.Mean),
			fmt.Sprintf("%.2f", st.StdDev),
			share(st.Total, s.GrossTotal),
			flag,
		})
	}
	b.WriteString(renderTable([]string{"Category", "Total", "Mean", "Std dev", "Share", ""}, catRows, 5))
	b.WriteString("\n")

	spRows := make([][]string, 0, len(s.BySpender))
	for _, sp := range s.BySpender {
		spRows = append(spRows, []string{sp.Name, formatMoney(currency, sp.Amount), share(sp.Amount, s.GrossTotal)})
	}
	b.WriteString(renderTable([]string{"Spender", "Total", "Share"}, spRows, -1))
	b.WriteString("\n")
	return b.String()
}

// renderTable draws a rounded table; cells in flagCol that are non-empty
// use the warning style.
func renderTable(headers []string, rows [][]string, flagCol int) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorBorder)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == flagCol && row >= 0 && row < len(rows) && rows[row][col] != "" {
				return warnStyle
			}
			return cellStyle
		})
	return t.Render()
}

func formatMoney(currency string, m core.Money) string {
	return fmt.Sprintf("%s%.2f", currency, m.Units())
}

func share(part, total core.Money) string {
	if total.Cents == 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", float64(part.Cents)*100/float64(total.Cents))
}
