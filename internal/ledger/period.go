package ledger

import (
	"fmt"
	"strings"
	"time"

	"canteen/internal/core"
)

// Named periods accepted by ResolvePeriod.
const (
	PeriodThisMonth = "this-month"
	PeriodLastMonth = "last-month"
	PeriodThisWeek  = "this-week"
	PeriodAll       = "all"
)

// ResolvePeriod turns a named period into inclusive bounds relative to
// today. Weeks start on Monday.
func ResolvePeriod(name string, today core.Date) (from, to *core.Date, label string, err error) {
	y, m, _ := today.Date()
	first := core.NewDate(y, int(m), 1)

	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", PeriodThisMonth:
		last := core.Date{Time: first.AddDate(0, 1, -1)}
		return &first, &last, "this month (" + first.MonthLabel() + ")", nil
	case PeriodLastMonth:
		prevFirst := core.Date{Time: first.AddDate(0, -1, 0)}
		prevLast := core.Date{Time: first.AddDate(0, 0, -1)}
		return &prevFirst, &prevLast, "last month (" + prevFirst.MonthLabel() + ")", nil
	case PeriodThisWeek:
		offset := (int(today.Weekday()) + 6) % 7
		start := core.Date{Time: today.AddDate(0, 0, -offset)}
		end := core.Date{Time: start.AddDate(0, 0, 6)}
		return &start, &end, "this week", nil
	case PeriodAll:
		return nil, nil, "all time", nil
	default:
		return nil, nil, "", fmt.Errorf("unknown period %q", name)
	}
}

// ParseBound parses an optional date bound; an empty string means no bound.
func ParseBound(s string) (*core.Date, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	d, err := core.ParseDate(s)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return &d, nil
}

// MonthBounds returns the first and last day of a "YYYY-MM" month.
func MonthBounds(month string) (from, to core.Date, err error) {
	t, err := time.Parse(monthLayout, month)
	if err != nil {
		return core.Date{}, core.Date{}, fmt.Errorf("%w: %q", ErrInvalidMonth, month)
	}
	from = core.NewDate(t.Year(), int(t.Month()), 1)
	to = core.Date{Time: from.AddDate(0, 1, -1)}
	return from, to, nil
}
