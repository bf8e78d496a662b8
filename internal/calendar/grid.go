package calendar

import (
	"strings"
	"time"
)

// Grid lays a month out in week rows. Zero cells are blanks before the
// first and after the last day.
type Grid struct {
	Month         YearMonth       `json:"month"`
	WeekStart     time.Weekday    `json:"week_start"`
	LeadingBlanks int             `json:"leading_blanks"`
	Weeks         [][7]int        `json:"weeks"`
	Weekdays      [7]time.Weekday `json:"weekdays"`
}

// MonthGrid builds the week rows of m starting on weekStart.
func MonthGrid(m YearMonth, weekStart time.Weekday) Grid {
	g := Grid{Month: m, WeekStart: weekStart}
	for i := range g.Weekdays {
		g.Weekdays[i] = (weekStart + time.Weekday(i)) % 7
	}
	first := m.Date(1).Weekday()
	g.LeadingBlanks = (int(first) - int(weekStart) + 7) % 7
	days := m.Days()
	var week [7]int
	col := g.LeadingBlanks
	for day := 1; day <= days; day++ {
		week[col] = day
		col++
		if col == 7 {
			g.Weeks = append(g.Weeks, week)
			week = [7]int{}
			col = 0
		}
	}
	if col > 0 {
		g.Weeks = append(g.Weeks, week)
	}
	return g
}

// ParseWeekday accepts "sunday" or "monday" style names.
func ParseWeekday(s string) (time.Weekday, bool) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(d.String(), strings.TrimSpace(s)) {
			return d, true
		}
	}
	return time.Sunday, false
}
