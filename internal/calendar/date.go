// Package calendar holds the month view-model: plain dates, the per-day
// bucket index and the navigation state machine.
package calendar

import (
	"fmt"
	"strings"
	"time"

	"brokerdesk/internal/domain"
)

const dateLayout = "2006-01-02"

// Date is a calendar date with no time of day and no zone.
type Date struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	Day   int        `json:"day"`
}

// ParseDate reads the YYYY-MM-DD portion of s, ignoring anything from the
// first 'T' onwards.
func ParseDate(s string) (Date, error) {
	if i := strings.IndexByte(s, 'T'); i >= 0 {
		s = s[:i]
	}
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, domain.InvalidArgument("date", s, "expected YYYY-MM-DD")
	}
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

// DateOf truncates t to its calendar date in t's own location.
func DateOf(t time.Time) Date {
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

func (d Date) YearMonth() YearMonth {
	return YearMonth{Year: d.Year, Month: d.Month}
}

// Compare orders dates chronologically.
func (d Date) Compare(o Date) int {
	switch {
	case d.Year != o.Year:
		return cmpInt(d.Year, o.Year)
	case d.Month != o.Month:
		return cmpInt(int(d.Month), int(o.Month))
	default:
		return cmpInt(d.Day, o.Day)
	}
}

func (d Date) Before(o Date) bool { return d.Compare(o) < 0 }

// Time returns midnight UTC of d.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// AddDays shifts d by n days across month and year boundaries.
func (d Date) AddDays(n int) Date {
	return DateOf(d.Time().AddDate(0, 0, n))
}

func (d Date) Weekday() time.Weekday {
	return d.Time().Weekday()
}

// YearMonth identifies a displayed month.
type YearMonth struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

func (m YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// ParseYearMonth reads YYYY-MM.
func ParseYearMonth(s string) (YearMonth, error) {
	t, err := time.Parse("2006-01", strings.TrimSpace(s))
	if err != nil {
		return YearMonth{}, domain.InvalidArgument("month", s, "expected YYYY-MM")
	}
	return YearMonth{Year: t.Year(), Month: t.Month()}, nil
}

func (m YearMonth) Validate() error {
	if m.Month < time.January || m.Month > time.December {
		return domain.InvalidArgument("month", int(m.Month), "must be within 1..12")
	}
	return nil
}

// Next rolls December over into January of the following year.
func (m YearMonth) Next() YearMonth {
	if m.Month == time.December {
		return YearMonth{Year: m.Year + 1, Month: time.January}
	}
	return YearMonth{Year: m.Year, Month: m.Month + 1}
}

// Prev rolls January back into December of the previous year.
func (m YearMonth) Prev() YearMonth {
	if m.Month == time.January {
		return YearMonth{Year: m.Year - 1, Month: time.December}
	}
	return YearMonth{Year: m.Year, Month: m.Month - 1}
}

// Days returns the number of days of a valid month.
func (m YearMonth) Days() int {
	n, _ := DaysInMonth(m.Year, m.Month)
	return n
}

func (m YearMonth) Date(day int) Date {
	return Date{Year: m.Year, Month: m.Month, Day: day}
}

// Contains reports whether day is a valid day of m.
func (m YearMonth) Contains(day int) bool {
	return day >= 1 && day <= m.Days()
}

// IsLeap applies the Gregorian rule.
func IsLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// DaysInMonth returns 28..31 for month 1..12 and fails for any other month.
func DaysInMonth(year int, month time.Month) (int, error) {
	switch month {
	case time.January, time.March, time.May, time.July, time.August, time.October, time.December:
		return 31, nil
	case time.April, time.June, time.September, time.November:
		return 30, nil
	case time.February:
		if IsLeap(year) {
			return 29, nil
		}
		return 28, nil
	}
	return 0, domain.InvalidArgument("month", int(month), "must be within 1..12")
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
