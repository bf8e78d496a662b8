package ics

import (
	"strings"

	"github.com/teambition/rrule-go"

	"brokerdesk/internal/calendar"
	"brokerdesk/internal/domain"
)

const DefaultMaxOccurrences = 366

// Expand returns the dates generated by rule starting on first, first date
// included when the rule produces it. Unbounded rules stop at limit dates and
// report truncated.
func Expand(first calendar.Date, rule string, limit int) (dates []calendar.Date, truncated bool, err error) {
	if limit <= 0 {
		limit = DefaultMaxOccurrences
	}
	rule = strings.TrimPrefix(strings.TrimSpace(rule), "RRULE:")
	if rule == "" {
		return []calendar.Date{first}, false, nil
	}
	r, err := rrule.StrToRRule(rule)
	if err != nil {
		return nil, false, domain.InvalidArgument("rrule", rule, err.Error())
	}
	r.DTStart(first.Time())
	next := r.Iterator()
	for {
		t, ok := next()
		if !ok {
			break
		}
		if len(dates) == limit {
			return dates, true, nil
		}
		dates = append(dates, calendar.DateOf(t))
	}
	if len(dates) == 0 {
		return nil, false, domain.InvalidArgument("rrule", rule, "produces no dates")
	}
	return dates, false, nil
}
