package views

import (
	"cmp"
	"math"
	"slices"
	"time"

	"brokerdesk/internal/calendar"
	"brokerdesk/internal/domain"
)

// BuildSchedules buckets appointments for one displayed month.
func BuildSchedules(records []domain.Schedule, year int, month time.Month) (*calendar.Index[domain.Schedule], error) {
	return calendar.Build(records, func(s domain.Schedule) string { return s.Date }, year, month)
}

type DateGroup struct {
	Date      string            `json:"date" format:"date"`
	Schedules []domain.Schedule `json:"schedules"`
}

// GroupByDate groups consecutive appointments by date, keeping the first
// appearance order of each date.
func GroupByDate(records []domain.Schedule) []DateGroup {
	groups := []DateGroup{}
	pos := map[string]int{}
	for _, s := range records {
		key := dateKey(s.Date)
		i, ok := pos[key]
		if !ok {
			i = len(groups)
			pos[key] = i
			groups = append(groups, DateGroup{Date: key})
		}
		groups[i].Schedules = append(groups[i].Schedules, s)
	}
	return groups
}

// Stats summarizes properties per status plus the value of available listings.
type Stats struct {
	Total          int            `json:"total"`
	ByStatus       map[string]int `json:"by_status"`
	AvailableValue float64        `json:"available_value"`
	ByType         []TypeShare    `json:"by_type"`
}

// TypeShare is one slice of the property type distribution. Percentage is
// rounded to the nearest whole number of Total.
type TypeShare struct {
	Type       string `json:"type"`
	Count      int    `json:"count"`
	Percentage int    `json:"percentage"`
}

func PropertyStats(records []domain.Property) Stats {
	st := Stats{ByStatus: map[string]int{}, ByType: []TypeShare{}}
	for _, s := range domain.PropertyStatuses {
		st.ByStatus[s] = 0
	}
	byType := map[string]int{}
	for _, p := range records {
		status, err := domain.NormalizePropertyStatus(p.Status)
		if err != nil {
			continue
		}
		st.Total++
		st.ByStatus[status]++
		if status == domain.PropertyAvailable {
			st.AvailableValue += p.Price()
		}
		if p.PropertyType != "" {
			byType[p.PropertyType]++
		}
	}
	for typ, n := range byType {
		st.ByType = append(st.ByType, TypeShare{
			Type:       typ,
			Count:      n,
			Percentage: int(math.Round(float64(n) * 100 / float64(st.Total))),
		})
	}
	slices.SortFunc(st.ByType, func(a, b TypeShare) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Type, b.Type)
	})
	return st
}
