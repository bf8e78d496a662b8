// Package views instantiates the query engine for each list screen.
package views

import (
	"strings"

	"brokerdesk/internal/calendar"
	"brokerdesk/internal/domain"
	"brokerdesk/internal/query"
)

type PropertyOptions struct {
	Search    string
	Status    string
	MinPrice  *float64
	MaxPrice  *float64
	SortBy    string
	Direction string
}

const (
	PropertySortCreated = "created_at"
	PropertySortTitle   = "title"
	PropertySortPrice   = "price"
)

func PropertySpec(opts PropertyOptions) (query.Spec[domain.Property], error) {
	spec := query.Spec[domain.Property]{
		SearchText: strings.TrimSpace(opts.Search),
		SearchFields: []query.Extractor[domain.Property]{
			query.Field(func(p domain.Property) string { return p.Title }),
			query.Field(func(p domain.Property) string { return p.Address }),
			query.Field(func(p domain.Property) string { return p.Description }),
		},
	}
	status := ""
	if opts.Status != "" {
		s, err := domain.NormalizePropertyStatus(opts.Status)
		if err != nil {
			return spec, err
		}
		status = s
	}
	if opts.MinPrice != nil && opts.MaxPrice != nil && *opts.MinPrice > *opts.MaxPrice {
		return spec, domain.InvalidArgument("min_price", *opts.MinPrice, "greater than max_price")
	}
	if status != "" || opts.MinPrice != nil || opts.MaxPrice != nil {
		minPrice, maxPrice := opts.MinPrice, opts.MaxPrice
		spec.Filter = func(p domain.Property) bool {
			if status != "" && p.Status != status {
				return false
			}
			if minPrice != nil && p.Price() < *minPrice {
				return false
			}
			if maxPrice != nil && p.Price() > *maxPrice {
				return false
			}
			return true
		}
	}
	switch opts.SortBy {
	case "", PropertySortCreated:
		spec.Sort = query.By(func(p domain.Property) string { return p.CreatedAt })
		spec.Direction = query.Descending
		if opts.Direction != "" {
			spec.Direction = query.ParseDirection(opts.Direction)
		}
	case PropertySortTitle:
		spec.Sort = query.ByFold(func(p domain.Property) string { return p.Title })
		spec.Direction = query.ParseDirection(opts.Direction)
	case PropertySortPrice:
		spec.Sort = query.By(domain.Property.Price)
		spec.Direction = query.ParseDirection(opts.Direction)
	default:
		return spec, domain.InvalidArgument("sort", opts.SortBy, "expected created_at, title or price")
	}
	return spec, nil
}

type ClientOptions struct {
	Search string
	SortBy string
}

const (
	ClientSortName       = "name"
	ClientSortProperties = "properties"
)

func ClientSpec(opts ClientOptions) (query.Spec[domain.Client], error) {
	spec := query.Spec[domain.Client]{
		SearchText: strings.TrimSpace(opts.Search),
		SearchFields: []query.Extractor[domain.Client]{
			query.Field(domain.Client.FullName),
			query.Field(func(c domain.Client) string { return c.NationalID }),
			query.Fields(func(c domain.Client) []string {
				out := make([]string, 0, 2*len(c.Properties))
				for _, p := range c.Properties {
					out = append(out, p.Title, p.Address)
				}
				return out
			}),
		},
	}
	switch opts.SortBy {
	case "", ClientSortName:
		spec.Sort = query.ByFold(domain.Client.FullName)
	case ClientSortProperties:
		spec.Sort = query.By(func(c domain.Client) int { return len(c.Properties) })
		spec.Direction = query.Descending
	default:
		return spec, domain.InvalidArgument("sort", opts.SortBy, "expected name or properties")
	}
	return spec, nil
}

const (
	WhenAll      = "all"
	WhenUpcoming = "upcoming"
	WhenPast     = "past"
)

type ScheduleOptions struct {
	Search    string
	When      string
	Status    string
	Direction string
	// Today anchors the upcoming/past split; it is compared as a plain date.
	Today calendar.Date
}

// ScheduleSpec builds the schedule list query. Upcoming includes today.
func ScheduleSpec(opts ScheduleOptions) (query.Spec[domain.Schedule], error) {
	spec := query.Spec[domain.Schedule]{
		SearchText: strings.TrimSpace(opts.Search),
		SearchFields: []query.Extractor[domain.Schedule]{
			query.Field(func(s domain.Schedule) string { return s.ClientName }),
			query.Field(func(s domain.Schedule) string { return s.Description }),
			query.Fields(func(s domain.Schedule) []string {
				if s.Property == nil {
					return nil
				}
				return []string{s.Property.Name, s.Property.Address}
			}),
		},
		Sort:      query.By(func(s domain.Schedule) string { return dateKey(s.Date) }),
		Direction: query.ParseDirection(opts.Direction),
	}
	var status domain.ScheduleStatus
	if opts.Status != "" && opts.Status != WhenAll {
		s, err := domain.ParseScheduleStatus(opts.Status)
		if err != nil {
			return spec, err
		}
		status = s
	}
	when := opts.When
	switch when {
	case "", WhenAll, WhenUpcoming, WhenPast:
	default:
		return spec, domain.InvalidArgument("when", when, "expected all, upcoming or past")
	}
	today := opts.Today
	if status != "" || when == WhenUpcoming || when == WhenPast {
		spec.Filter = func(s domain.Schedule) bool {
			if status != "" && s.Status != status {
				return false
			}
			if when == WhenUpcoming || when == WhenPast {
				d, err := calendar.ParseDate(s.Date)
				if err != nil {
					return false
				}
				if when == WhenUpcoming && d.Before(today) {
					return false
				}
				if when == WhenPast && !d.Before(today) {
					return false
				}
			}
			return true
		}
	}
	return spec, nil
}

func dateKey(s string) string {
	if i := strings.IndexByte(s, 'T'); i >= 0 {
		return s[:i]
	}
	return s
}

func Properties(records []domain.Property, opts PropertyOptions) ([]domain.Property, error) {
	spec, err := PropertySpec(opts)
	if err != nil {
		return nil, err
	}
	return query.Run(records, spec), nil
}

func Clients(records []domain.Client, opts ClientOptions) ([]domain.Client, error) {
	spec, err := ClientSpec(opts)
	if err != nil {
		return nil, err
	}
	return query.Run(records, spec), nil
}

func Schedules(records []domain.Schedule, opts ScheduleOptions) ([]domain.Schedule, error) {
	spec, err := ScheduleSpec(opts)
	if err != nil {
		return nil, err
	}
	return query.Run(records, spec), nil
}
