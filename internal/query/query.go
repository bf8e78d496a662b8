// Package query filters and sorts in-memory record lists. The same engine
// serves every list view; callers describe their records through extractor
// and comparison functions.
package query

import (
	"cmp"
	"slices"
	"strings"
)

type Direction int

const (
	Ascending Direction = iota
	Descending
)

// ParseDirection maps "asc"/"desc" to a Direction; anything else is
// Ascending.
func ParseDirection(s string) Direction {
	if strings.EqualFold(strings.TrimSpace(s), "desc") {
		return Descending
	}
	return Ascending
}

func (d Direction) String() string {
	if d == Descending {
		return "desc"
	}
	return "asc"
}

// Extractor returns the searchable text of a record. Nested collections
// return one value per element.
type Extractor[T any] func(T) []string

// Compare orders two records; zero means equal under the sort key.
type Compare[T any] func(a, b T) int

// Spec describes one list query.
type Spec[T any] struct {
	// SearchText is matched as a case-insensitive substring. Empty matches
	// every record.
	SearchText   string
	SearchFields []Extractor[T]
	// Filter, when set, must return true for a record to be kept.
	Filter    func(T) bool
	Sort      Compare[T]
	Direction Direction
}

// Field adapts a single-string accessor.
func Field[T any](fn func(T) string) Extractor[T] {
	return func(rec T) []string { return []string{fn(rec)} }
}

// Fields adapts an accessor over a nested collection.
func Fields[T any](fn func(T) []string) Extractor[T] {
	return Extractor[T](fn)
}

// By compares records on an ordered key.
func By[T any, K cmp.Ordered](key func(T) K) Compare[T] {
	return func(a, b T) int { return cmp.Compare(key(a), key(b)) }
}

// ByFold compares records on a string key ignoring case.
func ByFold[T any](key func(T) string) Compare[T] {
	return func(a, b T) int { return strings.Compare(strings.ToLower(key(a)), strings.ToLower(key(b))) }
}

// Run returns the records kept by spec, stably sorted. records is never
// modified. Panics raised by extractors propagate to the caller.
func Run[T any](records []T, spec Spec[T]) []T {
	needle := strings.ToLower(spec.SearchText)
	out := make([]T, 0, len(records))
	for _, rec := range records {
		if spec.Filter != nil && !spec.Filter(rec) {
			continue
		}
		if needle != "" && !matches(rec, needle, spec.SearchFields) {
			continue
		}
		out = append(out, rec)
	}
	if spec.Sort != nil {
		less := spec.Sort
		if spec.Direction == Descending {
			less = func(a, b T) int { return spec.Sort(b, a) }
		}
		slices.SortStableFunc(out, less)
	}
	return out
}

func matches[T any](rec T, needle string, fields []Extractor[T]) bool {
	for _, field := range fields {
		for _, v := range field(rec) {
			if strings.Contains(strings.ToLower(v), needle) {
				return true
			}
		}
	}
	return false
}

// Then chains a secondary comparison used when primary reports a tie.
func Then[T any](primary, secondary Compare[T]) Compare[T] {
	return func(a, b T) int {
		if c := primary(a, b); c != 0 {
			return c
		}
		return secondary(a, b)
	}
}
