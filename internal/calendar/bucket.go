package calendar

import (
	"slices"
	"time"

	"brokerdesk/internal/domain"
)

// Index groups records of one month by day of month. Records keep their
// input order inside each bucket.
type Index[T any] struct {
	month   YearMonth
	buckets [][]T
	total   int
}

// Build places every record whose date falls in year/month into its day's
// bucket in a single pass. Records with unparseable dates are skipped.
func Build[T any](records []T, dateOf func(T) string, year int, month time.Month) (*Index[T], error) {
	ym := YearMonth{Year: year, Month: month}
	days, err := DaysInMonth(year, month)
	if err != nil {
		return nil, err
	}
	idx := &Index[T]{month: ym, buckets: make([][]T, days+1)}
	for _, rec := range records {
		d, err := ParseDate(dateOf(rec))
		if err != nil {
			continue
		}
		if d.Year != year || d.Month != month {
			continue
		}
		idx.buckets[d.Day] = append(idx.buckets[d.Day], rec)
		idx.total++
	}
	return idx, nil
}

func (idx *Index[T]) Month() YearMonth { return idx.month }

// Len is the number of records that landed in the month.
func (idx *Index[T]) Len() int { return idx.total }

// DaysInMonth is the highest valid day for BucketFor.
func (idx *Index[T]) DaysInMonth() int { return len(idx.buckets) - 1 }

// BucketFor returns a copy of the records of day, or an empty slice when
// there are none.
func (idx *Index[T]) BucketFor(day int) ([]T, error) {
	if day < 1 || day >= len(idx.buckets) {
		return nil, domain.InvalidArgument("day", day, "outside of "+idx.month.String())
	}
	return idx.bucket(day), nil
}

// Days calls fn for every day of the month in order, empty days included.
// fn receives copies and may keep or modify them.
func (idx *Index[T]) Days(fn func(day int, records []T)) {
	for day := 1; day < len(idx.buckets); day++ {
		fn(day, idx.bucket(day))
	}
}

func (idx *Index[T]) bucket(day int) []T {
	if idx.buckets[day] == nil {
		return []T{}
	}
	return slices.Clone(idx.buckets[day])
}
