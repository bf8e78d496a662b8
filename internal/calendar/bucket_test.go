package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brokerdesk/internal/domain"
)

type visit struct {
	date   string
	client string
}

func visitDate(v visit) string { return v.date }

func clients(vs []visit) []string {
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		out = append(out, v.client)
	}
	return out
}

func TestBuildGroupsByDay(t *testing.T) {
	events := []visit{
		{"2024-03-05", "A"},
		{"2024-03-05", "B"},
		{"2024-03-06", "C"},
	}
	idx, err := Build(events, visitDate, 2024, time.March)
	require.NoError(t, err)

	day5, err := idx.BucketFor(5)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, clients(day5))

	day6, err := idx.BucketFor(6)
	require.NoError(t, err)
	assert.Equal(t, []string{"C"}, clients(day6))

	day1, err := idx.BucketFor(1)
	require.NoError(t, err)
	assert.Empty(t, day1)
	assert.NotNil(t, day1)
	assert.Equal(t, 3, idx.Len())
}

func TestBuildKeepsOnlyTargetMonthInInputOrder(t *testing.T) {
	events := []visit{
		{"2024-03-10T09:00:00Z", "first"},
		{"2024-04-10", "other-month"},
		{"2023-03-10", "other-year"},
		{"not a date", "broken"},
		{"2024-03-10", "second"},
		{"2024-03-31", "last"},
	}
	idx, err := Build(events, visitDate, 2024, time.March)
	require.NoError(t, err)

	var all []string
	idx.Days(func(day int, records []visit) {
		for _, r := range records {
			d, err := ParseDate(r.date)
			require.NoError(t, err)
			assert.Equal(t, day, d.Day)
		}
		all = append(all, clients(records)...)
	})
	assert.Equal(t, []string{"first", "second", "last"}, all)
	assert.Equal(t, 31, idx.DaysInMonth())
}

func TestBucketForRejectsOutOfRangeDays(t *testing.T) {
	idx, err := Build(nil, visitDate, 2023, time.February)
	require.NoError(t, err)
	for _, day := range []int{0, 29, -3} {
		_, err := idx.BucketFor(day)
		assert.ErrorIs(t, err, domain.ErrInvalidArgument, "day %d", day)
	}
	_, err = idx.BucketFor(28)
	assert.NoError(t, err)
}

func TestBucketsAreCopies(t *testing.T) {
	idx, err := Build([]visit{{"2024-03-05", "A"}, {"2024-03-05", "B"}}, visitDate, 2024, time.March)
	require.NoError(t, err)

	b, err := idx.BucketFor(5)
	require.NoError(t, err)
	b[0].client = "mutated"
	_ = append(b[:1], visit{"2024-03-05", "C"})

	again, err := idx.BucketFor(5)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, clients(again))

	idx.Days(func(day int, records []visit) {
		for i := range records {
			records[i].client = "x"
		}
	})
	again, err = idx.BucketFor(5)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, clients(again))
}

func TestBuildRejectsInvalidMonth(t *testing.T) {
	_, err := Build([]visit{{"2024-03-05", "A"}}, visitDate, 2024, 13)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestBuildLeapDay(t *testing.T) {
	events := []visit{{"2024-02-29", "leap"}}
	idx, err := Build(events, visitDate, 2024, time.February)
	require.NoError(t, err)
	got, err := idx.BucketFor(29)
	require.NoError(t, err)
	assert.Equal(t, []string{"leap"}, clients(got))
}
