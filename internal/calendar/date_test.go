package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brokerdesk/internal/domain"
)

func TestDaysInMonthLeapYears(t *testing.T) {
	cases := []struct {
		year  int
		month time.Month
		want  int
	}{
		{2024, time.February, 29},
		{2023, time.February, 28},
		{2000, time.February, 29},
		{1900, time.February, 28},
		{2024, time.January, 31},
		{2024, time.April, 30},
		{2024, time.December, 31},
	}
	for _, tc := range cases {
		got, err := DaysInMonth(tc.year, tc.month)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "%d-%02d", tc.year, tc.month)
	}
}

func TestDaysInMonthRejectsInvalidMonth(t *testing.T) {
	for _, m := range []time.Month{0, 13, -1} {
		_, err := DaysInMonth(2024, m)
		assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	}
}

func TestParseDateTruncatesTime(t *testing.T) {
	d, err := ParseDate("2024-03-05T23:30:00-05:00")
	require.NoError(t, err)
	assert.Equal(t, Date{Year: 2024, Month: time.March, Day: 5}, d)

	d, err = ParseDate("2024-03-06")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-06", d.String())

	_, err = ParseDate("05/03/2024")
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestYearMonthRollover(t *testing.T) {
	assert.Equal(t, YearMonth{2025, time.January}, YearMonth{2024, time.December}.Next())
	assert.Equal(t, YearMonth{2023, time.December}, YearMonth{2024, time.January}.Prev())
	assert.Equal(t, YearMonth{2024, time.July}, YearMonth{2024, time.June}.Next())
}

func TestDateArithmetic(t *testing.T) {
	d := Date{2024, time.February, 28}
	assert.Equal(t, Date{2024, time.February, 29}, d.AddDays(1))
	assert.Equal(t, Date{2024, time.March, 1}, d.AddDays(2))
	assert.True(t, d.Before(d.AddDays(1)))
	assert.Equal(t, 0, d.Compare(d))
}
