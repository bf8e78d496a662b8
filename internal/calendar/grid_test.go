package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMonthGridSundayStart(t *testing.T) {
	// March 2024 begins on a Friday.
	g := MonthGrid(YearMonth{2024, time.March}, time.Sunday)
	assert.Equal(t, 5, g.LeadingBlanks)
	assert.Len(t, g.Weeks, 6)
	assert.Equal(t, [7]int{0, 0, 0, 0, 0, 1, 2}, g.Weeks[0])
	assert.Equal(t, [7]int{31, 0, 0, 0, 0, 0, 0}, g.Weeks[5])
	assert.Equal(t, time.Sunday, g.Weekdays[0])
}

func TestMonthGridMondayStart(t *testing.T) {
	g := MonthGrid(YearMonth{2024, time.March}, time.Monday)
	assert.Equal(t, 4, g.LeadingBlanks)
	assert.Len(t, g.Weeks, 5)
	assert.Equal(t, time.Sunday, g.Weekdays[6])
}

func TestMonthGridExactWeeks(t *testing.T) {
	// February 2015 starts on a Sunday and has 28 days.
	g := MonthGrid(YearMonth{2015, time.February}, time.Sunday)
	assert.Equal(t, 0, g.LeadingBlanks)
	assert.Len(t, g.Weeks, 4)
	assert.Equal(t, 28, g.Weeks[3][6])
}

func TestParseWeekday(t *testing.T) {
	d, ok := ParseWeekday("Monday")
	assert.True(t, ok)
	assert.Equal(t, time.Monday, d)
	_, ok = ParseWeekday("someday")
	assert.False(t, ok)
}
