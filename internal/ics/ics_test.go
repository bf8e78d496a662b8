package ics

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brokerdesk/internal/calendar"
	"brokerdesk/internal/domain"
)

func TestExportRoundTrip(t *testing.T) {
	schedules := []domain.Schedule{
		{ID: "s1", Date: "2024-03-10", ClientName: "Ana", Description: "first visit", Status: domain.StatusConfirmed,
			Property: &domain.ScheduleProperty{Name: "Casa Moderna", Address: "Av. Sol 1"}},
		{ID: "s2", Date: "2024-03-11T15:00:00", ClientName: "Luis", Status: domain.StatusNoShow},
		{ID: "bad", Date: "soon", ClientName: "Nobody"},
	}
	out := Export(schedules, ExportOptions{Name: "Ana's visits", Now: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)})
	assert.Contains(t, out, "UID:s1@brokerdesk")
	assert.Contains(t, out, "STATUS:CONFIRMED")
	assert.NotContains(t, out, "Nobody")

	drafts, skipped, err := Parse(strings.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 0, skipped)
	require.Len(t, drafts, 2)
	assert.Equal(t, calendar.Date{Year: 2024, Month: time.March, Day: 10}, drafts[0].Date)
	assert.Equal(t, "Ana @ Casa Moderna", drafts[0].ClientName)
	assert.Equal(t, "first visit", drafts[0].Description)
	assert.Equal(t, domain.StatusConfirmed, drafts[0].Status)
	assert.Equal(t, domain.StatusNoShow, drafts[1].Status)
	assert.Equal(t, 11, drafts[1].Date.Day)
}

func TestParseForeignCalendar(t *testing.T) {
	body := strings.Join([]string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//other//EN",
		"BEGIN:VEVENT",
		"UID:x1",
		"DTSTAMP:20240101T000000Z",
		"DTSTART:20240105T140000Z",
		"SUMMARY:Open house",
		"STATUS:CANCELLED",
		"RRULE:FREQ=WEEKLY;COUNT=3",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:x2",
		"DTSTAMP:20240101T000000Z",
		"SUMMARY:no start",
		"END:VEVENT",
		"END:VCALENDAR",
		"",
	}, "\r\n")
	drafts, skipped, err := Parse(strings.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, 1, skipped)
	require.Len(t, drafts, 1)
	assert.Equal(t, domain.StatusCancelled, drafts[0].Status)
	assert.Equal(t, "FREQ=WEEKLY;COUNT=3", drafts[0].RRule)
	assert.Equal(t, calendar.Date{Year: 2024, Month: time.January, Day: 5}, drafts[0].Date)
}

func TestExpandBounded(t *testing.T) {
	first := calendar.Date{Year: 2024, Month: time.January, Day: 31}
	dates, truncated, err := Expand(first, "RRULE:FREQ=WEEKLY;COUNT=3", 0)
	require.NoError(t, err)
	assert.False(t, truncated)
	require.Len(t, dates, 3)
	assert.Equal(t, calendar.Date{Year: 2024, Month: time.February, Day: 14}, dates[2])
}

func TestExpandUnboundedIsCapped(t *testing.T) {
	first := calendar.Date{Year: 2024, Month: time.January, Day: 1}
	dates, truncated, err := Expand(first, "FREQ=DAILY", 10)
	require.NoError(t, err)
	assert.True(t, truncated)
	assert.Len(t, dates, 10)
}

func TestExpandEmptyRuleAndErrors(t *testing.T) {
	first := calendar.Date{Year: 2024, Month: time.January, Day: 1}
	dates, _, err := Expand(first, "", 0)
	require.NoError(t, err)
	assert.Equal(t, []calendar.Date{first}, dates)

	_, _, err = Expand(first, "FREQ=SOMETIMES", 0)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}
