package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"brokerdesk/internal/calendar"
	"brokerdesk/internal/domain"
	"brokerdesk/internal/engine"
)

func TestRenderMonthShowsClientsOnTheirDay(t *testing.T) {
	ym := calendar.YearMonth{Year: 2024, Month: time.February}
	view := engine.MonthView{
		Month: ym,
		Grid:  calendar.MonthGrid(ym, time.Monday),
		Total: 1,
	}
	for day := 1; day <= ym.Days(); day++ {
		cell := engine.DayCell{Day: day, Date: ym.Date(day).String(), Schedules: []domain.Schedule{}}
		if day == 29 {
			cell.Schedules = []domain.Schedule{{ClientName: "Marta Gil", Status: domain.StatusConfirmed}}
		}
		view.Days = append(view.Days, cell)
	}
	var buf bytes.Buffer
	renderMonth(&buf, view)
	out := buf.String()
	assert.Contains(t, out, "February 2024")
	assert.Contains(t, strings.ToUpper(out), "MON")
	assert.Contains(t, out, "29")
	assert.Contains(t, out, "Marta Gil")
	assert.Contains(t, out, "1 appointments")
}

func TestTruncateKeepsShortNames(t *testing.T) {
	assert.Equal(t, "Ana", truncate("Ana", 10))
	assert.Equal(t, "Alejandr…", truncate("Alejandra Ruiz", 9))
}
