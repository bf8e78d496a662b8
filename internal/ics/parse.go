package ics

import (
	"errors"
	"io"
	"strings"

	ical "github.com/arran4/golang-ical"

	"brokerdesk/internal/calendar"
	"brokerdesk/internal/domain"
)

// Draft is an appointment read from an external calendar, not yet stored.
type Draft struct {
	UID         string
	Date        calendar.Date
	ClientName  string
	Description string
	Location    string
	Status      domain.ScheduleStatus
	RRule       string
}

// Parse reads VEVENTs from r. Events without a usable DTSTART are skipped;
// the count of skipped events is returned alongside the drafts.
func Parse(r io.Reader) ([]Draft, int, error) {
	cal, err := ical.ParseCalendar(r)
	if err != nil {
		return nil, 0, err
	}
	drafts := []Draft{}
	skipped := 0
	for _, ve := range cal.Events() {
		d, err := parseEvent(ve)
		if err != nil {
			skipped++
			continue
		}
		drafts = append(drafts, d)
	}
	return drafts, skipped, nil
}

func parseEvent(ve *ical.VEvent) (Draft, error) {
	var out Draft
	if p := ve.GetProperty(ical.ComponentPropertyUniqueId); p != nil {
		out.UID = p.Value
	}
	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil || dtStart.Value == "" {
		return out, errors.New("missing DTSTART")
	}
	var date calendar.Date
	if strings.Contains(dtStart.Value, "T") {
		start, err := ve.GetStartAt()
		if err != nil {
			return out, err
		}
		date = calendar.DateOf(start)
	} else {
		start, err := ve.GetAllDayStartAt()
		if err != nil {
			return out, err
		}
		date = calendar.Date{Year: start.Year(), Month: start.Month(), Day: start.Day()}
	}
	out.Date = date
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.ClientName = p.Value
	}
	if out.ClientName == "" {
		return out, errors.New("missing SUMMARY")
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		out.Description = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		out.Location = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		out.RRule = p.Value
	}
	out.Status = domain.StatusPending
	if p := ve.GetProperty(ical.ComponentProperty("X-BROKERDESK-STATUS")); p != nil {
		if s, err := domain.ParseScheduleStatus(p.Value); err == nil {
			out.Status = s
		}
	} else if p := ve.GetProperty(ical.ComponentPropertyStatus); p != nil {
		switch strings.ToUpper(p.Value) {
		case string(ical.ObjectStatusConfirmed):
			out.Status = domain.StatusConfirmed
		case string(ical.ObjectStatusCancelled):
			out.Status = domain.StatusCancelled
		}
	}
	return out, nil
}
