// Package ics converts appointments to and from iCalendar and expands
// recurrence rules into concrete dates.
package ics

import (
	"time"

	ical "github.com/arran4/golang-ical"

	"brokerdesk/internal/calendar"
	"brokerdesk/internal/domain"
)

const ProductID = "-//brokerdesk//appointments//EN"

// UIDSuffix follows the appointment id in exported UIDs.
const UIDSuffix = "@brokerdesk"

type ExportOptions struct {
	// Name becomes X-WR-CALNAME when set.
	Name string
	Now  time.Time
}

// Export renders appointments as all-day VEVENTs. Appointments whose date
// cannot be parsed are skipped.
func Export(schedules []domain.Schedule, opts ExportOptions) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(ProductID)
	if opts.Name != "" {
		cal.SetXWRCalName(opts.Name)
	}
	stamp := opts.Now.UTC()
	for _, s := range schedules {
		d, err := calendar.ParseDate(s.Date)
		if err != nil {
			continue
		}
		ev := cal.AddEvent(s.ID + UIDSuffix)
		ev.SetDtStampTime(stamp)
		ev.SetAllDayStartAt(d.Time())
		ev.SetAllDayEndAt(d.AddDays(1).Time())
		ev.SetSummary(summary(s))
		if s.Description != "" {
			ev.SetDescription(s.Description)
		}
		if s.Property != nil {
			loc := s.Property.Name
			if s.Property.Address != "" {
				loc += ", " + s.Property.Address
			}
			ev.SetLocation(loc)
		}
		ev.SetStatus(objectStatus(s.Status))
		ev.AddProperty(ical.ComponentProperty("X-BROKERDESK-STATUS"), string(s.Status))
		if s.SeriesID != "" {
			ev.AddProperty(ical.ComponentProperty("X-BROKERDESK-SERIES"), s.SeriesID)
		}
	}
	return cal.Serialize()
}

func summary(s domain.Schedule) string {
	if s.Property != nil && s.Property.Name != "" {
		return s.ClientName + " @ " + s.Property.Name
	}
	return s.ClientName
}

func objectStatus(s domain.ScheduleStatus) ical.ObjectStatus {
	switch s {
	case domain.StatusCancelled:
		return ical.ObjectStatusCancelled
	case domain.StatusPending, domain.StatusPostponed:
		return ical.ObjectStatusTentative
	default:
		return ical.ObjectStatusConfirmed
	}
}
