package engine

import (
	"context"
	"time"

	"brokerdesk/internal/calendar"
	"brokerdesk/internal/domain"
	"brokerdesk/internal/events"
	"brokerdesk/internal/repo"
	"brokerdesk/internal/views"
)

// DayCell is one day of a month view.
type DayCell struct {
	Day       int               `json:"day"`
	Date      string            `json:"date" format:"date"`
	Today     bool              `json:"today"`
	Schedules []domain.Schedule `json:"schedules"`
}

// MonthView is a bucketed month ready for rendering.
type MonthView struct {
	Month  calendar.YearMonth `json:"month"`
	Grid   calendar.Grid      `json:"grid"`
	Days   []DayCell          `json:"days"`
	Total  int                `json:"total"`
	Status string             `json:"status,omitempty"`
}

// MonthCalendar buckets the actor's appointments for year/month. A
// non-empty status keeps only appointments in that status.
func (e Engine) MonthCalendar(ctx context.Context, actorID string, year int, month time.Month, status string) (MonthView, error) {
	ym := calendar.YearMonth{Year: year, Month: month}
	if err := ym.Validate(); err != nil {
		return MonthView{}, err
	}
	idx, err := e.monthIndex(ctx, actorID, ym, status)
	if err != nil {
		return MonthView{}, err
	}
	today := e.Today()
	view := MonthView{
		Month:  ym,
		Grid:   calendar.MonthGrid(ym, e.weekStart()),
		Days:   make([]DayCell, 0, idx.DaysInMonth()),
		Total:  idx.Len(),
		Status: status,
	}
	idx.Days(func(day int, records []domain.Schedule) {
		d := ym.Date(day)
		view.Days = append(view.Days, DayCell{Day: day, Date: d.String(), Today: d == today, Schedules: records})
	})
	return view, nil
}

func (e Engine) monthIndex(ctx context.Context, actorID string, ym calendar.YearMonth, status string) (*calendar.Index[domain.Schedule], error) {
	records, err := e.scopedSchedules(ctx, actorID, repo.ScheduleFilters{
		From: ym.Date(1).String(),
		To:   ym.Date(ym.Days()).String(),
	})
	if err != nil {
		return nil, err
	}
	if status != "" {
		records, err = views.Schedules(records, views.ScheduleOptions{Status: status})
		if err != nil {
			return nil, err
		}
	}
	return views.BuildSchedules(records, ym.Year, ym.Month)
}

// DayAgenda returns the appointments of one date in stored order.
func (e Engine) DayAgenda(ctx context.Context, actorID, date string) ([]domain.Schedule, error) {
	d, err := calendar.ParseDate(date)
	if err != nil {
		return nil, err
	}
	idx, err := e.monthIndex(ctx, actorID, d.YearMonth(), "")
	if err != nil {
		return nil, err
	}
	return idx.BucketFor(d.Day)
}

// FirstUpcoming returns the earliest appointment on or after today, used
// to jump the calendar to the next visit.
func (e Engine) FirstUpcoming(ctx context.Context, actorID string) (domain.Schedule, error) {
	records, err := e.scopedSchedules(ctx, actorID, repo.ScheduleFilters{From: e.Today().String()})
	if err != nil {
		return domain.Schedule{}, err
	}
	for _, s := range records {
		if s.Status != domain.StatusCancelled {
			return s, nil
		}
	}
	return domain.Schedule{}, repo.ErrNotFound
}

// Digest groups one advisor's appointments for a reminder.
type Digest struct {
	AdvisorID string            `json:"advisor_id"`
	Date      string            `json:"date" format:"date"`
	Schedules []domain.Schedule `json:"schedules"`
}

// Reminders collects, per advisor, the appointments of date that are still
// expected to happen.
func (e Engine) Reminders(ctx context.Context, date calendar.Date) ([]Digest, error) {
	records, err := e.Repo.ListSchedules(ctx, repo.ScheduleFilters{From: date.String(), To: date.String()})
	if err != nil {
		return nil, err
	}
	digests := []Digest{}
	pos := map[string]int{}
	for _, s := range records {
		switch s.Status {
		case domain.StatusPending, domain.StatusConfirmed, domain.StatusPostponed:
		default:
			continue
		}
		i, ok := pos[s.AdvisorID]
		if !ok {
			i = len(digests)
			pos[s.AdvisorID] = i
			digests = append(digests, Digest{AdvisorID: s.AdvisorID, Date: date.String()})
		}
		digests[i].Schedules = append(digests[i].Schedules, s)
	}
	return digests, nil
}

// RecordReminders logs a sent digest in the activity log.
func (e Engine) RecordReminders(ctx context.Context, d Digest) error {
	tx, err := e.begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	ids := make([]string, 0, len(d.Schedules))
	for _, s := range d.Schedules {
		ids = append(ids, s.ID)
	}
	if err := e.appendEvent(ctx, tx, events.RemindersSent, d.AdvisorID, "advisor", d.AdvisorID, events.EventPayload{"date": d.Date, "schedule_ids": ids}); err != nil {
		return err
	}
	return tx.Commit()
}
