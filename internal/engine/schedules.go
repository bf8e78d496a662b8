package engine

import (
	"context"
	"errors"
	"io"
	"strings"

	"brokerdesk/internal/calendar"
	"brokerdesk/internal/domain"
	"brokerdesk/internal/engine/auth"
	"brokerdesk/internal/events"
	"brokerdesk/internal/ics"
	"brokerdesk/internal/query"
	"brokerdesk/internal/repo"
	"brokerdesk/internal/views"
)

// ScheduleCreateOptions describe one appointment or, with RRule, a series.
type ScheduleCreateOptions struct {
	ActorID     string
	Date        string
	ClientName  string
	Description string
	PropertyID  string
	Status      string
	// RRule is an RFC 5545 recurrence rule without DTSTART, e.g.
	// FREQ=WEEKLY;COUNT=4. Date is the first occurrence.
	RRule string
	// SourceUID marks every occurrence as imported from that iCalendar UID.
	SourceUID string
}

// CreateSchedule stores the appointment and any recurrences in one
// transaction. Status defaults to pending.
func (e Engine) CreateSchedule(ctx context.Context, opts ScheduleCreateOptions) ([]domain.Schedule, error) {
	if err := e.Auth.Require(ctx, nil, opts.ActorID, auth.PermScheduleWrite); err != nil {
		return nil, err
	}
	if err := required("client_name", opts.ClientName); err != nil {
		return nil, err
	}
	first, err := calendar.ParseDate(opts.Date)
	if err != nil {
		return nil, err
	}
	status := domain.StatusPending
	if opts.Status != "" {
		if status, err = domain.ParseScheduleStatus(opts.Status); err != nil {
			return nil, err
		}
	}
	var prop *domain.ScheduleProperty
	if opts.PropertyID != "" {
		p, err := e.GetProperty(ctx, opts.ActorID, opts.PropertyID)
		if errors.Is(err, repo.ErrNotFound) {
			return nil, domain.InvalidArgument("property_id", opts.PropertyID, "unknown property")
		}
		if err != nil {
			return nil, err
		}
		prop = &domain.ScheduleProperty{ID: p.ID, Name: p.Title, Address: p.Address}
	}
	limit := 0
	if e.Config != nil {
		limit = e.Config.Calendar.MaxOccurrences
	}
	dates, truncated, err := ics.Expand(first, opts.RRule, limit)
	if err != nil {
		return nil, err
	}
	seriesID := ""
	if strings.TrimSpace(opts.RRule) != "" {
		seriesID = newID()
	}
	now := e.stamp()
	tx, err := e.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()
	out := make([]domain.Schedule, 0, len(dates))
	for _, d := range dates {
		s := domain.Schedule{
			ID:          newID(),
			AdvisorID:   opts.ActorID,
			Date:        d.String(),
			ClientName:  strings.TrimSpace(opts.ClientName),
			Description: opts.Description,
			Status:      status,
			Property:    prop,
			SeriesID:    seriesID,
			SourceUID:   opts.SourceUID,
			CreatedAt:   now,
		}
		if err := e.Repo.InsertSchedule(ctx, tx, s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	payload := events.EventPayload{"date": first.String(), "client_name": opts.ClientName, "status": string(status), "count": len(out)}
	if seriesID != "" {
		payload["series_id"] = seriesID
		payload["rrule"] = opts.RRule
		payload["truncated"] = truncated
	}
	if err := e.appendEvent(ctx, tx, events.ScheduleCreated, opts.ActorID, "schedule", out[0].ID, payload); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return out, nil
}

func (e Engine) GetSchedule(ctx context.Context, actorID, id string) (domain.Schedule, error) {
	scope, err := e.Auth.Scope(ctx, nil, actorID)
	if err != nil {
		return domain.Schedule{}, err
	}
	s, err := e.Repo.GetSchedule(ctx, nil, id)
	if err != nil {
		return domain.Schedule{}, err
	}
	if !visible(scope, s.AdvisorID) {
		return domain.Schedule{}, repo.ErrNotFound
	}
	return s, nil
}

// UpdateScheduleStatus moves an appointment to any status of the fixed set.
func (e Engine) UpdateScheduleStatus(ctx context.Context, actorID, id, status string) (domain.Schedule, error) {
	if err := e.Auth.Require(ctx, nil, actorID, auth.PermScheduleWrite); err != nil {
		return domain.Schedule{}, err
	}
	next, err := domain.ParseScheduleStatus(status)
	if err != nil {
		return domain.Schedule{}, err
	}
	s, err := e.GetSchedule(ctx, actorID, id)
	if err != nil {
		return domain.Schedule{}, err
	}
	if s.Status == next {
		return s, nil
	}
	tx, err := e.begin(ctx)
	if err != nil {
		return domain.Schedule{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.UpdateScheduleStatus(ctx, tx, id, next); err != nil {
		return domain.Schedule{}, err
	}
	if err := e.appendEvent(ctx, tx, events.ScheduleStatusChanged, actorID, "schedule", id, events.EventPayload{"from": string(s.Status), "to": string(next)}); err != nil {
		return domain.Schedule{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Schedule{}, err
	}
	s.Status = next
	return s, nil
}

// ListSchedules runs the schedule list view. A zero Today means the
// current office date.
func (e Engine) ListSchedules(ctx context.Context, actorID string, opts views.ScheduleOptions) ([]domain.Schedule, error) {
	if opts.Today == (calendar.Date{}) {
		opts.Today = e.Today()
	}
	spec, err := views.ScheduleSpec(opts)
	if err != nil {
		return nil, err
	}
	records, err := e.scopedSchedules(ctx, actorID, repo.ScheduleFilters{})
	if err != nil {
		return nil, err
	}
	return query.Run(records, spec), nil
}

func (e Engine) scopedSchedules(ctx context.Context, actorID string, f repo.ScheduleFilters) ([]domain.Schedule, error) {
	scope, err := e.Auth.Scope(ctx, nil, actorID)
	if err != nil {
		return nil, err
	}
	f.AdvisorID = scope
	return e.Repo.ListSchedules(ctx, f)
}

// ExportSchedules renders the filtered schedule list as iCalendar.
func (e Engine) ExportSchedules(ctx context.Context, actorID string, opts views.ScheduleOptions) (string, error) {
	records, err := e.ListSchedules(ctx, actorID, opts)
	if err != nil {
		return "", err
	}
	name := ""
	if e.Config != nil {
		name = e.Config.Office.Name
	}
	return ics.Export(records, ics.ExportOptions{Name: name, Now: e.now()}), nil
}

// ImportResult reports an iCalendar import.
// Duplicates counts events whose UID the advisor already imported or
// exported.
type ImportResult struct {
	Created    []domain.Schedule `json:"created"`
	Skipped    int               `json:"skipped"`
	Duplicates int               `json:"duplicates"`
}

// ImportSchedules creates appointments from VEVENTs. Recurring events are
// expanded like CreateSchedule. Events whose UID was seen before are not
// imported again.
func (e Engine) ImportSchedules(ctx context.Context, actorID string, r io.Reader) (ImportResult, error) {
	if err := e.Auth.Require(ctx, nil, actorID, auth.PermScheduleWrite); err != nil {
		return ImportResult{}, err
	}
	drafts, skipped, err := ics.Parse(r)
	if err != nil {
		return ImportResult{}, domain.InvalidArgument("ics", "", err.Error())
	}
	res := ImportResult{Created: []domain.Schedule{}, Skipped: skipped}
	for _, d := range drafts {
		if d.UID != "" {
			localID, own := strings.CutSuffix(d.UID, ics.UIDSuffix)
			if !own {
				localID = ""
			}
			seen, err := e.Repo.HasScheduleUID(ctx, actorID, d.UID, localID)
			if err != nil {
				return res, err
			}
			if seen {
				res.Duplicates++
				continue
			}
		}
		created, err := e.CreateSchedule(ctx, ScheduleCreateOptions{
			ActorID:     actorID,
			Date:        d.Date.String(),
			ClientName:  d.ClientName,
			Description: strings.TrimSpace(strings.Join([]string{d.Description, d.Location}, "\n")),
			Status:      string(d.Status),
			RRule:       d.RRule,
			SourceUID:   d.UID,
		})
		if errors.Is(err, domain.ErrInvalidArgument) {
			res.Skipped++
			continue
		}
		if err != nil {
			return res, err
		}
		res.Created = append(res.Created, created...)
	}
	return res, nil
}
