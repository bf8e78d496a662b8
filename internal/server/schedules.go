package server

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"brokerdesk/internal/domain"
	"brokerdesk/internal/engine"
	"brokerdesk/internal/views"
)

// ScheduleQuery holds the list filters shared by listing and export.
type ScheduleQuery struct {
	Search    string `query:"q"`
	When      string `query:"when" enum:"all,upcoming,past"`
	Status    string `query:"status"`
	Direction string `query:"dir" enum:"asc,desc"`
}

func (q ScheduleQuery) options() views.ScheduleOptions {
	return views.ScheduleOptions{Search: q.Search, When: q.When, Status: q.Status, Direction: q.Direction}
}

func registerSchedules(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-schedule",
		Method:        http.MethodPost,
		Path:          "/schedules",
		Summary:       "Book an appointment or a recurring series",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		Body CreateScheduleRequest `json:"body"`
	}) (*struct {
		Body []domain.Schedule `json:"body"`
	}, error) {
		actor, authErr := advisorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		b := input.Body
		created, err := e.CreateSchedule(ctx, engine.ScheduleCreateOptions{
			ActorID:     actor,
			Date:        b.Date,
			ClientName:  b.ClientName,
			Description: b.Description,
			PropertyID:  b.PropertyID,
			Status:      b.Status,
			RRule:       b.RRule,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Schedule `json:"body"`
		}{Body: created}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-schedules",
		Method:      http.MethodGet,
		Path:        "/schedules",
		Summary:     "Search, filter and sort appointments",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		ScheduleQuery
		Group bool `query:"group" doc:"Also group items by date"`
	}) (*struct {
		Body scheduleList `json:"body"`
	}, error) {
		actor, authErr := advisorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		items, err := e.ListSchedules(ctx, actor, input.options())
		if err != nil {
			return nil, handleError(err)
		}
		resp := scheduleList{Items: nonNilSlice(items)}
		if input.Group {
			resp.Groups = views.GroupByDate(items)
		}
		return &struct {
			Body scheduleList `json:"body"`
		}{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "export-schedules",
		Method:      http.MethodGet,
		Path:        "/schedules.ics",
		Summary:     "Export appointments as iCalendar",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *ScheduleQuery) (*struct {
		ContentType        string `header:"Content-Type"`
		ContentDisposition string `header:"Content-Disposition"`
		Body               []byte
	}, error) {
		actor, authErr := advisorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		out, err := e.ExportSchedules(ctx, actor, input.options())
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			ContentType        string `header:"Content-Type"`
			ContentDisposition string `header:"Content-Disposition"`
			Body               []byte
		}{
			ContentType:        "text/calendar; charset=utf-8",
			ContentDisposition: `attachment; filename="schedules.ics"`,
			Body:               []byte(out),
		}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "import-schedules",
		Method:        http.MethodPost,
		Path:          "/schedules/import",
		Summary:       "Import appointments from iCalendar",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusForbidden},
	}, func(ctx context.Context, input *struct {
		RawBody []byte `contentType:"text/calendar"`
	}) (*struct {
		Body engine.ImportResult `json:"body"`
	}, error) {
		actor, authErr := advisorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		res, err := e.ImportSchedules(ctx, actor, bytes.NewReader(input.RawBody))
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body engine.ImportResult `json:"body"`
		}{Body: res}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-schedule",
		Method:      http.MethodGet,
		Path:        "/schedules/{schedule_id}",
		Summary:     "Get appointment",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ScheduleID string `path:"schedule_id"`
	}) (*struct {
		Body domain.Schedule `json:"body"`
	}, error) {
		actor, authErr := advisorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		s, err := e.GetSchedule(ctx, actor, input.ScheduleID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Schedule `json:"body"`
		}{Body: s}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-schedule-status",
		Method:      http.MethodPatch,
		Path:        "/schedules/{schedule_id}/status",
		Summary:     "Change appointment status",
		Errors:      []int{http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ScheduleID string                      `path:"schedule_id"`
		Body       UpdateScheduleStatusRequest `json:"body"`
	}) (*struct {
		Body domain.Schedule `json:"body"`
	}, error) {
		actor, authErr := advisorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		s, err := e.UpdateScheduleStatus(ctx, actor, input.ScheduleID, input.Body.Status)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Schedule `json:"body"`
		}{Body: s}, nil
	})
}

func registerCalendar(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "calendar-month",
		Method:      http.MethodGet,
		Path:        "/calendar/{year}/{month}",
		Summary:     "Appointments bucketed by day for one month",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Year   int    `path:"year"`
		Month  int    `path:"month"`
		Status string `query:"status"`
	}) (*struct {
		Body engine.MonthView `json:"body"`
	}, error) {
		actor, authErr := advisorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		view, err := e.MonthCalendar(ctx, actor, input.Year, time.Month(input.Month), input.Status)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body engine.MonthView `json:"body"`
		}{Body: view}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "calendar-day",
		Method:      http.MethodGet,
		Path:        "/calendar/day/{date}",
		Summary:     "Agenda for one date",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Date string `path:"date" example:"2024-03-05"`
	}) (*struct {
		Body []domain.Schedule `json:"body"`
	}, error) {
		actor, authErr := advisorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		items, err := e.DayAgenda(ctx, actor, input.Date)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Schedule `json:"body"`
		}{Body: nonNilSlice(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "calendar-next",
		Method:      http.MethodGet,
		Path:        "/calendar/next",
		Summary:     "First appointment on or after today",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body domain.Schedule `json:"body"`
	}, error) {
		actor, authErr := advisorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		s, err := e.FirstUpcoming(ctx, actor)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Schedule `json:"body"`
		}{Body: s}, nil
	})
}
