package server

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"brokerdesk/internal/engine"
	"brokerdesk/internal/viewmodel"
)

const actionFirstUpcoming = "first_upcoming"

type SessionPath struct {
	SessionID string `path:"session_id"`
}

type sessionBody struct {
	Body SessionResponse `json:"body"`
}

func registerSessions(api huma.API, e engine.Engine, store *viewmodel.Store) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-session",
		Method:        http.MethodPost,
		Path:          "/sessions",
		Summary:       "Open a view-model session",
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, _ *struct{}) (*sessionBody, error) {
		actor, authErr := advisorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		s := store.Create(actor, e.LocalNow())
		return &sessionBody{Body: SessionResponse{Session: s.Snapshot()}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-session",
		Method:      http.MethodGet,
		Path:        "/sessions/{session_id}",
		Summary:     "Current session state",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *SessionPath) (*sessionBody, error) {
		actor, authErr := advisorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		s, err := store.Get(input.SessionID, actor)
		if err != nil {
			return nil, handleError(err)
		}
		return withAgenda(ctx, e, s.Snapshot())
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-session",
		Method:        http.MethodDelete,
		Path:          "/sessions/{session_id}",
		Summary:       "Close a session",
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusNotFound},
	}, func(ctx context.Context, input *SessionPath) (*struct{}, error) {
		actor, authErr := advisorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if err := store.Delete(input.SessionID, actor); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "session-navigate",
		Method:      http.MethodPost,
		Path:        "/sessions/{session_id}/navigate",
		Summary:     "Select the active navigation item",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		SessionPath
		Body NavigateRequest `json:"body"`
	}) (*sessionBody, error) {
		actor, authErr := advisorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		s, err := store.Get(input.SessionID, actor)
		if err != nil {
			return nil, handleError(err)
		}
		return &sessionBody{Body: SessionResponse{Session: s.Navigate(input.Body.Item, e.LocalNow())}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "session-sidebar",
		Method:      http.MethodPost,
		Path:        "/sessions/{session_id}/sidebar",
		Summary:     "Open, close or toggle the sidebar",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		SessionPath
		Body SidebarRequest `json:"body"`
	}) (*sessionBody, error) {
		actor, authErr := advisorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		s, err := store.Get(input.SessionID, actor)
		if err != nil {
			return nil, handleError(err)
		}
		var snap viewmodel.Snapshot
		if input.Body.Open == nil {
			snap = s.ToggleSidebar(e.LocalNow())
		} else {
			snap = s.SetSidebar(*input.Body.Open, e.LocalNow())
		}
		return &sessionBody{Body: SessionResponse{Session: snap}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "session-calendar",
		Method:      http.MethodPost,
		Path:        "/sessions/{session_id}/calendar",
		Summary:     "Apply a calendar transition",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		SessionPath
		Body CalendarActionRequest `json:"body"`
	}) (*sessionBody, error) {
		actor, authErr := advisorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		s, err := store.Get(input.SessionID, actor)
		if err != nil {
			return nil, handleError(err)
		}
		b := input.Body
		action := viewmodel.CalendarAction{Action: b.Action, Year: b.Year, Month: b.Month, Day: b.Day, Date: b.Date}
		if b.Action == actionFirstUpcoming {
			next, err := e.FirstUpcoming(ctx, actor)
			if err != nil {
				return nil, handleError(err)
			}
			action = viewmodel.CalendarAction{Action: viewmodel.ActionJumpToDate, Date: next.Date}
		}
		snap, err := s.Apply(action, e.LocalNow())
		if err != nil {
			return nil, handleError(err)
		}
		return withAgenda(ctx, e, snap)
	})
}

// withAgenda attaches the selected day's appointments while the day dialog
// is open.
func withAgenda(ctx context.Context, e engine.Engine, snap viewmodel.Snapshot) (*sessionBody, error) {
	resp := SessionResponse{Session: snap}
	if snap.Calendar.DialogOpen && snap.Calendar.SelectedDate != nil {
		agenda, err := e.DayAgenda(ctx, snap.AdvisorID, snap.Calendar.SelectedDate.String())
		if err != nil {
			return nil, handleError(err)
		}
		resp.Agenda = nonNilSlice(agenda)
	}
	return &sessionBody{Body: resp}, nil
}
