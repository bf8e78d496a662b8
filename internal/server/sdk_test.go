package server

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"testing"

	brokerdesksdk "brokerdesk/sdk/go"
)

func TestSDKRoundTrip(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	ctx := context.Background()

	c := brokerdesksdk.New(srv.URL)
	if _, err := c.ListProperties(ctx, nil); err == nil {
		t.Fatalf("expected unauthenticated list to fail")
	}
	if err := c.DevLogin(ctx, "ana"); err != nil {
		t.Fatalf("dev login: %v", err)
	}

	if _, err := c.CreateProperty(ctx, "Casa Norte", "Av. Norte 12", 250000); err != nil {
		t.Fatalf("create property: %v", err)
	}
	if _, err := c.CreateProperty(ctx, "Depto Sur", "Calle Sur 3", 90000); err != nil {
		t.Fatalf("create property: %v", err)
	}
	props, err := c.ListProperties(ctx, url.Values{"sort": {"price"}, "dir": {"asc"}})
	if err != nil {
		t.Fatalf("list properties: %v", err)
	}
	if len(props) != 2 || props[0].Title != "Depto Sur" {
		t.Fatalf("unexpected order: %+v", props)
	}

	created, err := c.CreateSchedule(ctx, "2024-03-12", "Marta Gil", "FREQ=WEEKLY;COUNT=2")
	if err != nil {
		t.Fatalf("create schedule: %v", err)
	}
	if len(created) != 2 || created[1].Date != "2024-03-19" {
		t.Fatalf("unexpected occurrences: %+v", created)
	}
	month, err := c.Month(ctx, 2024, 3)
	if err != nil {
		t.Fatalf("month: %v", err)
	}
	if month.Total != 2 || len(month.Days[11].Schedules) != 1 || !month.Days[4].Today {
		t.Fatalf("unexpected month view: total=%d", month.Total)
	}
	cal, err := c.ExportICS(ctx, nil)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.Contains(cal, "BEGIN:VEVENT") || !strings.Contains(cal, "Marta Gil") {
		t.Fatalf("unexpected ics: %s", cal)
	}

	sess, err := c.CreateSession(ctx)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	state, err := c.Calendar(ctx, sess.Session.ID, brokerdesksdk.CalendarAction{Action: "select_day", Day: 12})
	if err != nil {
		t.Fatalf("select day: %v", err)
	}
	if !state.Session.Calendar.DialogOpen || len(state.Agenda) != 1 {
		t.Fatalf("unexpected session state: %+v", state)
	}
	_, err = c.Calendar(ctx, sess.Session.ID, brokerdesksdk.CalendarAction{Action: "select_day", Day: 32})
	var apiErr *brokerdesksdk.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusBadRequest || apiErr.Code != "bad_request" {
		t.Fatalf("expected bad_request, got %v", err)
	}

	page, err := c.EventsPage(ctx, 2, "")
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(page.Items) != 2 || page.NextCursor == "" {
		t.Fatalf("unexpected events page: %+v", page)
	}
}
