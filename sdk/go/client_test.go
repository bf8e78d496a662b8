package brokerdesksdk

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
)

func TestClientSendsAuthAndDecodes(t *testing.T) {
	var gotAuth, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/auth/dev/login":
			json.NewEncoder(w).Encode(map[string]string{"token": "tok"})
		case "/v1/properties":
			gotAuth = r.Header.Get("Authorization")
			gotQuery = r.URL.RawQuery
			json.NewEncoder(w).Encode([]Property{{ID: "p1", Title: "Casa", Status: "available"}})
		case "/v1/schedules.ics":
			w.Header().Set("Content-Type", "text/calendar")
			io.WriteString(w, "BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n")
		default:
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `{"error":{"code":"not_found","message":"nope"}}`)
		}
	}))
	defer srv.Close()

	c := New(srv.URL)
	ctx := context.Background()
	if err := c.DevLogin(ctx, "ana"); err != nil {
		t.Fatalf("login: %v", err)
	}
	items, err := c.ListProperties(ctx, url.Values{"q": {"casa"}, "sort": {"price"}})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 || items[0].ID != "p1" {
		t.Fatalf("unexpected items: %+v", items)
	}
	if gotAuth != "Bearer tok" || gotQuery != "q=casa&sort=price" {
		t.Fatalf("unexpected request: auth=%q query=%q", gotAuth, gotQuery)
	}
	cal, err := c.ExportICS(ctx, nil)
	if err != nil || cal != "BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n" {
		t.Fatalf("export: %q %v", cal, err)
	}
	_, err = c.Month(ctx, 2024, 3)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusNotFound || apiErr.Code != "not_found" {
		t.Fatalf("expected not_found APIError, got %v", err)
	}
}
