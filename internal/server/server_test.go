package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"brokerdesk/internal/config"
	"brokerdesk/internal/db"
	"brokerdesk/internal/domain"
	"brokerdesk/internal/engine"
	"brokerdesk/internal/metrics"
	"brokerdesk/internal/migrate"
)

const testSecret = "test-secret"

type testServer struct {
	URL    string
	Engine engine.Engine
	client *http.Client
	close  func()
}

func (s *testServer) Client() *http.Client { return s.client }
func (s *testServer) Close()               { s.close() }

func newTestServer(t *testing.T) (*testServer, func()) {
	t.Helper()
	workspace := t.TempDir()
	if _, err := db.EnsureWorkspace(workspace); err != nil {
		t.Fatalf("ensure workspace: %v", err)
	}
	cfg := config.Default("Test Realty")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	e := engine.New(conn, cfg)
	e.Now = func() time.Time { return time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC) }
	ctx := context.Background()
	if _, err := e.Bootstrap(ctx, "boss", "Boss"); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	if _, err := e.CreateAdvisor(ctx, engine.AdvisorCreateOptions{ID: "ana", Name: "Ana", ActorID: "boss"}); err != nil {
		t.Fatalf("create advisor: %v", err)
	}
	handler, err := New(Config{
		Engine:   e,
		BasePath: "/v1",
		Auth:     AuthConfig{JWTSecret: testSecret},
		Metrics:  metrics.New(nil),
	})
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &http.Server{Handler: handler}
	go srv.Serve(ln)
	testSrv := &testServer{
		URL:    "http://" + ln.Addr().String(),
		Engine: e,
		client: &http.Client{},
		close: func() {
			srv.Shutdown(context.Background())
			ln.Close()
			conn.Close()
		},
	}
	return testSrv, func() { testSrv.Close() }
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	res, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return res, data
}

func login(t *testing.T, srv *testServer, advisorID string) map[string]string {
	t.Helper()
	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v1/auth/dev/login", map[string]any{"advisor_id": advisorID}, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("dev login status %d: %s", res.StatusCode, string(data))
	}
	var out DevLoginResponse
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal login: %v", err)
	}
	return map[string]string{"Authorization": "Bearer " + out.Token}
}

func errorCode(t *testing.T, data []byte) string {
	t.Helper()
	var env struct {
		Error apiErrorBody `json:"error"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("unmarshal error envelope: %v (%s)", err, string(data))
	}
	return env.Error.Code
}

func TestHealthIsPublicAndOtherRoutesNeedAuth(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	res, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v1/health", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("health status %d: %s", res.StatusCode, string(data))
	}
	res, data = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v1/me", nil, nil)
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d %s", res.StatusCode, string(data))
	}
	if code := errorCode(t, data); code != "unauthorized" {
		t.Fatalf("expected unauthorized code, got %s", code)
	}
	res, data = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v1/me", nil, map[string]string{"Authorization": "Bearer nope"})
	if res.StatusCode != http.StatusUnauthorized || errorCode(t, data) != "invalid_credentials" {
		t.Fatalf("expected invalid_credentials, got %d %s", res.StatusCode, string(data))
	}
}

func TestMeReportsRolePermissions(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	res, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v1/me", nil, login(t, srv, "boss"))
	if res.StatusCode != http.StatusOK {
		t.Fatalf("me status %d: %s", res.StatusCode, string(data))
	}
	var me WhoAmIResponse
	if err := json.Unmarshal(data, &me); err != nil {
		t.Fatalf("unmarshal me: %v", err)
	}
	if me.Advisor.Role != domain.RoleManager || me.Source != "jwt" {
		t.Fatalf("unexpected me: %+v", me)
	}
	found := false
	for _, p := range me.Permissions {
		if p == "advisor.manage" {
			found = true
		}
	}
	if !found {
		t.Fatalf("manager should hold advisor.manage: %v", me.Permissions)
	}

	res, data = doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v1/auth/dev/login", map[string]any{"advisor_id": "ghost"}, nil)
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("login for unknown advisor: %d %s", res.StatusCode, string(data))
	}
}

func TestPropertyListingFlow(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	ana := login(t, srv, "ana")
	boss := login(t, srv, "boss")
	client := srv.Client()

	for _, p := range []map[string]any{
		{"title": "Casa Sol", "address": "Calle 1", "property_type": "house", "details": map[string]any{"price": 120000}},
		{"title": "Loft Centro", "address": "Av 9", "status": "reserved", "details": map[string]any{"price": 80000}},
		{"title": "Quinta Sur", "status": "saled", "property_type": "house", "details": map[string]any{"price": 300000}},
	} {
		res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v1/properties", p, ana)
		if res.StatusCode != http.StatusCreated {
			t.Fatalf("create property status %d: %s", res.StatusCode, string(data))
		}
	}

	res, data := doJSON(t, client, http.MethodGet, srv.URL+"/v1/properties?sort=price&dir=asc&min_price=100000", nil, ana)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("list properties %d: %s", res.StatusCode, string(data))
	}
	var items []domain.Property
	if err := json.Unmarshal(data, &items); err != nil {
		t.Fatalf("unmarshal properties: %v", err)
	}
	if len(items) != 2 || items[0].Title != "Casa Sol" || items[1].Title != "Quinta Sur" {
		t.Fatalf("unexpected price filter result: %+v", items)
	}
	if items[1].Status != domain.PropertySold {
		t.Fatalf("legacy status should normalize to sold, got %s", items[1].Status)
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v1/properties?q=LOFT", nil, ana)
	if err := json.Unmarshal(data, &items); err != nil || len(items) != 1 {
		t.Fatalf("case-insensitive search: %d %s", res.StatusCode, string(data))
	}
	loftID := items[0].ID

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v1/properties?status=bogus", nil, ana)
	if res.StatusCode != http.StatusBadRequest || errorCode(t, data) != "bad_request" {
		t.Fatalf("expected bad_request for unknown status, got %d %s", res.StatusCode, string(data))
	}

	res, data = doJSON(t, client, http.MethodPatch, srv.URL+"/v1/properties/"+loftID, map[string]any{"status": "rented"}, ana)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("update property %d: %s", res.StatusCode, string(data))
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v1/properties/stats", nil, boss)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("stats %d: %s", res.StatusCode, string(data))
	}
	var stats struct {
		Total          int            `json:"total"`
		ByStatus       map[string]int `json:"by_status"`
		AvailableValue float64        `json:"available_value"`
		ByType         []struct {
			Type       string `json:"type"`
			Count      int    `json:"count"`
			Percentage int    `json:"percentage"`
		} `json:"by_type"`
	}
	if err := json.Unmarshal(data, &stats); err != nil {
		t.Fatalf("unmarshal stats: %v", err)
	}
	if stats.Total != 3 || stats.ByStatus["rented"] != 1 || stats.ByStatus["sold"] != 1 || stats.AvailableValue != 120000 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if len(stats.ByType) != 1 || stats.ByType[0].Type != "house" || stats.ByType[0].Count != 2 || stats.ByType[0].Percentage != 67 {
		t.Fatalf("unexpected type distribution: %+v", stats.ByType)
	}

	bossProp, data := doJSON(t, client, http.MethodPost, srv.URL+"/v1/properties", map[string]any{"title": "Oficina"}, boss)
	if bossProp.StatusCode != http.StatusCreated {
		t.Fatalf("boss create: %s", string(data))
	}
	var created domain.Property
	_ = json.Unmarshal(data, &created)
	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v1/properties/"+created.ID, nil, ana)
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("advisor must not see other advisor's listing, got %d %s", res.StatusCode, string(data))
	}
}

func TestPropertyDetailsFurnishedIsOptional(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	ana := login(t, srv, "ana")
	client := srv.Client()

	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v1/properties", map[string]any{
		"title":   "Casa Moderna",
		"details": map[string]any{"price": 1000},
	}, ana)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create without is_furnished %d: %s", res.StatusCode, string(data))
	}
	var p domain.Property
	if err := json.Unmarshal(data, &p); err != nil {
		t.Fatalf("unmarshal property: %v", err)
	}
	if p.Details == nil || p.Details.IsFurnished || p.Price() != 1000 {
		t.Fatalf("unexpected details: %+v", p.Details)
	}

	res, data = doJSON(t, client, http.MethodPatch, srv.URL+"/v1/properties/"+p.ID, map[string]any{
		"details": map[string]any{"price": 1200, "bedrooms": 2},
	}, ana)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("patch without is_furnished %d: %s", res.StatusCode, string(data))
	}
}

func TestClientConflictAndLookup(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	ana := login(t, srv, "ana")
	client := srv.Client()

	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v1/clients", map[string]any{"name": "Marta", "last_name": "Gil", "national_id": "42"}, ana)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create client %d: %s", res.StatusCode, string(data))
	}
	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v1/clients", map[string]any{"name": "Otra", "national_id": "42"}, ana)
	if res.StatusCode != http.StatusConflict {
		t.Fatalf("expected conflict, got %d %s", res.StatusCode, string(data))
	}
	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v1/clients?national_id=42", nil, ana)
	var found []domain.Client
	if err := json.Unmarshal(data, &found); err != nil || len(found) != 1 || found[0].FullName() != "Marta Gil" {
		t.Fatalf("lookup by national id: %d %s", res.StatusCode, string(data))
	}
}

func TestSchedulesAndCalendar(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	ana := login(t, srv, "ana")
	client := srv.Client()

	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v1/schedules", map[string]any{
		"date":        "2024-03-05",
		"client_name": "Marta",
		"rrule":       "FREQ=WEEKLY;COUNT=3",
	}, ana)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create series %d: %s", res.StatusCode, string(data))
	}
	var series []domain.Schedule
	if err := json.Unmarshal(data, &series); err != nil {
		t.Fatalf("unmarshal series: %v", err)
	}
	if len(series) != 3 || series[2].Date != "2024-03-19" || series[0].SeriesID == "" {
		t.Fatalf("unexpected series: %+v", series)
	}
	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v1/schedules", map[string]any{
		"date":        "2024-02-29",
		"client_name": "Pedro",
		"status":      "Completed",
	}, ana)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create past %d: %s", res.StatusCode, string(data))
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v1/calendar/2024/3", nil, ana)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("month %d: %s", res.StatusCode, string(data))
	}
	var month engine.MonthView
	if err := json.Unmarshal(data, &month); err != nil {
		t.Fatalf("unmarshal month: %v", err)
	}
	if month.Total != 3 || len(month.Days) != 31 || len(month.Days[4].Schedules) != 1 || !month.Days[4].Today {
		t.Fatalf("unexpected month view: total=%d days=%d", month.Total, len(month.Days))
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v1/calendar/2024/13", nil, ana)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("invalid month should be 400, got %d %s", res.StatusCode, string(data))
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v1/calendar/day/2024-03-06", nil, ana)
	if res.StatusCode != http.StatusOK || strings.TrimSpace(string(data)) != "[]" {
		t.Fatalf("empty day should be an empty list, got %d %s", res.StatusCode, string(data))
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v1/schedules?when=past", nil, ana)
	var list scheduleList
	if err := json.Unmarshal(data, &list); err != nil || len(list.Items) != 1 || list.Items[0].ClientName != "Pedro" {
		t.Fatalf("past filter: %d %s", res.StatusCode, string(data))
	}
	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v1/schedules?when=upcoming&dir=desc&group=true", nil, ana)
	if err := json.Unmarshal(data, &list); err != nil || len(list.Items) != 3 || list.Items[0].Date != "2024-03-19" || len(list.Groups) != 3 {
		t.Fatalf("upcoming desc: %d %s", res.StatusCode, string(data))
	}

	res, data = doJSON(t, client, http.MethodPatch, srv.URL+"/v1/schedules/"+series[0].ID+"/status", map[string]any{"status": "confirmed"}, ana)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status change %d: %s", res.StatusCode, string(data))
	}
	res, data = doJSON(t, client, http.MethodPatch, srv.URL+"/v1/schedules/"+series[0].ID+"/status", map[string]any{"status": "lost"}, ana)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("unknown status should be 400, got %d %s", res.StatusCode, string(data))
	}

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/v1/schedules.ics", nil)
	req.Header.Set("Authorization", ana["Authorization"])
	icsRes, err := client.Do(req)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	defer icsRes.Body.Close()
	body, _ := io.ReadAll(icsRes.Body)
	if !strings.HasPrefix(icsRes.Header.Get("Content-Type"), "text/calendar") || !strings.Contains(string(body), "BEGIN:VCALENDAR") {
		t.Fatalf("unexpected export: %s %s", icsRes.Header.Get("Content-Type"), string(body))
	}
}

func TestSessionCalendarTransitions(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	ana := login(t, srv, "ana")
	client := srv.Client()

	if _, err := srv.Engine.CreateSchedule(context.Background(), engine.ScheduleCreateOptions{ActorID: "ana", Date: "2024-04-02", ClientName: "Lia"}); err != nil {
		t.Fatalf("seed schedule: %v", err)
	}

	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v1/sessions", nil, ana)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create session %d: %s", res.StatusCode, string(data))
	}
	var sess SessionResponse
	if err := json.Unmarshal(data, &sess); err != nil {
		t.Fatalf("unmarshal session: %v", err)
	}
	if sess.Session.PageTitle != "Home" || sess.Session.Calendar.DisplayedMonth.Month != time.March {
		t.Fatalf("unexpected initial session: %+v", sess.Session)
	}
	base := srv.URL + "/v1/sessions/" + sess.Session.ID

	apply := func(body map[string]any) (int, SessionResponse) {
		res, data := doJSON(t, client, http.MethodPost, base+"/calendar", body, ana)
		var out SessionResponse
		if res.StatusCode == http.StatusOK {
			if err := json.Unmarshal(data, &out); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
		}
		return res.StatusCode, out
	}

	if code, out := apply(map[string]any{"action": "first_upcoming"}); code != http.StatusOK || out.Session.Calendar.DisplayedMonth.Month != time.April {
		t.Fatalf("first_upcoming: %d %+v", code, out.Session.Calendar)
	}
	code, out := apply(map[string]any{"action": "select_day", "day": 2})
	if code != http.StatusOK || !out.Session.Calendar.DialogOpen || len(out.Agenda) != 1 {
		t.Fatalf("select_day: %d %+v", code, out)
	}
	if code, _ := apply(map[string]any{"action": "select_day", "day": 31}); code != http.StatusBadRequest {
		t.Fatalf("April 31 should be rejected, got %d", code)
	}
	code, out = apply(map[string]any{"action": "close_dialog"})
	if code != http.StatusOK || out.Session.Calendar.DialogOpen || out.Session.Calendar.SelectedDate == nil {
		t.Fatalf("close_dialog should keep selection: %+v", out.Session.Calendar)
	}
	if code, _ := apply(map[string]any{"action": "jump_to_month", "year": 2024, "month": 0}); code != http.StatusBadRequest {
		t.Fatalf("month 0 should be rejected, got %d", code)
	}

	res, data = doJSON(t, client, http.MethodPost, base+"/navigate", map[string]any{"item": "clients"}, ana)
	if err := json.Unmarshal(data, &sess); err != nil || sess.Session.PageTitle != "Clients" {
		t.Fatalf("navigate: %d %s", res.StatusCode, string(data))
	}
	res, data = doJSON(t, client, http.MethodPost, base+"/sidebar", map[string]any{}, ana)
	if err := json.Unmarshal(data, &sess); err != nil || sess.Session.SidebarOpen {
		t.Fatalf("toggle sidebar: %d %s", res.StatusCode, string(data))
	}

	res, data = doJSON(t, client, http.MethodGet, base, nil, login(t, srv, "boss"))
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("sessions are private to their advisor, got %d %s", res.StatusCode, string(data))
	}
}

func TestAPIKeyAuthentication(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v1/keys", map[string]any{"name": "cli"}, login(t, srv, "ana"))
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create key %d: %s", res.StatusCode, string(data))
	}
	var key APIKeyResponse
	if err := json.Unmarshal(data, &key); err != nil || key.Key == "" {
		t.Fatalf("unmarshal key: %v %s", err, string(data))
	}
	headers := map[string]string{"X-Api-Key": key.Key}
	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v1/me", nil, headers)
	if res.StatusCode != http.StatusOK || !strings.Contains(string(data), `"api_key"`) {
		t.Fatalf("me via api key: %d %s", res.StatusCode, string(data))
	}
	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v1/advisors", map[string]any{"name": "Nope"}, headers)
	if res.StatusCode != http.StatusForbidden || errorCode(t, data) != "forbidden" {
		t.Fatalf("advisor cannot manage advisors, got %d %s", res.StatusCode, string(data))
	}
	res, data = doJSON(t, client, http.MethodDelete, srv.URL+"/v1/keys/"+key.ID, nil, headers)
	if res.StatusCode != http.StatusNoContent {
		t.Fatalf("revoke key %d: %s", res.StatusCode, string(data))
	}
	res, _ = doJSON(t, client, http.MethodGet, srv.URL+"/v1/me", nil, headers)
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("revoked key should fail, got %d", res.StatusCode)
	}
}

func TestEventsArePaginated(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	boss := login(t, srv, "boss")
	client := srv.Client()

	res, data := doJSON(t, client, http.MethodGet, srv.URL+"/v1/events?limit=1", nil, boss)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("events %d: %s", res.StatusCode, string(data))
	}
	var page paginatedEvents
	if err := json.Unmarshal(data, &page); err != nil {
		t.Fatalf("unmarshal events: %v", err)
	}
	if len(page.Items) != 1 || page.NextCursor == "" {
		t.Fatalf("expected one event and a cursor: %+v", page)
	}
	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v1/events?limit=1&cursor="+page.NextCursor, nil, boss)
	var next paginatedEvents
	if err := json.Unmarshal(data, &next); err != nil || len(next.Items) != 1 || next.Items[0].ID >= page.Items[0].ID {
		t.Fatalf("second page: %d %s", res.StatusCode, string(data))
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v1/health", nil, nil)
	res, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/metrics", nil, nil)
	if res.StatusCode != http.StatusOK || !strings.Contains(string(data), "brokerdesk_http_requests_total") {
		t.Fatalf("metrics: %d %s", res.StatusCode, string(data))
	}
}

func TestWebhookDispatcherDeliversNewEvents(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	var mu sync.Mutex
	var got []string
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		got = append(got, r.Header.Get("X-Brokerdesk-Event")+"|"+r.Header.Get("X-Brokerdesk-Secret"))
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer hook.Close()

	e := srv.Engine
	cfg := *e.Config
	cfg.Webhooks = []config.WebhookConfig{{URL: hook.URL, Events: []string{"client.created"}, Secret: "s3"}}
	e.Config = &cfg
	d := NewWebhookDispatcher(e, nil, metrics.New(nil))
	if d == nil {
		t.Fatalf("expected dispatcher")
	}
	ctx := context.Background()
	d.DispatchAll(ctx)

	if _, err := e.CreateClient(ctx, engine.ClientCreateOptions{ActorID: "ana", Name: "Hook", NationalID: "77"}); err != nil {
		t.Fatalf("create client: %v", err)
	}
	if _, err := e.CreateProperty(ctx, engine.PropertyCreateOptions{ActorID: "ana", Title: "Filtered out"}); err != nil {
		t.Fatalf("create property: %v", err)
	}
	d.DispatchAll(ctx)

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 || got[0] != "client.created|s3" {
		t.Fatalf("unexpected deliveries: %v", got)
	}
}
