package brokerdesksdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal brokerdesk HTTP API client.
type Client struct {
	BaseURL     string
	BasePath    string
	APIKey      string
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL:  baseURL,
		BasePath: "/v1",
		Timeout:  10 * time.Second,
	}
}

// Property is the API listing model (partial).
type Property struct {
	ID        string          `json:"id"`
	AdvisorID string          `json:"advisor_id"`
	OwnerID   *string         `json:"owner_id,omitempty"`
	Title     string          `json:"title"`
	Address   string          `json:"address,omitempty"`
	Status    string          `json:"status"`
	Details   *PropertyDetail `json:"details,omitempty"`
	CreatedAt string          `json:"created_at"`
}

type PropertyDetail struct {
	Price *float64 `json:"price,omitempty"`
}

// Schedule is an appointment; Date is YYYY-MM-DD.
type Schedule struct {
	ID          string `json:"id"`
	AdvisorID   string `json:"advisor_id"`
	Date        string `json:"date"`
	ClientName  string `json:"client_name"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status"`
	SeriesID    string `json:"series_id,omitempty"`
}

// DayCell is one day of a month view.
type DayCell struct {
	Day       int        `json:"day"`
	Date      string     `json:"date"`
	Today     bool       `json:"today"`
	Schedules []Schedule `json:"schedules"`
}

type MonthView struct {
	Days  []DayCell `json:"days"`
	Total int       `json:"total"`
}

// CalendarState mirrors the session calendar.
type CalendarState struct {
	DisplayedMonth struct {
		Year  int `json:"year"`
		Month int `json:"month"`
	} `json:"displayed_month"`
	SelectedDate *struct {
		Year  int `json:"year"`
		Month int `json:"month"`
		Day   int `json:"day"`
	} `json:"selected_date,omitempty"`
	DialogOpen bool `json:"dialog_open"`
}

type Session struct {
	ID          string        `json:"id"`
	ActiveItem  string        `json:"active_item"`
	PageTitle   string        `json:"page_title"`
	SidebarOpen bool          `json:"sidebar_open"`
	Calendar    CalendarState `json:"calendar"`
}

// SessionState is a session plus the open day's agenda.
type SessionState struct {
	Session Session    `json:"session"`
	Agenda  []Schedule `json:"agenda,omitempty"`
}

// CalendarAction is a calendar transition request.
type CalendarAction struct {
	Action string `json:"action"`
	Year   int    `json:"year,omitempty"`
	Month  int    `json:"month,omitempty"`
	Day    int    `json:"day,omitempty"`
	Date   string `json:"date,omitempty"`
}

// Event represents a log entry.
type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts"`
	Type       string `json:"type"`
	AdvisorID  string `json:"advisor_id"`
	EntityID   string `json:"entity_id"`
	EntityKind string `json:"entity_kind"`
	Payload    string `json:"payload_json"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Code       string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d code=%s body=%s", e.StatusCode, e.Code, e.Body)
}

// PaginatedEvents wraps list responses with cursors.
type PaginatedEvents struct {
	Items      []Event `json:"items"`
	NextCursor string  `json:"next_cursor"`
}

// DevLogin mints a development token for advisorID and keeps it on the
// client.
func (c *Client) DevLogin(ctx context.Context, advisorID string) error {
	var resp struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, "auth/dev/login", map[string]string{"advisor_id": advisorID}, &resp); err != nil {
		return err
	}
	c.BearerToken = resp.Token
	return nil
}

// CreateProperty creates a listing.
func (c *Client) CreateProperty(ctx context.Context, title, address string, price float64) (Property, error) {
	body := map[string]any{"title": title, "address": address}
	if price > 0 {
		body["details"] = map[string]any{"price": price}
	}
	var resp Property
	err := c.do(ctx, http.MethodPost, "properties", body, &resp)
	return resp, err
}

// ListProperties runs the listing query; q holds search/filter/sort params
// such as q, status, min_price, sort and dir.
func (c *Client) ListProperties(ctx context.Context, q url.Values) ([]Property, error) {
	var resp []Property
	err := c.do(ctx, http.MethodGet, withQuery("properties", q), nil, &resp)
	return resp, err
}

// CreateSchedule books an appointment; rrule may be empty.
func (c *Client) CreateSchedule(ctx context.Context, date, clientName, rrule string) ([]Schedule, error) {
	body := map[string]any{"date": date, "client_name": clientName}
	if rrule != "" {
		body["rrule"] = rrule
	}
	var resp []Schedule
	err := c.do(ctx, http.MethodPost, "schedules", body, &resp)
	return resp, err
}

// Month returns the bucketed calendar of one month.
func (c *Client) Month(ctx context.Context, year, month int) (MonthView, error) {
	var resp MonthView
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("calendar/%d/%d", year, month), nil, &resp)
	return resp, err
}

// ExportICS downloads the appointment list as iCalendar text.
func (c *Client) ExportICS(ctx context.Context, q url.Values) (string, error) {
	var buf bytes.Buffer
	err := c.do(ctx, http.MethodGet, withQuery("schedules.ics", q), nil, &buf)
	return buf.String(), err
}

func (c *Client) CreateSession(ctx context.Context) (SessionState, error) {
	var resp SessionState
	err := c.do(ctx, http.MethodPost, "sessions", nil, &resp)
	return resp, err
}

// Calendar applies a calendar transition to a session.
func (c *Client) Calendar(ctx context.Context, sessionID string, a CalendarAction) (SessionState, error) {
	var resp SessionState
	err := c.do(ctx, http.MethodPost, "sessions/"+url.PathEscape(sessionID)+"/calendar", a, &resp)
	return resp, err
}

// Events returns recent events.
func (c *Client) Events(ctx context.Context, limit int) ([]Event, error) {
	page, err := c.EventsPage(ctx, limit, "")
	return page.Items, err
}

// EventsPage returns a paginated event listing.
func (c *Client) EventsPage(ctx context.Context, limit int, cursor string) (PaginatedEvents, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", fmt.Sprint(limit))
	}
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	var resp PaginatedEvents
	err := c.do(ctx, http.MethodGet, withQuery("events", q), nil, &resp)
	return resp, err
}

func withQuery(endpoint string, q url.Values) string {
	if len(q) == 0 {
		return endpoint
	}
	return endpoint + "?" + q.Encode()
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	switch {
	case c.BearerToken != "":
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	case c.APIKey != "":
		req.Header.Set("X-Api-Key", c.APIKey)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: string(b)}
		var env struct {
			Error struct {
				Code string `json:"code"`
			} `json:"error"`
		}
		if json.Unmarshal(b, &env) == nil {
			apiErr.Code = env.Error.Code
		}
		return apiErr
	}
	switch dst := out.(type) {
	case nil:
		return nil
	case io.Writer:
		_, err := io.Copy(dst, resp.Body)
		return err
	default:
		return json.NewDecoder(resp.Body).Decode(out)
	}
}

func (c *Client) base() string {
	base := strings.TrimRight(c.BaseURL, "/")
	if p := strings.Trim(c.BasePath, "/"); p != "" {
		base += "/" + p
	}
	return base
}
