// Package viewmodel holds per-user screen state: the active navigation
// item, the sidebar toggle and the calendar navigator.
package viewmodel

import (
	"sync"
	"time"

	"brokerdesk/internal/calendar"
	"brokerdesk/internal/domain"
)

var pageTitles = map[string]string{
	"home":       "Home",
	"schedule":   "Schedule",
	"reports":    "Reports",
	"sales":      "Sales",
	"clients":    "Clients",
	"properties": "Properties",
	"panel":      "Panel",
	"stats":      "Statistics",
	"advisors":   "Advisors",
	"settings":   "Settings",
	"logout":     "Log out",
}

const DefaultPageTitle = "Dashboard"

// PageTitle maps a navigation item to its title.
func PageTitle(item string) string {
	if t, ok := pageTitles[item]; ok {
		return t
	}
	return DefaultPageTitle
}

// Snapshot is a read-only copy of a session.
type Snapshot struct {
	ID          string             `json:"id"`
	AdvisorID   string             `json:"advisor_id"`
	ActiveItem  string             `json:"active_item"`
	PageTitle   string             `json:"page_title"`
	SidebarOpen bool               `json:"sidebar_open"`
	Calendar    calendar.ViewState `json:"calendar"`
	UpdatedAt   string             `json:"updated_at" format:"date-time"`
}

type Session struct {
	mu          sync.Mutex
	id          string
	advisorID   string
	activeItem  string
	sidebarOpen bool
	nav         *calendar.Navigator
	updatedAt   time.Time
}

func newSession(id, advisorID string, now time.Time) *Session {
	return &Session{
		id:          id,
		advisorID:   advisorID,
		activeItem:  "home",
		sidebarOpen: true,
		nav:         calendar.NewNavigator(now),
		updatedAt:   now,
	}
}

func (s *Session) ID() string        { return s.id }
func (s *Session) AdvisorID() string { return s.advisorID }

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		ID:          s.id,
		AdvisorID:   s.advisorID,
		ActiveItem:  s.activeItem,
		PageTitle:   PageTitle(s.activeItem),
		SidebarOpen: s.sidebarOpen,
		Calendar:    s.nav.State(),
		UpdatedAt:   s.updatedAt.UTC().Format(time.RFC3339),
	}
}

// Navigate sets the active item. Unknown items are accepted and shown with
// the default title.
func (s *Session) Navigate(item string, now time.Time) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeItem = item
	s.updatedAt = now
	return s.snapshotLocked()
}

func (s *Session) SetSidebar(open bool, now time.Time) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sidebarOpen = open
	s.updatedAt = now
	return s.snapshotLocked()
}

func (s *Session) ToggleSidebar(now time.Time) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sidebarOpen = !s.sidebarOpen
	s.updatedAt = now
	return s.snapshotLocked()
}

// Calendar actions accepted by Apply.
const (
	ActionPrevMonth   = "prev_month"
	ActionNextMonth   = "next_month"
	ActionJumpToMonth = "jump_to_month"
	ActionJumpToDate  = "jump_to_date"
	ActionToday       = "today"
	ActionSelectDay   = "select_day"
	ActionCloseDialog = "close_dialog"
)

// CalendarAction is one calendar transition request.
type CalendarAction struct {
	Action string `json:"action" enum:"prev_month,next_month,jump_to_month,jump_to_date,today,select_day,close_dialog"`
	Year   int    `json:"year,omitempty"`
	Month  int    `json:"month,omitempty"`
	Day    int    `json:"day,omitempty"`
	Date   string `json:"date,omitempty"`
}

// Apply runs a calendar transition under the session lock.
func (s *Session) Apply(a CalendarAction, now time.Time) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var err error
	switch a.Action {
	case ActionPrevMonth:
		s.nav.PreviousMonth()
	case ActionNextMonth:
		s.nav.NextMonth()
	case ActionJumpToMonth:
		err = s.nav.JumpToMonth(a.Year, time.Month(a.Month))
	case ActionJumpToDate:
		var d calendar.Date
		d, err = calendar.ParseDate(a.Date)
		if err == nil {
			err = s.nav.JumpToDate(d)
		}
	case ActionToday:
		s.nav.Today(now)
	case ActionSelectDay:
		err = s.nav.SelectDay(a.Day)
	case ActionCloseDialog:
		s.nav.CloseDialog()
	default:
		err = domain.InvalidArgument("action", a.Action, "unknown calendar action")
	}
	if err != nil {
		return s.snapshotLocked(), err
	}
	s.updatedAt = now
	return s.snapshotLocked(), nil
}
