package calendar

import (
	"time"

	"brokerdesk/internal/domain"
)

// ViewState is the calendar screen state. DialogOpen implies SelectedDate
// is set.
type ViewState struct {
	DisplayedMonth YearMonth `json:"displayed_month"`
	SelectedDate   *Date     `json:"selected_date,omitempty"`
	DialogOpen     bool      `json:"dialog_open"`
}

// Navigator drives ViewState through its transitions. It is not safe for
// concurrent use; owners serialize access.
type Navigator struct {
	state ViewState
}

// NewNavigator starts on the month of now with nothing selected.
func NewNavigator(now time.Time) *Navigator {
	return &Navigator{state: ViewState{DisplayedMonth: DateOf(now).YearMonth()}}
}

// State returns a copy of the current state.
func (n *Navigator) State() ViewState {
	s := n.state
	if s.SelectedDate != nil {
		d := *s.SelectedDate
		s.SelectedDate = &d
	}
	return s
}

func (n *Navigator) PreviousMonth() {
	n.state.DisplayedMonth = n.state.DisplayedMonth.Prev()
}

func (n *Navigator) NextMonth() {
	n.state.DisplayedMonth = n.state.DisplayedMonth.Next()
}

func (n *Navigator) JumpToMonth(year int, month time.Month) error {
	ym := YearMonth{Year: year, Month: month}
	if err := ym.Validate(); err != nil {
		return err
	}
	n.state.DisplayedMonth = ym
	return nil
}

// JumpToDate displays the month containing d without selecting it.
func (n *Navigator) JumpToDate(d Date) error {
	return n.JumpToMonth(d.Year, d.Month)
}

// Today displays the month of now.
func (n *Navigator) Today(now time.Time) {
	n.state.DisplayedMonth = DateOf(now).YearMonth()
}

// SelectDay selects a day of the displayed month and opens the day dialog.
// An out-of-range day leaves the state untouched.
func (n *Navigator) SelectDay(day int) error {
	ym := n.state.DisplayedMonth
	if !ym.Contains(day) {
		return domain.InvalidArgument("day", day, "outside of "+ym.String())
	}
	d := ym.Date(day)
	n.state.SelectedDate = &d
	n.state.DialogOpen = true
	return nil
}

// CloseDialog hides the day dialog and keeps the selection.
func (n *Navigator) CloseDialog() {
	n.state.DialogOpen = false
}
