package server

import (
	"brokerdesk/internal/domain"
	"brokerdesk/internal/viewmodel"
	"brokerdesk/internal/views"
)

// Request payloads

type DevLoginRequest struct {
	AdvisorID string `json:"advisor_id"`
}

type CreateAdvisorRequest struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty" enum:"advisor,manager"`
}

type CreateAPIKeyRequest struct {
	AdvisorID string `json:"advisor_id,omitempty"`
	Name      string `json:"name,omitempty"`
}

type CreateClientRequest struct {
	AdvisorID  string `json:"advisor_id,omitempty"`
	Name       string `json:"name"`
	LastName   string `json:"last_name,omitempty"`
	NationalID string `json:"national_id"`
	Phone      string `json:"phone,omitempty"`
	Email      string `json:"email,omitempty"`
}

type CreatePropertyRequest struct {
	Title        string                  `json:"title"`
	Description  string                  `json:"description,omitempty"`
	Address      string                  `json:"address,omitempty"`
	Latitude     *float64                `json:"latitude,omitempty"`
	Longitude    *float64                `json:"longitude,omitempty"`
	Status       string                  `json:"status,omitempty"`
	PropertyType string                  `json:"property_type,omitempty"`
	OfferType    string                  `json:"offer_type,omitempty"`
	OwnerID      *string                 `json:"owner_id,omitempty"`
	ImageURL     string                  `json:"image_url,omitempty"`
	Details      *domain.PropertyDetails `json:"details,omitempty"`
}

type UpdatePropertyRequest struct {
	Title        *string                 `json:"title,omitempty"`
	Description  *string                 `json:"description,omitempty"`
	Address      *string                 `json:"address,omitempty"`
	Latitude     *float64                `json:"latitude,omitempty"`
	Longitude    *float64                `json:"longitude,omitempty"`
	Status       *string                 `json:"status,omitempty"`
	PropertyType *string                 `json:"property_type,omitempty"`
	OfferType    *string                 `json:"offer_type,omitempty"`
	OwnerID      *string                 `json:"owner_id,omitempty"`
	ClearOwner   bool                    `json:"clear_owner,omitempty"`
	ImageURL     *string                 `json:"image_url,omitempty"`
	Details      *domain.PropertyDetails `json:"details,omitempty"`
}

type CreateScheduleRequest struct {
	Date        string `json:"date" format:"date"`
	ClientName  string `json:"client_name"`
	Description string `json:"description,omitempty"`
	PropertyID  string `json:"property_id,omitempty"`
	Status      string `json:"status,omitempty"`
	RRule       string `json:"rrule,omitempty" example:"FREQ=WEEKLY;COUNT=4"`
}

type UpdateScheduleStatusRequest struct {
	Status string `json:"status"`
}

// CalendarActionRequest is a calendar transition. first_upcoming jumps to
// the date of the next appointment.
type CalendarActionRequest struct {
	Action string `json:"action" enum:"prev_month,next_month,jump_to_month,jump_to_date,today,select_day,close_dialog,first_upcoming"`
	Year   int    `json:"year,omitempty"`
	Month  int    `json:"month,omitempty"`
	Day    int    `json:"day,omitempty"`
	Date   string `json:"date,omitempty"`
}

type NavigateRequest struct {
	Item string `json:"item"`
}

type SidebarRequest struct {
	// Open sets the sidebar; omitted toggles it.
	Open *bool `json:"open,omitempty"`
}

// Responses

type DevLoginResponse struct {
	Token string `json:"token"`
}

type WhoAmIResponse struct {
	Advisor     domain.Advisor `json:"advisor"`
	Permissions []string       `json:"permissions"`
	Source      string         `json:"source"`
}

type APIKeyResponse struct {
	domain.APIKey
	// Key is only returned on creation.
	Key string `json:"key,omitempty"`
}

// SessionResponse carries the session and, while the day dialog is open,
// the selected day's agenda.
type SessionResponse struct {
	Session viewmodel.Snapshot `json:"session"`
	Agenda  []domain.Schedule  `json:"agenda,omitempty"`
}

type paginatedEvents struct {
	Items      []domain.Event `json:"items"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

type scheduleList struct {
	Items  []domain.Schedule `json:"items"`
	Groups []views.DateGroup `json:"groups,omitempty"`
}

func nonNilSlice[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
