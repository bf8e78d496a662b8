package domain

import (
	"errors"
	"fmt"
)

type Advisor struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	Role      string `json:"role" enum:"advisor,manager"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

const (
	RoleAdvisor = "advisor"
	RoleManager = "manager"
)

// Client is a property owner managed by an advisor.
type Client struct {
	ID         string            `json:"id"`
	AdvisorID  string            `json:"advisor_id"`
	Name       string            `json:"name"`
	LastName   string            `json:"last_name"`
	NationalID string            `json:"national_id"`
	Phone      string            `json:"phone,omitempty"`
	Email      string            `json:"email,omitempty"`
	CreatedAt  string            `json:"created_at" format:"date-time"`
	Properties []PropertySummary `json:"properties"`
}

func (c Client) FullName() string {
	if c.LastName == "" {
		return c.Name
	}
	return c.Name + " " + c.LastName
}

type PropertySummary struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Address string `json:"address,omitempty"`
	Status  string `json:"status"`
}

type Property struct {
	ID           string           `json:"id"`
	AdvisorID    string           `json:"advisor_id"`
	OwnerID      *string          `json:"owner_id,omitempty"`
	Title        string           `json:"title"`
	Description  string           `json:"description,omitempty"`
	Address      string           `json:"address,omitempty"`
	Latitude     *float64         `json:"latitude,omitempty"`
	Longitude    *float64         `json:"longitude,omitempty"`
	Status       string           `json:"status" enum:"available,reserved,sold,rented"`
	PropertyType string           `json:"property_type,omitempty"`
	OfferType    string           `json:"offer_type,omitempty"`
	ImageURL     string           `json:"image_url,omitempty"`
	Details      *PropertyDetails `json:"details,omitempty"`
	CreatedAt    string           `json:"created_at" format:"date-time"`
	UpdatedAt    string           `json:"updated_at" format:"date-time"`
}

// Price returns the listed price, zero when no details were recorded.
func (p Property) Price() float64 {
	if p.Details == nil || p.Details.Price == nil {
		return 0
	}
	return *p.Details.Price
}

type PropertyDetails struct {
	Price        *float64 `json:"price,omitempty"`
	Bedrooms     *int     `json:"bedrooms,omitempty"`
	Bathrooms    *int     `json:"bathrooms,omitempty"`
	HalfBaths    *int     `json:"half_baths,omitempty"`
	AreaSqm      *float64 `json:"area_sqm,omitempty"`
	LotSize      *float64 `json:"lot_size,omitempty"`
	ParkingSpots *int     `json:"parking_spots,omitempty"`
	IsFurnished  bool     `json:"is_furnished" required:"false"`
	Period       string   `json:"period,omitempty" enum:"monthly,yearly,once"`
}

const (
	PropertyAvailable = "available"
	PropertyReserved  = "reserved"
	PropertySold      = "sold"
	PropertyRented    = "rented"
)

// PropertyStatuses lists the accepted property states in display order.
var PropertyStatuses = []string{PropertyAvailable, PropertyReserved, PropertySold, PropertyRented}

// NormalizePropertyStatus maps legacy spellings onto the canonical set.
func NormalizePropertyStatus(s string) (string, error) {
	switch s {
	case "", PropertyAvailable:
		return PropertyAvailable, nil
	case PropertyReserved, PropertySold, PropertyRented:
		return s, nil
	case "saled":
		return PropertySold, nil
	}
	return "", InvalidArgument("status", s, "unknown property status")
}

// ScheduleStatus is the fixed appointment status set.
type ScheduleStatus string

const (
	StatusPending   ScheduleStatus = "pending"
	StatusConfirmed ScheduleStatus = "confirmed"
	StatusCompleted ScheduleStatus = "completed"
	StatusCancelled ScheduleStatus = "cancelled"
	StatusNoShow    ScheduleStatus = "no_show"
	StatusPostponed ScheduleStatus = "postponed"
)

var ScheduleStatuses = []ScheduleStatus{
	StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled, StatusNoShow, StatusPostponed,
}

func (s ScheduleStatus) IsValid() bool {
	for _, v := range ScheduleStatuses {
		if s == v {
			return true
		}
	}
	return false
}

func (s ScheduleStatus) Label() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusConfirmed:
		return "Confirmed"
	case StatusCompleted:
		return "Completed"
	case StatusCancelled:
		return "Cancelled"
	case StatusNoShow:
		return "No-show"
	case StatusPostponed:
		return "Postponed"
	default:
		return string(s)
	}
}

// ParseScheduleStatus accepts the canonical token or its label.
func ParseScheduleStatus(s string) (ScheduleStatus, error) {
	for _, v := range ScheduleStatuses {
		if s == string(v) || s == v.Label() {
			return v, nil
		}
	}
	return "", InvalidArgument("status", s, "unknown schedule status")
}

type ScheduleProperty struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
}

// Schedule is an appointment or visit. Date is a plain YYYY-MM-DD date.
// SourceUID is the iCalendar UID of an imported appointment.
type Schedule struct {
	ID          string            `json:"id"`
	AdvisorID   string            `json:"advisor_id"`
	Date        string            `json:"date" format:"date"`
	ClientName  string            `json:"client_name"`
	Description string            `json:"description,omitempty"`
	Status      ScheduleStatus    `json:"status" enum:"pending,confirmed,completed,cancelled,no_show,postponed"`
	Property    *ScheduleProperty `json:"property,omitempty"`
	SeriesID    string            `json:"series_id,omitempty"`
	SourceUID   string            `json:"source_uid,omitempty"`
	CreatedAt   string            `json:"created_at" format:"date-time"`
}

type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts" format:"date-time"`
	Type       string `json:"type"`
	AdvisorID  string `json:"advisor_id,omitempty"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id,omitempty"`
	Payload    string `json:"payload_json"`
}

type APIKey struct {
	ID        string `json:"id"`
	AdvisorID string `json:"advisor_id"`
	Name      string `json:"name,omitempty"`
	KeyHash   string `json:"key_hash"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

// ErrInvalidArgument marks caller errors such as an out-of-range day or month.
var ErrInvalidArgument = errors.New("invalid argument")

type InvalidArgumentError struct {
	Field  string
	Value  any
	Reason string
}

func (e InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Reason)
}

func (e InvalidArgumentError) Is(target error) bool {
	return target == ErrInvalidArgument
}

func InvalidArgument(field string, value any, reason string) error {
	return InvalidArgumentError{Field: field, Value: value, Reason: reason}
}
