package appointments

import (
	"strings"
	"time"
)

// Status is the lifecycle state of an appointment.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCanceled  Status = "canceled"
)

// ParseStatus validates a client supplied status.
func ParseStatus(raw string) (Status, error) {
	switch s := Status(strings.ToLower(strings.TrimSpace(raw))); s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCanceled:
		return s, nil
	default:
		return "", ErrInvalidStatus
	}
}

// Blocking reports whether the status occupies a slot.
func (s Status) Blocking() bool {
	return s == StatusPending || s == StatusConfirmed
}

// Appointment is a booked (or requested) service slot.
type Appointment struct {
	ID              string     `json:"id"`
	TenantID        string     `json:"tenant_id"`
	ChannelID       *string    `json:"channel_id,omitempty"`
	CustomerName    string     `json:"customer_name,omitempty"`
	CustomerContact string     `json:"customer_contact,omitempty"`
	Service         string     `json:"service,omitempty"`
	RequestedTime   *time.Time `json:"requested_time,omitempty"`
	ConfirmedTime   *time.Time `json:"confirmed_time,omitempty"`
	Status          Status     `json:"status"`
	Notes           string     `json:"notes,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// normalize keeps ConfirmedTime set exactly when the status is confirmed.
func (a *Appointment) normalize() error {
	if a.Status == "" {
		a.Status = StatusPending
	}
	if a.Status != StatusConfirmed {
		a.ConfirmedTime = nil
		return nil
	}
	if a.ConfirmedTime == nil {
		if a.RequestedTime == nil {
			return ErrMissingConfirmedTime
		}
		t := *a.RequestedTime
		a.ConfirmedTime = &t
	}
	return nil
}

// CreateRequest is the body of POST /appointments.
type CreateRequest struct {
	CustomerName    string     `json:"customer_name"`
	CustomerContact string     `json:"customer_contact"`
	Service         string     `json:"service"`
	RequestedTime   *time.Time `json:"requested_time"`
	ConfirmedTime   *time.Time `json:"confirmed_time"`
	Status          string     `json:"status"`
	Notes           string     `json:"notes"`
}

// UpdateRequest is a partial update; nil fields are left alone.
type UpdateRequest struct {
	CustomerName    *string    `json:"customer_name"`
	CustomerContact *string    `json:"customer_contact"`
	Service         *string    `json:"service"`
	RequestedTime   *time.Time `json:"requested_time"`
	ConfirmedTime   *time.Time `json:"confirmed_time"`
	Status          *string    `json:"status"`
	Notes           *string    `json:"notes"`
}

// Apply merges the request into appt.
func (u UpdateRequest) Apply(appt *Appointment) error {
	if u.Status != nil {
		status, err := ParseStatus(*u.Status)
		if err != nil {
			return err
		}
		appt.Status = status
	}
	if u.CustomerName != nil {
		appt.CustomerName = *u.CustomerName
	}
	if u.CustomerContact != nil {
		appt.CustomerContact = *u.CustomerContact
	}
	if u.Service != nil {
		appt.Service = *u.Service
	}
	if u.RequestedTime != nil {
		appt.RequestedTime = u.RequestedTime
	}
	if u.ConfirmedTime != nil {
		appt.ConfirmedTime = u.ConfirmedTime
	}
	if u.Notes != nil {
		appt.Notes = *u.Notes
	}
	return appt.normalize()
}

// ListFilter narrows List results. Zero values are ignored.
type ListFilter struct {
	Status  Status
	Service string
	Search  string
	From    *time.Time
	To      *time.Time
}

// TrendPoint is the number of appointments created on one day.
type TrendPoint struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// Summary aggregates appointments created in a trailing window of days.
type Summary struct {
	Total     int          `json:"total"`
	Pending   int          `json:"pending"`
	Confirmed int          `json:"confirmed"`
	Completed int          `json:"completed"`
	Canceled  int          `json:"canceled"`
	Trend     []TrendPoint `json:"trend"`
}

// buildTrend lays out days entries ending at today, filling gaps with zero.
func buildTrend(today time.Time, days int, counts map[string]int) []TrendPoint {
	start := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location()).AddDate(0, 0, -(days - 1))
	trend := make([]TrendPoint, 0, days)
	for i := 0; i < days; i++ {
		key := start.AddDate(0, 0, i).Format("2006-01-02")
		trend = append(trend, TrendPoint{Date: key, Count: counts[key]})
	}
	return trend
}
