// Package tenant holds tenant business configuration and the channel
// directory used to route inbound messages to their owner.
package tenant

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"
)

// ErrNotFound is returned when a tenant or channel lookup has no match.
var ErrNotFound = errors.New("tenant: not found")

// Channel types accepted on inbound transports.
const (
	ChannelSMS   = "sms"
	ChannelVoice = "voice"
	ChannelChat  = "chat"
	ChannelEmail = "email"
)

// Tenant is the business configuration the booking pipeline reads.
type Tenant struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Timezone string   `json:"timezone"`
	Services []string `json:"services"`
	// OpenTime and CloseTime are "HH:MM" strings; only the hour is used.
	OpenTime  string `json:"open_time"`
	CloseTime string `json:"close_time"`

	AIProvider        string   `json:"ai_provider"`
	AIModel           string   `json:"ai_model,omitempty"`
	SystemPrompt      string   `json:"system_prompt,omitempty"`
	Temperature       *float32 `json:"temperature,omitempty"`
	NotificationEmail string   `json:"notification_email,omitempty"`
}

// Channel is an inbound endpoint (phone number, chat widget, mailbox) owned by a tenant.
type Channel struct {
	ID         string `json:"id"`
	TenantID   string `json:"tenant_id"`
	Type       string `json:"type"`
	Identifier string `json:"identifier"`
	Active     bool   `json:"active"`
}

// Directory resolves channels and tenants.
type Directory interface {
	ChannelByIdentifier(ctx context.Context, channelType, identifier string) (*Channel, error)
	ChannelByID(ctx context.Context, id string) (*Channel, error)
	Tenant(ctx context.Context, id string) (*Tenant, error)
}

// BusinessHours is a half-open [Open, Close) range of local hours.
type BusinessHours struct {
	Open  int
	Close int
}

// DefaultBusinessHours applies when neither tenant nor config supply hours.
var DefaultBusinessHours = BusinessHours{Open: 9, Close: 17}

// Contains reports whether the hour falls inside [Open, Close).
func (h BusinessHours) Contains(hour int) bool {
	return hour >= h.Open && hour < h.Close
}

// ParseHour returns the integer prefix before the colon of an "HH:MM" value.
func ParseHour(value string) (int, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if idx := strings.Index(value, ":"); idx >= 0 {
		value = value[:idx]
	}
	hour, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || hour < 0 || hour > 24 {
		return 0, false
	}
	return hour, true
}

// Empty reports whether the range contains no hour at all.
func (h BusinessHours) Empty() bool {
	return h.Close <= h.Open
}

// Hours resolves the tenant's business hours, falling back per field. When
// the result is an empty range such as "22:00"-"06:00", fallback is returned
// whole and ok is false.
func (t *Tenant) Hours(fallback BusinessHours) (hours BusinessHours, ok bool) {
	hours = fallback
	if t == nil {
		return hours, true
	}
	if open, parsed := ParseHour(t.OpenTime); parsed {
		hours.Open = open
	}
	if closeHour, parsed := ParseHour(t.CloseTime); parsed {
		hours.Close = closeHour
	}
	if hours.Empty() {
		return fallback, false
	}
	return hours, true
}

// Location loads the tenant timezone, defaulting to UTC.
func (t *Tenant) Location() *time.Location {
	if t == nil || strings.TrimSpace(t.Timezone) == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(strings.TrimSpace(t.Timezone))
	if err != nil {
		return time.UTC
	}
	return loc
}
