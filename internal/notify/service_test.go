package notify

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/support-ai-platform/internal/events"
	"github.com/wolfman30/support-ai-platform/internal/tenant"
)

type captureSender struct {
	sent []EmailMessage
	err  error
}

func (c *captureSender) Send(_ context.Context, msg EmailMessage) error {
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, msg)
	return nil
}

type mapDirectory struct {
	tenants map[string]*tenant.Tenant
	err     error
}

func (d *mapDirectory) ChannelByIdentifier(context.Context, string, string) (*tenant.Channel, error) {
	return nil, tenant.ErrNotFound
}

func (d *mapDirectory) ChannelByID(context.Context, string) (*tenant.Channel, error) {
	return nil, tenant.ErrNotFound
}

func (d *mapDirectory) Tenant(_ context.Context, id string) (*tenant.Tenant, error) {
	if d.err != nil {
		return nil, d.err
	}
	t, ok := d.tenants[id]
	if !ok {
		return nil, tenant.ErrNotFound
	}
	return t, nil
}

func confirmedEntry(t *testing.T, tenantID string) events.OutboxEntry {
	t.Helper()
	payload, err := json.Marshal(events.AppointmentConfirmed{
		AppointmentID:   "appt-1",
		TenantID:        tenantID,
		CustomerContact: "+15551234567",
		Service:         "Facial <deluxe>",
		ConfirmedTime:   time.Date(2026, time.March, 10, 14, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return events.OutboxEntry{ID: uuid.New(), TenantID: tenantID, Type: events.TypeAppointmentConfirmed, Payload: payload}
}

func TestServiceSendsBookingEmail(t *testing.T) {
	sender := &captureSender{}
	dir := &mapDirectory{tenants: map[string]*tenant.Tenant{
		"tenant-1": {ID: "tenant-1", Name: "Glow Spa", NotificationEmail: "owner@glow.example"},
	}}
	svc := NewService(sender, dir, nil)

	require.NoError(t, svc.Handle(context.Background(), confirmedEntry(t, "tenant-1")))
	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	assert.Equal(t, "owner@glow.example", msg.To)
	assert.Equal(t, "Glow Spa", msg.ToName)
	assert.Equal(t, "New booking: Facial <deluxe> on Tuesday, March 10 at 2:00 PM", msg.Subject)
	assert.Contains(t, msg.Body, "+15551234567")
	assert.Contains(t, msg.HTML, "Facial &lt;deluxe&gt;")
	assert.Equal(t, CategoryBookingConfirmed, msg.Category)
	assert.Equal(t, map[string]string{"tenant_id": "tenant-1", "appointment_id": "appt-1"}, msg.Tags)
}

func TestBookingConfirmedEmailUsesTenantTimezone(t *testing.T) {
	if _, err := time.LoadLocation("America/New_York"); err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	tn := &tenant.Tenant{ID: "tenant-1", Name: "Glow Spa", Timezone: "America/New_York", NotificationEmail: " owner@glow.example "}
	msg := BookingConfirmedEmail(tn, events.AppointmentConfirmed{
		AppointmentID: "appt-9",
		ConfirmedTime: time.Date(2026, time.March, 10, 18, 0, 0, 0, time.UTC),
	})

	assert.Equal(t, "owner@glow.example", msg.To)
	assert.Equal(t, "New booking: Appointment on Tuesday, March 10 at 2:00 PM", msg.Subject)
	assert.Contains(t, msg.Body, "Customer: N/A")
}

func TestServiceSkipsTenantsWithoutEmail(t *testing.T) {
	sender := &captureSender{}
	dir := &mapDirectory{tenants: map[string]*tenant.Tenant{"tenant-1": {ID: "tenant-1"}}}

	require.NoError(t, NewService(sender, dir, nil).Handle(context.Background(), confirmedEntry(t, "tenant-1")))
	assert.Empty(t, sender.sent)
}

func TestServiceDropsMissingTenant(t *testing.T) {
	sender := &captureSender{}
	svc := NewService(sender, &mapDirectory{}, nil)
	require.NoError(t, svc.Handle(context.Background(), confirmedEntry(t, "ghost")))
	assert.Empty(t, sender.sent)
}

func TestServiceReturnsRetryableErrors(t *testing.T) {
	dir := &mapDirectory{tenants: map[string]*tenant.Tenant{
		"tenant-1": {ID: "tenant-1", NotificationEmail: "owner@glow.example"},
	}}
	err := NewService(&captureSender{err: errors.New("smtp down")}, dir, nil).Handle(context.Background(), confirmedEntry(t, "tenant-1"))
	require.Error(t, err)

	err = NewService(&captureSender{}, &mapDirectory{err: errors.New("db down")}, nil).Handle(context.Background(), confirmedEntry(t, "tenant-1"))
	require.Error(t, err)
}

func TestServiceIgnoresUnknownTypes(t *testing.T) {
	svc := NewService(&captureSender{}, &mapDirectory{}, nil)
	require.NoError(t, svc.Handle(context.Background(), events.OutboxEntry{Type: "something.else.v1"}))
}

func TestServiceRejectsBadPayload(t *testing.T) {
	svc := NewService(&captureSender{}, &mapDirectory{}, nil)
	err := svc.Handle(context.Background(), events.OutboxEntry{Type: events.TypeAppointmentConfirmed, Payload: []byte("{")})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "decode"))
}
