package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/wolfman30/support-ai-platform/internal/events"
	"github.com/wolfman30/support-ai-platform/internal/tenant"
	"github.com/wolfman30/support-ai-platform/pkg/logging"
)

// Service emails tenant operators about outbox events. It implements
// events.DeliveryHandler.
type Service struct {
	email     EmailSender
	directory tenant.Directory
	logger    *logging.Logger
}

// NewService creates a notification service.
func NewService(email EmailSender, directory tenant.Directory, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{email: email, directory: directory, logger: logger}
}

// Handle dispatches one outbox entry. Unknown event types are acknowledged
// so they do not clog the outbox.
func (s *Service) Handle(ctx context.Context, entry events.OutboxEntry) error {
	switch entry.Type {
	case events.TypeAppointmentConfirmed:
		var evt events.AppointmentConfirmed
		if err := json.Unmarshal(entry.Payload, &evt); err != nil {
			return fmt.Errorf("notify: decode %s: %w", entry.Type, err)
		}
		if evt.TenantID == "" {
			evt.TenantID = entry.TenantID
		}
		return s.NotifyAppointmentConfirmed(ctx, evt)
	default:
		s.logger.Warn("notify: ignoring unknown event type", "type", entry.Type, "event_id", entry.ID)
		return nil
	}
}

// NotifyAppointmentConfirmed emails the tenant's notification address.
// Tenants without one are skipped.
func (s *Service) NotifyAppointmentConfirmed(ctx context.Context, evt events.AppointmentConfirmed) error {
	if s.email == nil || s.directory == nil {
		s.logger.Debug("notify: email or tenant directory not configured, skipping")
		return nil
	}
	t, err := s.directory.Tenant(ctx, evt.TenantID)
	if errors.Is(err, tenant.ErrNotFound) {
		s.logger.Warn("notify: tenant gone, dropping notification", "tenant_id", evt.TenantID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("notify: load tenant: %w", err)
	}
	if strings.TrimSpace(t.NotificationEmail) == "" {
		s.logger.Debug("notify: tenant has no notification email", "tenant_id", t.ID)
		return nil
	}

	if err := s.email.Send(ctx, BookingConfirmedEmail(t, evt)); err != nil {
		return err
	}
	s.logger.Info("notify: booking email sent", "tenant_id", t.ID, "appointment_id", evt.AppointmentID)
	return nil
}

var _ events.DeliveryHandler = (*Service)(nil)
