package notify

import (
	"context"
	"fmt"
	"html"
	"sort"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/wolfman30/support-ai-platform/internal/events"
	"github.com/wolfman30/support-ai-platform/internal/tenant"
	"github.com/wolfman30/support-ai-platform/pkg/logging"
)

// EmailSender delivers operator notifications.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// EmailMessage is one notification email. Category and Tags travel to the
// provider so deliveries can be traced back to a tenant and appointment.
type EmailMessage struct {
	To       string
	ToName   string
	Subject  string
	Body     string
	HTML     string
	Category string
	Tags     map[string]string
}

// DefaultFromName is used when no sender name is configured.
const DefaultFromName = "Support Desk"

// CategoryBookingConfirmed marks emails about a newly confirmed appointment.
const CategoryBookingConfirmed = "booking_confirmed"

const bookingTimeLayout = "Monday, January 2 at 3:04 PM"

// BookingConfirmedEmail renders the operator email for a confirmed
// appointment, with the slot shown in the tenant's timezone.
func BookingConfirmedEmail(t *tenant.Tenant, evt events.AppointmentConfirmed) EmailMessage {
	when := evt.ConfirmedTime.In(t.Location()).Format(bookingTimeLayout)
	service := evt.Service
	if service == "" {
		service = "Appointment"
	}
	customer := valueOrNA(evt.CustomerContact)

	body := fmt.Sprintf("A new appointment was booked by SMS.\n\nService: %s\nWhen: %s\nCustomer: %s\nAppointment ID: %s\n",
		service, when, customer, evt.AppointmentID)
	htmlBody := fmt.Sprintf(`<h2>New booking</h2>
<p><strong>Service:</strong> %s<br>
<strong>When:</strong> %s<br>
<strong>Customer:</strong> %s<br>
<strong>Appointment ID:</strong> %s</p>`,
		html.EscapeString(service), html.EscapeString(when),
		html.EscapeString(customer), html.EscapeString(evt.AppointmentID))

	return EmailMessage{
		To:       strings.TrimSpace(t.NotificationEmail),
		ToName:   t.Name,
		Subject:  fmt.Sprintf("New booking: %s on %s", service, when),
		Body:     body,
		HTML:     htmlBody,
		Category: CategoryBookingConfirmed,
		Tags: map[string]string{
			"tenant_id":      t.ID,
			"appointment_id": evt.AppointmentID,
		},
	}
}

func valueOrNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

// tagKeys returns the non-empty tag keys in stable order.
func (m EmailMessage) tagKeys() []string {
	keys := make([]string, 0, len(m.Tags))
	for k, v := range m.Tags {
		if k != "" && v != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// SendGridSender sends through the SendGrid v3 API.
type SendGridSender struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
	logger    *logging.Logger
}

// SendGridConfig holds configuration for SendGrid.
type SendGridConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
}

// NewSendGridSender returns nil without an API key.
func NewSendGridSender(cfg SendGridConfig, logger *logging.Logger) *SendGridSender {
	if cfg.APIKey == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.FromName == "" {
		cfg.FromName = DefaultFromName
	}
	return &SendGridSender{
		client:    sendgrid.NewSendClient(cfg.APIKey),
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		logger:    logger,
	}
}

// message builds the v3 payload. Tags become custom args on the single
// personalization so they come back on SendGrid event webhooks.
func (s *SendGridSender) message(msg EmailMessage) *mail.SGMailV3 {
	m := mail.NewV3Mail()
	m.SetFrom(mail.NewEmail(s.fromName, s.fromEmail))
	m.Subject = msg.Subject

	p := mail.NewPersonalization()
	p.AddTos(mail.NewEmail(msg.ToName, msg.To))
	for _, k := range msg.tagKeys() {
		p.SetCustomArg(k, msg.Tags[k])
	}
	m.AddPersonalizations(p)

	text := msg.Body
	if text == "" {
		text = msg.Subject
	}
	m.AddContent(mail.NewContent("text/plain", text))
	if msg.HTML != "" {
		m.AddContent(mail.NewContent("text/html", msg.HTML))
	}
	if msg.Category != "" {
		m.AddCategories(msg.Category)
	}
	return m
}

// Send delivers msg via SendGrid.
func (s *SendGridSender) Send(ctx context.Context, msg EmailMessage) error {
	if s.client == nil {
		return fmt.Errorf("notify: sendgrid client not configured")
	}

	response, err := s.client.SendWithContext(ctx, s.message(msg))
	if err != nil {
		s.logger.Error("sendgrid send failed", "error", err, "to", msg.To, "category", msg.Category)
		return fmt.Errorf("notify: sendgrid send failed: %w", err)
	}
	if response.StatusCode >= 400 {
		s.logger.Error("sendgrid returned error status", "status", response.StatusCode, "body", response.Body, "to", msg.To)
		return fmt.Errorf("notify: sendgrid returned status %d", response.StatusCode)
	}

	s.logger.Info("email sent via sendgrid", "to", msg.To, "category", msg.Category, "status", response.StatusCode)
	return nil
}

// StubEmailSender only logs. Used locally and when no provider is configured.
type StubEmailSender struct {
	logger *logging.Logger
}

func NewStubEmailSender(logger *logging.Logger) *StubEmailSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &StubEmailSender{logger: logger}
}

func (s *StubEmailSender) Send(ctx context.Context, msg EmailMessage) error {
	args := []any{"to", msg.To, "subject", msg.Subject, "category", msg.Category}
	for _, k := range msg.tagKeys() {
		args = append(args, k, msg.Tags[k])
	}
	s.logger.Info("stub email sender: would send email", args...)
	return nil
}

var (
	_ EmailSender = (*SendGridSender)(nil)
	_ EmailSender = (*StubEmailSender)(nil)
)
