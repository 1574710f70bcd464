// Package messaging exposes the inbound webhooks for the SMS, voice, chat
// and email channels.
package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/support-ai-platform/internal/booking"
	"github.com/wolfman30/support-ai-platform/internal/tenant"
	"github.com/wolfman30/support-ai-platform/pkg/logging"
)

var twilioTracer = otel.Tracer("support.internal.messaging.twilio")

// Resolver produces and records replies for inbound messages.
type Resolver interface {
	Resolve(ctx context.Context, in booking.Inbound) (*booking.Result, error)
	Converse(ctx context.Context, in booking.Inbound) (*booking.Result, error)
}

// Metrics records webhook traffic.
type Metrics interface {
	ObserveInbound(channel, status string)
	ObserveWebhookLatency(channel string, seconds float64)
}

// VoiceActionPath is where Twilio posts gathered speech.
const VoiceActionPath = "/voice/receive"

// HandlerConfig wires a Handler.
type HandlerConfig struct {
	// TwilioAuthToken enables X-Twilio-Signature validation when set.
	TwilioAuthToken string
	// PublicBaseURL is the externally visible origin used when validating signatures.
	PublicBaseURL string
	Directory     tenant.Directory
	Resolver      Resolver
	Metrics       Metrics
	Logger        *logging.Logger
}

// Handler handles inbound channel webhooks.
type Handler struct {
	authToken     string
	publicBaseURL string
	directory     tenant.Directory
	resolver      Resolver
	metrics       Metrics
	logger        *logging.Logger
}

// NewHandler creates a new messaging handler.
func NewHandler(cfg HandlerConfig) *Handler {
	if cfg.Directory == nil {
		panic("messaging: tenant directory cannot be nil")
	}
	if cfg.Resolver == nil {
		panic("messaging: resolver cannot be nil")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &Handler{
		authToken:     cfg.TwilioAuthToken,
		publicBaseURL: cfg.PublicBaseURL,
		directory:     cfg.Directory,
		resolver:      cfg.Resolver,
		metrics:       cfg.Metrics,
		logger:        cfg.Logger,
	}
}

// errChannelNotFound covers unknown or inactive channels.
var errChannelNotFound = errors.New("channel not found")

// SMSReceive handles POST /sms/receive. The reply is TwiML.
func (h *Handler) SMSReceive(w http.ResponseWriter, r *http.Request) {
	ctx, span := twilioTracer.Start(r.Context(), "messaging.sms.receive")
	defer span.End()
	rec := h.track(tenant.ChannelSMS)
	defer rec.done()

	if !h.verifyTwilio(r) {
		span.RecordError(errors.New("invalid twilio signature"))
		rec.fail(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	webhook, err := ParseTwilioWebhook(r)
	if err != nil {
		h.logger.Error("failed to parse twilio webhook", "error", err)
		rec.fail(w, http.StatusBadRequest, "Bad Request")
		return
	}
	if webhook.From == "" || strings.TrimSpace(webhook.Body) == "" || webhook.To == "" {
		rec.fail(w, http.StatusBadRequest, fmt.Sprintf("Missing required fields. Got From=%q, Body=%q, To=%q", webhook.From, webhook.Body, webhook.To))
		return
	}
	span.SetAttributes(attribute.String("support.twilio.message_sid", webhook.MessageSid))

	in, status, err := h.lookupByIdentifier(ctx, tenant.ChannelSMS, NormalizeE164(webhook.To))
	if err != nil {
		span.RecordError(err)
		rec.fail(w, status, fmt.Sprintf("SMS channel for %s not found", webhook.To))
		return
	}
	in.From = NormalizeE164(webhook.From)
	in.Text = webhook.Body

	result, err := h.resolver.Resolve(ctx, in)
	if err != nil {
		h.logger.Error("failed to resolve sms", "error", err, "tenant_id", in.Tenant.ID)
		span.RecordError(err)
		rec.fail(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	body, err := MessageTwiML(result.Reply)
	if err != nil {
		rec.fail(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	rec.xml(w, body)
}

// VoiceReceive handles POST /voice/receive. The first callback greets the
// caller; later ones carry SpeechResult and get an AI reply.
func (h *Handler) VoiceReceive(w http.ResponseWriter, r *http.Request) {
	ctx, span := twilioTracer.Start(r.Context(), "messaging.voice.receive")
	defer span.End()
	rec := h.track(tenant.ChannelVoice)
	defer rec.done()

	if !h.verifyTwilio(r) {
		rec.fail(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	webhook, err := ParseTwilioWebhook(r)
	if err != nil {
		rec.fail(w, http.StatusBadRequest, "Bad Request")
		return
	}
	if webhook.From == "" || webhook.To == "" || webhook.CallSid == "" {
		rec.fail(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	span.SetAttributes(attribute.String("support.twilio.call_sid", webhook.CallSid))

	in, status, err := h.lookupByIdentifier(ctx, tenant.ChannelVoice, NormalizeE164(webhook.To))
	if err != nil {
		rec.fail(w, status, "Voice channel not found")
		return
	}

	say := greeting(in.Tenant)
	if webhook.SpeechResult != "" {
		in.From = NormalizeE164(webhook.From)
		in.Text = webhook.SpeechResult
		result, err := h.resolver.Converse(ctx, in)
		if err != nil {
			h.logger.Error("failed to answer voice call", "error", err, "tenant_id", in.Tenant.ID, "call_sid", webhook.CallSid)
			span.RecordError(err)
			rec.fail(w, http.StatusInternalServerError, "Internal Server Error")
			return
		}
		say = result.Reply
	}
	body, err := SayAndGatherTwiML(say, VoiceActionPath)
	if err != nil {
		rec.fail(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	rec.xml(w, body)
}

func greeting(t *tenant.Tenant) string {
	name := strings.TrimSpace(t.Name)
	if name == "" {
		return "Hello! How can I help you today?"
	}
	return fmt.Sprintf("Hello! This is %s. How can I help you today?", name)
}

type chatRequest struct {
	ChannelID       string `json:"channel_id"`
	MessageText     string `json:"message_text"`
	CustomerContact string `json:"customer_contact"`
}

type replyResponse struct {
	ID           string    `json:"id"`
	TenantID     string    `json:"tenant_id"`
	ChannelID    string    `json:"channel_id"`
	MessageText  string    `json:"message_text"`
	AIReply      string    `json:"ai_reply"`
	Confidence   float64   `json:"confidence"`
	Status       string    `json:"status"`
	ProviderUsed string    `json:"provider_used"`
	CreatedAt    time.Time `json:"created_at"`
}

// ChatReceive handles POST /chat/receive.
func (h *Handler) ChatReceive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rec := h.track(tenant.ChannelChat)
	defer rec.done()

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rec.failJSON(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.ChannelID) == "" {
		rec.failJSON(w, http.StatusBadRequest, "channel_id is required")
		return
	}
	if strings.TrimSpace(req.MessageText) == "" {
		rec.failJSON(w, http.StatusBadRequest, "message_text is required")
		return
	}
	if _, err := uuid.Parse(req.ChannelID); err != nil {
		rec.failJSON(w, http.StatusBadRequest, "invalid channel_id UUID format")
		return
	}

	channel, err := h.directory.ChannelByID(ctx, req.ChannelID)
	if err == nil && !channel.Active {
		err = errChannelNotFound
	}
	if err != nil {
		status := h.lookupStatus(err)
		rec.failJSON(w, status, fmt.Sprintf("channel %s not found", req.ChannelID))
		return
	}
	in, status, err := h.inboundFor(ctx, channel)
	if err != nil {
		rec.failJSON(w, status, "tenant not found")
		return
	}
	in.From = strings.TrimSpace(req.CustomerContact)
	if in.From == "" {
		in.From = "anonymous"
	}
	in.Text = req.MessageText
	h.converseJSON(ctx, w, rec, in)
}

type emailRequest struct {
	To            string `json:"to"`
	CustomerEmail string `json:"customer_email"`
	Message       string `json:"message"`
}

// EmailReceive handles POST /email/receive. The mailbox in "to" selects the
// email channel.
func (h *Handler) EmailReceive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rec := h.track(tenant.ChannelEmail)
	defer rec.done()

	var req emailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rec.failJSON(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	to := strings.ToLower(strings.TrimSpace(req.To))
	if to == "" || strings.TrimSpace(req.CustomerEmail) == "" || strings.TrimSpace(req.Message) == "" {
		rec.failJSON(w, http.StatusBadRequest, "to, customer_email and message are required")
		return
	}
	in, status, err := h.lookupByIdentifier(ctx, tenant.ChannelEmail, to)
	if err != nil {
		rec.failJSON(w, status, "email channel not found")
		return
	}
	in.From = strings.TrimSpace(req.CustomerEmail)
	in.Text = req.Message
	h.converseJSON(ctx, w, rec, in)
}

func (h *Handler) converseJSON(ctx context.Context, w http.ResponseWriter, rec *requestRecorder, in booking.Inbound) {
	result, err := h.resolver.Converse(ctx, in)
	if err != nil {
		h.logger.Error("failed to answer message", "error", err, "tenant_id", in.Tenant.ID, "channel", in.Channel.Type)
		rec.failJSON(w, http.StatusInternalServerError, "internal error")
		return
	}
	msg := result.Message
	provider := result.Provider
	if provider == "" {
		provider = in.Tenant.AIProvider
	}
	rec.json(w, replyResponse{
		ID:           msg.ID,
		TenantID:     msg.TenantID,
		ChannelID:    msg.ChannelID,
		MessageText:  msg.Text,
		AIReply:      result.Reply,
		Confidence:   result.Confidence,
		Status:       msg.Status,
		ProviderUsed: provider,
		CreatedAt:    msg.CreatedAt,
	})
}

// HealthCheck returns a simple health check response.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (h *Handler) lookupByIdentifier(ctx context.Context, channelType, identifier string) (booking.Inbound, int, error) {
	if identifier == "" {
		return booking.Inbound{}, http.StatusNotFound, errChannelNotFound
	}
	channel, err := h.directory.ChannelByIdentifier(ctx, channelType, identifier)
	if err == nil && !channel.Active {
		err = errChannelNotFound
	}
	if err != nil {
		return booking.Inbound{}, h.lookupStatus(err), err
	}
	return h.inboundFor(ctx, channel)
}

func (h *Handler) inboundFor(ctx context.Context, channel *tenant.Channel) (booking.Inbound, int, error) {
	t, err := h.directory.Tenant(ctx, channel.TenantID)
	if err != nil {
		return booking.Inbound{}, h.lookupStatus(err), err
	}
	return booking.Inbound{Tenant: t, Channel: channel}, http.StatusOK, nil
}

func (h *Handler) lookupStatus(err error) int {
	if errors.Is(err, tenant.ErrNotFound) || errors.Is(err, errChannelNotFound) {
		return http.StatusNotFound
	}
	h.logger.Error("tenant directory lookup failed", "error", err)
	return http.StatusInternalServerError
}

func (h *Handler) verifyTwilio(r *http.Request) bool {
	if h.authToken == "" {
		return true
	}
	if ValidateTwilioSignature(r, h.authToken, buildAbsoluteURL(r, h.publicBaseURL)) {
		return true
	}
	h.logger.Warn("invalid twilio signature", "path", r.URL.Path)
	return false
}

func buildAbsoluteURL(r *http.Request, publicBaseURL string) string {
	if r.URL == nil {
		return ""
	}
	if base := strings.TrimRight(strings.TrimSpace(publicBaseURL), "/"); base != "" {
		return base + r.URL.RequestURI()
	}
	if r.URL.Scheme != "" && r.URL.Host != "" {
		return r.URL.String()
	}
	scheme := r.Header.Get("X-Forwarded-Proto")
	if scheme == "" {
		scheme = "https"
		if r.TLS == nil {
			scheme = "http"
		}
	}
	host := r.Header.Get("X-Forwarded-Host")
	if host == "" {
		host = r.Host
	}
	return fmt.Sprintf("%s://%s%s", scheme, host, r.URL.RequestURI())
}

// requestRecorder reports the final status and latency of one webhook.
type requestRecorder struct {
	h       *Handler
	channel string
	start   time.Time
	status  int
}

func (h *Handler) track(channel string) *requestRecorder {
	return &requestRecorder{h: h, channel: channel, start: time.Now(), status: http.StatusOK}
}

func (rr *requestRecorder) done() {
	if rr.h.metrics == nil {
		return
	}
	rr.h.metrics.ObserveInbound(rr.channel, fmt.Sprint(rr.status))
	rr.h.metrics.ObserveWebhookLatency(rr.channel, time.Since(rr.start).Seconds())
}

func (rr *requestRecorder) fail(w http.ResponseWriter, status int, msg string) {
	rr.status = status
	http.Error(w, msg, status)
}

func (rr *requestRecorder) failJSON(w http.ResponseWriter, status int, msg string) {
	rr.status = status
	writeJSON(w, status, map[string]string{"error": msg})
}

func (rr *requestRecorder) xml(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (rr *requestRecorder) json(w http.ResponseWriter, v any) {
	writeJSON(w, http.StatusOK, v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
