// Package booking turns an inbound text into a reply, booking an appointment
// when the text names a service and a concrete future time.
package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/wolfman30/support-ai-platform/internal/ai"
	"github.com/wolfman30/support-ai-platform/internal/appointments"
	"github.com/wolfman30/support-ai-platform/internal/availability"
	"github.com/wolfman30/support-ai-platform/internal/extract"
	"github.com/wolfman30/support-ai-platform/internal/messages"
	"github.com/wolfman30/support-ai-platform/internal/tenant"
	"github.com/wolfman30/support-ai-platform/pkg/logging"
)

var tracer = otel.Tracer("support.internal.booking")

// Outcome names the branch taken for one inbound message.
type Outcome string

const (
	OutcomeNoCandidate  Outcome = "no_candidate"
	OutcomeOutsideHours Outcome = "outside_hours"
	OutcomeSlotTaken    Outcome = "slot_taken"
	OutcomeConfirmed    Outcome = "confirmed"
)

// Fixed confidences for the rule-based branches.
const (
	ConfirmedConfidence = 1.0
	PolicyConfidence    = 0.9
)

// ErrSlotTaken is returned by a Recorder when the write lost the race for the slot.
var ErrSlotTaken = errors.New("booking: slot already taken")

// Extractor finds a candidate appointment in free text.
type Extractor interface {
	Extract(text string, services []string, ref time.Time) extract.Candidate
}

// Availability answers slot questions for a tenant.
type Availability interface {
	IsAvailable(ctx context.Context, tenantID string, requested time.Time, duration time.Duration) (bool, error)
	SuggestSlots(ctx context.Context, tenantID string, day time.Time, openHour, closeHour, max int) ([]time.Time, error)
}

// Responder produces conversational replies. It must not fail.
type Responder interface {
	Generate(ctx context.Context, req ai.Request) ai.Reply
}

// Recorder persists the outcome of a message.
type Recorder interface {
	RecordMessage(ctx context.Context, msg *messages.Record) error
	// RecordBooking writes appt and msg atomically. It returns ErrSlotTaken
	// when the slot was claimed concurrently; nothing is written in that case.
	RecordBooking(ctx context.Context, appt *appointments.Appointment, msg *messages.Record) error
}

// Observer receives one outcome per resolved message.
type Observer interface {
	ObserveBooking(outcome string, elapsed time.Duration)
}

// Inbound is one customer message on a tenant channel.
type Inbound struct {
	Tenant  *tenant.Tenant
	Channel *tenant.Channel
	From    string
	Text    string
}

// Result is what the transport needs to answer the customer.
type Result struct {
	Outcome     Outcome
	Reply       string
	Confidence  float64
	Message     *messages.Record
	Appointment *appointments.Appointment
	Suggestions []time.Time
	// Provider is the AI provider that produced Reply; empty for rule replies.
	Provider string
}

// Config holds booking policy defaults.
type Config struct {
	Hours       tenant.BusinessHours
	Duration    time.Duration
	Suggestions int
}

// Deps are the collaborators of a Resolver.
type Deps struct {
	Extractor    Extractor
	Availability Availability
	Responder    Responder
	Recorder     Recorder
}

// Resolver runs the booking pipeline for SMS and plain conversation for the
// other channels.
type Resolver struct {
	deps     Deps
	cfg      Config
	logger   *logging.Logger
	observer Observer
	now      func() time.Time
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithClock overrides the reference clock.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

// WithObserver records outcomes.
func WithObserver(o Observer) Option {
	return func(r *Resolver) { r.observer = o }
}

// NewResolver builds a Resolver. Zero config values take package defaults.
func NewResolver(deps Deps, cfg Config, logger *logging.Logger, opts ...Option) *Resolver {
	if deps.Extractor == nil || deps.Availability == nil || deps.Responder == nil || deps.Recorder == nil {
		panic("booking: extractor, availability, responder and recorder are required")
	}
	if cfg.Hours.Empty() {
		cfg.Hours = tenant.DefaultBusinessHours
	}
	if cfg.Duration <= 0 {
		cfg.Duration = availability.DefaultDuration
	}
	if cfg.Suggestions <= 0 {
		cfg.Suggestions = availability.DefaultSuggestions
	}
	if logger == nil {
		logger = logging.Default()
	}
	r := &Resolver{deps: deps, cfg: cfg, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve handles an SMS. Exactly one message record is written. Extraction
// and availability problems fall back to a conversational reply; only
// persistence failures are returned.
func (r *Resolver) Resolve(ctx context.Context, in Inbound) (*Result, error) {
	if in.Tenant == nil || in.Channel == nil {
		return nil, errors.New("booking: tenant and channel required")
	}
	ctx, span := tracer.Start(ctx, "booking.resolve")
	defer span.End()
	span.SetAttributes(
		attribute.String("support.tenant_id", in.Tenant.ID),
		attribute.String("support.channel_id", in.Channel.ID),
	)

	start := r.now()
	res, err := r.resolve(ctx, in)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "resolve failed")
		return nil, err
	}
	span.SetAttributes(attribute.String("support.booking.outcome", string(res.Outcome)))
	if r.observer != nil {
		r.observer.ObserveBooking(string(res.Outcome), r.now().Sub(start))
	}
	return res, nil
}

func (r *Resolver) resolve(ctx context.Context, in Inbound) (*Result, error) {
	logger := r.logger.WithTenant(in.Tenant.ID)
	loc := in.Tenant.Location()
	now := r.now().In(loc)

	cand, ok := r.extract(in, now)
	if !ok || !cand.Actionable() {
		return r.converse(ctx, in, OutcomeNoCandidate)
	}
	requested := cand.Time.In(loc)
	hours, ok := in.Tenant.Hours(r.cfg.Hours)
	if !ok {
		logger.Warn("tenant business hours are empty, using defaults",
			"open_time", in.Tenant.OpenTime, "close_time", in.Tenant.CloseTime)
	}

	if !hours.Contains(requested.Hour()) {
		return r.record(ctx, in, &Result{
			Outcome:    OutcomeOutsideHours,
			Reply:      outsideHoursReply(hours),
			Confidence: PolicyConfidence,
		})
	}

	free, err := r.deps.Availability.IsAvailable(ctx, in.Tenant.ID, requested, r.cfg.Duration)
	if err != nil {
		logger.Warn("availability check failed, replying conversationally", "channel_id", in.Channel.ID, "error", err)
		return r.converse(ctx, in, OutcomeNoCandidate)
	}
	if !free {
		return r.slotTaken(ctx, in, requested, hours)
	}

	channelID := in.Channel.ID
	confirmed := requested
	appt := &appointments.Appointment{
		TenantID:        in.Tenant.ID,
		ChannelID:       &channelID,
		CustomerContact: in.From,
		Service:         cand.Service,
		RequestedTime:   &requested,
		ConfirmedTime:   &confirmed,
		Status:          appointments.StatusConfirmed,
	}
	res := &Result{
		Outcome:     OutcomeConfirmed,
		Reply:       confirmedReply(cand.Service, requested),
		Confidence:  ConfirmedConfidence,
		Appointment: appt,
	}
	res.Message = newMessage(in, res.Reply, res.Confidence)

	err = r.deps.Recorder.RecordBooking(ctx, appt, res.Message)
	if errors.Is(err, ErrSlotTaken) {
		logger.Info("slot claimed concurrently", "channel_id", in.Channel.ID, "requested", requested)
		return r.slotTaken(ctx, in, requested, hours)
	}
	if err != nil {
		return nil, fmt.Errorf("booking: record appointment: %w", err)
	}
	logger.Info("appointment confirmed", "appointment_id", appt.ID, "service", appt.Service, "branch", string(OutcomeConfirmed))
	return res, nil
}

// extract never panics; a panic counts as no candidate.
func (r *Resolver) extract(in Inbound, now time.Time) (cand extract.Candidate, ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("extraction panicked", "tenant_id", in.Tenant.ID, "panic", fmt.Sprint(rec))
			cand, ok = extract.Candidate{}, false
		}
	}()
	return r.deps.Extractor.Extract(in.Text, in.Tenant.Services, now), true
}

func (r *Resolver) slotTaken(ctx context.Context, in Inbound, requested time.Time, hours tenant.BusinessHours) (*Result, error) {
	slots, err := r.deps.Availability.SuggestSlots(ctx, in.Tenant.ID, requested, hours.Open, hours.Close, r.cfg.Suggestions)
	if err != nil {
		r.logger.Warn("slot suggestions failed, replying conversationally", "tenant_id", in.Tenant.ID, "error", err)
		return r.converse(ctx, in, OutcomeNoCandidate)
	}
	return r.record(ctx, in, &Result{
		Outcome:     OutcomeSlotTaken,
		Reply:       slotTakenReply(requested, slots),
		Confidence:  PolicyConfidence,
		Suggestions: slots,
	})
}

// Converse replies through the tenant's AI provider without any booking.
// Voice, chat and email use it directly.
func (r *Resolver) Converse(ctx context.Context, in Inbound) (*Result, error) {
	if in.Tenant == nil || in.Channel == nil {
		return nil, errors.New("booking: tenant and channel required")
	}
	ctx, span := tracer.Start(ctx, "booking.converse")
	defer span.End()
	span.SetAttributes(
		attribute.String("support.tenant_id", in.Tenant.ID),
		attribute.String("support.channel_type", in.Channel.Type),
	)
	res, err := r.converse(ctx, in, OutcomeNoCandidate)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "converse failed")
	}
	return res, err
}

func (r *Resolver) converse(ctx context.Context, in Inbound, outcome Outcome) (*Result, error) {
	reply := r.deps.Responder.Generate(ctx, ai.Request{
		Message:      in.Text,
		SystemPrompt: in.Tenant.SystemPrompt,
		Provider:     in.Tenant.AIProvider,
		Model:        in.Tenant.AIModel,
		Temperature:  in.Tenant.Temperature,
	})
	return r.record(ctx, in, &Result{
		Outcome:    outcome,
		Reply:      reply.Text,
		Confidence: reply.Confidence,
		Provider:   reply.Provider,
	})
}

func (r *Resolver) record(ctx context.Context, in Inbound, res *Result) (*Result, error) {
	res.Message = newMessage(in, res.Reply, res.Confidence)
	if err := r.deps.Recorder.RecordMessage(ctx, res.Message); err != nil {
		return nil, fmt.Errorf("booking: record message: %w", err)
	}
	if res.Message.EscalatedToHuman {
		r.logger.Info("message escalated to human", "tenant_id", in.Tenant.ID, "channel_id", in.Channel.ID, "confidence", res.Confidence)
	}
	return res, nil
}

func newMessage(in Inbound, reply string, confidence float64) *messages.Record {
	msg := &messages.Record{
		TenantID:        in.Tenant.ID,
		ChannelID:       in.Channel.ID,
		Direction:       messages.DirectionInbound,
		CustomerContact: strings.TrimSpace(in.From),
		Text:            in.Text,
	}
	msg.ApplyConfidence(reply, confidence)
	return msg
}
