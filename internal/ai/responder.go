package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/support-ai-platform/pkg/logging"
)

var responderTracer = otel.Tracer("support.internal.ai")

const (
	// SuccessConfidence is reported for every reply the provider produced.
	SuccessConfidence = 0.9
	// DefaultTemperature applies when the tenant leaves it unset.
	DefaultTemperature float32 = 0.7
	// UnsupportedReply is returned for provider names we do not know.
	UnsupportedReply = "AI provider not supported."
	// ErrorReplyPrefix starts every reply produced from a provider failure.
	ErrorReplyPrefix = "[AI Error]: "
)

var knownProviders = map[string]bool{ProviderOpenAI: true, ProviderGemini: true, ProviderBedrock: true}

// Request is one reply generation for an inbound message.
type Request struct {
	Message      string
	SystemPrompt string
	Provider     string
	Model        string
	Temperature  *float32
}

// Reply is the generated text and the confidence attached to it.
type Reply struct {
	Text       string
	Confidence float64
	Provider   string
}

// Observer receives one outcome per generation ("ok", "error", "unsupported").
type Observer interface {
	ObserveAIReply(provider, result string, elapsed time.Duration)
}

// Responder turns a message into a reply without ever returning an error.
type Responder struct {
	registry        *Registry
	defaultProvider string
	timeout         time.Duration
	logger          *logging.Logger
	observer        Observer
}

// ResponderOption configures a Responder.
type ResponderOption func(*Responder)

// WithTimeout bounds each provider call.
func WithTimeout(d time.Duration) ResponderOption {
	return func(r *Responder) { r.timeout = d }
}

// WithObserver records outcomes, typically into Prometheus.
func WithObserver(o Observer) ResponderOption {
	return func(r *Responder) { r.observer = o }
}

// NewResponder builds a Responder. defaultProvider is used when a tenant has none.
func NewResponder(registry *Registry, defaultProvider string, logger *logging.Logger, opts ...ResponderOption) *Responder {
	if registry == nil {
		registry = NewRegistry()
	}
	if logger == nil {
		logger = logging.Default()
	}
	r := &Responder{
		registry:        registry,
		defaultProvider: normalizeProvider(defaultProvider),
		timeout:         30 * time.Second,
		logger:          logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Generate asks the tenant's provider for a reply. Provider failures become
// an "[AI Error]: ..." reply with zero confidence.
func (r *Responder) Generate(ctx context.Context, req Request) Reply {
	provider := normalizeProvider(req.Provider)
	if provider == "" {
		provider = r.defaultProvider
	}
	ctx, span := responderTracer.Start(ctx, "ai.generate")
	defer span.End()
	span.SetAttributes(attribute.String("support.ai.provider", provider))

	start := time.Now()
	if !knownProviders[provider] {
		r.observe(provider, "unsupported", start)
		return Reply{Text: UnsupportedReply, Confidence: 0, Provider: provider}
	}

	text, err := r.complete(ctx, provider, req)
	if err != nil {
		span.RecordError(err)
		r.logger.Error("ai response error", "provider", provider, "error", err)
		r.observe(provider, "error", start)
		return Reply{Text: ErrorReplyPrefix + err.Error(), Confidence: 0, Provider: provider}
	}
	r.observe(provider, "ok", start)
	return Reply{Text: text, Confidence: SuccessConfidence, Provider: provider}
}

func (r *Responder) complete(ctx context.Context, provider string, req Request) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("provider panic: %v", rec)
		}
	}()

	client, err := r.registry.Get(provider)
	if err != nil {
		return "", fmt.Errorf("%s is not configured", provider)
	}
	temperature := DefaultTemperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}
	llmReq := LLMRequest{
		Model:       strings.TrimSpace(req.Model),
		Messages:    []ChatMessage{{Role: ChatRoleUser, Content: req.Message}},
		Temperature: temperature,
	}
	if strings.TrimSpace(req.SystemPrompt) != "" {
		llmReq.System = []string{req.SystemPrompt}
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	resp, err := client.Complete(ctx, llmReq)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(resp.Text) == "" {
		return "", errors.New("empty response")
	}
	return resp.Text, nil
}

func (r *Responder) observe(provider, result string, start time.Time) {
	if r.observer != nil {
		r.observer.ObserveAIReply(provider, result, time.Since(start))
	}
}
