// Package metrics holds the Prometheus collectors for the support backend.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SupportMetrics exposes counters/histograms for inbound traffic, booking
// outcomes, AI replies and outbox delivery.
type SupportMetrics struct {
	inboundTotal    *prometheus.CounterVec
	webhookLatency  *prometheus.HistogramVec
	bookingOutcomes *prometheus.CounterVec
	resolveLatency  prometheus.Histogram
	aiReplies       *prometheus.CounterVec
	aiLatency       *prometheus.HistogramVec
	outboxDelivered *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *SupportMetrics {
	m := &SupportMetrics{
		inboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "support",
			Subsystem: "messaging",
			Name:      "inbound_webhook_total",
			Help:      "Total inbound webhooks by channel and response status",
		}, []string{"channel", "status"}),
		webhookLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "support",
			Subsystem: "messaging",
			Name:      "webhook_latency_seconds",
			Help:      "Latency of inbound webhook processing",
			Buckets:   prometheus.DefBuckets,
		}, []string{"channel"}),
		bookingOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "support",
			Subsystem: "booking",
			Name:      "outcomes_total",
			Help:      "Resolved SMS messages by booking outcome",
		}, []string{"outcome"}),
		resolveLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "support",
			Subsystem: "booking",
			Name:      "resolve_seconds",
			Help:      "Time spent resolving an inbound SMS",
			Buckets:   prometheus.DefBuckets,
		}),
		aiReplies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "support",
			Subsystem: "ai",
			Name:      "replies_total",
			Help:      "AI reply generations by provider and result",
		}, []string{"provider", "result"}),
		aiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "support",
			Subsystem: "ai",
			Name:      "reply_seconds",
			Help:      "AI provider latency",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		}, []string{"provider"}),
		outboxDelivered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "support",
			Subsystem: "outbox",
			Name:      "deliveries_total",
			Help:      "Outbox delivery attempts by event type and result",
		}, []string{"event_type", "result"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.inboundTotal, m.webhookLatency, m.bookingOutcomes, m.resolveLatency,
		m.aiReplies, m.aiLatency, m.outboxDelivered)
	return m
}

func (m *SupportMetrics) ObserveInbound(channel, status string) {
	if m == nil {
		return
	}
	m.inboundTotal.WithLabelValues(channel, status).Inc()
}

func (m *SupportMetrics) ObserveWebhookLatency(channel string, seconds float64) {
	if m == nil {
		return
	}
	m.webhookLatency.WithLabelValues(channel).Observe(seconds)
}

// ObserveBooking records one resolver outcome.
func (m *SupportMetrics) ObserveBooking(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.bookingOutcomes.WithLabelValues(outcome).Inc()
	m.resolveLatency.Observe(elapsed.Seconds())
}

// ObserveAIReply records one reply generation.
func (m *SupportMetrics) ObserveAIReply(provider, result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.aiReplies.WithLabelValues(provider, result).Inc()
	m.aiLatency.WithLabelValues(provider).Observe(elapsed.Seconds())
}

func (m *SupportMetrics) ObserveOutboxDelivery(eventType string, delivered bool) {
	if m == nil {
		return
	}
	result := "delivered"
	if !delivered {
		result = "failed"
	}
	m.outboxDelivered.WithLabelValues(eventType, result).Inc()
}
