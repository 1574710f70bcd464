package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/support-ai-platform/internal/appointments"
	httpmiddleware "github.com/wolfman30/support-ai-platform/internal/http/middleware"
	"github.com/wolfman30/support-ai-platform/internal/messaging"
	"github.com/wolfman30/support-ai-platform/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger       *logging.Logger
	Messaging    *messaging.Handler
	Appointments *appointments.Handler

	// TenantJWTSecret enables /appointments when set.
	TenantJWTSecret    string
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
	// PublicLimiter throttles the unauthenticated chat and email endpoints.
	PublicLimiter *httpmiddleware.RateLimiter
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	r.Use(httpmiddleware.RequestLogger(cfg.Logger))

	r.Get("/health", cfg.Messaging.HealthCheck)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	// Twilio webhooks authenticate by signature.
	r.Post("/sms/receive", cfg.Messaging.SMSReceive)
	r.Post("/voice/receive", cfg.Messaging.VoiceReceive)

	r.Group(func(public chi.Router) {
		if cfg.PublicLimiter != nil {
			public.Use(httpmiddleware.RateLimit(cfg.PublicLimiter))
		}
		public.Post("/chat/receive", cfg.Messaging.ChatReceive)
		public.Post("/email/receive", cfg.Messaging.EmailReceive)
	})

	if cfg.Appointments != nil && cfg.TenantJWTSecret != "" {
		r.With(httpmiddleware.TenantJWT(cfg.TenantJWTSecret)).Mount("/appointments", cfg.Appointments.Routes())
	}

	return r
}
