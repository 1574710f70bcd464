package appointments

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/wolfman30/support-ai-platform/internal/tenancy"
	"github.com/wolfman30/support-ai-platform/pkg/logging"
)

// Handler serves the tenant-facing appointment management API.
type Handler struct {
	repo   Repository
	logger *logging.Logger
	now    func() time.Time
}

// NewHandler creates an appointments handler.
func NewHandler(repo Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, logger: logger, now: time.Now}
}

// Routes returns the appointment routes. Tenant auth is applied by the caller.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/summary", h.Summary)
	r.Get("/{appointmentID}", h.Get)
	r.Put("/{appointmentID}", h.Update)
	return r
}

// ListResponse is the body of GET /appointments.
type ListResponse struct {
	Appointments []*Appointment `json:"appointments"`
	Total        int            `json:"total"`
}

// List handles GET /appointments.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenancy.TenantIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing tenant")
		return
	}

	q := r.URL.Query()
	var filter ListFilter
	if raw := q.Get("status"); raw != "" {
		status, err := ParseStatus(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid status")
			return
		}
		filter.Status = status
	}
	filter.Service = q.Get("service")
	filter.Search = q.Get("search")
	for key, dest := range map[string]**time.Time{"start_date": &filter.From, "end_date": &filter.To} {
		raw := q.Get(key)
		if raw == "" {
			continue
		}
		t, err := parseDate(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid "+key)
			return
		}
		*dest = &t
	}

	items, err := h.repo.List(r.Context(), tenantID, filter)
	if err != nil {
		h.logger.Error("failed to list appointments", "tenant_id", tenantID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to retrieve appointments")
		return
	}
	if items == nil {
		items = []*Appointment{}
	}
	writeJSON(w, http.StatusOK, ListResponse{Appointments: items, Total: len(items)})
}

// Summary handles GET /appointments/summary?days=N.
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenancy.TenantIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing tenant")
		return
	}
	days := 30
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 365 {
			writeError(w, http.StatusBadRequest, "days must be between 1 and 365")
			return
		}
		days = n
	}

	summary, err := h.repo.Summary(r.Context(), tenantID, days, h.now().UTC())
	if err != nil {
		h.logger.Error("failed to summarize appointments", "tenant_id", tenantID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to retrieve summary")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// Get handles GET /appointments/{appointmentID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenancy.TenantIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing tenant")
		return
	}
	appt, err := h.repo.Get(r.Context(), tenantID, chi.URLParam(r, "appointmentID"))
	if err != nil {
		h.writeRepoError(w, tenantID, err)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

// Create handles POST /appointments for manually entered bookings.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenancy.TenantIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing tenant")
		return
	}
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.CustomerName) == "" || strings.TrimSpace(req.CustomerContact) == "" {
		writeError(w, http.StatusBadRequest, "customer_name and customer_contact are required")
		return
	}
	status := StatusPending
	if req.Status != "" {
		parsed, err := ParseStatus(req.Status)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid status")
			return
		}
		status = parsed
	}

	appt := &Appointment{
		TenantID:        tenantID,
		CustomerName:    strings.TrimSpace(req.CustomerName),
		CustomerContact: strings.TrimSpace(req.CustomerContact),
		Service:         req.Service,
		RequestedTime:   req.RequestedTime,
		ConfirmedTime:   req.ConfirmedTime,
		Status:          status,
		Notes:           req.Notes,
	}
	if err := h.repo.Create(r.Context(), nil, appt); err != nil {
		h.writeRepoError(w, tenantID, err)
		return
	}
	h.logger.Info("appointment created", "tenant_id", tenantID, "appointment_id", appt.ID, "status", appt.Status)
	writeJSON(w, http.StatusCreated, appt)
}

// Update handles PUT /appointments/{appointmentID}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenancy.TenantIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing tenant")
		return
	}
	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	appt, err := h.repo.Get(r.Context(), tenantID, chi.URLParam(r, "appointmentID"))
	if err != nil {
		h.writeRepoError(w, tenantID, err)
		return
	}
	if err := req.Apply(appt); err != nil {
		h.writeRepoError(w, tenantID, err)
		return
	}
	if err := h.repo.Update(r.Context(), appt); err != nil {
		h.writeRepoError(w, tenantID, err)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

func (h *Handler) writeRepoError(w http.ResponseWriter, tenantID string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "appointment not found")
	case errors.Is(err, ErrInvalidStatus), errors.Is(err, ErrMissingConfirmedTime), errors.Is(err, ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case IsConflict(err):
		writeError(w, http.StatusConflict, "time slot already booked")
	default:
		h.logger.Error("appointment store failure", "tenant_id", tenantID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
