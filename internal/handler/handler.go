package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/mtlprog/opschief/internal/domain"
	"github.com/mtlprog/opschief/internal/handler/dto"
	"github.com/mtlprog/opschief/internal/metrics"
	"github.com/mtlprog/opschief/internal/middleware"
	"github.com/mtlprog/opschief/internal/repository"
	"github.com/mtlprog/opschief/internal/service"
)

// ResolutionHistory reads the resolution audit log.
type ResolutionHistory interface {
	ListByEvent(ctx context.Context, eventID string) ([]domain.Resolution, error)
	GetRuleStats(ctx context.Context, filters repository.StatsFilters) ([]repository.RuleStatsResult, error)
}

// Deps holds everything the handlers need.
type Deps struct {
	Events    service.EventStore
	Staff     service.StaffDirectory
	History   ResolutionHistory
	Manager   *service.Manager
	Metrics   *metrics.Metrics
	Operators middleware.OperatorSource // nil disables authentication
	Ping      func(ctx context.Context) error
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	events         service.EventStore
	staff          service.StaffDirectory
	history        ResolutionHistory
	manager        *service.Manager
	metrics        *metrics.Metrics
	authMiddleware *middleware.AuthMiddleware
	ping           func(ctx context.Context) error
}

// New creates a new Handler instance with all dependencies.
func New(d Deps) *Handler {
	h := &Handler{
		events:  d.Events,
		staff:   d.Staff,
		history: d.History,
		manager: d.Manager,
		metrics: d.Metrics,
		ping:    d.Ping,
	}
	if d.Operators != nil {
		h.authMiddleware = middleware.NewAuthMiddleware(d.Operators)
	}
	return h
}

// Routes returns the instrumented mux with every route registered.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	var obs middleware.RequestObserver
	if h.metrics != nil {
		obs = h.metrics
	}
	return middleware.Observe(obs, mux)
}

// RegisterRoutes registers all HTTP routes.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Health check
	mux.HandleFunc("GET /healthz", h.handleHealthz)

	if h.metrics != nil {
		mux.Handle("GET /metrics", h.metrics.Handler())
	}

	// API v1 routes with authentication
	mux.Handle("GET /api/v1/alerts", h.protect(h.handleListAlerts))
	mux.Handle("GET /api/v1/staff", h.protect(h.handleListStaff))
	mux.Handle("GET /api/v1/session", h.protect(h.handleGetSession))
	mux.Handle("POST /api/v1/session", h.protect(h.handleOpenSession))
	mux.Handle("DELETE /api/v1/session", h.protect(h.handleCancelSession))
	mux.Handle("PUT /api/v1/session/assignee", h.protect(h.handleSelectAssignee))
	mux.Handle("PUT /api/v1/session/notes", h.protect(h.handleSetNotes))
	mux.Handle("POST /api/v1/session/submit", h.protect(h.handleSubmit))
	mux.Handle("DELETE /api/v1/session/notice", h.protect(h.handleDismissNotice))
	mux.Handle("GET /api/v1/events/{id}/resolutions", h.protect(h.handleListResolutions))
	mux.Handle("GET /api/v1/stats", h.protect(h.handleGetStats))
}

func (h *Handler) protect(fn http.HandlerFunc) http.Handler {
	if h.authMiddleware == nil {
		return fn
	}
	return h.authMiddleware.Authenticate(fn)
}

// handleHealthz returns 200 OK if the event store is reachable.
func (h *Handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if h.ping != nil {
		if err := h.ping(r.Context()); err != nil {
			slog.Error("database health check failed", "error", err)
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
	}

	w.WriteHeader(http.StatusOK)
}

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// respondError writes a standard error response.
func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, dto.NewErrorResponse(code, message))
}

// respondDomainError maps err with dto.MapDomainError and writes it.
func respondDomainError(w http.ResponseWriter, err error) {
	status, code, message := dto.MapDomainError(err)
	respondError(w, status, code, message)
}

// decodeBody decodes the JSON request body into v.
// Returns false if the body is invalid (error already sent to client).
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return false
	}
	return true
}
