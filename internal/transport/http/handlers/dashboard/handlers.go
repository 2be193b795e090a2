package dashboardhandler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"attend/internal/domain/audit"
	"attend/internal/domain/auth"
	"attend/internal/domain/reports"
	"attend/internal/transport/http/api"
	"attend/internal/transport/http/middleware"
)

type Handler struct {
	Reports *reports.Service
	Audit   *audit.Service
}

func NewHandler(reportsSvc *reports.Service, auditSvc *audit.Service) *Handler {
	return &Handler{Reports: reportsSvc, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequireRole(auth.RoleMD)).Get("/dashboard/stats", h.handleStats)
	r.With(middleware.RequireRole(auth.RoleMD)).Get("/dashboard/audit", h.handleAudit)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	stats, err := h.Reports.DashboardStats(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "stats_failed", "failed to compute dashboard stats", requestID)
		return
	}
	api.Success(w, stats, requestID)
}

func (h *Handler) handleAudit(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	limit := queryInt(r, "limit", 50)
	if limit < 1 || limit > 200 {
		limit = 50
	}
	offset := queryInt(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	events, err := h.Audit.List(r.Context(), limit, offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "audit_failed", "failed to list audit events", requestID)
		return
	}
	api.Success(w, events, requestID)
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
