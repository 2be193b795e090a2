package holidayshandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"attend/internal/domain/audit"
	"attend/internal/domain/auth"
	"attend/internal/domain/calendar"
	"attend/internal/transport/http/api"
	"attend/internal/transport/http/middleware"
	"attend/internal/transport/http/shared"
)

type Handler struct {
	Store  *calendar.Store
	Policy *calendar.Policy
	Audit  *audit.Service
}

func NewHandler(store *calendar.Store, policy *calendar.Policy, auditSvc *audit.Service) *Handler {
	return &Handler{Store: store, Policy: policy, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/holidays", func(r chi.Router) {
		r.With(middleware.RequireUser).Get("/", h.handleList)
		r.With(middleware.RequireRole(auth.RoleMD)).Post("/", h.handleCreate)
		r.With(middleware.RequireRole(auth.RoleMD)).Delete("/{date}", h.handleDelete)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	holidays, err := h.Store.List(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "list_failed", "failed to list holidays", requestID)
		return
	}
	api.Success(w, holidays, requestID)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	var payload struct {
		Date string `json:"date"`
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	v := shared.NewValidator()
	v.Required("name", payload.Name, "name is required")
	date, _ := v.Date("date", payload.Date)
	if v.Reject(w, requestID) {
		return
	}

	day := calendar.DateOf(date)
	if err := h.Store.Create(r.Context(), day, payload.Name); err != nil {
		api.Fail(w, http.StatusInternalServerError, "create_failed", "failed to create holiday", requestID)
		return
	}
	h.Policy.Invalidate()

	if err := h.Audit.Record(r.Context(), audit.Entry{
		Actor:   user.EmployeeID,
		Action:  "holiday.create",
		Target:  day.Format(calendar.DateLayout),
		Details: map[string]string{"name": payload.Name},
	}); err != nil {
		slog.Warn("audit record failed", "action", "holiday.create", "err", err)
	}
	api.Created(w, calendar.Holiday{Date: day, Name: payload.Name}, requestID)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	v := shared.NewValidator()
	date, _ := v.Date("date", chi.URLParam(r, "date"))
	if v.Reject(w, requestID) {
		return
	}

	day := calendar.DateOf(date)
	err := h.Store.Delete(r.Context(), day)
	if errors.Is(err, calendar.ErrHolidayNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "holiday not found", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "delete_failed", "failed to delete holiday", requestID)
		return
	}
	h.Policy.Invalidate()

	if err := h.Audit.Record(r.Context(), audit.Entry{
		Actor:  user.EmployeeID,
		Action: "holiday.delete",
		Target: day.Format(calendar.DateLayout),
	}); err != nil {
		slog.Warn("audit record failed", "action", "holiday.delete", "err", err)
	}
	api.Success(w, map[string]bool{"deleted": true}, requestID)
}
