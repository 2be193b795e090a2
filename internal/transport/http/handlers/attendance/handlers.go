package attendancehandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"attend/internal/domain/attendance"
	"attend/internal/domain/audit"
	"attend/internal/domain/auth"
	"attend/internal/domain/calendar"
	"attend/internal/transport/http/api"
	"attend/internal/transport/http/middleware"
	"attend/internal/transport/http/shared"
)

type Handler struct {
	Service *attendance.Service
	Audit   *audit.Service
}

func NewHandler(service *attendance.Service, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/attendance", func(r chi.Router) {
		r.With(middleware.RequireUser).Post("/mark", h.handleMark)
		r.With(middleware.RequireRole(auth.RoleMD)).Post("/status", h.handleDecide)
		r.With(middleware.RequireUser).Get("/{employeeID}", h.handleRange)
	})
}

func (h *Handler) handleMark(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	var payload struct {
		Date         string `json:"date"`
		LocationType string `json:"locationType"`
		SiteName     string `json:"siteName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	v := shared.NewValidator()
	v.Required("locationType", payload.LocationType, "locationType is required")
	v.Enum("locationType", payload.LocationType,
		[]string{string(attendance.LocationOffice), string(attendance.LocationSite)},
		"must be Office or Site")
	if strings.EqualFold(payload.LocationType, string(attendance.LocationSite)) {
		v.Required("siteName", payload.SiteName, "siteName is required for site attendance")
	}

	date := calendar.Today()
	if payload.Date != "" {
		parsed, ok := v.Date("date", payload.Date)
		if ok {
			date = parsed
		}
	}
	if v.Reject(w, requestID) {
		return
	}

	location := attendance.LocationOffice
	if strings.EqualFold(payload.LocationType, string(attendance.LocationSite)) {
		location = attendance.LocationSite
	}

	rec, err := h.Service.Submit(r.Context(), attendance.SubmitInput{
		EmployeeID:   user.EmployeeID,
		Date:         date,
		LocationType: location,
		SiteName:     payload.SiteName,
	})
	if errors.Is(err, attendance.ErrAlreadyDecided) {
		api.Fail(w, http.StatusConflict, "already_decided", "attendance for this date is already decided", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "mark_failed", "failed to record attendance", requestID)
		return
	}

	h.record(r, audit.Entry{
		Actor:  user.EmployeeID,
		Action: "attendance.mark",
		Target: rec.Date.Format(calendar.DateLayout),
		Details: map[string]string{
			"status":   string(rec.Status),
			"location": string(rec.LocationType),
			"ip":       shared.ClientIP(r),
		},
	})
	api.Created(w, rec, requestID)
}

func (h *Handler) handleDecide(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	var payload struct {
		EmployeeID string `json:"employeeId"`
		Date       string `json:"date"`
		Decision   string `json:"decision"`
		Reason     string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	v := shared.NewValidator()
	v.Required("employeeId", payload.EmployeeID, "employeeId is required")
	v.Required("decision", payload.Decision, "decision is required")
	date, _ := v.Date("date", payload.Date)
	if v.Reject(w, requestID) {
		return
	}

	rec, err := h.Service.Decide(r.Context(), attendance.DecideInput{
		MDID:       user.EmployeeID,
		EmployeeID: payload.EmployeeID,
		Date:       date,
		Decision:   attendance.Decision(payload.Decision),
		Reason:     payload.Reason,
	})
	switch {
	case errors.Is(err, attendance.ErrUnknownDecision):
		api.Fail(w, http.StatusBadRequest, "unknown_decision", "decision must be approved or rejected", requestID)
		return
	case errors.Is(err, attendance.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "no attendance record for this employee and date", requestID)
		return
	case errors.Is(err, attendance.ErrInvalidTransition):
		api.Fail(w, http.StatusConflict, "invalid_state", "attendance record is already decided", requestID)
		return
	case err != nil:
		api.Fail(w, http.StatusInternalServerError, "decide_failed", "failed to record decision", requestID)
		return
	}

	h.record(r, audit.Entry{
		Actor:  user.EmployeeID,
		Action: "attendance.decide",
		Target: payload.EmployeeID + "/" + rec.Date.Format(calendar.DateLayout),
		Status: string(rec.Status),
		Details: map[string]string{
			"decision": payload.Decision,
			"reason":   payload.Reason,
		},
	})
	api.Success(w, rec, requestID)
}

func (h *Handler) handleRange(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	employeeID := chi.URLParam(r, "employeeID")

	if user.EmployeeID != employeeID && !auth.IsManager(user.Role) {
		api.Fail(w, http.StatusForbidden, "forbidden", "cannot view another employee's attendance", requestID)
		return
	}

	v := shared.NewValidator()
	from, _ := v.Date("from", r.URL.Query().Get("from"))
	to, _ := v.Date("to", r.URL.Query().Get("to"))
	if v.Reject(w, requestID) {
		return
	}

	records, err := h.Service.ListRange(r.Context(), employeeID, calendar.DateOf(from), calendar.DateOf(to))
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "list_failed", "failed to list attendance", requestID)
		return
	}
	api.Success(w, records, requestID)
}

func (h *Handler) record(r *http.Request, entry audit.Entry) {
	if err := h.Audit.Record(r.Context(), entry); err != nil {
		slog.Warn("audit record failed", "action", entry.Action, "err", err)
	}
}
