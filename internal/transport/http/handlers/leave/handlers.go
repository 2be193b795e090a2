package leavehandler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"attend/internal/domain/audit"
	"attend/internal/domain/auth"
	"attend/internal/domain/ledger"
	"attend/internal/domain/leave"
	"attend/internal/domain/reports"
	"attend/internal/transport/http/api"
	"attend/internal/transport/http/middleware"
	"attend/internal/transport/http/shared"
)

type Handler struct {
	Service *leave.Service
	Reports *reports.Service
	Audit   *audit.Service
}

func NewHandler(service *leave.Service, reportsSvc *reports.Service, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Reports: reportsSvc, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/leave", func(r chi.Router) {
		r.With(middleware.RequireUser).Post("/apply", h.handleApply)
		r.With(middleware.RequireRole(auth.RoleMD)).Post("/{leaveID}/approve", h.handleApprove)
		r.With(middleware.RequireRole(auth.RoleMD)).Post("/{leaveID}/reject", h.handleReject)
		r.With(middleware.RequireUser).Post("/{leaveID}/cancel", h.handleCancel)
		r.With(middleware.RequireUser).Get("/history/{employeeID}", h.handleHistory)
		r.With(middleware.RequireUser).Get("/history/{employeeID}/export", h.handleHistoryExport)
	})
}

func (h *Handler) handleApply(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	var payload struct {
		EmployeeName string `json:"employeeName"`
		Type         string `json:"type"`
		From         string `json:"from"`
		To           string `json:"to"`
		Reason       string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	v := shared.NewValidator()
	v.Required("type", payload.Type, "type is required")
	from, _ := v.Date("from", payload.From)
	to, _ := v.Date("to", payload.To)
	if v.Reject(w, requestID) {
		return
	}

	req, err := h.Service.Apply(r.Context(), leave.ApplyInput{
		EmployeeID:   user.EmployeeID,
		EmployeeName: payload.EmployeeName,
		Type:         leave.Type(payload.Type),
		From:         from,
		To:           to,
		Reason:       payload.Reason,
	})
	if err != nil {
		h.failApply(w, r, req, err, requestID)
		return
	}

	h.record(r, audit.Entry{
		Actor:  user.EmployeeID,
		Action: "leave.apply",
		Target: req.ID,
		Status: string(req.Status),
		Details: map[string]any{
			"type":      req.Type,
			"totalDays": req.TotalDays,
		},
	})
	api.Created(w, req, requestID)
}

func (h *Handler) failApply(w http.ResponseWriter, r *http.Request, req leave.Request, err error, requestID string) {
	var insufficient *ledger.InsufficientError

	switch {
	case errors.Is(err, leave.ErrAttendanceConflict):
		// The auto-blocked request was persisted; tell the caller both facts.
		h.record(r, audit.Entry{
			Actor:  req.EmployeeID,
			Action: "leave.apply",
			Target: req.ID,
			Status: string(leave.StatusAutoBlocked),
		})
		api.FailWithDetails(w, http.StatusConflict, "attendance_conflict", err.Error(),
			map[string]any{"request": req}, requestID)
	case errors.Is(err, leave.ErrApprovedOverlap), errors.Is(err, leave.ErrPendingOverlap):
		api.Fail(w, http.StatusConflict, "leave_overlap", err.Error(), requestID)
	case errors.As(err, &insufficient):
		api.FailWithDetails(w, http.StatusConflict, "insufficient_balance", err.Error(),
			map[string]int{"available": insufficient.Available, "required": insufficient.Required}, requestID)
	case isValidationErr(err):
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), requestID)
	default:
		api.Fail(w, http.StatusInternalServerError, "apply_failed", "failed to apply for leave", requestID)
	}
}

func isValidationErr(err error) bool {
	for _, candidate := range []error{
		leave.ErrPastStart, leave.ErrRangeInverted, leave.ErrNoBillableDays,
		leave.ErrTooLong, leave.ErrTooFarAhead, leave.ErrHolidayType,
	} {
		if errors.Is(err, candidate) {
			return true
		}
	}
	return false
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, "leave.approve", h.Service.Approve)
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, "leave.reject", h.Service.Reject)
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	leaveID := chi.URLParam(r, "leaveID")

	var payload struct {
		EmployeeID string `json:"employeeId"`
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&payload)
	}

	// Employees cancel their own requests; an MD may cancel on behalf.
	employeeID := user.EmployeeID
	if payload.EmployeeID != "" && auth.IsManager(user.Role) {
		employeeID = payload.EmployeeID
	}

	req, err := h.Service.Cancel(r.Context(), leave.DecisionInput{
		LeaveID:    leaveID,
		EmployeeID: employeeID,
		ActorID:    user.EmployeeID,
		ActorRole:  user.Role,
	})
	if errors.Is(err, leave.ErrInvalidRequest) {
		api.Fail(w, http.StatusConflict, "invalid_state", "leave request is not pending", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "cancel_failed", "failed to cancel leave", requestID)
		return
	}

	h.record(r, audit.Entry{
		Actor:  user.EmployeeID,
		Action: "leave.cancel",
		Target: req.ID,
		Status: string(req.Status),
	})
	api.Success(w, req, requestID)
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, action string, fn func(ctx context.Context, in leave.DecisionInput) (leave.Request, error)) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	leaveID := chi.URLParam(r, "leaveID")

	var payload struct {
		EmployeeID string `json:"employeeId"`
		Reason     string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	v := shared.NewValidator()
	v.Required("employeeId", payload.EmployeeID, "employeeId is required")
	if v.Reject(w, requestID) {
		return
	}

	req, err := fn(r.Context(), leave.DecisionInput{
		LeaveID:    leaveID,
		EmployeeID: payload.EmployeeID,
		ActorID:    user.EmployeeID,
		ActorRole:  user.Role,
		Reason:     payload.Reason,
	})

	var insufficient *ledger.InsufficientError
	switch {
	case errors.Is(err, leave.ErrInvalidRequest):
		api.Fail(w, http.StatusConflict, "invalid_state", "invalid leave request", requestID)
		return
	case errors.As(err, &insufficient):
		api.FailWithDetails(w, http.StatusConflict, "insufficient_balance", err.Error(),
			map[string]int{"available": insufficient.Available, "required": insufficient.Required}, requestID)
		return
	case err != nil:
		api.Fail(w, http.StatusInternalServerError, "decision_failed", "failed to record decision", requestID)
		return
	}

	h.record(r, audit.Entry{
		Actor:  user.EmployeeID,
		Action: action,
		Target: req.ID,
		Status: string(req.Status),
		Details: map[string]string{
			"employeeId": req.EmployeeID,
			"reason":     payload.Reason,
		},
	})
	api.Success(w, req, requestID)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	employeeID := chi.URLParam(r, "employeeID")

	if user.EmployeeID != employeeID && !auth.IsManager(user.Role) {
		api.Fail(w, http.StatusForbidden, "forbidden", "cannot view another employee's leave history", requestID)
		return
	}

	history, err := h.Service.History(r.Context(), employeeID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "history_failed", "failed to list leave history", requestID)
		return
	}
	api.Success(w, history, requestID)
}

func (h *Handler) handleHistoryExport(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	employeeID := chi.URLParam(r, "employeeID")

	if user.EmployeeID != employeeID && !auth.IsManager(user.Role) {
		api.Fail(w, http.StatusForbidden, "forbidden", "cannot export another employee's leave history", requestID)
		return
	}

	pdf, err := h.Reports.LeaveHistoryPDF(r.Context(), employeeID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "export_failed", "failed to export leave history", requestID)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="leave-history.pdf"`)
	if _, err := w.Write(pdf); err != nil {
		slog.Warn("leave history export write failed", "err", err)
	}
}

func (h *Handler) record(r *http.Request, entry audit.Entry) {
	if err := h.Audit.Record(r.Context(), entry); err != nil {
		slog.Warn("audit record failed", "action", entry.Action, "err", err)
	}
}
