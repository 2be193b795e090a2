package employeeshandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"attend/internal/domain/audit"
	"attend/internal/domain/auth"
	"attend/internal/domain/employee"
	"attend/internal/domain/ledger"
	"attend/internal/platform/identity"
	"attend/internal/transport/http/api"
	"attend/internal/transport/http/middleware"
	"attend/internal/transport/http/shared"
)

type Handler struct {
	Service *employee.Service
	Ledger  *ledger.Service
	Audit   *audit.Service
}

func NewHandler(service *employee.Service, balances *ledger.Service, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Ledger: balances, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/employees", func(r chi.Router) {
		r.Use(middleware.RequireRole(auth.RoleMD))
		r.Post("/", h.handleOnboard)
		r.Get("/", h.handleList)
		r.Get("/{employeeID}", h.handleGet)
		r.Patch("/{employeeID}/active", h.handleSetActive)
		r.Get("/{employeeID}/balances", h.handleBalances)
		r.Post("/{employeeID}/balances", h.handleAdjustBalance)
	})
}

func (h *Handler) handleOnboard(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	var payload struct {
		Name      string `json:"name"`
		Email     string `json:"email"`
		Password  string `json:"password"`
		Role      string `json:"role"`
		PLBalance int    `json:"plBalance"`
		COBalance int    `json:"coBalance"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	v := shared.NewValidator()
	v.Required("name", payload.Name, "name is required")
	v.Required("email", payload.Email, "email is required")
	v.Required("password", payload.Password, "password is required")
	if payload.PLBalance < 0 || payload.COBalance < 0 {
		v.Add("plBalance", "opening balances cannot be negative")
	}
	if v.Reject(w, requestID) {
		return
	}

	emp, err := h.Service.Onboard(r.Context(), employee.OnboardInput{
		Name:      payload.Name,
		Email:     payload.Email,
		Password:  payload.Password,
		Role:      payload.Role,
		PLBalance: payload.PLBalance,
		COBalance: payload.COBalance,
	})
	switch {
	case errors.Is(err, employee.ErrEmailTaken):
		api.Fail(w, http.StatusConflict, "email_taken", "email already registered", requestID)
		return
	case errors.Is(err, identity.ErrEmailRequired):
		api.Fail(w, http.StatusBadRequest, "validation_error", "email is required", requestID)
		return
	case err != nil:
		api.Fail(w, http.StatusInternalServerError, "onboard_failed", "failed to onboard employee", requestID)
		return
	}

	if err := h.Audit.Record(r.Context(), audit.Entry{
		Actor:  user.EmployeeID,
		Action: "employee.onboard",
		Target: emp.ID,
		Details: map[string]any{
			"role":      emp.Role,
			"plBalance": emp.PLBalance,
			"coBalance": emp.COBalance,
		},
	}); err != nil {
		slog.Warn("audit record failed", "action", "employee.onboard", "err", err)
	}
	api.Created(w, emp, requestID)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	employees, err := h.Service.List(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "list_failed", "failed to list employees", requestID)
		return
	}
	api.Success(w, employees, requestID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	emp, err := h.Service.Get(r.Context(), chi.URLParam(r, "employeeID"))
	if errors.Is(err, employee.ErrNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "employee not found", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "get_failed", "failed to load employee", requestID)
		return
	}
	api.Success(w, emp, requestID)
}

func (h *Handler) handleSetActive(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	employeeID := chi.URLParam(r, "employeeID")

	var payload struct {
		Active *bool `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Active == nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "active is required", requestID)
		return
	}

	err := h.Service.SetActive(r.Context(), employeeID, *payload.Active)
	if errors.Is(err, employee.ErrNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "employee not found", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "update_failed", "failed to update employee", requestID)
		return
	}

	if err := h.Audit.Record(r.Context(), audit.Entry{
		Actor:   user.EmployeeID,
		Action:  "employee.set_active",
		Target:  employeeID,
		Details: map[string]bool{"active": *payload.Active},
	}); err != nil {
		slog.Warn("audit record failed", "action", "employee.set_active", "err", err)
	}
	api.Success(w, map[string]bool{"active": *payload.Active}, requestID)
}

func (h *Handler) handleBalances(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	employeeID := chi.URLParam(r, "employeeID")

	pl, co, err := h.Ledger.Balances(r.Context(), employeeID)
	if errors.Is(err, ledger.ErrEmployeeNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "employee not found", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "balances_failed", "failed to load balances", requestID)
		return
	}
	api.Success(w, map[string]int{"plBalance": pl, "coBalance": co}, requestID)
}

func (h *Handler) handleAdjustBalance(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	employeeID := chi.URLParam(r, "employeeID")

	var payload struct {
		Field  string `json:"field"`
		Delta  int    `json:"delta"`
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	v := shared.NewValidator()
	v.Required("field", payload.Field, "field is required")
	v.Enum("field", payload.Field, []string{string(ledger.FieldPL), string(ledger.FieldCO)}, "must be pl or co")
	v.Required("reason", payload.Reason, "reason is required")
	if payload.Delta == 0 {
		v.Add("delta", "delta cannot be zero")
	}
	if v.Reject(w, requestID) {
		return
	}

	balance, err := h.Ledger.Adjust(r.Context(), employeeID, ledger.Field(payload.Field), payload.Delta)
	var insufficient *ledger.InsufficientError
	switch {
	case errors.Is(err, ledger.ErrEmployeeNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "employee not found", requestID)
		return
	case errors.As(err, &insufficient):
		api.FailWithDetails(w, http.StatusConflict, "insufficient_balance", err.Error(),
			map[string]int{"available": insufficient.Available, "required": insufficient.Required}, requestID)
		return
	case err != nil:
		api.Fail(w, http.StatusInternalServerError, "adjust_failed", "failed to adjust balance", requestID)
		return
	}

	if err := h.Audit.Record(r.Context(), audit.Entry{
		Actor:  user.EmployeeID,
		Action: "balance.adjust",
		Target: employeeID,
		Details: map[string]any{
			"field":  payload.Field,
			"delta":  payload.Delta,
			"reason": payload.Reason,
		},
	}); err != nil {
		slog.Warn("audit record failed", "action", "balance.adjust", "err", err)
	}
	api.Success(w, map[string]int{"balance": balance}, requestID)
}
