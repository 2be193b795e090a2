package authhandler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"attend/internal/domain/auth"
	"attend/internal/domain/employee"
	"attend/internal/transport/http/api"
	"attend/internal/transport/http/middleware"
	"attend/internal/transport/http/shared"
)

const tokenTTL = 24 * time.Hour

type Handler struct {
	Employees *employee.Service
	JWTSecret string
}

func NewHandler(employees *employee.Service, jwtSecret string) *Handler {
	return &Handler{Employees: employees, JWTSecret: jwtSecret}
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	v := shared.NewValidator()
	v.Required("email", payload.Email, "email is required")
	v.Required("password", payload.Password, "password is required")
	if v.Reject(w, requestID) {
		return
	}

	emp, err := h.Employees.VerifyCredentials(r.Context(), payload.Email, payload.Password)
	if errors.Is(err, employee.ErrInvalidCredentials) {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "login_failed", "login failed", requestID)
		return
	}

	token, err := auth.GenerateToken(h.JWTSecret, auth.Claims{EmployeeID: emp.ID, Role: emp.Role}, tokenTTL)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "login_failed", "login failed", requestID)
		return
	}

	api.Success(w, map[string]any{
		"token":    token,
		"employee": emp,
	}, requestID)
}
