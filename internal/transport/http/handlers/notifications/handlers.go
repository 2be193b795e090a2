package notificationshandler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"attend/internal/domain/auth"
	"attend/internal/domain/notify"
	"attend/internal/transport/http/api"
	"attend/internal/transport/http/middleware"
	"attend/internal/transport/http/shared"
)

type Handler struct {
	Service *notify.Service
}

func NewHandler(service *notify.Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/notifications", func(r chi.Router) {
		r.With(middleware.RequireRole(auth.RoleMD)).Post("/broadcast", h.handleBroadcast)
		r.With(middleware.RequireUser).Post("/tokens", h.handleRegisterToken)
		r.With(middleware.RequireUser).Delete("/tokens", h.handleUnregisterToken)
	})
}

func (h *Handler) handleBroadcast(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	result, err := h.Service.Broadcast(r.Context(), user.EmployeeID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "broadcast_failed", "failed to broadcast", requestID)
		return
	}
	api.Success(w, result, requestID)
}

func (h *Handler) handleRegisterToken(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	var payload struct {
		Token   string `json:"token"`
		Granted *bool  `json:"granted"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	v := shared.NewValidator()
	v.Required("token", payload.Token, "token is required")
	if v.Reject(w, requestID) {
		return
	}

	granted := true
	if payload.Granted != nil {
		granted = *payload.Granted
	}

	if err := h.Service.RegisterToken(r.Context(), user.EmployeeID, payload.Token, granted); err != nil {
		api.Fail(w, http.StatusInternalServerError, "token_register_failed", "failed to register token", requestID)
		return
	}
	api.Created(w, map[string]bool{"granted": granted}, requestID)
}

func (h *Handler) handleUnregisterToken(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	var payload struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	v := shared.NewValidator()
	v.Required("token", payload.Token, "token is required")
	if v.Reject(w, requestID) {
		return
	}

	if err := h.Service.UnregisterToken(r.Context(), user.EmployeeID, payload.Token); err != nil {
		api.Fail(w, http.StatusInternalServerError, "token_unregister_failed", "failed to unregister token", requestID)
		return
	}
	api.Success(w, map[string]bool{"removed": true}, requestID)
}
