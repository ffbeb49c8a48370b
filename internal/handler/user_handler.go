package handler

import (
	"net/http"

	"stockroom/internal/middleware"
	"stockroom/internal/model"
	"stockroom/internal/service"

	"github.com/rs/zerolog"
)

// UserHandler handles sign-in, profiles and the administrative user routes.
type UserHandler struct {
	auth   service.AuthService
	users  service.UserService
	logger zerolog.Logger
}

// NewUserHandler creates a new user handler.
func NewUserHandler(auth service.AuthService, users service.UserService, logger zerolog.Logger) *UserHandler {
	return &UserHandler{
		auth:   auth,
		users:  users,
		logger: logger.With().Str("handler", "user").Logger(),
	}
}

// Login handles POST /api/auth/login requests.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, err, "invalid request body", h.logger)
		return
	}

	token, err := h.auth.Login(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err, "failed to sign in", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, token)
}

// Accept handles POST /api/auth/accept requests.
func (h *UserHandler) Accept(w http.ResponseWriter, r *http.Request) {
	var req model.AcceptRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, err, "invalid request body", h.logger)
		return
	}

	token, err := h.auth.Accept(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err, "failed to accept link", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, token)
}

// Me handles GET /api/me requests.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	me, err := h.users.Me(r.Context(), middleware.ActorFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, err, "failed to retrieve user", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, me)
}

// Profiles handles GET /api/profiles requests.
func (h *UserHandler) Profiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.users.Profiles(r.Context())
	if err != nil {
		writeServiceError(w, err, "failed to retrieve profiles", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, profiles)
}

// UpdateRole handles PUT /api/profiles/{id}/role requests.
func (h *UserHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, err, "invalid profile ID", h.logger)
		return
	}

	var req model.RoleUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, err, "invalid request body", h.logger)
		return
	}

	profile, err := h.users.UpdateRole(r.Context(), middleware.ActorFromContext(r.Context()), id, req.Role)
	if err != nil {
		writeServiceError(w, err, "failed to update role", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

// Invite handles POST /api/admin/invite requests.
func (h *UserHandler) Invite(w http.ResponseWriter, r *http.Request) {
	var req model.InviteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, err, "invalid request body", h.logger)
		return
	}

	resp, err := h.users.Invite(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err, "invite failed", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// ResetPassword handles POST /api/admin/users/reset-password requests.
func (h *UserHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req model.ResetPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, err, "invalid request body", h.logger)
		return
	}

	resp, err := h.users.ResetPassword(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err, "reset failed", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// DeleteUser handles POST /api/admin/users/delete requests.
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	var req model.DeleteUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, err, "invalid request body", h.logger)
		return
	}

	if err := h.users.DeleteUser(r.Context(), &req); err != nil {
		writeServiceError(w, err, "delete failed", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, model.OKResponse{OK: true, Message: "user deleted"})
}
