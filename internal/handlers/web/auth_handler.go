// file: internal/handlers/web/auth_handler.go
package web

import (
	"net/http"

	"badgehub/internal/middleware"
	"badgehub/internal/response"
	"badgehub/internal/services"

	"go.uber.org/zap"
)

// AuthHandler exposes account creation and session endpoints
type AuthHandler struct {
	auth    services.AuthService
	builder *response.Builder
	logger  *zap.Logger
}

// NewAuthHandler creates the auth endpoint handler
func NewAuthHandler(auth services.AuthService, builder *response.Builder, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, builder: builder, logger: logger}
}

// Register creates a new account and opens a session
// @Summary      Create an account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body services.RegisterRequest true "Account details"
// @Success      201 {object} response.APIResponse
// @Router       /auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req services.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		h.builder.WriteError(w, r, err)
		return
	}

	auth, err := h.auth.Register(r.Context(), &req)
	if err != nil {
		h.builder.WriteError(w, r, err)
		return
	}

	setSessionCookie(w, r, auth.Token, auth.ExpiresAt)
	h.builder.WriteCreated(w, r, auth)
}

// Login authenticates with email and password
// @Summary      Sign in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body services.LoginRequest true "Credentials"
// @Success      200 {object} response.APIResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req services.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.builder.WriteError(w, r, err)
		return
	}
	req.UserAgent, req.IPAddress = clientMeta(r)

	auth, err := h.auth.Login(r.Context(), &req)
	if err != nil {
		h.builder.WriteError(w, r, err)
		return
	}

	setSessionCookie(w, r, auth.Token, auth.ExpiresAt)
	h.builder.WriteSuccess(w, r, auth)
}

// Logout revokes the current session
// @Summary      Sign out
// @Tags         auth
// @Success      204
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := middleware.ExtractToken(r)
	if err := h.auth.Logout(r.Context(), token); err != nil {
		h.logger.Warn("logout failed", zap.Error(err))
	}

	clearSessionCookie(w)
	h.builder.WriteNoContent(w, r)
}

// Me returns the account behind the current session
// @Summary      Current account
// @Tags         auth
// @Produce      json
// @Success      200 {object} response.APIResponse
// @Router       /auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.auth.ValidateSession(r.Context(), middleware.ExtractToken(r))
	if err != nil {
		h.builder.WriteError(w, r, err)
		return
	}
	h.builder.WriteSuccess(w, r, user)
}
