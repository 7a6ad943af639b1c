// file: internal/handlers/web/google_handler.go
package web

import (
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"time"

	"badgehub/internal/response"
	"badgehub/internal/services"

	"go.uber.org/zap"
)

const oauthStateCookie = "badgehub_oauth_state"

// GoogleHandler drives the Google OAuth redirect flow
type GoogleHandler struct {
	auth    services.AuthService
	builder *response.Builder
	logger  *zap.Logger
}

// NewGoogleHandler creates the Google sign-in handler
func NewGoogleHandler(auth services.AuthService, builder *response.Builder, logger *zap.Logger) *GoogleHandler {
	return &GoogleHandler{auth: auth, builder: builder, logger: logger}
}

// Redirect sends the browser to the Google consent page
// @Summary      Start Google sign-in
// @Tags         auth
// @Success      302
// @Router       /auth/google [get]
func (h *GoogleHandler) Redirect(w http.ResponseWriter, r *http.Request) {
	state, err := randomState()
	if err != nil {
		h.builder.WriteError(w, r, services.NewInternalError("Une erreur interne est survenue"))
		return
	}

	url, err := h.auth.GoogleAuthURL(state)
	if err != nil {
		h.builder.WriteError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		Expires:  time.Now().Add(10 * time.Minute),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, url, http.StatusFound)
}

// Callback exchanges the authorization code and opens a session
// @Summary      Complete Google sign-in
// @Tags         auth
// @Produce      json
// @Param        code  query string true  "Authorization code"
// @Param        state query string true  "CSRF state"
// @Success      200 {object} response.APIResponse
// @Router       /auth/google/callback [get]
func (h *GoogleHandler) Callback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != query.Get("state") {
		h.builder.WriteError(w, r, services.NewUnauthorizedError("État OAuth invalide"))
		return
	}
	// State is single use.
	http.SetCookie(w, &http.Cookie{Name: oauthStateCookie, Value: "", Path: "/", MaxAge: -1})

	code := query.Get("code")
	if code == "" {
		h.builder.WriteError(w, r, services.InvalidInputError("code", "paramètre manquant"))
		return
	}

	req := &services.GoogleSignInRequest{Code: code}
	req.UserAgent, req.IPAddress = clientMeta(r)

	auth, err := h.auth.GoogleSignIn(r.Context(), req)
	if err != nil {
		h.builder.WriteError(w, r, err)
		return
	}

	setSessionCookie(w, r, auth.Token, auth.ExpiresAt)
	h.builder.WriteSuccess(w, r, auth)
}

func randomState() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
