// file: internal/handlers/web/helpers.go
package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"badgehub/internal/middleware"
	"badgehub/internal/models"
	"badgehub/internal/services"

	"github.com/gorilla/mux"
)

// maxBodyBytes caps JSON request bodies
const maxBodyBytes = 1 << 20

// decodeJSON reads a JSON body into dst with a size cap
func decodeJSON(r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return services.NewValidationError("Le corps de la requête est vide", err)
		}
		return services.NewValidationError("Corps de requête invalide", err)
	}
	return nil
}

// pathID extracts a positive integer path variable
func pathID(r *http.Request, name string) (int64, error) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, services.InvalidInputError(name, "doit être un identifiant positif")
	}
	return id, nil
}

// parsePagination reads limit/offset query parameters with defaults
func parsePagination(r *http.Request) models.PaginationParams {
	params := models.PaginationParams{}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			params.Limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			params.Offset = n
		}
	}
	params.Normalize()
	return params
}

// clientMeta captures the caller's user agent and address for session records
func clientMeta(r *http.Request) (userAgent, ipAddress *string) {
	if ua := r.UserAgent(); ua != "" {
		userAgent = &ua
	}
	ip := middleware.ClientIP(r)
	if ip != "" {
		ipAddress = &ip
	}
	return userAgent, ipAddress
}

// setSessionCookie installs the session token for browser clients
func setSessionCookie(w http.ResponseWriter, r *http.Request, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearSessionCookie expires the session cookie
func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}
