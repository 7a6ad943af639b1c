// file: internal/middleware/recovery.go
package middleware

import (
	"net/http"
	"runtime/debug"

	"badgehub/internal/response"
	"badgehub/internal/services"

	"go.uber.org/zap"
)

// Recover converts panics into 500 responses instead of dropped connections
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				GetRequestLogger(r.Context()).Error("Panic recovered",
					zap.Any("panic", rec),
					zap.ByteString("stack", debug.Stack()),
				)
				err := services.NewInternalError("Une erreur interne est survenue")
				response.QuickError(w, r, err)
			}
		}()

		next.ServeHTTP(w, r)
	})
}
