// file: internal/middleware/rate_limiter.go
package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"badgehub/internal/cache"
	"badgehub/internal/contextutils"
	"badgehub/internal/response"
	"badgehub/internal/services"
)

// RateLimit enforces a fixed-window cap of ratePerMin requests per caller.
// Counters live in the shared cache so limits hold across instances.
func RateLimit(store cache.Cache, name string, ratePerMin int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if ratePerMin <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			window := time.Now().Unix() / 60
			key := fmt.Sprintf("ratelimit:%s:%s:%d", name, callerKey(r), window)

			count := 0
			if raw, ok := store.Get(r.Context(), key); ok {
				count, _ = strconv.Atoi(string(raw))
			}

			if count >= ratePerMin {
				w.Header().Set("Retry-After", strconv.FormatInt(60-time.Now().Unix()%60, 10))
				err := services.NewRateLimitError("Trop de requêtes, réessaie dans un instant", map[string]interface{}{
					"retry_after_seconds": 60 - time.Now().Unix()%60,
				})
				response.QuickError(w, r, err)
				return
			}

			// Get-then-set is approximate under concurrency, which is
			// acceptable for abuse throttling.
			_ = store.Set(r.Context(), key, []byte(strconv.Itoa(count+1)), 2*time.Minute)

			next.ServeHTTP(w, r)
		})
	}
}

func callerKey(r *http.Request) string {
	if userID := contextutils.GetUserID(r.Context()); userID != 0 {
		return "u" + strconv.FormatInt(userID, 10)
	}
	return "ip" + ClientIP(r)
}
