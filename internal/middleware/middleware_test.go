// file: internal/middleware/middleware_test.go
package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"badgehub/internal/cache"
	"badgehub/internal/config"
	"badgehub/internal/contextutils"
	"badgehub/internal/models"
	"badgehub/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubAuthService validates a single known token
type stubAuthService struct {
	token string
	user  *models.User
}

func (s *stubAuthService) Register(context.Context, *services.RegisterRequest) (*services.AuthResponse, error) {
	return nil, services.NewInternalError("not implemented")
}

func (s *stubAuthService) Login(context.Context, *services.LoginRequest) (*services.AuthResponse, error) {
	return nil, services.NewInternalError("not implemented")
}

func (s *stubAuthService) GoogleAuthURL(string) (string, error) {
	return "", services.NewServiceUnavailableError("not configured")
}

func (s *stubAuthService) GoogleSignIn(context.Context, *services.GoogleSignInRequest) (*services.AuthResponse, error) {
	return nil, services.NewInternalError("not implemented")
}

func (s *stubAuthService) Logout(context.Context, string) error { return nil }

func (s *stubAuthService) ValidateSession(_ context.Context, token string) (*models.User, error) {
	if token != "" && token == s.token {
		return s.user, nil
	}
	return nil, services.NewUnauthorizedError("Session invalide ou expirée")
}

func (s *stubAuthService) CleanupExpiredSessions(context.Context) (int64, error) { return 0, nil }

func newStubAuth() *stubAuthService {
	return &stubAuthService{
		token: "valid-token",
		user:  &models.User{ID: 7, Username: "marie42", IsActive: true},
	}
}

func TestRequestIDGeneratesAndEchoes(t *testing.T) {
	var gotID string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = contextutils.GetRequestID(r.Context())
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/badges", nil)

	RequestID(zap.NewNop())(next).ServeHTTP(rec, req)

	assert.NotEmpty(t, gotID)
	assert.Equal(t, gotID, rec.Header().Get(HeaderXRequestID))
}

func TestRequestIDHonorsIncomingHeader(t *testing.T) {
	var gotID string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = contextutils.GetRequestID(r.Context())
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/badges", nil)
	req.Header.Set(HeaderXRequestID, "upstream-id")

	RequestID(zap.NewNop())(next).ServeHTTP(rec, req)

	assert.Equal(t, "upstream-id", gotID)
	assert.Equal(t, "upstream-id", rec.Header().Get(HeaderXRequestID))
}

func TestClientIPPrecedence(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:4242"
	assert.Equal(t, "10.0.0.1", ClientIP(req))

	req.Header.Set("X-Real-IP", "203.0.113.9")
	assert.Equal(t, "203.0.113.9", ClientIP(req))

	req.Header.Set("X-Forwarded-For", "198.51.100.4, 10.0.0.1")
	assert.Equal(t, "198.51.100.4", ClientIP(req))
}

func TestExtractTokenPrefersBearerHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "cookie-token"})
	assert.Equal(t, "cookie-token", ExtractToken(req))

	req.Header.Set("Authorization", "Bearer header-token")
	assert.Equal(t, "header-token", ExtractToken(req))
}

func TestRequireAuthRejectsMissingToken(t *testing.T) {
	called := false
	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true })

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)

	RequireAuth(newStubAuth())(next).ServeHTTP(rec, req)

	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuthInjectsUser(t *testing.T) {
	var userID int64
	var username string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID = contextutils.GetUserID(r.Context())
		username = contextutils.GetUsername(r.Context())
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer valid-token")

	RequireAuth(newStubAuth())(next).ServeHTTP(rec, req)

	assert.Equal(t, int64(7), userID)
	assert.Equal(t, "marie42", username)
}

func TestOptionalAuthPassesAnonymously(t *testing.T) {
	var userID int64
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID = contextutils.GetUserID(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/badges", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "stale-token"})

	OptionalAuth(newStubAuth())(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, userID)
}

func TestRateLimitBlocksOverBudget(t *testing.T) {
	store, err := cache.New(&config.CacheConfig{Provider: "memory", DefaultTTL: time.Minute}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	limited := RateLimit(store, "spin", 2)(next)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/rewards/spin", nil)
		req.RemoteAddr = "10.0.0.1:1000"
		limited.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/rewards/spin", nil)
	req.RemoteAddr = "10.0.0.1:1000"
	limited.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestRateLimitKeysPerUser(t *testing.T) {
	store, err := cache.New(&config.CacheConfig{Provider: "memory", DefaultTTL: time.Minute}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	limited := RateLimit(store, "spin", 1)(next)

	for _, userID := range []int64{1, 2} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/rewards/spin", nil)
		req = req.WithContext(contextutils.WithUserID(req.Context(), userID))
		limited.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestRecoverTurnsPanicInto500(t *testing.T) {
	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/badges", nil)

	Recover(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "INTERNAL_ERROR")
}

func TestCORSPreflight(t *testing.T) {
	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("preflight must not reach the handler")
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/api/badges", nil)
	req.Header.Set("Origin", "https://app.example.com")

	CORS(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, rec.Header().Get("Access-Control-Allow-Methods"))
}

func TestSecurityHeaders(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	SecurityHeaders(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}
