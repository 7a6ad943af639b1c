// file: internal/handlers/web/handlers_test.go
package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"badgehub/internal/middleware"
	"badgehub/internal/models"
	"badgehub/internal/response"
	"badgehub/internal/services"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testBuilder() *response.Builder {
	return response.NewBuilder(false, zap.NewNop())
}

// decodeEnvelope parses the standard response envelope
func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) *response.APIResponse {
	t.Helper()
	var envelope response.APIResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	return &envelope
}

// ===============================
// HELPERS
// ===============================

func TestParsePaginationDefaultsAndCaps(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/badges", nil)
	params := parsePagination(req)
	assert.Equal(t, 20, params.Limit)
	assert.Equal(t, 0, params.Offset)

	req = httptest.NewRequest(http.MethodGet, "/badges?limit=500&offset=40", nil)
	params = parsePagination(req)
	assert.LessOrEqual(t, params.Limit, 100)
	assert.Equal(t, 40, params.Offset)
}

func TestDecodeJSONRejectsEmptyBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/badges", strings.NewReader(""))
	var dst services.SubmitAnswerRequest
	err := decodeJSON(req, &dst)
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_ERROR", services.GetServiceError(err).Type)
}

func TestDecodeJSONRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/badges", strings.NewReader(`{"bogus": true}`))
	var dst services.SubmitAnswerRequest
	assert.Error(t, decodeJSON(req, &dst))
}

func TestPathID(t *testing.T) {
	router := mux.NewRouter()
	var id int64
	var parseErr error
	router.HandleFunc("/badges/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, parseErr = pathID(r, "id")
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/badges/42", nil))
	require.NoError(t, parseErr)
	assert.Equal(t, int64(42), id)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/badges/abc", nil))
	assert.Error(t, parseErr)
}

// ===============================
// REWARD ENDPOINTS
// ===============================

// stubRewardService returns canned outcomes
type stubRewardService struct {
	spin    *services.SpinResponse
	spinErr error
}

func (s *stubRewardService) SpinWheel(context.Context, int64) (*services.SpinResponse, error) {
	return s.spin, s.spinErr
}

func (s *stubRewardService) StartImprovement(_ context.Context, _, badgeID int64) (*services.ImprovementResponse, error) {
	return &services.ImprovementResponse{BadgeID: &badgeID, Cost: 5, Balance: 5}, nil
}

func (s *stubRewardService) CancelImprovement(context.Context, int64) (*services.ImprovementResponse, error) {
	return &services.ImprovementResponse{Balance: 10}, nil
}

func (s *stubRewardService) ClaimDailyBonus(context.Context, int64) (*services.DailyBonusResponse, error) {
	return nil, services.NewConflictError("Bonus quotidien déjà réclamé", "DAILY_ALREADY_CLAIMED")
}

func TestSpinEndpoint(t *testing.T) {
	handler := NewRewardHandler(&stubRewardService{
		spin: &services.SpinResponse{Theme: "Sport", TokensDelta: -1, Balance: 2},
	}, testBuilder(), zap.NewNop())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/rewards/spin", nil)
	handler.Spin(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.True(t, envelope.Success)
}

func TestSpinEndpointBusinessError(t *testing.T) {
	handler := NewRewardHandler(&stubRewardService{
		spinErr: services.NewBusinessError("Pas assez de jetons", "INSUFFICIENT_TOKENS"),
	}, testBuilder(), zap.NewNop())

	rec := httptest.NewRecorder()
	handler.Spin(rec, httptest.NewRequest(http.MethodPost, "/rewards/spin", nil))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	envelope := decodeEnvelope(t, rec)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "INSUFFICIENT_TOKENS", envelope.Error.Code)
}

func TestDailyBonusConflict(t *testing.T) {
	handler := NewRewardHandler(&stubRewardService{}, testBuilder(), zap.NewNop())

	rec := httptest.NewRecorder()
	handler.ClaimDailyBonus(rec, httptest.NewRequest(http.MethodPost, "/rewards/daily", nil))

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestStartImprovementRoutesBadgeID(t *testing.T) {
	handler := NewRewardHandler(&stubRewardService{}, testBuilder(), zap.NewNop())

	router := mux.NewRouter()
	router.HandleFunc("/badges/{id:[0-9]+}/improve", handler.StartImprovement).Methods(http.MethodPost)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/badges/3/improve", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec)
	data, ok := envelope.Data.(map[string]interface{})
	require.True(t, ok)
	assert.EqualValues(t, 3, data["badge_id"])
	assert.EqualValues(t, 5, data["cost"])
}

// ===============================
// AUTH ENDPOINTS
// ===============================

// stubAuthService accepts one fixed credential pair
type stubAuthService struct{}

func (s *stubAuthService) Register(_ context.Context, req *services.RegisterRequest) (*services.AuthResponse, error) {
	if req.Password == "weak" {
		return nil, services.NewValidationError("Mot de passe trop faible", nil)
	}
	return &services.AuthResponse{
		Token:     "fresh-token",
		ExpiresAt: time.Now().Add(time.Hour),
		User:      &models.User{ID: 1, Username: req.Username},
	}, nil
}

func (s *stubAuthService) Login(_ context.Context, req *services.LoginRequest) (*services.AuthResponse, error) {
	if req.Email != "marie@example.com" || req.Password != "Secret123" {
		return nil, services.NewUnauthorizedError("Email ou mot de passe incorrect")
	}
	return &services.AuthResponse{
		Token:     "fresh-token",
		ExpiresAt: time.Now().Add(time.Hour),
		User:      &models.User{ID: 1, Username: "marie42"},
	}, nil
}

func (s *stubAuthService) GoogleAuthURL(string) (string, error) {
	return "", services.NewServiceUnavailableError("Google sign-in is not configured")
}

func (s *stubAuthService) GoogleSignIn(context.Context, *services.GoogleSignInRequest) (*services.AuthResponse, error) {
	return nil, services.NewServiceUnavailableError("Google sign-in is not configured")
}

func (s *stubAuthService) Logout(context.Context, string) error { return nil }

func (s *stubAuthService) ValidateSession(_ context.Context, token string) (*models.User, error) {
	if token == "fresh-token" {
		return &models.User{ID: 1, Username: "marie42"}, nil
	}
	return nil, services.NewUnauthorizedError("Session invalide ou expirée")
}

func (s *stubAuthService) CleanupExpiredSessions(context.Context) (int64, error) { return 0, nil }

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == middleware.SessionCookieName {
			return cookie
		}
	}
	return nil
}

func TestLoginSetsSessionCookie(t *testing.T) {
	handler := NewAuthHandler(&stubAuthService{}, testBuilder(), zap.NewNop())

	body := `{"email":"marie@example.com","password":"Secret123"}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	handler.Login(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	cookie := sessionCookie(rec)
	require.NotNil(t, cookie)
	assert.Equal(t, "fresh-token", cookie.Value)
	assert.True(t, cookie.HttpOnly)
}

func TestLoginBadCredentials(t *testing.T) {
	handler := NewAuthHandler(&stubAuthService{}, testBuilder(), zap.NewNop())

	body := `{"email":"marie@example.com","password":"wrong"}`
	rec := httptest.NewRecorder()
	handler.Login(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body)))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, sessionCookie(rec))
}

func TestRegisterCreated(t *testing.T) {
	handler := NewAuthHandler(&stubAuthService{}, testBuilder(), zap.NewNop())

	body := `{"email":"marie@example.com","username":"marie42","password":"Secret123"}`
	rec := httptest.NewRecorder()
	handler.Register(rec, httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body)))

	assert.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, sessionCookie(rec))
}

func TestLogoutClearsCookie(t *testing.T) {
	handler := NewAuthHandler(&stubAuthService{}, testBuilder(), zap.NewNop())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: "fresh-token"})
	handler.Logout(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	cookie := sessionCookie(rec)
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
	assert.Negative(t, cookie.MaxAge)
}
