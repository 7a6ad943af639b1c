// file: internal/services/auth_service.go
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"badgehub/internal/config"
	"badgehub/internal/events"
	"badgehub/internal/models"
	"badgehub/internal/repositories"
	"badgehub/internal/utils"
	"badgehub/internal/validation"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

const (
	msgBadCredentials  = "Email ou mot de passe incorrect"
	msgAccountDisabled = "Ce compte est désactivé"
	msgInvalidSession  = "Session invalide ou expirée"
)

// googleUserInfo is the subset of the Google userinfo payload we use.
type googleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// authService implements AuthService
type authService struct {
	repos    *repositories.Collection
	eventBus events.EventBus
	cfg      config.AuthConfig
	oauth    *oauth2.Config
	logger   *zap.Logger
}

// NewAuthService creates the auth service. Google sign-in is enabled only
// when OAuth credentials are configured.
func NewAuthService(
	repos *repositories.Collection,
	eventBus events.EventBus,
	cfg config.AuthConfig,
	logger *zap.Logger,
) AuthService {
	var oauthCfg *oauth2.Config
	if cfg.GoogleClientID != "" && cfg.GoogleClientSecret != "" {
		oauthCfg = &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			Scopes:       []string{"email", "profile"},
			Endpoint:     google.Endpoint,
		}
	}

	return &authService{
		repos:    repos,
		eventBus: eventBus,
		cfg:      cfg,
		oauth:    oauthCfg,
		logger:   logger,
	}
}

// ===============================
// REGISTRATION & LOGIN
// ===============================

func (s *authService) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	if err := validation.ValidateStruct(req); err != nil {
		return nil, NewValidationError("invalid registration request", err)
	}
	if err := utils.ValidatePasswordStrength(req.Password); err != nil {
		return nil, NewValidationError(err.Error(), nil)
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	username := strings.TrimSpace(req.Username)

	if existing, err := s.repos.User.GetByEmail(ctx, email); err != nil {
		return nil, NewInternalError("failed to check email")
	} else if existing != nil {
		return nil, EntityAlreadyExistsError("user", "email", email)
	}
	if existing, err := s.repos.User.GetByUsername(ctx, username); err != nil {
		return nil, NewInternalError("failed to check username")
	} else if existing != nil {
		return nil, EntityAlreadyExistsError("user", "username", username)
	}

	hash, err := utils.HashPassword(req.Password, s.cfg.BCryptCost)
	if err != nil {
		return nil, NewInternalError("failed to hash password")
	}

	user := &models.User{
		Email:        email,
		Username:     username,
		PasswordHash: hash,
	}
	if err := s.repos.User.Create(ctx, user); err != nil {
		s.logger.Error("failed to create user", zap.Error(err))
		return nil, NewInternalError("failed to create account")
	}
	if err := s.repos.Profile.Ensure(ctx, user.ID); err != nil {
		s.logger.Error("failed to create profile", zap.Int64("user_id", user.ID), zap.Error(err))
		return nil, NewInternalError("failed to create account")
	}

	s.publishRegistered(user)

	return s.openSession(ctx, user, nil, nil)
}

func (s *authService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	if err := validation.ValidateStruct(req); err != nil {
		return nil, NewValidationError("invalid login request", err)
	}

	user, err := s.repos.User.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, NewInternalError("failed to load account")
	}
	if user == nil || user.PasswordHash == "" {
		return nil, NewUnauthorizedError(msgBadCredentials)
	}
	if err := utils.CheckPassword(user.PasswordHash, req.Password); err != nil {
		return nil, NewUnauthorizedError(msgBadCredentials)
	}
	if !user.IsActive {
		return nil, NewForbiddenError(msgAccountDisabled)
	}

	return s.openSession(ctx, user, req.UserAgent, req.IPAddress)
}

// ===============================
// GOOGLE SIGN-IN
// ===============================

// GoogleAuthURL builds the consent page URL for the OAuth redirect flow
func (s *authService) GoogleAuthURL(state string) (string, error) {
	if s.oauth == nil {
		return "", NewServiceUnavailableError("Google sign-in is not configured")
	}
	return s.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline), nil
}

func (s *authService) GoogleSignIn(ctx context.Context, req *GoogleSignInRequest) (*AuthResponse, error) {
	if s.oauth == nil {
		return nil, NewServiceUnavailableError("Google sign-in is not configured")
	}
	if err := validation.ValidateStruct(req); err != nil {
		return nil, NewValidationError("invalid sign-in request", err)
	}

	token, err := s.oauth.Exchange(ctx, req.Code)
	if err != nil {
		s.logger.Warn("google code exchange failed", zap.Error(err))
		return nil, NewUnauthorizedError("Google authentication failed")
	}

	info, err := s.fetchGoogleUserInfo(ctx, token)
	if err != nil {
		s.logger.Warn("google userinfo fetch failed", zap.Error(err))
		return nil, NewUnauthorizedError("Google authentication failed")
	}
	if info.Email == "" || !info.VerifiedEmail {
		return nil, NewUnauthorizedError("Google account email is not verified")
	}

	user, err := s.findOrCreateGoogleUser(ctx, info)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, NewForbiddenError(msgAccountDisabled)
	}

	return s.openSession(ctx, user, req.UserAgent, req.IPAddress)
}

func (s *authService) fetchGoogleUserInfo(ctx context.Context, token *oauth2.Token) (*googleUserInfo, error) {
	client := s.oauth.Client(ctx, token)
	resp, err := client.Get(googleUserInfoURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo returned status %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (s *authService) findOrCreateGoogleUser(ctx context.Context, info *googleUserInfo) (*models.User, error) {
	user, err := s.repos.User.GetByGoogleID(ctx, info.ID)
	if err != nil {
		return nil, NewInternalError("failed to load account")
	}
	if user != nil {
		return user, nil
	}

	// An existing password account with the same address gets linked.
	user, err = s.repos.User.GetByEmail(ctx, info.Email)
	if err != nil {
		return nil, NewInternalError("failed to load account")
	}
	if user != nil {
		if err := s.repos.User.LinkGoogleID(ctx, user.ID, info.ID); err != nil {
			s.logger.Error("failed to link google account", zap.Int64("user_id", user.ID), zap.Error(err))
			return nil, NewInternalError("failed to link account")
		}
		googleID := info.ID
		user.GoogleID = &googleID
		user.EmailVerified = true
		return user, nil
	}

	username, err := s.pickUsername(ctx, info.Email)
	if err != nil {
		return nil, err
	}

	googleID := info.ID
	user = &models.User{
		Email:         strings.ToLower(info.Email),
		Username:      username,
		GoogleID:      &googleID,
		EmailVerified: true,
	}
	if info.Picture != "" {
		picture := info.Picture
		user.AvatarURL = &picture
	}

	if err := s.repos.User.Create(ctx, user); err != nil {
		s.logger.Error("failed to create google user", zap.Error(err))
		return nil, NewInternalError("failed to create account")
	}
	if err := s.repos.Profile.Ensure(ctx, user.ID); err != nil {
		s.logger.Error("failed to create profile", zap.Int64("user_id", user.ID), zap.Error(err))
		return nil, NewInternalError("failed to create account")
	}

	s.publishRegistered(user)
	return user, nil
}

// pickUsername derives a free username from the email local part.
func (s *authService) pickUsername(ctx context.Context, email string) (string, error) {
	base := strings.Split(email, "@")[0]
	base = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return -1
	}, base)
	if len(base) < 3 {
		base = "user" + base
	}
	if len(base) > 40 {
		base = base[:40]
	}

	candidate := base
	for i := 0; i < 10; i++ {
		existing, err := s.repos.User.GetByUsername(ctx, candidate)
		if err != nil {
			return "", NewInternalError("failed to check username")
		}
		if existing == nil {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s%d", base, time.Now().UnixNano()%10000)
	}
	return "", NewInternalError("failed to allocate username")
}

// ===============================
// SESSIONS
// ===============================

// openSession issues a signed token and records the session server side.
func (s *authService) openSession(ctx context.Context, user *models.User, userAgent, ipAddress *string) (*AuthResponse, error) {
	expiresAt := time.Now().Add(s.cfg.SessionExpiry)

	claims := jwt.MapClaims{
		"sub":      user.ID,
		"username": user.Username,
		"iat":      time.Now().Unix(),
		"exp":      expiresAt.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return nil, NewInternalError("failed to sign session token")
	}

	session := &models.Session{
		UserID:    user.ID,
		Token:     signed,
		UserAgent: userAgent,
		IPAddress: ipAddress,
		ExpiresAt: expiresAt,
	}
	if err := s.repos.Session.Create(ctx, session); err != nil {
		s.logger.Error("failed to create session", zap.Int64("user_id", user.ID), zap.Error(err))
		return nil, NewInternalError("failed to open session")
	}

	return &AuthResponse{
		Token:     signed,
		ExpiresAt: expiresAt,
		User:      user,
	}, nil
}

func (s *authService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.repos.Session.Revoke(ctx, token); err != nil {
		return NewInternalError("failed to close session")
	}
	return nil
}

// ValidateSession checks the token signature and the server-side session,
// returning the account it belongs to.
func (s *authService) ValidateSession(ctx context.Context, tokenString string) (*models.User, error) {
	if tokenString == "" {
		return nil, NewUnauthorizedError(msgInvalidSession)
	}

	parsed, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !parsed.Valid {
		return nil, NewUnauthorizedError(msgInvalidSession)
	}

	session, err := s.repos.Session.GetByToken(ctx, tokenString)
	if err != nil {
		return nil, NewInternalError("failed to load session")
	}
	if session == nil || !session.IsValid() {
		return nil, NewUnauthorizedError(msgInvalidSession)
	}

	user, err := s.repos.User.GetByID(ctx, session.UserID)
	if err != nil {
		return nil, NewInternalError("failed to load account")
	}
	if user == nil || !user.IsActive {
		return nil, NewUnauthorizedError(msgInvalidSession)
	}

	if err := s.repos.User.UpdateLastSeen(ctx, user.ID); err != nil {
		s.logger.Debug("failed to update last seen", zap.Int64("user_id", user.ID), zap.Error(err))
	}

	return user, nil
}

func (s *authService) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	removed, err := s.repos.Session.DeleteExpired(ctx)
	if err != nil {
		return 0, NewInternalError("failed to clean up sessions")
	}
	if removed > 0 {
		s.logger.Info("expired sessions removed", zap.Int64("count", removed))
	}
	return removed, nil
}

func (s *authService) publishRegistered(user *models.User) {
	if s.eventBus == nil {
		return
	}
	event := events.NewUserRegisteredEvent(user.ID, user.Email, user.Username)
	if err := s.eventBus.PublishAsync(context.Background(), event); err != nil {
		s.logger.Warn("failed to publish registration event",
			zap.String("event_type", event.GetEventType()),
			zap.Error(err),
		)
	}
}
