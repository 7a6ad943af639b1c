// file: internal/services/interface.go
package services

import (
	"context"

	"badgehub/internal/models"
)

// ===============================
// CORE SERVICE INTERFACES
// ===============================

// BadgeService owns the badge catalog and the answer evaluation flow
type BadgeService interface {
	// Catalog
	ListBadges(ctx context.Context, userID *int64, theme string, params models.PaginationParams) (*models.PaginatedResponse[*BadgeView], error)
	GetBadge(ctx context.Context, badgeID int64, userID *int64) (*BadgeView, error)
	ListThemes(ctx context.Context) ([]string, error)

	// Catalog administration
	CreateBadge(ctx context.Context, req *CreateBadgeRequest) (*models.Badge, error)
	UpdateBadge(ctx context.Context, req *UpdateBadgeRequest) (*models.Badge, error)
	DeleteBadge(ctx context.Context, badgeID int64) error

	// Evaluation
	SubmitAnswer(ctx context.Context, req *SubmitAnswerRequest) (*SubmitAnswerResponse, error)

	// Derived state maintenance
	RecomputeUser(ctx context.Context, userID int64) ([]ReconcileChange, error)

	// Community feed
	RecentUnlocks(ctx context.Context, limit int) ([]*models.CommunityEntry, error)
}

// RewardService owns the token economy: wheel, improvements, daily bonus
type RewardService interface {
	SpinWheel(ctx context.Context, userID int64) (*SpinResponse, error)
	StartImprovement(ctx context.Context, userID, badgeID int64) (*ImprovementResponse, error)
	CancelImprovement(ctx context.Context, userID int64) (*ImprovementResponse, error)
	ClaimDailyBonus(ctx context.Context, userID int64) (*DailyBonusResponse, error)
}

// ProfileService exposes the per-user aggregate and avatar management
type ProfileService interface {
	GetProfile(ctx context.Context, userID int64) (*models.Profile, error)
	UpdateProfile(ctx context.Context, req *UpdateProfileRequest) (*models.Profile, error)
	GetLeaderboard(ctx context.Context, params models.PaginationParams) (*models.PaginatedResponse[*models.Profile], error)
	UploadAvatar(ctx context.Context, req *AvatarUploadRequest) (*AvatarUploadResponse, error)
}

// AuthService owns accounts and sessions
type AuthService interface {
	Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error)
	GoogleAuthURL(state string) (string, error)
	GoogleSignIn(ctx context.Context, req *GoogleSignInRequest) (*AuthResponse, error)
	Logout(ctx context.Context, token string) error
	ValidateSession(ctx context.Context, token string) (*models.User, error)
	CleanupExpiredSessions(ctx context.Context) (int64, error)
}
