// file: internal/repositories/interfaces.go
package repositories

import (
	"context"
	"time"

	"badgehub/internal/cache"
	"badgehub/internal/database"
	"badgehub/internal/models"

	"go.uber.org/zap"
)

// ===============================
// REPOSITORY INTERFACES
// ===============================

// BadgeRepository manages the badge catalog
type BadgeRepository interface {
	Create(ctx context.Context, badge *models.Badge) error
	GetByID(ctx context.Context, id int64) (*models.Badge, error)
	GetAll(ctx context.Context) ([]*models.Badge, error)
	List(ctx context.Context, theme string, params models.PaginationParams) (*models.PaginatedResponse[*models.Badge], error)
	ListThemes(ctx context.Context) ([]string, error)
	Update(ctx context.Context, badge *models.Badge) error
	Delete(ctx context.Context, id int64) error
}

// UserBadgeRepository manages per-user unlock records
type UserBadgeRepository interface {
	Upsert(ctx context.Context, record *models.UserBadgeRecord) error
	Get(ctx context.Context, userID, badgeID int64) (*models.UserBadgeRecord, error)
	GetAllForUser(ctx context.Context, userID int64) (map[int64]*models.UserBadgeRecord, error)
	SetUnlocked(ctx context.Context, userID, badgeID int64, unlocked bool) error
	RecentUnlocks(ctx context.Context, limit int) ([]*models.CommunityEntry, error)
}

// ProfileRepository manages the per-user aggregate row
type ProfileRepository interface {
	Ensure(ctx context.Context, userID int64) error
	GetByUserID(ctx context.Context, userID int64) (*models.Profile, error)
	UpdateTotals(ctx context.Context, userID int64, badgeCount, skillPoints int, rank string) error
	AdjustTokens(ctx context.Context, userID int64, delta int) (int, error)
	SetImprovement(ctx context.Context, userID int64, badgeID *int64, cost int) error
	SetLastDailyClaim(ctx context.Context, userID int64, claimedAt time.Time) error
	Leaderboard(ctx context.Context, params models.PaginationParams) (*models.PaginatedResponse[*models.Profile], error)
}

// UserRepository manages accounts
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByGoogleID(ctx context.Context, googleID string) (*models.User, error)
	LinkGoogleID(ctx context.Context, userID int64, googleID string) error
	UpdateAvatar(ctx context.Context, userID int64, avatarURL, publicID *string) error
	UpdateUsername(ctx context.Context, userID int64, username string) error
	UpdateLastSeen(ctx context.Context, userID int64) error
}

// SessionRepository manages authenticated sessions
type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	GetByToken(ctx context.Context, token string) (*models.Session, error)
	Revoke(ctx context.Context, token string) error
	RevokeAllForUser(ctx context.Context, userID int64) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// ===============================
// REPOSITORY COLLECTION
// ===============================

// Collection bundles all repositories for service wiring
type Collection struct {
	Badge     BadgeRepository
	UserBadge UserBadgeRepository
	Profile   ProfileRepository
	User      UserRepository
	Session   SessionRepository
}

// NewCollection creates all repositories over one database manager
func NewCollection(db *database.Manager, cache cache.Cache, logger *zap.Logger) *Collection {
	base := NewBaseRepository(db, logger)

	return &Collection{
		Badge:     NewBadgeRepository(base, cache),
		UserBadge: NewUserBadgeRepository(base),
		Profile:   NewProfileRepository(base),
		User:      NewUserRepository(base),
		Session:   NewSessionRepository(base),
	}
}
