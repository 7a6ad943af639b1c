// file: internal/models/models.go
package models

import (
	"time"
)

// ===============================
// CORE ENTITIES
// ===============================

// User represents an account that owns a profile and unlock records
type User struct {
	ID       int64  `json:"id" db:"id"`
	Email    string `json:"email" db:"email" validate:"required,email,max=320"`
	Username string `json:"username" db:"username" validate:"required,min=3,max=50,alphanum"`

	// Authentication
	PasswordHash  string  `json:"-" db:"password_hash"`
	GoogleID      *string `json:"-" db:"google_id"`
	EmailVerified bool    `json:"email_verified" db:"email_verified"`
	IsActive      bool    `json:"is_active" db:"is_active"`

	// Avatar (Cloudinary)
	AvatarURL      *string `json:"avatar_url,omitempty" db:"avatar_url"`
	AvatarPublicID *string `json:"-" db:"avatar_public_id"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
	LastSeen  time.Time `json:"last_seen" db:"last_seen"`
}

// Profile is the per-user aggregate the engine keeps consistent: token
// balance, badge count, signed skill points and the derived rank.
type Profile struct {
	UserID      int64   `json:"user_id" db:"user_id"`
	Username    string  `json:"username" db:"username"`
	AvatarURL   *string `json:"avatar_url,omitempty" db:"avatar_url"`
	Tokens      int     `json:"tokens" db:"tokens"`
	BadgeCount  int     `json:"badge_count" db:"badge_count"`
	SkillPoints int     `json:"skill_points" db:"skill_points"`
	Rank        string  `json:"rank" db:"rank"`

	// Daily check-in calendar
	LastDailyClaim *time.Time `json:"last_daily_claim,omitempty" db:"last_daily_claim"`

	// Pending one-time re-answer right (wheel bonus or paid improve).
	// ImproveCost is what was deducted up front, refunded on cancel.
	ImproveBadgeID *int64 `json:"improve_badge_id,omitempty" db:"improve_badge_id"`
	ImproveCost    int    `json:"improve_cost,omitempty" db:"improve_cost"`

	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Session represents an authenticated session
type Session struct {
	ID        int64      `json:"id" db:"id"`
	UserID    int64      `json:"user_id" db:"user_id"`
	Token     string     `json:"-" db:"token"`
	UserAgent *string    `json:"user_agent,omitempty" db:"user_agent"`
	IPAddress *string    `json:"ip_address,omitempty" db:"ip_address"`
	ExpiresAt time.Time  `json:"expires_at" db:"expires_at"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty" db:"revoked_at"`
}

// IsValid reports whether the session is usable right now
func (s *Session) IsValid() bool {
	return s.RevokedAt == nil && time.Now().Before(s.ExpiresAt)
}

// ===============================
// PAGINATION
// ===============================

// PaginationParams represents pagination parameters
type PaginationParams struct {
	Limit  int    `json:"limit" validate:"min=0,max=100"`
	Offset int    `json:"offset" validate:"min=0"`
	Sort   string `json:"sort"`
	Order  string `json:"order" validate:"omitempty,oneof=asc desc"`
}

// Normalize applies the default page size and caps the limit
func (p *PaginationParams) Normalize() {
	if p.Limit <= 0 {
		p.Limit = 20
	}
	if p.Limit > 100 {
		p.Limit = 100
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
}

// PaginatedResponse represents a paginated API response
type PaginatedResponse[T any] struct {
	Data       []T            `json:"data"`
	Pagination PaginationMeta `json:"pagination"`
}

// PaginationMeta contains pagination metadata
type PaginationMeta struct {
	CurrentPage  int   `json:"current_page"`
	TotalPages   int   `json:"total_pages"`
	TotalItems   int64 `json:"total_items"`
	ItemsPerPage int   `json:"items_per_page"`
	HasNext      bool  `json:"has_next"`
	HasPrev      bool  `json:"has_prev"`
}
