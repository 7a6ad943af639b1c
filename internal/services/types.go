// file: internal/services/types.go
package services

import (
	"io"
	"time"

	"badgehub/internal/models"
)

// ===============================
// BADGE TYPES
// ===============================

// SubmitAnswerRequest carries one badge answer attempt
type SubmitAnswerRequest struct {
	UserID   int64    `json:"-"`
	BadgeID  int64    `json:"-"`
	Answer   string   `json:"answer" validate:"max=500"`
	Selected []string `json:"selectedOptions" validate:"max=50,dive,max=200"`
}

// ReconcileChange reports one ghost badge flipped by reconciliation
type ReconcileChange struct {
	BadgeID  int64  `json:"badge_id"`
	Name     string `json:"name"`
	Unlocked bool   `json:"unlocked"`
}

// SubmitAnswerResponse is the outcome of an answer attempt
type SubmitAnswerResponse struct {
	Success   bool    `json:"success"`
	Message   string  `json:"message"`
	Level     *string `json:"level,omitempty"`
	Attempted bool    `json:"attempted"`

	// Totals after re-derivation, present when the attempt was recorded
	BadgeCount  int    `json:"badge_count"`
	SkillPoints int    `json:"skill_points"`
	Rank        string `json:"rank"`

	GhostChanges []ReconcileChange `json:"ghost_changes,omitempty"`
}

// BadgeView is a catalog entry as a given user sees it
type BadgeView struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Emoji    string `json:"emoji"`
	Theme    string `json:"theme"`
	Question string `json:"question"`
	LowSkill bool   `json:"low_skill"`

	// Ghost metadata, if applicable
	IsGhost          bool   `json:"is_ghost"`
	GhostDisplayText string `json:"ghost_display_text,omitempty"`

	// Answer surface hints for the client
	AnswerType    string   `json:"answer_type"`
	Options       []string `json:"options,omitempty"`
	DisplayPrefix string   `json:"display_prefix,omitempty"`
	DisplaySuffix string   `json:"display_suffix,omitempty"`

	// The caller's record, if any
	Unlocked        bool      `json:"unlocked"`
	Level           *string   `json:"level,omitempty"`
	WasEverUnlocked bool      `json:"was_ever_unlocked"`
	UpdatedAt       time.Time `json:"updated_at,omitempty"`
}

// CreateBadgeRequest creates a catalog entry. RawAnswer holds either a
// plain expected string or a JSON answer configuration.
type CreateBadgeRequest struct {
	Name      string `json:"name" validate:"required,max=150"`
	Emoji     string `json:"emoji" validate:"max=16"`
	Theme     string `json:"theme" validate:"max=100"`
	Question  string `json:"question" validate:"required,max=500"`
	RawAnswer string `json:"answer" validate:"required"`
	LowSkill  bool   `json:"low_skill"`
}

// UpdateBadgeRequest updates a catalog entry
type UpdateBadgeRequest struct {
	BadgeID   int64   `json:"-"`
	Name      *string `json:"name,omitempty" validate:"omitempty,max=150"`
	Emoji     *string `json:"emoji,omitempty" validate:"omitempty,max=16"`
	Theme     *string `json:"theme,omitempty" validate:"omitempty,max=100"`
	Question  *string `json:"question,omitempty" validate:"omitempty,max=500"`
	RawAnswer *string `json:"answer,omitempty"`
	LowSkill  *bool   `json:"low_skill,omitempty"`
}

// ===============================
// REWARD TYPES
// ===============================

// SpinResponse is one resolved wheel spin
type SpinResponse struct {
	Joker        bool   `json:"joker"`
	JokerOutcome string `json:"joker_outcome,omitempty"`
	Theme        string `json:"theme,omitempty"`

	// Badge proposed from the drawn theme, if any remained locked
	Badge *BadgeView `json:"badge,omitempty"`

	// Badge demoted by the malus outcome, if any
	MalusBadge *BadgeView `json:"malus_badge,omitempty"`

	TokensDelta int `json:"tokens_delta"`
	Balance     int `json:"balance"`
}

// ImprovementResponse reports the pending re-answer right
type ImprovementResponse struct {
	BadgeID *int64 `json:"badge_id,omitempty"`
	Cost    int    `json:"cost"`
	Balance int    `json:"balance"`
}

// DailyBonusResponse reports a daily check-in claim
type DailyBonusResponse struct {
	Granted   int       `json:"granted"`
	Balance   int       `json:"balance"`
	ClaimedAt time.Time `json:"claimed_at"`
}

// ===============================
// AUTH TYPES
// ===============================

// RegisterRequest creates a new account
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=320"`
	Username string `json:"username" validate:"required,min=3,max=50,alphanum"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

// LoginRequest authenticates with email and password
type LoginRequest struct {
	Email     string  `json:"email" validate:"required,email"`
	Password  string  `json:"password" validate:"required"`
	UserAgent *string `json:"-"`
	IPAddress *string `json:"-"`
}

// GoogleSignInRequest authenticates with a Google OAuth authorization code
type GoogleSignInRequest struct {
	Code      string  `json:"code" validate:"required"`
	UserAgent *string `json:"-"`
	IPAddress *string `json:"-"`
}

// AuthResponse carries the session token after a successful sign-in
type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

// ===============================
// PROFILE TYPES
// ===============================

// UpdateProfileRequest edits the caller's mutable profile fields
type UpdateProfileRequest struct {
	UserID   int64   `json:"-"`
	Username *string `json:"username,omitempty" validate:"omitempty,min=3,max=50,alphanum"`
}

// AvatarUploadRequest uploads a profile image
type AvatarUploadRequest struct {
	UserID   int64     `json:"-"`
	File     io.Reader `json:"-"`
	Filename string    `json:"-"`
	Size     int64     `json:"-"`
}

// AvatarUploadResponse reports the stored avatar location
type AvatarUploadResponse struct {
	URL      string `json:"url"`
	PublicID string `json:"public_id"`
}
