// file: internal/models/badge.go
package models

import "time"

// DefaultTheme is assigned to catalog entries saved without a theme.
const DefaultTheme = "Autres"

// Badge is an immutable catalog entry. The stored answer field (RawAnswer)
// is the single source of unlock logic for the badge: either a plain
// expected string or a JSON-encoded configuration decoded by the engine.
type Badge struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name" validate:"required,max=150"`
	Emoji     string    `json:"emoji" db:"emoji"`
	Theme     string    `json:"theme" db:"theme"`
	Question  string    `json:"question" db:"question"`
	RawAnswer string    `json:"-" db:"answer"`
	LowSkill  bool      `json:"low_skill" db:"low_skill"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// DisplayTheme returns the badge theme, defaulted when blank
func (b *Badge) DisplayTheme() string {
	if b.Theme == "" {
		return DefaultTheme
	}
	return b.Theme
}

// UserBadgeRecord is one row per (user, badge): the outcome of the last
// evaluation plus the raw answer it was computed from. WasEverUnlocked is
// monotonic: set once true, never cleared, so a relocked badge still
// reports its history.
type UserBadgeRecord struct {
	UserID          int64     `json:"user_id" db:"user_id"`
	BadgeID         int64     `json:"badge_id" db:"badge_id"`
	Success         bool      `json:"success" db:"success"`
	Level           *string   `json:"level,omitempty" db:"level"`
	UserAnswer      *string   `json:"user_answer,omitempty" db:"user_answer"`
	WasEverUnlocked bool      `json:"was_ever_unlocked" db:"was_ever_unlocked"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// BadgeWithRecord merges a catalog entry with the caller's record, if any
type BadgeWithRecord struct {
	Badge  *Badge           `json:"badge"`
	Record *UserBadgeRecord `json:"record,omitempty"`
}

// CommunityEntry is one line of the community feed
type CommunityEntry struct {
	Username   string    `json:"username"`
	AvatarURL  *string   `json:"avatar_url,omitempty"`
	BadgeID    int64     `json:"badge_id"`
	BadgeName  string    `json:"badge_name"`
	BadgeEmoji string    `json:"badge_emoji"`
	Level      *string   `json:"level,omitempty"`
	UnlockedAt time.Time `json:"unlocked_at"`
}
