// internal/events/badge_events.go
package events

import "time"

// ===============================
// BADGE EVENTS
// ===============================

// BadgeAnswerSubmittedEvent is emitted after every recorded badge attempt
type BadgeAnswerSubmittedEvent struct {
	BaseEvent
	BadgeID int64   `json:"badge_id"`
	Success bool    `json:"success"`
	Level   *string `json:"level,omitempty"`
}

// NewBadgeAnswerSubmittedEvent creates a badge answer submitted event
func NewBadgeAnswerSubmittedEvent(userID, badgeID int64, success bool, level *string) *BadgeAnswerSubmittedEvent {
	return &BadgeAnswerSubmittedEvent{
		BaseEvent: NewBaseEvent("badge.answer_submitted", &userID),
		BadgeID:   badgeID,
		Success:   success,
		Level:     level,
	}
}

// BadgeUnlockedEvent is emitted when a badge flips to unlocked
type BadgeUnlockedEvent struct {
	BaseEvent
	BadgeID   int64   `json:"badge_id"`
	BadgeName string  `json:"badge_name"`
	Level     *string `json:"level,omitempty"`
	FirstTime bool    `json:"first_time"`
}

// NewBadgeUnlockedEvent creates a badge unlocked event
func NewBadgeUnlockedEvent(userID, badgeID int64, badgeName string, level *string, firstTime bool) *BadgeUnlockedEvent {
	return &BadgeUnlockedEvent{
		BaseEvent: NewBaseEvent("badge.unlocked", &userID),
		BadgeID:   badgeID,
		BadgeName: badgeName,
		Level:     level,
		FirstTime: firstTime,
	}
}

// GhostBadgeReconciledEvent is emitted when reconciliation changes a
// ghost badge's unlock state
type GhostBadgeReconciledEvent struct {
	BaseEvent
	BadgeID  int64 `json:"badge_id"`
	Unlocked bool  `json:"unlocked"`
}

// NewGhostBadgeReconciledEvent creates a ghost reconciliation event
func NewGhostBadgeReconciledEvent(userID, badgeID int64, unlocked bool) *GhostBadgeReconciledEvent {
	return &GhostBadgeReconciledEvent{
		BaseEvent: NewBaseEvent("badge.ghost_reconciled", &userID),
		BadgeID:   badgeID,
		Unlocked:  unlocked,
	}
}

// ===============================
// REWARD EVENTS
// ===============================

// WheelSpunEvent is emitted after a reward wheel spin settles
type WheelSpunEvent struct {
	BaseEvent
	Joker        bool   `json:"joker"`
	JokerOutcome string `json:"joker_outcome,omitempty"`
	Theme        string `json:"theme,omitempty"`
}

// NewWheelSpunEvent creates a wheel spun event
func NewWheelSpunEvent(userID int64, joker bool, jokerOutcome, theme string) *WheelSpunEvent {
	return &WheelSpunEvent{
		BaseEvent:    NewBaseEvent("reward.wheel_spun", &userID),
		Joker:        joker,
		JokerOutcome: jokerOutcome,
		Theme:        theme,
	}
}

// TokensChangedEvent is emitted whenever a user's token balance moves
type TokensChangedEvent struct {
	BaseEvent
	Delta   int    `json:"delta"`
	Balance int    `json:"balance"`
	Reason  string `json:"reason"`
}

// NewTokensChangedEvent creates a tokens changed event
func NewTokensChangedEvent(userID int64, delta, balance int, reason string) *TokensChangedEvent {
	return &TokensChangedEvent{
		BaseEvent: NewBaseEvent("reward.tokens_changed", &userID),
		Delta:     delta,
		Balance:   balance,
		Reason:    reason,
	}
}

// DailyBonusClaimedEvent is emitted when the daily check-in token is granted
type DailyBonusClaimedEvent struct {
	BaseEvent
	ClaimedAt time.Time `json:"claimed_at"`
}

// NewDailyBonusClaimedEvent creates a daily bonus claimed event
func NewDailyBonusClaimedEvent(userID int64, claimedAt time.Time) *DailyBonusClaimedEvent {
	return &DailyBonusClaimedEvent{
		BaseEvent: NewBaseEvent("reward.daily_bonus_claimed", &userID),
		ClaimedAt: claimedAt,
	}
}

// ===============================
// PROFILE EVENTS
// ===============================

// RankChangedEvent is emitted when recomputed totals move a user to a new rank
type RankChangedEvent struct {
	BaseEvent
	OldRank     string `json:"old_rank"`
	NewRank     string `json:"new_rank"`
	SkillPoints int    `json:"skill_points"`
}

// NewRankChangedEvent creates a rank changed event
func NewRankChangedEvent(userID int64, oldRank, newRank string, skillPoints int) *RankChangedEvent {
	return &RankChangedEvent{
		BaseEvent:   NewBaseEvent("profile.rank_changed", &userID),
		OldRank:     oldRank,
		NewRank:     newRank,
		SkillPoints: skillPoints,
	}
}

// UserRegisteredEvent is emitted when a new account is created
type UserRegisteredEvent struct {
	BaseEvent
	Email    string `json:"email"`
	Username string `json:"username"`
}

// NewUserRegisteredEvent creates a user registered event
func NewUserRegisteredEvent(userID int64, email, username string) *UserRegisteredEvent {
	return &UserRegisteredEvent{
		BaseEvent: NewBaseEvent("user.registered", &userID),
		Email:     email,
		Username:  username,
	}
}

// AvatarUploadedEvent is emitted when a profile avatar upload succeeds
type AvatarUploadedEvent struct {
	BaseEvent
	URL      string `json:"url"`
	PublicID string `json:"public_id"`
}

// NewAvatarUploadedEvent creates an avatar uploaded event
func NewAvatarUploadedEvent(userID int64, url, publicID string) *AvatarUploadedEvent {
	return &AvatarUploadedEvent{
		BaseEvent: NewBaseEvent("profile.avatar_uploaded", &userID),
		URL:       url,
		PublicID:  publicID,
	}
}
