// file: internal/repositories/user_badge_repository.go
package repositories

import (
	"context"
	"fmt"

	"badgehub/internal/models"
)

// userBadgeRepository implements UserBadgeRepository
type userBadgeRepository struct {
	*BaseRepository
}

// NewUserBadgeRepository creates a new user badge repository
func NewUserBadgeRepository(base *BaseRepository) UserBadgeRepository {
	return &userBadgeRepository{BaseRepository: base}
}

// Upsert writes the latest evaluation outcome for (user, badge).
// was_ever_unlocked only ever goes from false to true.
func (r *userBadgeRepository) Upsert(ctx context.Context, record *models.UserBadgeRecord) error {
	query := `
		INSERT INTO user_badges (user_id, badge_id, success, level, user_answer, was_ever_unlocked, updated_at)
		VALUES ($1, $2, $3, $4, $5, $3, NOW())
		ON CONFLICT (user_id, badge_id) DO UPDATE SET
			success = EXCLUDED.success,
			level = EXCLUDED.level,
			user_answer = EXCLUDED.user_answer,
			was_ever_unlocked = user_badges.was_ever_unlocked OR EXCLUDED.success,
			updated_at = NOW()
		RETURNING was_ever_unlocked, updated_at`

	err := r.QueryRowContext(ctx, query,
		record.UserID, record.BadgeID, record.Success, record.Level, record.UserAnswer,
	).Scan(&record.WasEverUnlocked, &record.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert badge record: %w", err)
	}
	return nil
}

func (r *userBadgeRepository) Get(ctx context.Context, userID, badgeID int64) (*models.UserBadgeRecord, error) {
	query := `
		SELECT user_id, badge_id, success, level, user_answer, was_ever_unlocked, updated_at
		FROM user_badges
		WHERE user_id = $1 AND badge_id = $2`

	record := &models.UserBadgeRecord{}
	err := r.QueryRowContext(ctx, query, userID, badgeID).Scan(
		&record.UserID, &record.BadgeID, &record.Success,
		&record.Level, &record.UserAnswer, &record.WasEverUnlocked, &record.UpdatedAt,
	)
	if err != nil {
		if r.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get badge record: %w", err)
	}
	return record, nil
}

func (r *userBadgeRepository) GetAllForUser(ctx context.Context, userID int64) (map[int64]*models.UserBadgeRecord, error) {
	query := `
		SELECT user_id, badge_id, success, level, user_answer, was_ever_unlocked, updated_at
		FROM user_badges
		WHERE user_id = $1`

	rows, err := r.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list badge records: %w", err)
	}
	defer rows.Close()

	records := make(map[int64]*models.UserBadgeRecord)
	for rows.Next() {
		record := &models.UserBadgeRecord{}
		if err := rows.Scan(
			&record.UserID, &record.BadgeID, &record.Success,
			&record.Level, &record.UserAnswer, &record.WasEverUnlocked, &record.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan badge record: %w", err)
		}
		records[record.BadgeID] = record
	}
	return records, rows.Err()
}

// SetUnlocked flips the success flag without touching the stored answer.
// Used by ghost reconciliation, which derives state instead of evaluating.
func (r *userBadgeRepository) SetUnlocked(ctx context.Context, userID, badgeID int64, unlocked bool) error {
	query := `
		INSERT INTO user_badges (user_id, badge_id, success, was_ever_unlocked, updated_at)
		VALUES ($1, $2, $3, $3, NOW())
		ON CONFLICT (user_id, badge_id) DO UPDATE SET
			success = EXCLUDED.success,
			was_ever_unlocked = user_badges.was_ever_unlocked OR EXCLUDED.success,
			updated_at = NOW()`

	if _, err := r.ExecContext(ctx, query, userID, badgeID, unlocked); err != nil {
		return fmt.Errorf("failed to set unlock state: %w", err)
	}
	return nil
}

func (r *userBadgeRepository) RecentUnlocks(ctx context.Context, limit int) ([]*models.CommunityEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	query := `
		SELECT u.username, u.avatar_url, b.id, b.name, b.emoji, ub.level, ub.updated_at
		FROM user_badges ub
		JOIN users u ON u.id = ub.user_id
		JOIN badges b ON b.id = ub.badge_id
		WHERE ub.success = TRUE
		ORDER BY ub.updated_at DESC
		LIMIT $1`

	rows, err := r.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent unlocks: %w", err)
	}
	defer rows.Close()

	var entries []*models.CommunityEntry
	for rows.Next() {
		entry := &models.CommunityEntry{}
		if err := rows.Scan(
			&entry.Username, &entry.AvatarURL, &entry.BadgeID,
			&entry.BadgeName, &entry.BadgeEmoji, &entry.Level, &entry.UnlockedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan community entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
