// file: internal/repositories/profile_repository.go
package repositories

import (
	"context"
	"fmt"
	"time"

	"badgehub/internal/models"
)

// ErrInsufficientTokens is returned when a token deduction would go negative
var ErrInsufficientTokens = fmt.Errorf("insufficient tokens")

// profileRepository implements ProfileRepository
type profileRepository struct {
	*BaseRepository
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(base *BaseRepository) ProfileRepository {
	return &profileRepository{BaseRepository: base}
}

// Ensure creates the profile row if the user does not have one yet.
// The starting token balance comes from the schema default.
func (r *profileRepository) Ensure(ctx context.Context, userID int64) error {
	query := `
		INSERT INTO profiles (user_id, badge_count, skill_points, rank, updated_at)
		VALUES ($1, 0, 0, 'Novice', NOW())
		ON CONFLICT (user_id) DO NOTHING`

	if _, err := r.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to ensure profile: %w", err)
	}
	return nil
}

func (r *profileRepository) GetByUserID(ctx context.Context, userID int64) (*models.Profile, error) {
	query := `
		SELECT p.user_id, u.username, u.avatar_url, p.tokens, p.badge_count,
		       p.skill_points, p.rank, p.last_daily_claim,
		       p.improve_badge_id, p.improve_cost, p.updated_at
		FROM profiles p
		JOIN users u ON u.id = p.user_id
		WHERE p.user_id = $1`

	profile := &models.Profile{}
	err := r.QueryRowContext(ctx, query, userID).Scan(
		&profile.UserID, &profile.Username, &profile.AvatarURL,
		&profile.Tokens, &profile.BadgeCount, &profile.SkillPoints,
		&profile.Rank, &profile.LastDailyClaim,
		&profile.ImproveBadgeID, &profile.ImproveCost, &profile.UpdatedAt,
	)
	if err != nil {
		if r.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return profile, nil
}

func (r *profileRepository) UpdateTotals(ctx context.Context, userID int64, badgeCount, skillPoints int, rank string) error {
	query := `
		UPDATE profiles
		SET badge_count = $2, skill_points = $3, rank = $4, updated_at = NOW()
		WHERE user_id = $1`

	if _, err := r.ExecContext(ctx, query, userID, badgeCount, skillPoints, rank); err != nil {
		return fmt.Errorf("failed to update totals: %w", err)
	}
	return nil
}

// AdjustTokens applies delta atomically and returns the new balance.
// Deductions are guarded in SQL so the balance can never go negative.
func (r *profileRepository) AdjustTokens(ctx context.Context, userID int64, delta int) (int, error) {
	query := `
		UPDATE profiles
		SET tokens = tokens + $2, updated_at = NOW()
		WHERE user_id = $1 AND tokens + $2 >= 0
		RETURNING tokens`

	var balance int
	err := r.QueryRowContext(ctx, query, userID, delta).Scan(&balance)
	if err != nil {
		if r.IsNotFound(err) {
			return 0, ErrInsufficientTokens
		}
		return 0, fmt.Errorf("failed to adjust tokens: %w", err)
	}
	return balance, nil
}

func (r *profileRepository) SetImprovement(ctx context.Context, userID int64, badgeID *int64, cost int) error {
	query := `
		UPDATE profiles
		SET improve_badge_id = $2, improve_cost = $3, updated_at = NOW()
		WHERE user_id = $1`

	if _, err := r.ExecContext(ctx, query, userID, badgeID, cost); err != nil {
		return fmt.Errorf("failed to set improvement: %w", err)
	}
	return nil
}

func (r *profileRepository) SetLastDailyClaim(ctx context.Context, userID int64, claimedAt time.Time) error {
	query := `
		UPDATE profiles
		SET last_daily_claim = $2, updated_at = NOW()
		WHERE user_id = $1`

	if _, err := r.ExecContext(ctx, query, userID, claimedAt); err != nil {
		return fmt.Errorf("failed to set daily claim: %w", err)
	}
	return nil
}

func (r *profileRepository) Leaderboard(ctx context.Context, params models.PaginationParams) (*models.PaginatedResponse[*models.Profile], error) {
	params.Normalize()

	total, err := r.GetTotalCount(ctx, `SELECT COUNT(*) FROM profiles`)
	if err != nil {
		return nil, fmt.Errorf("failed to count profiles: %w", err)
	}

	query := `
		SELECT p.user_id, u.username, u.avatar_url, p.tokens, p.badge_count,
		       p.skill_points, p.rank, p.last_daily_claim,
		       p.improve_badge_id, p.improve_cost, p.updated_at
		FROM profiles p
		JOIN users u ON u.id = p.user_id
		ORDER BY p.skill_points DESC, p.badge_count DESC, u.username
		LIMIT $1 OFFSET $2`

	rows, err := r.QueryContext(ctx, query, params.Limit, params.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list leaderboard: %w", err)
	}
	defer rows.Close()

	var profiles []*models.Profile
	for rows.Next() {
		profile := &models.Profile{}
		if err := rows.Scan(
			&profile.UserID, &profile.Username, &profile.AvatarURL,
			&profile.Tokens, &profile.BadgeCount, &profile.SkillPoints,
			&profile.Rank, &profile.LastDailyClaim,
			&profile.ImproveBadgeID, &profile.ImproveCost, &profile.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles = append(profiles, profile)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &models.PaginatedResponse[*models.Profile]{
		Data:       profiles,
		Pagination: r.BuildPaginationMeta(params, total),
	}, nil
}
