// file: internal/repositories/badge_repository.go
package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"badgehub/internal/cache"
	"badgehub/internal/models"
)

const (
	badgeCatalogCacheKey = "badges:catalog"
	badgeThemesCacheKey  = "badges:themes"
	badgeCacheTTL        = 5 * time.Minute
)

// badgeRepository implements BadgeRepository. The catalog changes rarely,
// so full-catalog reads are served from cache and writes invalidate it.
type badgeRepository struct {
	*BaseRepository
	cache cache.Cache
}

// NewBadgeRepository creates a new badge repository
func NewBadgeRepository(base *BaseRepository, c cache.Cache) BadgeRepository {
	return &badgeRepository{BaseRepository: base, cache: c}
}

func (r *badgeRepository) Create(ctx context.Context, badge *models.Badge) error {
	if badge.Theme == "" {
		badge.Theme = models.DefaultTheme
	}

	query := `
		INSERT INTO badges (name, emoji, theme, question, answer, low_skill, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING id, created_at`

	err := r.QueryRowContext(ctx, query,
		badge.Name, badge.Emoji, badge.Theme, badge.Question, badge.RawAnswer, badge.LowSkill,
	).Scan(&badge.ID, &badge.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create badge: %w", err)
	}

	r.invalidate(ctx)
	return nil
}

func (r *badgeRepository) GetByID(ctx context.Context, id int64) (*models.Badge, error) {
	query := `
		SELECT id, name, emoji, theme, question, answer, low_skill, created_at
		FROM badges
		WHERE id = $1`

	badge := &models.Badge{}
	err := r.QueryRowContext(ctx, query, id).Scan(
		&badge.ID, &badge.Name, &badge.Emoji, &badge.Theme,
		&badge.Question, &badge.RawAnswer, &badge.LowSkill, &badge.CreatedAt,
	)
	if err != nil {
		if r.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get badge %d: %w", id, err)
	}
	return badge, nil
}

// GetAll returns the full catalog, cached. Reconciliation and totals need
// every badge, so this is the hot read path.
func (r *badgeRepository) GetAll(ctx context.Context) ([]*models.Badge, error) {
	var cached []*models.Badge
	if cache.GetJSON(ctx, r.cache, badgeCatalogCacheKey, &cached) {
		return cached, nil
	}

	query := `
		SELECT id, name, emoji, theme, question, answer, low_skill, created_at
		FROM badges
		ORDER BY id`

	rows, err := r.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list badges: %w", err)
	}
	defer rows.Close()

	badges, err := scanBadges(rows)
	if err != nil {
		return nil, err
	}

	if err := cache.SetJSON(ctx, r.cache, badgeCatalogCacheKey, badges, badgeCacheTTL); err != nil {
		r.GetLogger().Warn("Failed to cache badge catalog")
	}
	return badges, nil
}

func (r *badgeRepository) List(ctx context.Context, theme string, params models.PaginationParams) (*models.PaginatedResponse[*models.Badge], error) {
	params.Normalize()

	var (
		rows  *sql.Rows
		total int64
		err   error
	)

	if theme != "" {
		total, err = r.GetTotalCount(ctx, `SELECT COUNT(*) FROM badges WHERE theme = $1`, theme)
		if err != nil {
			return nil, fmt.Errorf("failed to count badges: %w", err)
		}
		rows, err = r.QueryContext(ctx, `
			SELECT id, name, emoji, theme, question, answer, low_skill, created_at
			FROM badges
			WHERE theme = $1
			ORDER BY id
			LIMIT $2 OFFSET $3`, theme, params.Limit, params.Offset)
	} else {
		total, err = r.GetTotalCount(ctx, `SELECT COUNT(*) FROM badges`)
		if err != nil {
			return nil, fmt.Errorf("failed to count badges: %w", err)
		}
		rows, err = r.QueryContext(ctx, `
			SELECT id, name, emoji, theme, question, answer, low_skill, created_at
			FROM badges
			ORDER BY id
			LIMIT $1 OFFSET $2`, params.Limit, params.Offset)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list badges: %w", err)
	}
	defer rows.Close()

	badges, err := scanBadges(rows)
	if err != nil {
		return nil, err
	}

	return &models.PaginatedResponse[*models.Badge]{
		Data:       badges,
		Pagination: r.BuildPaginationMeta(params, total),
	}, nil
}

func (r *badgeRepository) ListThemes(ctx context.Context) ([]string, error) {
	var cached []string
	if cache.GetJSON(ctx, r.cache, badgeThemesCacheKey, &cached) {
		return cached, nil
	}

	rows, err := r.QueryContext(ctx, `SELECT DISTINCT theme FROM badges ORDER BY theme`)
	if err != nil {
		return nil, fmt.Errorf("failed to list themes: %w", err)
	}
	defer rows.Close()

	var themes []string
	for rows.Next() {
		var theme string
		if err := rows.Scan(&theme); err != nil {
			return nil, fmt.Errorf("failed to scan theme: %w", err)
		}
		themes = append(themes, theme)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := cache.SetJSON(ctx, r.cache, badgeThemesCacheKey, themes, badgeCacheTTL); err != nil {
		r.GetLogger().Warn("Failed to cache badge themes")
	}
	return themes, nil
}

func (r *badgeRepository) Update(ctx context.Context, badge *models.Badge) error {
	if badge.Theme == "" {
		badge.Theme = models.DefaultTheme
	}

	query := `
		UPDATE badges
		SET name = $2, emoji = $3, theme = $4, question = $5, answer = $6, low_skill = $7
		WHERE id = $1`

	result, err := r.ExecContext(ctx, query,
		badge.ID, badge.Name, badge.Emoji, badge.Theme, badge.Question, badge.RawAnswer, badge.LowSkill,
	)
	if err != nil {
		return fmt.Errorf("failed to update badge %d: %w", badge.ID, err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return sql.ErrNoRows
	}

	r.invalidate(ctx)
	return nil
}

func (r *badgeRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.ExecContext(ctx, `DELETE FROM badges WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete badge %d: %w", id, err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return sql.ErrNoRows
	}

	r.invalidate(ctx)
	return nil
}

func (r *badgeRepository) invalidate(ctx context.Context) {
	if err := r.cache.DeletePattern(ctx, "badges:*"); err != nil {
		r.GetLogger().Warn("Failed to invalidate badge cache")
	}
}

func scanBadges(rows *sql.Rows) ([]*models.Badge, error) {
	var badges []*models.Badge
	for rows.Next() {
		badge := &models.Badge{}
		if err := rows.Scan(
			&badge.ID, &badge.Name, &badge.Emoji, &badge.Theme,
			&badge.Question, &badge.RawAnswer, &badge.LowSkill, &badge.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan badge: %w", err)
		}
		badges = append(badges, badge)
	}
	return badges, rows.Err()
}
