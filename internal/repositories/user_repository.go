// file: internal/repositories/user_repository.go
package repositories

import (
	"context"
	"fmt"
	"strings"

	"badgehub/internal/models"
)

// userRepository implements UserRepository
type userRepository struct {
	*BaseRepository
}

// NewUserRepository creates a new user repository
func NewUserRepository(base *BaseRepository) UserRepository {
	return &userRepository{BaseRepository: base}
}

const userColumns = `id, email, username, password_hash, google_id, email_verified,
	is_active, avatar_url, avatar_public_id, created_at, updated_at, last_seen`

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (email, username, password_hash, google_id, email_verified,
			is_active, avatar_url, avatar_public_id, created_at, updated_at, last_seen)
		VALUES ($1, $2, $3, $4, $5, TRUE, $6, $7, NOW(), NOW(), NOW())
		RETURNING id, created_at, updated_at, last_seen`

	err := r.QueryRowContext(ctx, query,
		strings.ToLower(user.Email), user.Username, user.PasswordHash,
		user.GoogleID, user.EmailVerified, user.AvatarURL, user.AvatarPublicID,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt, &user.LastSeen)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	user.IsActive = true
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, strings.ToLower(email))
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE LOWER(username) = LOWER($1)`, username)
}

func (r *userRepository) GetByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE google_id = $1`, googleID)
}

func (r *userRepository) LinkGoogleID(ctx context.Context, userID int64, googleID string) error {
	query := `
		UPDATE users
		SET google_id = $2, email_verified = TRUE, updated_at = NOW()
		WHERE id = $1`

	if _, err := r.ExecContext(ctx, query, userID, googleID); err != nil {
		return fmt.Errorf("failed to link google account: %w", err)
	}
	return nil
}

func (r *userRepository) UpdateAvatar(ctx context.Context, userID int64, avatarURL, publicID *string) error {
	query := `
		UPDATE users
		SET avatar_url = $2, avatar_public_id = $3, updated_at = NOW()
		WHERE id = $1`

	if _, err := r.ExecContext(ctx, query, userID, avatarURL, publicID); err != nil {
		return fmt.Errorf("failed to update avatar: %w", err)
	}
	return nil
}

func (r *userRepository) UpdateUsername(ctx context.Context, userID int64, username string) error {
	query := `
		UPDATE users
		SET username = $2, updated_at = NOW()
		WHERE id = $1`

	if _, err := r.ExecContext(ctx, query, userID, username); err != nil {
		return fmt.Errorf("failed to update username: %w", err)
	}
	return nil
}

func (r *userRepository) UpdateLastSeen(ctx context.Context, userID int64) error {
	if _, err := r.ExecContext(ctx, `UPDATE users SET last_seen = NOW() WHERE id = $1`, userID); err != nil {
		return fmt.Errorf("failed to update last seen: %w", err)
	}
	return nil
}

func (r *userRepository) getOne(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	user := &models.User{}
	err := r.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.Email, &user.Username, &user.PasswordHash,
		&user.GoogleID, &user.EmailVerified, &user.IsActive,
		&user.AvatarURL, &user.AvatarPublicID,
		&user.CreatedAt, &user.UpdatedAt, &user.LastSeen,
	)
	if err != nil {
		if r.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}
