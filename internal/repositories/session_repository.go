// file: internal/repositories/session_repository.go
package repositories

import (
	"context"
	"fmt"

	"badgehub/internal/models"
)

// sessionRepository implements SessionRepository
type sessionRepository struct {
	*BaseRepository
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(base *BaseRepository) SessionRepository {
	return &sessionRepository{BaseRepository: base}
}

func (r *sessionRepository) Create(ctx context.Context, session *models.Session) error {
	query := `
		INSERT INTO sessions (user_id, token, user_agent, ip_address, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING id, created_at`

	err := r.QueryRowContext(ctx, query,
		session.UserID, session.Token, session.UserAgent, session.IPAddress, session.ExpiresAt,
	).Scan(&session.ID, &session.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (r *sessionRepository) GetByToken(ctx context.Context, token string) (*models.Session, error) {
	query := `
		SELECT id, user_id, token, user_agent, ip_address, expires_at, created_at, revoked_at
		FROM sessions
		WHERE token = $1`

	session := &models.Session{}
	err := r.QueryRowContext(ctx, query, token).Scan(
		&session.ID, &session.UserID, &session.Token,
		&session.UserAgent, &session.IPAddress,
		&session.ExpiresAt, &session.CreatedAt, &session.RevokedAt,
	)
	if err != nil {
		if r.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return session, nil
}

func (r *sessionRepository) Revoke(ctx context.Context, token string) error {
	query := `UPDATE sessions SET revoked_at = NOW() WHERE token = $1 AND revoked_at IS NULL`
	if _, err := r.ExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

func (r *sessionRepository) RevokeAllForUser(ctx context.Context, userID int64) error {
	query := `UPDATE sessions SET revoked_at = NOW() WHERE user_id = $1 AND revoked_at IS NULL`
	if _, err := r.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to revoke sessions: %w", err)
	}
	return nil
}

// DeleteExpired removes sessions past their expiry, returning the count.
// Called from a background sweep, not the request path.
func (r *sessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < NOW()`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	affected, _ := result.RowsAffected()
	return affected, nil
}
