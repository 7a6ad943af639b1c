// file: internal/services/profile_service.go
package services

import (
	"context"
	"errors"
	"strings"

	"badgehub/internal/events"
	"badgehub/internal/models"
	"badgehub/internal/repositories"
	"badgehub/internal/utils"
	"badgehub/internal/validation"

	"go.uber.org/zap"
)

// profileService implements ProfileService
type profileService struct {
	repos    *repositories.Collection
	avatars  utils.AvatarStorage
	eventBus events.EventBus
	logger   *zap.Logger
}

// NewProfileService creates the profile service. The avatar store may be
// nil, in which case uploads are rejected with a service-unavailable error.
func NewProfileService(
	repos *repositories.Collection,
	avatars utils.AvatarStorage,
	eventBus events.EventBus,
	logger *zap.Logger,
) ProfileService {
	return &profileService{
		repos:    repos,
		avatars:  avatars,
		eventBus: eventBus,
		logger:   logger,
	}
}

// GetProfile returns the aggregate for a user, creating it on first access.
func (s *profileService) GetProfile(ctx context.Context, userID int64) (*models.Profile, error) {
	if err := s.repos.Profile.Ensure(ctx, userID); err != nil {
		return nil, NewInternalError("failed to load profile")
	}
	profile, err := s.repos.Profile.GetByUserID(ctx, userID)
	if err != nil {
		return nil, NewInternalError("failed to load profile")
	}
	if profile == nil {
		return nil, EntityNotFoundError("profile", userID)
	}
	return profile, nil
}

// UpdateProfile applies the caller's edits and returns the refreshed aggregate.
func (s *profileService) UpdateProfile(ctx context.Context, req *UpdateProfileRequest) (*models.Profile, error) {
	if err := validation.ValidateStruct(req); err != nil {
		return nil, NewValidationError("invalid profile update", err)
	}

	if req.Username != nil {
		username := strings.TrimSpace(*req.Username)
		if len(username) < 3 {
			return nil, InvalidInputError("username", "doit contenir au moins 3 caractères")
		}

		user, err := s.repos.User.GetByID(ctx, req.UserID)
		if err != nil {
			return nil, NewInternalError("failed to load user")
		}
		if user == nil {
			return nil, EntityNotFoundError("user", req.UserID)
		}

		if username != user.Username {
			existing, err := s.repos.User.GetByUsername(ctx, username)
			if err != nil {
				return nil, NewInternalError("failed to check username")
			}
			if existing != nil && existing.ID != req.UserID {
				return nil, EntityAlreadyExistsError("user", "username", username)
			}
			if err := s.repos.User.UpdateUsername(ctx, req.UserID, username); err != nil {
				return nil, NewInternalError("failed to update username")
			}
			s.logger.Info("username changed",
				zap.Int64("user_id", req.UserID),
				zap.String("username", username),
			)
		}
	}

	return s.GetProfile(ctx, req.UserID)
}

// GetLeaderboard returns profiles ranked by skill points.
func (s *profileService) GetLeaderboard(ctx context.Context, params models.PaginationParams) (*models.PaginatedResponse[*models.Profile], error) {
	params.Normalize()
	page, err := s.repos.Profile.Leaderboard(ctx, params)
	if err != nil {
		return nil, NewInternalError("failed to load leaderboard")
	}
	return page, nil
}

// UploadAvatar stores a new profile image and removes the previous one.
func (s *profileService) UploadAvatar(ctx context.Context, req *AvatarUploadRequest) (*AvatarUploadResponse, error) {
	if s.avatars == nil {
		return nil, NewServiceUnavailableError("avatar uploads are not available")
	}

	user, err := s.repos.User.GetByID(ctx, req.UserID)
	if err != nil {
		return nil, NewInternalError("failed to load user")
	}
	if user == nil {
		return nil, EntityNotFoundError("user", req.UserID)
	}

	result, err := s.avatars.Upload(ctx, req.File, req.Filename, req.Size)
	if err != nil {
		switch {
		case errors.Is(err, utils.ErrFileTooLarge):
			return nil, NewValidationError("file size exceeds the allowed limit", err)
		case errors.Is(err, utils.ErrInvalidFileType):
			return nil, NewValidationError("only image files are accepted", err)
		default:
			return nil, NewInternalError("avatar upload failed")
		}
	}

	if err := s.repos.User.UpdateAvatar(ctx, req.UserID, &result.URL, &result.PublicID); err != nil {
		// Best effort: the orphaned upload is removed so the account keeps
		// pointing at its previous image.
		if delErr := s.avatars.Delete(ctx, result.PublicID); delErr != nil {
			s.logger.Warn("failed to clean up orphaned avatar",
				zap.String("public_id", result.PublicID),
				zap.Error(delErr),
			)
		}
		return nil, NewInternalError("failed to save avatar")
	}

	// The old image is deleted only after the new one is referenced.
	if user.AvatarPublicID != nil && *user.AvatarPublicID != "" {
		if err := s.avatars.Delete(ctx, *user.AvatarPublicID); err != nil {
			s.logger.Warn("failed to delete previous avatar",
				zap.String("public_id", *user.AvatarPublicID),
				zap.Error(err),
			)
		}
	}

	s.publishAvatarUploaded(req.UserID, result)

	return &AvatarUploadResponse{
		URL:      result.URL,
		PublicID: result.PublicID,
	}, nil
}

func (s *profileService) publishAvatarUploaded(userID int64, result *utils.UploadResult) {
	if s.eventBus == nil {
		return
	}
	event := events.NewAvatarUploadedEvent(userID, result.URL, result.PublicID)
	if err := s.eventBus.PublishAsync(context.Background(), event); err != nil {
		s.logger.Warn("failed to publish avatar event",
			zap.String("event_type", event.GetEventType()),
			zap.Error(err),
		)
	}
}
