// file: internal/utils/cloudinary.go
package utils

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"badgehub/internal/config"

	"github.com/cenkalti/backoff/v4"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/gofrs/uuid"
	"go.uber.org/zap"
	"golang.org/x/exp/slices"
)

// ===============================
// ERRORS
// ===============================

var (
	ErrFileTooLarge     = errors.New("file size exceeds the allowed limit")
	ErrInvalidFileType  = errors.New("file type is not allowed")
	ErrUploadFailed     = errors.New("file upload failed")
	ErrDeleteFailed     = errors.New("file deletion failed")
	ErrStorageDisabled  = errors.New("avatar storage is not configured")
)

// validExtensions lists the avatar image formats accepted for upload.
var validExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}

// ===============================
// TYPES
// ===============================

// AvatarStorage uploads and deletes user avatar images.
type AvatarStorage interface {
	Upload(ctx context.Context, file io.Reader, filename string, size int64) (*UploadResult, error)
	Delete(ctx context.Context, publicID string) error
}

// UploadResult holds the outcome of a successful upload.
type UploadResult struct {
	URL      string `json:"url"`
	PublicID string `json:"public_id"`
	Format   string `json:"format"`
	Size     int64  `json:"size"`
}

// CloudinaryStorage stores avatars on Cloudinary.
type CloudinaryStorage struct {
	client *cloudinary.Cloudinary
	cfg    config.CloudinaryConfig
	logger *zap.Logger
}

// NewCloudinaryStorage creates an avatar store backed by Cloudinary.
// Returns ErrStorageDisabled when credentials are absent so callers can
// run without avatar support in development.
func NewCloudinaryStorage(cfg config.CloudinaryConfig, logger *zap.Logger) (*CloudinaryStorage, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, ErrStorageDisabled
	}

	client, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary client: %w", err)
	}

	return &CloudinaryStorage{
		client: client,
		cfg:    cfg,
		logger: logger,
	}, nil
}

// ===============================
// OPERATIONS
// ===============================

// Upload validates and uploads an avatar image, retrying transient failures.
func (s *CloudinaryStorage) Upload(ctx context.Context, file io.Reader, filename string, size int64) (*UploadResult, error) {
	if err := s.validate(filename, size); err != nil {
		return nil, err
	}

	publicID, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("failed to generate public id: %w", err)
	}

	params := uploader.UploadParams{
		PublicID:     publicID.String(),
		Folder:       s.cfg.Folder,
		ResourceType: "image",
	}

	var resp *uploader.UploadResult
	operation := func() error {
		var uploadErr error
		resp, uploadErr = s.client.Upload.Upload(ctx, file, params)
		if uploadErr != nil {
			return uploadErr
		}
		if resp.Error.Message != "" {
			return backoff.Permanent(fmt.Errorf("cloudinary rejected upload: %s", resp.Error.Message))
		}
		return nil
	}

	notify := func(err error, wait time.Duration) {
		s.logger.Warn("avatar upload attempt failed, retrying",
			zap.Error(err),
			zap.Duration("retry_in", wait),
			zap.String("filename", filename),
		)
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		s.logger.Error("avatar upload failed",
			zap.Error(err),
			zap.String("filename", filename),
		)
		return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	s.logger.Info("avatar uploaded",
		zap.String("public_id", resp.PublicID),
		zap.String("format", resp.Format),
		zap.Int("bytes", resp.Bytes),
	)

	return &UploadResult{
		URL:      resp.SecureURL,
		PublicID: resp.PublicID,
		Format:   resp.Format,
		Size:     int64(resp.Bytes),
	}, nil
}

// Delete removes a previously uploaded avatar by its public ID.
func (s *CloudinaryStorage) Delete(ctx context.Context, publicID string) error {
	if publicID == "" {
		return nil
	}

	resp, err := s.client.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     publicID,
		ResourceType: "image",
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeleteFailed, err)
	}
	if resp.Result != "ok" && resp.Result != "not found" {
		return fmt.Errorf("%w: unexpected result %q", ErrDeleteFailed, resp.Result)
	}

	s.logger.Info("avatar deleted", zap.String("public_id", publicID))
	return nil
}

func (s *CloudinaryStorage) validate(filename string, size int64) error {
	if size <= 0 || size > s.cfg.MaxFileSize {
		return fmt.Errorf("%w: max %d bytes", ErrFileTooLarge, s.cfg.MaxFileSize)
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if !slices.Contains(validExtensions, ext) {
		return fmt.Errorf("%w: %s", ErrInvalidFileType, ext)
	}
	return nil
}
