package avatars

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrValidation  = errors.New("validation error")
	ErrTooLarge    = errors.New("avatar exceeds size limit")
	ErrBadMimeType = errors.New("unsupported avatar type")
)

const (
	// MaxAvatarSize is the hard cap on uploaded avatar bytes.
	MaxAvatarSize = 5 << 20
	signedURLTTL  = 7 * 24 * time.Hour
)

var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
}

type AvatarSaver interface {
	SetAvatarURL(ctx context.Context, userID int64, avatarURL string) error
}

type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

type Service struct {
	profiles AvatarSaver
	storage  ObjectStorage
}

func NewService(profiles AvatarSaver, storage ObjectStorage) *Service {
	return &Service{
		profiles: profiles,
		storage:  storage,
	}
}

// Upload stores a new avatar and points the user's profile at it. The old
// object stays behind so previously issued URLs keep working until expiry.
func (s *Service) Upload(ctx context.Context, userID int64, contentType string, body io.Reader, size int64) (string, error) {
	if userID <= 0 || body == nil || size <= 0 {
		return "", ErrValidation
	}
	if s.profiles == nil || s.storage == nil {
		return "", fmt.Errorf("avatar dependencies are not configured")
	}
	if size > MaxAvatarSize {
		return "", ErrTooLarge
	}

	ext, ok := allowedTypes[normalizeContentType(contentType)]
	if !ok {
		return "", ErrBadMimeType
	}

	if err := s.storage.EnsureBucket(ctx); err != nil {
		return "", fmt.Errorf("ensure bucket: %w", err)
	}

	objectKey := buildObjectKey(userID, ext)
	if err := s.storage.Put(ctx, objectKey, body, size, contentType); err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}

	url, err := s.storage.PresignGet(ctx, objectKey, signedURLTTL)
	if err != nil {
		_ = s.storage.Delete(ctx, objectKey)
		return "", fmt.Errorf("presign avatar url: %w", err)
	}

	if err := s.profiles.SetAvatarURL(ctx, userID, url); err != nil {
		_ = s.storage.Delete(ctx, objectKey)
		return "", fmt.Errorf("save avatar url: %w", err)
	}

	return url, nil
}

func normalizeContentType(contentType string) string {
	contentType = strings.TrimSpace(strings.ToLower(contentType))
	if idx := strings.IndexByte(contentType, ';'); idx >= 0 {
		contentType = strings.TrimSpace(contentType[:idx])
	}
	return contentType
}

func buildObjectKey(userID int64, ext string) string {
	return path.Join("avatars", fmt.Sprintf("%d", userID), uuid.NewString()+ext)
}
