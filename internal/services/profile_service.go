package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"github.com/Glivan2903/fazendo-90/internal/models"
	"github.com/Glivan2903/fazendo-90/internal/repository"
)

const MaxAvatarBytes = 5 << 20

var (
	ErrProfileNotFound     = errors.New("profile not found")
	ErrInvalidProfile      = errors.New("invalid profile")
	ErrUnsupportedImage    = errors.New("avatar must be a jpeg, png or webp image")
	ErrAvatarTooLarge      = errors.New("avatar exceeds 5MB")
	ErrStorageNotAvailable = errors.New("avatar storage is not configured")
)

var avatarExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

type profileStore interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	UpdatePartial(ctx context.Context, userID uuid.UUID, input repository.UpdateProfileInput) (*models.Profile, error)
}

type ProfileService struct {
	profiles profileStore
	storage  AvatarStorage
}

// NewProfileService accepts a nil storage; avatar uploads then fail with
// ErrStorageNotAvailable.
func NewProfileService(profiles profileStore, storage AvatarStorage) *ProfileService {
	return &ProfileService{profiles: profiles, storage: storage}
}

func (s *ProfileService) Get(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	profile, err := s.profiles.GetByUserID(ctx, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	return profile, err
}

func (s *ProfileService) Update(ctx context.Context, userID uuid.UUID, input repository.UpdateProfileInput) (*models.Profile, error) {
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrInvalidProfile
		}
		input.Name = &name
	}
	if input.Phone != nil {
		phone := strings.TrimSpace(*input.Phone)
		input.Phone = &phone
	}
	// avatar_url only changes through UploadAvatar
	input.AvatarURL = nil

	profile, err := s.profiles.UpdatePartial(ctx, userID, input)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	return profile, err
}

// UploadAvatar stores the image under the member's folder, points the profile
// at it and then removes the previous picture.
func (s *ProfileService) UploadAvatar(ctx context.Context, userID uuid.UUID, content []byte) (*models.Profile, error) {
	if s.storage == nil {
		return nil, ErrStorageNotAvailable
	}
	if len(content) > MaxAvatarBytes {
		return nil, ErrAvatarTooLarge
	}

	contentType := http.DetectContentType(content)
	ext, ok := avatarExtensions[contentType]
	if !ok {
		return nil, ErrUnsupportedImage
	}

	current, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	objectPath := fmt.Sprintf("avatars/%s/%s%s", userID, uuid.NewString(), ext)
	publicURL, err := s.storage.Upload(ctx, objectPath, content, contentType)
	if err != nil {
		return nil, err
	}

	updated, err := s.profiles.UpdatePartial(ctx, userID, repository.UpdateProfileInput{AvatarURL: &publicURL})
	if err != nil {
		if cleanupErr := s.storage.Delete(ctx, publicURL); cleanupErr != nil {
			log.Ctx(ctx).Warn().Err(cleanupErr).Str("url", publicURL).Msg("failed to remove orphaned avatar")
		}
		return nil, err
	}

	if current.AvatarURL != nil && *current.AvatarURL != "" {
		if err := s.storage.Delete(ctx, *current.AvatarURL); err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("user_id", userID.String()).Msg("failed to remove previous avatar")
		}
	}
	return updated, nil
}
