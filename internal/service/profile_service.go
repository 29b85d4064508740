package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"profile-service/internal/auth"
	"profile-service/internal/cache"
	"profile-service/internal/events"
	"profile-service/internal/model"
	"profile-service/internal/repository"
	"profile-service/internal/storage"
)

var (
	// ErrValidation covers input outside accepted constraints; it is safe
	// to show its message to the user.
	ErrValidation = errors.New("invalid input")
	// ErrUpdateFailed is the generic result for a failed profile write.
	ErrUpdateFailed = errors.New("failed to update profile")
	// ErrUploadFailed is the generic result for a failed avatar upload.
	ErrUploadFailed = errors.New("failed to upload avatar")
	// ErrInvariant marks a stored row that fails the combined-shape
	// validation. It must never be masked as "no user".
	ErrInvariant = errors.New("profile invariant violation")
)

const (
	nameMinLen = 1
	nameMaxLen = 50
)

type AvatarUpload struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ProfileService orchestrates the session provider, the object store and the
// user row, and maps persistence outcomes to a uniform result.
type ProfileService interface {
	FetchCurrentUser(ctx context.Context, identity *auth.Identity) (*model.Profile, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, name string) error
	UpdateAvatar(ctx context.Context, userID uuid.UUID, upload AvatarUpload) (string, error)
}

type profileService struct {
	userRepo  repository.UserRepository
	store     storage.ObjectStore
	profiles  *cache.ProfileCache
	publisher events.Publisher
	validate  *validator.Validate
	maxBytes  int64
}

func NewProfileService(userRepo repository.UserRepository, store storage.ObjectStore, profiles *cache.ProfileCache, publisher events.Publisher, maxBytes int64) ProfileService {
	return &profileService{
		userRepo:  userRepo,
		store:     store,
		profiles:  profiles,
		publisher: publisher,
		validate:  validator.New(),
		maxBytes:  maxBytes,
	}
}

// FetchCurrentUser resolves the active session to a profile. A nil identity
// and a session without a backing row both yield (nil, nil): callers treat
// either as logged out. A row that fails the combined-shape validation is
// returned as ErrInvariant instead.
func (s *profileService) FetchCurrentUser(ctx context.Context, identity *auth.Identity) (*model.Profile, error) {
	if identity == nil {
		return nil, nil
	}

	// The email always comes from the session at read time, so a cache hit
	// still overlays the identity's email over the cached row fields.
	if cached, ok := s.profiles.Get(identity.ID); ok {
		profile := *cached
		profile.Email = identity.Email
		return &profile, nil
	}

	user, err := s.userRepo.FindByID(ctx, identity.ID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, nil
		}
		return nil, err
	}

	profile := &model.Profile{
		ID:        user.ID,
		Name:      user.Name,
		AvatarURL: user.AvatarURL,
		Email:     identity.Email,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}

	if err := s.validate.Struct(profile); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvariant, err)
	}

	s.profiles.Set(identity.ID, profile)

	return profile, nil
}

// UpdateProfile performs the single conditional name update. The name bounds
// are enforced again here even though the form validates first.
func (s *profileService) UpdateProfile(ctx context.Context, userID uuid.UUID, name string) error {
	if utf8.RuneCountInString(name) < nameMinLen {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if utf8.RuneCountInString(name) > nameMaxLen {
		return fmt.Errorf("%w: name must be %d characters or less", ErrValidation, nameMaxLen)
	}

	if err := s.userRepo.UpdateName(ctx, userID, name); err != nil {
		slog.Error("Failed to update profile name", "user_id", userID, "error", err)
		return ErrUpdateFailed
	}

	s.invalidate(userID)

	return nil
}

// UpdateAvatar is two sequential dependent writes, not a transaction: the
// blob goes to the object store first, then the derived URL into the row.
// A row-write failure after a successful Put leaves an unreferenced blob;
// that window is accepted and only logged.
func (s *profileService) UpdateAvatar(ctx context.Context, userID uuid.UUID, upload AvatarUpload) (string, error) {
	if int64(len(upload.Body)) > s.maxBytes {
		return "", fmt.Errorf("%w: file exceeds %d bytes", ErrValidation, s.maxBytes)
	}
	if !strings.HasPrefix(upload.ContentType, "image/") {
		return "", fmt.Errorf("%w: avatar must be an image", ErrValidation)
	}

	key := avatarKey(userID, upload.Filename)

	if err := s.store.Put(ctx, key, upload.Body, upload.ContentType); err != nil {
		slog.Error("Failed to store avatar blob", "user_id", userID, "key", key, "error", err)
		return "", ErrUploadFailed
	}

	avatarURL := s.store.PublicURL(key)

	if err := s.userRepo.UpdateAvatarURL(ctx, userID, avatarURL); err != nil {
		slog.Error("Avatar stored but row update failed, blob is unreferenced",
			"user_id", userID, "key", key, "error", err)
		return "", ErrUploadFailed
	}

	s.invalidate(userID)

	return avatarURL, nil
}

// invalidate evicts the local cache entry and broadcasts the signal so other
// replicas do the same. The publish is best effort: the mutation already
// succeeded.
func (s *profileService) invalidate(userID uuid.UUID) {
	s.profiles.Remove(userID)

	if err := s.publisher.PublishProfileUpdated(userID); err != nil {
		slog.Error("Failed to publish profile update event", "user_id", userID, "error", err)
	}
}

// avatarKey derives the fixed storage key "{userID}/avatar.{ext}". Re-uploads
// with the same extension overwrite in place; an extension change leaves the
// previous blob orphaned.
func avatarKey(userID uuid.UUID, filename string) string {
	ext := strings.TrimPrefix(path.Ext(filename), ".")
	if ext == "" {
		ext = "png"
	}
	return userID.String() + "/avatar." + ext
}
