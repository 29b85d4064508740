package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"profile-service/internal/auth"
	"profile-service/internal/cache"
	"profile-service/internal/model"
	"profile-service/internal/repository"
	"profile-service/internal/service"
	"profile-service/internal/storage"
)

const maxAvatarBytes = 5 * 1024 * 1024

type fakeUserRepo struct {
	users           map[uuid.UUID]*model.User
	failUpdate      error
	failAvatarWrite error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*model.User)}
}

func (f *fakeUserRepo) add(user *model.User) {
	f.users[user.ID] = user
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserRepo) UpsertFromProvider(ctx context.Context, user *model.User) (*model.User, error) {
	f.users[user.ID] = user
	return user, nil
}

func (f *fakeUserRepo) UpdateName(ctx context.Context, id uuid.UUID, name string) error {
	if f.failUpdate != nil {
		return f.failUpdate
	}
	user, ok := f.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	user.Name = &name
	user.UpdatedAt = time.Now()
	return nil
}

func (f *fakeUserRepo) UpdateAvatarURL(ctx context.Context, id uuid.UUID, avatarURL string) error {
	if f.failAvatarWrite != nil {
		return f.failAvatarWrite
	}
	user, ok := f.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	user.AvatarURL = &avatarURL
	user.UpdatedAt = time.Now()
	return nil
}

type fakePublisher struct {
	published []uuid.UUID
}

func (f *fakePublisher) PublishProfileUpdated(userID uuid.UUID) error {
	f.published = append(f.published, userID)
	return nil
}

type fixture struct {
	repo      *fakeUserRepo
	store     *storage.MemoryObjectStore
	publisher *fakePublisher
	svc       service.ProfileService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	repo := newFakeUserRepo()
	store := storage.NewMemoryObjectStore()
	publisher := &fakePublisher{}
	profiles := cache.NewProfileCache(16, time.Minute)
	svc := service.NewProfileService(repo, store, profiles, publisher, maxAvatarBytes)

	return &fixture{repo: repo, store: store, publisher: publisher, svc: svc}
}

func seedUser(f *fixture, name string) *model.User {
	n := name
	user := &model.User{
		ID:        uuid.New(),
		Provider:  "google",
		Email:     "alice@example.com",
		Name:      &n,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	f.repo.add(user)
	return user
}

func TestFetchCurrentUser_NoSession(t *testing.T) {
	f := newFixture(t)

	profile, err := f.svc.FetchCurrentUser(context.Background(), nil)
	require.NoError(t, err)
	require.Nil(t, profile)
}

func TestFetchCurrentUser_MissingRowIsNoUser(t *testing.T) {
	f := newFixture(t)

	identity := &auth.Identity{ID: uuid.New(), Email: "ghost@example.com"}
	profile, err := f.svc.FetchCurrentUser(context.Background(), identity)
	require.NoError(t, err)
	require.Nil(t, profile)
}

func TestFetchCurrentUser_CombinesSessionEmail(t *testing.T) {
	f := newFixture(t)
	user := seedUser(f, "Alice")

	identity := &auth.Identity{ID: user.ID, Email: "session@example.com"}
	profile, err := f.svc.FetchCurrentUser(context.Background(), identity)
	require.NoError(t, err)
	require.Equal(t, user.ID, profile.ID)
	require.Equal(t, "Alice", *profile.Name)
	require.Equal(t, "session@example.com", profile.Email)
}

func TestFetchCurrentUser_InvariantViolation(t *testing.T) {
	f := newFixture(t)
	user := seedUser(f, "Alice")
	malformed := "not a url"
	user.AvatarURL = &malformed

	identity := &auth.Identity{ID: user.ID, Email: "alice@example.com"}
	_, err := f.svc.FetchCurrentUser(context.Background(), identity)
	require.ErrorIs(t, err, service.ErrInvariant)
}

func TestUpdateProfile_NameBounds(t *testing.T) {
	f := newFixture(t)
	user := seedUser(f, "Alice")

	require.ErrorIs(t, f.svc.UpdateProfile(context.Background(), user.ID, ""), service.ErrValidation)
	require.ErrorIs(t, f.svc.UpdateProfile(context.Background(), user.ID, strings.Repeat("x", 51)), service.ErrValidation)

	require.NoError(t, f.svc.UpdateProfile(context.Background(), user.ID, "A"))
	require.NoError(t, f.svc.UpdateProfile(context.Background(), user.ID, strings.Repeat("x", 50)))
}

func TestUpdateProfile_RoundTrip(t *testing.T) {
	f := newFixture(t)
	user := seedUser(f, "Alice")
	identity := &auth.Identity{ID: user.ID, Email: "alice@example.com"}

	require.NoError(t, f.svc.UpdateProfile(context.Background(), user.ID, "Alicia"))

	profile, err := f.svc.FetchCurrentUser(context.Background(), identity)
	require.NoError(t, err)
	require.Equal(t, "Alicia", *profile.Name)
}

func TestUpdateProfile_StoreFailureIsGeneric(t *testing.T) {
	f := newFixture(t)
	user := seedUser(f, "Alice")
	f.repo.failUpdate = errors.New("connection reset")

	err := f.svc.UpdateProfile(context.Background(), user.ID, "Alicia")
	require.ErrorIs(t, err, service.ErrUpdateFailed)
	require.NotContains(t, err.Error(), "connection reset")
}

func TestUpdateAvatar_WritesBlobThenRow(t *testing.T) {
	f := newFixture(t)
	user := seedUser(f, "Alice")

	avatarURL, err := f.svc.UpdateAvatar(context.Background(), user.ID, service.AvatarUpload{
		Filename:    "me.png",
		ContentType: "image/png",
		Body:        []byte("pngbytes"),
	})
	require.NoError(t, err)

	key := user.ID.String() + "/avatar.png"
	obj, err := f.store.Get(context.Background(), key)
	require.NoError(t, err)
	require.Equal(t, "image/png", obj.ContentType)

	stored, err := f.repo.FindByID(context.Background(), user.ID)
	require.NoError(t, err)
	require.Equal(t, avatarURL, *stored.AvatarURL)
}

func TestUpdateAvatar_SecondUploadOverwrites(t *testing.T) {
	f := newFixture(t)
	user := seedUser(f, "Alice")

	upload := service.AvatarUpload{Filename: "me.png", ContentType: "image/png", Body: []byte("pngbytes")}

	first, err := f.svc.UpdateAvatar(context.Background(), user.ID, upload)
	require.NoError(t, err)
	second, err := f.svc.UpdateAvatar(context.Background(), user.ID, upload)
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.Equal(t, 1, f.store.Len())
}

func TestUpdateAvatar_PutFailureLeavesRowUntouched(t *testing.T) {
	f := newFixture(t)
	user := seedUser(f, "Alice")
	f.store.FailPut = errors.New("bucket unavailable")

	_, err := f.svc.UpdateAvatar(context.Background(), user.ID, service.AvatarUpload{
		Filename:    "me.png",
		ContentType: "image/png",
		Body:        []byte("pngbytes"),
	})
	require.ErrorIs(t, err, service.ErrUploadFailed)

	stored, err := f.repo.FindByID(context.Background(), user.ID)
	require.NoError(t, err)
	require.Nil(t, stored.AvatarURL)
}

func TestUpdateAvatar_RowFailureKeepsBlob(t *testing.T) {
	f := newFixture(t)
	user := seedUser(f, "Alice")
	f.repo.failAvatarWrite = errors.New("connection reset")

	_, err := f.svc.UpdateAvatar(context.Background(), user.ID, service.AvatarUpload{
		Filename:    "me.png",
		ContentType: "image/png",
		Body:        []byte("pngbytes"),
	})
	require.ErrorIs(t, err, service.ErrUploadFailed)

	// The orphaned blob is accepted, not rolled back.
	require.Equal(t, 1, f.store.Len())
}

func TestUpdateAvatar_RejectsOversizedFile(t *testing.T) {
	f := newFixture(t)
	user := seedUser(f, "Alice")

	_, err := f.svc.UpdateAvatar(context.Background(), user.ID, service.AvatarUpload{
		Filename:    "me.png",
		ContentType: "image/png",
		Body:        make([]byte, maxAvatarBytes+1),
	})
	require.ErrorIs(t, err, service.ErrValidation)
	require.Equal(t, 0, f.store.PutCount)
}

func TestUpdateAvatar_RejectsNonImage(t *testing.T) {
	f := newFixture(t)
	user := seedUser(f, "Alice")

	_, err := f.svc.UpdateAvatar(context.Background(), user.ID, service.AvatarUpload{
		Filename:    "notes.txt",
		ContentType: "text/plain",
		Body:        []byte("hello"),
	})
	require.ErrorIs(t, err, service.ErrValidation)
	require.Equal(t, 0, f.store.PutCount)
}

func TestMutationsPublishInvalidation(t *testing.T) {
	f := newFixture(t)
	user := seedUser(f, "Alice")

	require.NoError(t, f.svc.UpdateProfile(context.Background(), user.ID, "Alicia"))
	_, err := f.svc.UpdateAvatar(context.Background(), user.ID, service.AvatarUpload{
		Filename:    "me.png",
		ContentType: "image/png",
		Body:        []byte("pngbytes"),
	})
	require.NoError(t, err)

	require.Equal(t, []uuid.UUID{user.ID, user.ID}, f.publisher.published)
}

func TestFetchCurrentUser_CacheHitUsesSessionEmail(t *testing.T) {
	f := newFixture(t)
	user := seedUser(f, "Alice")

	first, err := f.svc.FetchCurrentUser(context.Background(), &auth.Identity{ID: user.ID, Email: "old@example.com"})
	require.NoError(t, err)
	require.Equal(t, "old@example.com", first.Email)

	// The second read hits the cache, but the email is still the one the
	// session carries now, not the one captured at cache-fill time.
	second, err := f.svc.FetchCurrentUser(context.Background(), &auth.Identity{ID: user.ID, Email: "new@example.com"})
	require.NoError(t, err)
	require.Equal(t, "new@example.com", second.Email)
}

func TestFetchCurrentUser_CachedUntilInvalidated(t *testing.T) {
	f := newFixture(t)
	user := seedUser(f, "Alice")
	identity := &auth.Identity{ID: user.ID, Email: "alice@example.com"}

	first, err := f.svc.FetchCurrentUser(context.Background(), identity)
	require.NoError(t, err)
	require.Equal(t, "Alice", *first.Name)

	// The mutation evicts the cached profile, so the next read is fresh.
	require.NoError(t, f.svc.UpdateProfile(context.Background(), user.ID, "Alicia"))

	second, err := f.svc.FetchCurrentUser(context.Background(), identity)
	require.NoError(t, err)
	require.Equal(t, "Alicia", *second.Name)
}
