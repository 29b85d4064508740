package api_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"profile-service/internal/api"
	"profile-service/internal/auth"
	"profile-service/internal/config"
	"profile-service/internal/model"
	"profile-service/internal/service"
	"profile-service/internal/storage"
)

type stubProfileService struct {
	profile   *model.Profile
	updateErr error
	avatarURL string
	avatarErr error
}

func (s *stubProfileService) FetchCurrentUser(ctx context.Context, identity *auth.Identity) (*model.Profile, error) {
	if identity == nil {
		return nil, nil
	}
	return s.profile, nil
}

func (s *stubProfileService) UpdateProfile(ctx context.Context, userID uuid.UUID, name string) error {
	return s.updateErr
}

func (s *stubProfileService) UpdateAvatar(ctx context.Context, userID uuid.UUID, upload service.AvatarUpload) (string, error) {
	return s.avatarURL, s.avatarErr
}

func newTestApp(t *testing.T, svc service.ProfileService, store storage.ObjectStore) (*fiber.App, string) {
	t.Helper()

	tokens := auth.NewTokenManager("test-secret")
	sessions := auth.NewService(nil, nil, tokens, nil, config.OAuthConfig{})

	handler := api.NewProfileHandler(svc)
	avatars := api.NewAvatarHandler(store)

	app := fiber.New()
	v1 := app.Group("/v1")
	profile := v1.Group("/profile")
	profile.Get("/me", api.OptionalAuthMiddleware(sessions), handler.GetCurrentUser)
	profile.Put("/me", api.AuthMiddleware(sessions), handler.UpdateProfile)
	v1.Get("/avatars", avatars.GetAvatar)

	accessToken, _, err := tokens.GenerateTokens(&model.User{ID: uuid.New(), Email: "alice@example.com"})
	require.NoError(t, err)

	return app, accessToken
}

func TestGetCurrentUser_Unauthenticated(t *testing.T) {
	app, _ := newTestApp(t, &stubProfileService{}, storage.NewMemoryObjectStore())

	req := httptest.NewRequest("GET", "/v1/profile/me", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "null", string(body["user"]))
}

func TestGetCurrentUser_WithSession(t *testing.T) {
	name := "Alice"
	svc := &stubProfileService{profile: &model.Profile{
		ID:        uuid.New(),
		Name:      &name,
		Email:     "alice@example.com",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}}
	app, token := newTestApp(t, svc, storage.NewMemoryObjectStore())

	req := httptest.NewRequest("GET", "/v1/profile/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		User *model.Profile `json:"user"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.NotNil(t, body.User)
	require.Equal(t, "Alice", *body.User.Name)
}

func TestUpdateProfile_RequiresSession(t *testing.T) {
	app, _ := newTestApp(t, &stubProfileService{}, storage.NewMemoryObjectStore())

	req := httptest.NewRequest("PUT", "/v1/profile/me", strings.NewReader(`{"name":"Alicia"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestUpdateProfile_RejectsLongName(t *testing.T) {
	app, token := newTestApp(t, &stubProfileService{}, storage.NewMemoryObjectStore())

	payload := `{"name":"` + strings.Repeat("x", 51) + `"}`
	req := httptest.NewRequest("PUT", "/v1/profile/me", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestUpdateProfile_Success(t *testing.T) {
	app, token := newTestApp(t, &stubProfileService{}, storage.NewMemoryObjectStore())

	req := httptest.NewRequest("PUT", "/v1/profile/me", strings.NewReader(`{"name":"Alicia"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestGetAvatar_MissingKey(t *testing.T) {
	app, _ := newTestApp(t, &stubProfileService{}, storage.NewMemoryObjectStore())

	req := httptest.NewRequest("GET", "/v1/avatars", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestGetAvatar_NotFound(t *testing.T) {
	app, _ := newTestApp(t, &stubProfileService{}, storage.NewMemoryObjectStore())

	req := httptest.NewRequest("GET", "/v1/avatars?key=missing/avatar.png", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestGetAvatar_StreamsWithImmutableCaching(t *testing.T) {
	store := storage.NewMemoryObjectStore()
	key := uuid.New().String() + "/avatar.png"
	require.NoError(t, store.Put(context.Background(), key, []byte("pngbytes"), "image/png"))

	app, _ := newTestApp(t, &stubProfileService{}, store)

	req := httptest.NewRequest("GET", "/v1/avatars?key="+key, nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	require.Equal(t, "public, max-age=31536000, immutable", resp.Header.Get("Cache-Control"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, []byte("pngbytes"), body)
}
