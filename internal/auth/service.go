package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	googleoauth "golang.org/x/oauth2/google"

	"profile-service/internal/config"
	"profile-service/internal/events"
	"profile-service/internal/model"
	"profile-service/internal/repository"
)

const (
	ProviderGoogle = "google"
	ProviderGitHub = "github"
)

var ErrUnknownProvider = errors.New("unknown oauth provider")

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Service is the session provider: it signs users in through an OAuth
// provider, persists their profile row, and issues the JWT credentials the
// rest of the service validates.
type Service struct {
	userRepo  repository.UserRepository
	tokenRepo repository.TokenRepository
	tokens    *TokenManager
	publisher events.Publisher
	google    *oauth2.Config
	github    *oauth2.Config
}

func NewService(userRepo repository.UserRepository, tokenRepo repository.TokenRepository, tokens *TokenManager, publisher events.Publisher, cfg config.OAuthConfig) *Service {
	return &Service{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		tokens:    tokens,
		publisher: publisher,
		google: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			Endpoint:     googleoauth.Endpoint,
			Scopes:       []string{"openid", "profile", "email"},
			RedirectURL:  cfg.RedirectBaseURL + "/v1/auth/google/callback",
		},
		github: &oauth2.Config{
			ClientID:     cfg.GitHubClientID,
			ClientSecret: cfg.GitHubClientSecret,
			Endpoint:     github.Endpoint,
			Scopes:       []string{"user:email"},
			RedirectURL:  cfg.RedirectBaseURL + "/v1/auth/github/callback",
		},
	}
}

func (s *Service) AuthURL(provider, state string) (string, error) {
	switch provider {
	case ProviderGoogle:
		return s.google.AuthCodeURL(state), nil
	case ProviderGitHub:
		return s.github.AuthCodeURL(state), nil
	default:
		return "", ErrUnknownProvider
	}
}

// HandleCallback exchanges the authorization code, upserts the profile row
// and returns a signed token pair.
func (s *Service) HandleCallback(ctx context.Context, provider, code string) (*model.User, *TokenPair, error) {
	var user *model.User
	var err error

	switch provider {
	case ProviderGoogle:
		user, err = s.googleCallback(ctx, code)
	case ProviderGitHub:
		user, err = s.githubCallback(ctx, code)
	default:
		return nil, nil, ErrUnknownProvider
	}

	if err != nil {
		return nil, nil, err
	}

	// The upsert refreshes the row's provider-sourced fields, so cached
	// renderings of the profile must be evicted like any other mutation.
	if s.publisher != nil {
		if pubErr := s.publisher.PublishProfileUpdated(user.ID); pubErr != nil {
			slog.Error("Failed to publish profile update event after sign-in", "user_id", user.ID, "error", pubErr)
		}
	}

	pair, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	return user, pair, nil
}

func (s *Service) googleCallback(ctx context.Context, code string) (*model.User, error) {
	token, err := s.google.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("google token exchange: %w", err)
	}

	info, err := fetchGoogleUserInfo(ctx, token.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("fetch google user info: %w", err)
	}

	return s.userRepo.UpsertFromProvider(ctx, &model.User{
		Provider:   ProviderGoogle,
		ProviderID: info.ID,
		Email:      info.Email,
		Name:       strPtr(info.Name),
		AvatarURL:  strPtr(info.Picture),
	})
}

func (s *Service) githubCallback(ctx context.Context, code string) (*model.User, error) {
	token, err := s.github.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("github token exchange: %w", err)
	}

	info, err := fetchGitHubUserInfo(ctx, token.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("fetch github user info: %w", err)
	}

	return s.userRepo.UpsertFromProvider(ctx, &model.User{
		Provider:   ProviderGitHub,
		ProviderID: fmt.Sprintf("%d", info.ID),
		Email:      info.Email,
		Name:       strPtr(info.Login),
		AvatarURL:  strPtr(info.AvatarURL),
	})
}

func (s *Service) issueTokens(ctx context.Context, user *model.User) (*TokenPair, error) {
	accessToken, refreshToken, err := s.tokens.GenerateTokens(user)
	if err != nil {
		return nil, err
	}

	hash := sha256.Sum256([]byte(refreshToken))
	tokenHash := hex.EncodeToString(hash[:])

	err = s.tokenRepo.Create(ctx, &model.RefreshToken{
		UserID:    user.ID,
		TokenHash: tokenHash,
		ExpiresAt: time.Now().Add(refreshTokenTTL),
	})
	if err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// Refresh validates a refresh token against its stored hash and issues a new
// access token.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	userID, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		return "", ErrTokenInvalid
	}

	hash := sha256.Sum256([]byte(refreshToken))
	tokenHash := hex.EncodeToString(hash[:])

	if _, err := s.tokenRepo.FindByTokenHash(ctx, tokenHash); err != nil {
		return "", ErrTokenInvalid
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return "", ErrTokenInvalid
	}

	newAccessToken, _, err := s.tokens.GenerateTokens(user)
	if err != nil {
		return "", err
	}

	return newAccessToken, nil
}

func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	hash := sha256.Sum256([]byte(refreshToken))
	tokenHash := hex.EncodeToString(hash[:])

	return s.tokenRepo.Delete(ctx, tokenHash)
}

// ValidateAccessToken resolves a bearer credential to an identity. A missing
// or bad credential is reported as ErrTokenInvalid; callers decide whether
// that means 401 or simply "no user".
func (s *Service) ValidateAccessToken(tokenString string) (*Identity, error) {
	return s.tokens.ValidateAccessToken(tokenString)
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
