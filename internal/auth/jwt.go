package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"profile-service/internal/model"
)

var ErrTokenInvalid = errors.New("token is invalid or expired")

const (
	accessTokenTTL  = time.Minute * 15
	refreshTokenTTL = time.Hour * 24 * 30
)

// Identity is what a validated session credential resolves to.
type Identity struct {
	ID    uuid.UUID
	Email string
}

type TokenManager struct {
	secret []byte
}

func NewTokenManager(secret string) *TokenManager {
	return &TokenManager{secret: []byte(secret)}
}

func (m *TokenManager) GenerateTokens(user *model.User) (accessToken string, refreshToken string, err error) {
	accessClaims := jwt.MapClaims{
		"sub":   user.ID.String(),
		"email": user.Email,
		"type":  "access",
		"exp":   time.Now().Add(accessTokenTTL).Unix(),
	}
	accessToken, err = jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims).SignedString(m.secret)
	if err != nil {
		return "", "", err
	}

	refreshClaims := jwt.MapClaims{
		"sub":  user.ID.String(),
		"type": "refresh",
		"exp":  time.Now().Add(refreshTokenTTL).Unix(),
	}
	refreshToken, err = jwt.NewWithClaims(jwt.SigningMethodHS256, refreshClaims).SignedString(m.secret)
	if err != nil {
		return "", "", err
	}

	return accessToken, refreshToken, nil
}

func (m *TokenManager) parse(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return m.secret, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, ErrTokenInvalid
}

// ValidateAccessToken resolves an access token to the identity it carries.
func (m *TokenManager) ValidateAccessToken(tokenString string) (*Identity, error) {
	claims, err := m.parse(tokenString)
	if err != nil {
		return nil, ErrTokenInvalid
	}

	if tokenType, _ := claims["type"].(string); tokenType != "access" {
		return nil, ErrTokenInvalid
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return nil, ErrTokenInvalid
	}

	id, err := uuid.Parse(sub)
	if err != nil {
		return nil, ErrTokenInvalid
	}

	email, _ := claims["email"].(string)

	return &Identity{ID: id, Email: email}, nil
}

// ValidateRefreshToken returns the user ID a refresh token was issued for.
func (m *TokenManager) ValidateRefreshToken(tokenString string) (uuid.UUID, error) {
	claims, err := m.parse(tokenString)
	if err != nil {
		return uuid.Nil, ErrTokenInvalid
	}

	if tokenType, _ := claims["type"].(string); tokenType != "refresh" {
		return uuid.Nil, ErrTokenInvalid
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return uuid.Nil, ErrTokenInvalid
	}

	id, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, ErrTokenInvalid
	}

	return id, nil
}
