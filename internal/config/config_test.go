package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"profile-service/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("S3_BUCKET_NAME", "avatars")
	t.Setenv("DATABASE_URL", "postgres://localhost/profiles")

	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, "8003", cfg.AppPort)
	require.Equal(t, int64(5*1024*1024), cfg.AvatarMaxBytes)
	require.Equal(t, 5*time.Minute, cfg.CacheTTL)
	require.Equal(t, "nats://localhost:4222", cfg.NatsURL)
}

func TestLoad_RequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("S3_BUCKET_NAME", "avatars")

	_, err := config.Load()
	require.Error(t, err)
}

func TestLoad_AssemblesDatabaseURLFromParts(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("S3_BUCKET_NAME", "avatars")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_USER", "app")
	t.Setenv("DB_PASSWORD", "pw")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PORT", "5432")
	t.Setenv("DB_NAME", "profiles")

	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, "postgres://app:pw@db:5432/profiles?sslmode=disable", cfg.DatabaseURL)
}
