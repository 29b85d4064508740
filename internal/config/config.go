package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type S3Config struct {
	Endpoint     string
	Region       string
	BucketName   string
	AccessKey    string
	SecretKey    string
	UsePathStyle bool
	PublicURL    string
}

type OAuthConfig struct {
	GoogleClientID     string
	GoogleClientSecret string
	GitHubClientID     string
	GitHubClientSecret string
	RedirectBaseURL    string
}

// Config holds all application configuration loaded from environment variables.
type Config struct {
	AppPort      string
	DatabaseURL  string
	JWTSecret    string
	NatsURL      string
	OtelEndpoint string

	S3    S3Config
	OAuth OAuthConfig

	AvatarMaxBytes int64
	CacheSize      int
	CacheTTL       time.Duration
}

// Load reads configuration from environment variables and validates required
// fields. The database URL can be given whole (DATABASE_URL) or assembled
// from DB_* parts the way the docker-compose environment provides them.
func Load() (Config, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		dbURL = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
			os.Getenv("DB_USER"), os.Getenv("DB_PASSWORD"),
			os.Getenv("DB_HOST"), os.Getenv("DB_PORT"), os.Getenv("DB_NAME"),
		)
	}

	maxBytes, err := getEnvInt64("AVATAR_MAX_BYTES", 5*1024*1024)
	if err != nil {
		return Config{}, fmt.Errorf("parse AVATAR_MAX_BYTES: %w", err)
	}

	cacheSize, err := getEnvInt("PROFILE_CACHE_SIZE", 1024)
	if err != nil {
		return Config{}, fmt.Errorf("parse PROFILE_CACHE_SIZE: %w", err)
	}

	cacheTTL, err := getEnvDuration("PROFILE_CACHE_TTL", 5*time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("parse PROFILE_CACHE_TTL: %w", err)
	}

	cfg := Config{
		AppPort:      getEnv("APP_PORT", "8003"),
		DatabaseURL:  dbURL,
		JWTSecret:    os.Getenv("JWT_SECRET"),
		NatsURL:      getEnv("NATS_URL", "nats://localhost:4222"),
		OtelEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "jaeger:4317"),
		S3: S3Config{
			Endpoint:     os.Getenv("S3_ENDPOINT"),
			Region:       getEnv("AWS_REGION", "us-east-1"),
			BucketName:   os.Getenv("S3_BUCKET_NAME"),
			AccessKey:    os.Getenv("AWS_ACCESS_KEY_ID"),
			SecretKey:    os.Getenv("AWS_SECRET_ACCESS_KEY"),
			UsePathStyle: os.Getenv("S3_USE_PATH_STYLE") == "true",
			PublicURL:    os.Getenv("S3_PUBLIC_URL"),
		},
		OAuth: OAuthConfig{
			GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
			GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
			GitHubClientID:     os.Getenv("GITHUB_CLIENT_ID"),
			GitHubClientSecret: os.Getenv("GITHUB_CLIENT_SECRET"),
			RedirectBaseURL:    getEnv("PUBLIC_BASE_URL", "http://localhost:8003"),
		},
		AvatarMaxBytes: maxBytes,
		CacheSize:      cacheSize,
		CacheTTL:       cacheTTL,
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.S3.BucketName == "" {
		return fmt.Errorf("S3_BUCKET_NAME is required")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	return strconv.Atoi(v)
}

func getEnvInt64(key string, defaultValue int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	return strconv.ParseInt(v, 10, 64)
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	return time.ParseDuration(v)
}
