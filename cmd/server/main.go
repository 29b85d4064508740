package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/gofiber/contrib/otelfiber/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	_ "github.com/jackc/pgx/v5/stdlib"

	"profile-service/internal/api"
	"profile-service/internal/auth"
	"profile-service/internal/cache"
	"profile-service/internal/config"
	"profile-service/internal/events"
	"profile-service/internal/repository"
	"profile-service/internal/service"
	"profile-service/internal/storage"
	"profile-service/internal/tracing"
	_ "profile-service/migrations"
)

func main() {
	if err := godotenv.Load(".env.dev"); err != nil {
		fmt.Println("No .env.dev file found, reading from environment variables provided by Docker")
	}

	api.SetupGlobalHandler("profile-service")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	shutdownTracer, err := tracing.InitTracerProvider(context.Background(), "profile-service", cfg.OtelEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize OpenTelemetry: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			log.Printf("Error shutting down tracer provider: %v", err)
		}
	}()

	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		handleMigrations(cfg.DatabaseURL)
		return
	}

	db, err := sqlx.Connect("pgx", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Successfully connected to the database.")

	objectStore, err := storage.NewS3ObjectStore(cfg.S3)
	if err != nil {
		log.Fatalf("Failed to initialize object store: %v", err)
	}
	log.Println("Successfully initialized object store.")

	eventPublisher, err := events.NewNatsPublisher(cfg.NatsURL)
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	log.Println("Successfully connected to NATS.")

	profileCache := cache.NewProfileCache(cfg.CacheSize, cfg.CacheTTL)

	subscriber, err := events.NewInvalidationSubscriber(cfg.NatsURL, profileCache)
	if err != nil {
		log.Printf("WARNING: Failed to start invalidation subscriber: %v", err)
		// Continue running even if subscriber fails, NATS may not be ready
	} else {
		defer subscriber.Close()
	}

	userRepo := repository.NewPostgresUserRepository(db)
	tokenRepo := repository.NewPostgresTokenRepository(db)

	if pruned, err := tokenRepo.DeleteExpired(context.Background()); err != nil {
		log.Printf("WARNING: Failed to prune expired refresh tokens: %v", err)
	} else if pruned > 0 {
		log.Printf("Pruned %d expired refresh tokens", pruned)
	}

	tokens := auth.NewTokenManager(cfg.JWTSecret)
	sessions := auth.NewService(userRepo, tokenRepo, tokens, eventPublisher, cfg.OAuth)
	profileService := service.NewProfileService(userRepo, objectStore, profileCache, eventPublisher, cfg.AvatarMaxBytes)

	authHandler := api.NewAuthHandler(sessions)
	profileHandler := api.NewProfileHandler(profileService)
	avatarHandler := api.NewAvatarHandler(objectStore)

	app := fiber.New(fiber.Config{
		BodyLimit: int(cfg.AvatarMaxBytes) + 1024*1024,
	})
	app.Use(otelfiber.Middleware())
	app.Use(api.PrometheusMiddleware())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "profile-service",
		})
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	v1 := app.Group("/v1")

	authRoutes := v1.Group("/auth")
	authRoutes.Get("/:provider/login", authHandler.Login)
	authRoutes.Get("/:provider/callback", authHandler.Callback)
	authRoutes.Post("/refresh", authHandler.Refresh)
	authRoutes.Post("/logout", authHandler.Logout)

	profileRoutes := v1.Group("/profile")
	profileRoutes.Get("/me", api.OptionalAuthMiddleware(sessions), profileHandler.GetCurrentUser)
	profileRoutes.Put("/me", api.AuthMiddleware(sessions), profileHandler.UpdateProfile)
	profileRoutes.Post("/me/avatar", api.AuthMiddleware(sessions), profileHandler.UploadAvatar)

	v1.Get("/avatars", avatarHandler.GetAvatar)

	log.Printf("Listening profile-service on port %s", cfg.AppPort)
	log.Fatal(app.Listen(":" + cfg.AppPort))
}

func handleMigrations(databaseURL string) {
	fmt.Println("Running database migrations...")

	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database for migration: %v", err)
	}
	defer db.Close()

	if err := goose.SetDialect("postgres"); err != nil {
		log.Fatalf("failed to set goose dialect: %v", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		log.Fatalf("goose: failed to run migrations: %v", err)
	}

	fmt.Println("Migrations applied successfully!")
}
