package api

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"profile-service/internal/auth"
)

const localsIdentityKey = "identity"

var (
	httpRequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code"},
	)
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of http request",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status_code"},
	)
)

func bearerToken(c *fiber.Ctx) (string, bool) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return "", false
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}

	return parts[1], true
}

// AuthMiddleware requires a valid session credential and rejects the request
// otherwise.
func AuthMiddleware(sessions *auth.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := bearerToken(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing or malformed authorization header"})
		}

		identity, err := sessions.ValidateAccessToken(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired token"})
		}

		c.Locals(localsIdentityKey, identity)

		return c.Next()
	}
}

// OptionalAuthMiddleware resolves a session when one is presented but never
// rejects the request: an absent or invalid credential just means no user.
func OptionalAuthMiddleware(sessions *auth.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token, ok := bearerToken(c); ok {
			if identity, err := sessions.ValidateAccessToken(token); err == nil {
				c.Locals(localsIdentityKey, identity)
			}
		}

		return c.Next()
	}
}

// CurrentIdentity returns the session identity set by the auth middleware,
// or nil when the request is unauthenticated.
func CurrentIdentity(c *fiber.Ctx) *auth.Identity {
	identity, _ := c.Locals(localsIdentityKey).(*auth.Identity)
	return identity
}

func PrometheusMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fiberErr, ok := err.(*fiber.Error); ok {
				status = fiberErr.Code
			}
		}

		labels := []string{c.Method(), c.Route().Path, strconv.Itoa(status)}
		httpRequestTotal.WithLabelValues(labels...).Inc()
		httpRequestDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())

		return err
	}
}
