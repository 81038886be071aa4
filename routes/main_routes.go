package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pbdna/pbdna_backend/middleware"
	"github.com/pbdna/pbdna_backend/robots"
	"github.com/pbdna/pbdna_backend/services"
	"github.com/pbdna/pbdna_backend/websocket"
)

// HealthDeps are the dependencies reported by the health endpoint, which
// the metrics collector scrapes.
type HealthDeps struct {
	DB     *pgxpool.Pool
	Redis  *redis.Client
	Broker *services.Broker
}

// SetupRoutes registers the operational endpoints: health, metrics,
// robots.txt and the websocket entry point.
func SetupRoutes(e *echo.Echo, deps HealthDeps, hub *websocket.Hub, policy *robots.Policy) {
	e.Match([]string{"GET", "HEAD"}, "/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "OK",
			"message": "Agents service is running",
			"version": "1.0",
		})
	})

	e.Match([]string{"GET", "HEAD"}, "/health", healthHandler(deps))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/robots.txt", policy.Handler())

	e.GET("/api/ws", func(c echo.Context) error {
		return websocket.HandleWebSocket(c, hub, uuid.Nil, wsTokenValidator())
	})
}

func healthHandler(deps HealthDeps) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		checks := map[string]string{
			"database": "connected",
			"cache":    "connected",
			"broker":   "connected",
		}

		if deps.DB == nil || deps.DB.Ping(ctx) != nil {
			checks["database"] = "unavailable"
			status = http.StatusServiceUnavailable
		}
		if deps.Redis == nil || deps.Redis.Ping(ctx).Err() != nil {
			checks["cache"] = "unavailable"
			status = http.StatusServiceUnavailable
		}
		if deps.Broker == nil || !deps.Broker.Healthy() {
			checks["broker"] = "unavailable"
			status = http.StatusServiceUnavailable
		}

		healthy := "healthy"
		if status != http.StatusOK {
			healthy = "degraded"
		}
		return c.JSON(status, map[string]string{
			"status":   healthy,
			"database": checks["database"],
			"cache":    checks["cache"],
			"broker":   checks["broker"],
		})
	}
}

// wsTokenValidator checks AUTH tokens presented over the websocket.
func wsTokenValidator() websocket.TokenValidator {
	return func(tokenString string) (uuid.UUID, bool) {
		token, err := jwt.ParseWithClaims(tokenString, &middleware.JwtCustomClaims{}, func(token *jwt.Token) (interface{}, error) {
			return []byte(middleware.GetJWTSecret()), nil
		})
		if err != nil || !token.Valid {
			return uuid.Nil, false
		}
		claims, ok := token.Claims.(*middleware.JwtCustomClaims)
		if !ok {
			return uuid.Nil, false
		}
		id, err := uuid.Parse(claims.UserID)
		if err != nil {
			return uuid.Nil, false
		}
		return id, true
	}
}
