package http

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/authgate/auth-service/internal/api/http/handlers"
	"github.com/authgate/auth-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	BasePath string
	Health   *handlers.HealthHandler
	Auth     *handlers.AuthHandler
	Gate     *auth.Gate
	Logger   *zap.Logger
}

// RegisterRoutes wires HTTP routes. The authentication gate runs first on
// every request under the base path; exempt prefixes pass through inside it.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	api := app.Group(cfg.BasePath)
	api.Use(cfg.Gate.Handle)

	api.Get("/health/live", cfg.Health.Live)
	api.Get("/health/ready", cfg.Health.Ready)

	authGroup := api.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/refresh", cfg.Auth.Refresh)
	authGroup.Get("/password/requirements", cfg.Auth.PasswordRequirements)

	api.Get("/me", auth.RequireAuthenticated(cfg.Logger), cfg.Auth.Me)
}
