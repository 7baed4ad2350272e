package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/khaldi-abdarhmane/user-management-microservice/internal/api/http/handlers"
	"github.com/khaldi-abdarhmane/user-management-microservice/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Users          *handlers.UsersHandler
	AuthMiddleware *auth.AuthMiddleware
	AdminRoles     []string
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/jwt/login", cfg.Auth.Login)
	authGroup.Post("/request-verify-token", cfg.Auth.RequestVerifyToken)
	authGroup.Post("/verify", cfg.Auth.Verify)
	authGroup.Post("/forgot-password", cfg.Auth.ForgotPassword)
	authGroup.Post("/reset-password", cfg.Auth.ResetPassword)

	authGroup.Post("/jwt/logout", cfg.AuthMiddleware.Handle, cfg.Auth.Logout)

	usersGroup := app.Group("/users", cfg.AuthMiddleware.Handle)
	usersGroup.Get("/me", cfg.Users.Me)
	usersGroup.Patch("/me", cfg.Users.UpdateMe)
	usersGroup.Get("/:id", auth.RequireRoles(cfg.AdminRoles...), cfg.Users.GetByID)
}
