package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
)

// RouteConfig bundles dependencies for route registration. A nil Auth
// handler leaves the development token endpoint unregistered.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Tickets        *handlers.TicketsHandler
	Categories     *handlers.CategoriesHandler
	Auth           *handlers.AuthHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	if cfg.Auth != nil {
		app.Post("/auth/token", cfg.Auth.IssueToken)
	}

	api := app.Group("/api", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	api.Get("/categories", cfg.Categories.Options)

	tickets := api.Group("/tickets")
	tickets.Get("/", cfg.Tickets.Search)
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Patch("/:id", cfg.Tickets.UpdateTicket)
	tickets.Post("/:id/submit", cfg.Tickets.SubmitTicket)
	tickets.Delete("/:id", auth.RequireRole(domain.RoleAgent), cfg.Tickets.DeleteTicket)
}
