package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-bot/internal/api/http/handlers"
	"github.com/spec-kit/ticket-bot/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Interactions   *handlers.InteractionsHandler
	Auth           *handlers.AuthHandler
	Workspaces     *handlers.WorkspacesHandler
	Tickets        *handlers.TicketsHandler
	Metrics        fiber.Handler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", cfg.Metrics)
	}

	app.Post("/interactions", cfg.Interactions.Handle)

	authGroup := app.Group("/auth")
	authGroup.Post("/operators/login", cfg.Auth.Login)

	api := app.Group("/api", cfg.AuthMiddleware.Handle, auth.RequireOperator())
	workspace := api.Group("/workspaces/:guildID")
	workspace.Get("/config", cfg.Workspaces.GetConfig)
	workspace.Put("/setup", cfg.Workspaces.Setup)

	workspace.Get("/tickets", cfg.Tickets.ListTickets)
	workspace.Get("/tickets/:ticketID", cfg.Tickets.GetTicket)
	workspace.Post("/tickets/:ticketID/close", cfg.Tickets.CloseTicket)
	workspace.Delete("/tickets/:ticketID", cfg.Tickets.DeleteTicket)
	workspace.Post("/tickets/:ticketID/members", cfg.Tickets.AddMember)
}
