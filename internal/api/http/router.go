package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/request-service/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health   *handlers.HealthHandler
	Users    *handlers.UsersHandler
	Requests *handlers.RequestsHandler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api")

	users := api.Group("/users")
	users.Get("/", cfg.Users.List)
	users.Get("/:id", cfg.Users.GetByID)
	users.Post("/", cfg.Users.Create)

	requests := api.Group("/servicerequests")
	requests.Get("/", cfg.Requests.List)
	requests.Get("/:id", cfg.Requests.GetByID)
	requests.Post("/", cfg.Requests.Create)
	requests.Put("/:id", cfg.Requests.Update)
}
