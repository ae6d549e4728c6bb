package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-service/internal/api/http/handlers"
	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health          *handlers.HealthHandler
	Complaints      *handlers.ComplaintsHandler
	StaffComplaints *handlers.StaffComplaintsHandler
	Tracking        *handlers.TrackingHandler
	Memberships     *handlers.MembershipsHandler
	Notifications   *handlers.NotificationsHandler
	AuthMiddleware  *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	public := app.Group("/public")
	public.Get("/track/:code", cfg.Tracking.Track)
	public.Get("/feed", cfg.Tracking.Feed)

	complaints := app.Group("/complaints", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleCitizen))
	complaints.Post("/", cfg.Complaints.Create)
	complaints.Get("/", cfg.Complaints.List)
	complaints.Get("/:id", cfg.Complaints.Get)
	complaints.Put("/:id/rating", cfg.Complaints.Rate)

	staff := app.Group("/staff/complaints", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleAgent, domain.RoleAdmin))
	staff.Get("/", cfg.StaffComplaints.List)
	staff.Get("/:id", cfg.StaffComplaints.Get)
	staff.Post("/:id/status", cfg.StaffComplaints.ChangeStatus)

	departments := app.Group("/departments", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleAdmin))
	departments.Post("/:id/members", cfg.Memberships.Add)
	departments.Get("/:id/members", cfg.Memberships.List)
	departments.Delete("/:id/members/:userId", cfg.Memberships.Remove)

	app.Get("/notifications", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated(), cfg.Notifications.List)
}
