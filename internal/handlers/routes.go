package handlers

import (
	"michi/internal/middleware"
	"michi/internal/services"

	"github.com/gofiber/fiber/v2"
)

// Services bundles what the route table needs
type Services struct {
	Auth   *services.AuthService
	Users  *services.UserService
	Robots *services.RobotService
	DB     Pinger
}

// RegisterRoutes mounts every backend endpoint on app
func RegisterRoutes(app *fiber.App, svc Services) {
	authHandler := NewAuthHandler(svc.Auth)
	robotHandler := NewRobotHandler(svc.Robots)
	adminHandler := NewAdminHandler(svc.Users, svc.Robots)
	healthHandler := NewHealthHandler(svc.DB)

	requireAuth := middleware.RequireAuth(svc.Auth)

	app.Get("/health", healthHandler.Handle)

	app.Post("/register", authHandler.Register)
	app.Post("/login", authHandler.Login)
	app.Get("/me", requireAuth, authHandler.Me)

	robots := app.Group("/robots", requireAuth)
	robots.Get("/mine", robotHandler.ListMine)
	robots.Post("/claim", robotHandler.Claim)
	robots.Put("/:id/name", robotHandler.Rename)
	robots.Delete("/:id/ownership", robotHandler.Release)

	admin := app.Group("/admin", requireAuth, middleware.RequireAdmin())
	admin.Get("/robots", adminHandler.ListRobots)
	admin.Post("/robots", adminHandler.CreateRobot)
	admin.Put("/robots/:id", adminHandler.UpdateRobot)
	admin.Delete("/robots/:id", adminHandler.DeleteRobot)
	admin.Get("/users", adminHandler.ListUsers)
	admin.Post("/users", adminHandler.CreateUser)
	admin.Put("/users/:id", adminHandler.UpdateUser)
	admin.Delete("/users/:id", adminHandler.DeleteUser)
}
