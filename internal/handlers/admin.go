package handlers

import (
	"michi/internal/middleware"
	"michi/internal/models"
	"michi/internal/services"

	"github.com/gofiber/fiber/v2"
)

// AdminHandler serves the administrator user and robot registries
type AdminHandler struct {
	userService  *services.UserService
	robotService *services.RobotService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(userService *services.UserService, robotService *services.RobotService) *AdminHandler {
	return &AdminHandler{
		userService:  userService,
		robotService: robotService,
	}
}

// CreateRobotRequest is the request body for registering a robot
type CreateRobotRequest struct {
	RobotID   string `json:"robotId"`
	RobotName string `json:"robotName"`
}

// CreateUserRequest is the request body for creating an account
type CreateUserRequest struct {
	UserName string `json:"userName"`
	Password string `json:"password"`
}

// ListRobots returns every robot
// GET /admin/robots
func (h *AdminHandler) ListRobots(c *fiber.Ctx) error {
	robots, err := h.robotService.ListAll(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(robots)
}

// CreateRobot registers a robot
// POST /admin/robots
func (h *AdminHandler) CreateRobot(c *fiber.Ctx) error {
	identity, _ := middleware.IdentityFrom(c)

	var req CreateRobotRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	robot, err := h.robotService.Create(c.UserContext(), identity, req.RobotID, req.RobotName)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(robot)
}

// UpdateRobot renames a robot and/or replaces its owner list
// PUT /admin/robots/:id
func (h *AdminHandler) UpdateRobot(c *fiber.Ctx) error {
	var req services.RobotUpdate
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	robot, err := h.robotService.Update(c.UserContext(), c.Params("id"), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(robot)
}

// DeleteRobot removes a robot
// DELETE /admin/robots/:id
func (h *AdminHandler) DeleteRobot(c *fiber.Ctx) error {
	if err := h.robotService.Delete(c.UserContext(), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Robot deleted",
	})
}

// ListUsers returns every account without password hashes
// GET /admin/users
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	users, err := h.userService.List(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}

	out := make([]models.UserResponse, 0, len(users))
	for i := range users {
		out = append(out, users[i].ToResponse())
	}
	return c.JSON(out)
}

// CreateUser adds an account
// POST /admin/users
func (h *AdminHandler) CreateUser(c *fiber.Ctx) error {
	var req CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	user, err := h.userService.Create(c.UserContext(), req.UserName, req.Password)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(user.ToResponse())
}

// UpdateUser renames an account and/or resets its password
// PUT /admin/users/:id
func (h *AdminHandler) UpdateUser(c *fiber.Ctx) error {
	var req services.UserUpdate
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	user, err := h.userService.Update(c.UserContext(), c.Params("id"), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user.ToResponse())
}

// DeleteUser removes an account
// DELETE /admin/users/:id
func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	if err := h.userService.Delete(c.UserContext(), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "User deleted",
	})
}
