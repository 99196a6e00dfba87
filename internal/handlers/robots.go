package handlers

import (
	"michi/internal/middleware"
	"michi/internal/services"

	"github.com/gofiber/fiber/v2"
)

// RobotHandler serves the self-service robot endpoints
type RobotHandler struct {
	robotService *services.RobotService
}

// NewRobotHandler creates a new robot handler
func NewRobotHandler(robotService *services.RobotService) *RobotHandler {
	return &RobotHandler{robotService: robotService}
}

// ClaimRequest is the request body for claiming a robot
type ClaimRequest struct {
	RobotID string `json:"robotId"`
}

// RenameRequest is the request body for renaming a robot
type RenameRequest struct {
	RobotName string `json:"robotName"`
}

// ListMine returns the robots owned by the caller
// GET /robots/mine
func (h *RobotHandler) ListMine(c *fiber.Ctx) error {
	identity, _ := middleware.IdentityFrom(c)

	robots, err := h.robotService.ListMine(c.UserContext(), identity)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(robots)
}

// Claim adds the caller to a robot's owner list
// POST /robots/claim
func (h *RobotHandler) Claim(c *fiber.Ctx) error {
	identity, _ := middleware.IdentityFrom(c)

	var req ClaimRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	robot, err := h.robotService.Claim(c.UserContext(), identity, req.RobotID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(robot)
}

// Rename changes the display name of an owned robot
// PUT /robots/:id/name
func (h *RobotHandler) Rename(c *fiber.Ctx) error {
	identity, _ := middleware.IdentityFrom(c)

	var req RenameRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	robot, err := h.robotService.UpdateName(c.UserContext(), identity, c.Params("id"), req.RobotName)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(robot)
}

// Release removes the caller from a robot's owner list
// DELETE /robots/:id/ownership
func (h *RobotHandler) Release(c *fiber.Ctx) error {
	identity, _ := middleware.IdentityFrom(c)

	if err := h.robotService.RemoveOwnership(c.UserContext(), identity, c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Ownership removed",
	})
}
