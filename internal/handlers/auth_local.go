package handlers

import (
	"michi/internal/middleware"
	"michi/internal/services"

	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles registration, login and profile endpoints
type AuthHandler struct {
	authService *services.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// RegisterRequest is the request body for registration
type RegisterRequest struct {
	UserName string `json:"userName"`
	Password string `json:"password"`
}

// LoginRequest is the request body for login. Both username and userName are accepted.
type LoginRequest struct {
	Username string `json:"username"`
	UserName string `json:"userName"`
	Password string `json:"password"`
}

func (r LoginRequest) name() string {
	if r.Username != "" {
		return r.Username
	}
	return r.UserName
}

// Register creates a new user account
// POST /register
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if _, err := h.authService.Register(c.UserContext(), req.UserName, req.Password); err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User registered successfully",
	})
}

// Login authenticates a user and returns a bearer token
// POST /login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	result, err := h.authService.Login(c.UserContext(), req.name(), req.Password)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(result)
}

// Me returns the caller's profile
// GET /me
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		return respondError(c, services.ErrUnauthenticated)
	}

	user, err := h.authService.Me(c.UserContext(), identity)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"user": user.ToResponse(),
	})
}
