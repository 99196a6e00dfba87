package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"

	"michi/internal/models"
	"michi/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type stubResolver map[string]models.Identity

func (s stubResolver) ResolveToken(_ context.Context, token string) (models.Identity, error) {
	if id, ok := s[token]; ok {
		return id, nil
	}
	if token == "outage-token" {
		return models.Identity{}, errors.New("server selection timeout")
	}
	return models.Identity{}, fmt.Errorf("%w: unknown token", services.ErrUnauthenticated)
}

func newTestApp() *fiber.App {
	resolver := stubResolver{
		"user-token":  {UserID: primitive.NewObjectID(), UserName: "alice", Role: models.RoleUser},
		"admin-token": {UserID: primitive.NewObjectID(), UserName: "admin", Role: models.RoleAdmin},
	}

	app := fiber.New()
	app.Get("/me", RequireAuth(resolver), func(c *fiber.Ctx) error {
		identity, _ := IdentityFrom(c)
		return c.SendString(identity.UserName)
	})
	app.Get("/admin", RequireAuth(resolver), RequireAdmin(), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func TestGuards(t *testing.T) {
	app := newTestApp()

	tests := []struct {
		name       string
		path       string
		header     string
		wantStatus int
	}{
		{"no header", "/me", "", fiber.StatusUnauthorized},
		{"wrong scheme", "/me", "Basic user-token", fiber.StatusUnauthorized},
		{"unknown token", "/me", "Bearer nope", fiber.StatusUnauthorized},
		{"valid user", "/me", "Bearer user-token", fiber.StatusOK},
		{"store outage", "/me", "Bearer outage-token", fiber.StatusInternalServerError},
		{"user on admin route", "/admin", "Bearer user-token", fiber.StatusForbidden},
		{"admin on admin route", "/admin", "Bearer admin-token", fiber.StatusOK},
		{"anonymous on admin route", "/admin", "", fiber.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("Request failed: %v", err)
			}
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, resp.StatusCode)
			}
		})
	}
}

func TestRequireAdmin_WithoutAuth(t *testing.T) {
	app := fiber.New()
	app.Get("/admin", RequireAdmin(), func(c *fiber.Ctx) error { return c.SendString("ok") })

	resp, err := app.Test(httptest.NewRequest("GET", "/admin", nil))
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Errorf("Expected 401 without identity, got %d", resp.StatusCode)
	}
}
