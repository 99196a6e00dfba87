package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"michi/internal/models"
	"michi/internal/services"
	"michi/internal/store"
	"michi/pkg/auth"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const adminPassword = "admin-secret"

func setupTestApp(t *testing.T) *fiber.App {
	t.Helper()

	jwtAuth, err := auth.NewLocalJWTAuth("handler-test-secret", time.Hour)
	if err != nil {
		t.Fatalf("Failed to create JWT auth: %v", err)
	}

	mem := store.NewMemory()
	authService := services.NewAuthService(mem.Users(), jwtAuth, time.Minute)
	if err := authService.EnsureAdmin(context.Background(), adminPassword); err != nil {
		t.Fatalf("Failed to seed admin: %v", err)
	}

	app := fiber.New()
	RegisterRoutes(app, Services{
		Auth:   authService,
		Users:  services.NewUserService(mem.Users(), mem.Robots(), authService),
		Robots: services.NewRobotService(mem.Robots()),
	})
	return app
}

func doRequest(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("Request %s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read body: %v", err)
	}
	return resp.StatusCode, data
}

func register(t *testing.T, app *fiber.App, userName, password string) {
	t.Helper()
	status, body := doRequest(t, app, "POST", "/register", "", fiber.Map{"userName": userName, "password": password})
	if status != fiber.StatusCreated {
		t.Fatalf("Register %s: expected 201, got %d (%s)", userName, status, body)
	}
}

func login(t *testing.T, app *fiber.App, userName, password string) string {
	t.Helper()
	status, body := doRequest(t, app, "POST", "/login", "", fiber.Map{"username": userName, "password": password})
	if status != fiber.StatusOK {
		t.Fatalf("Login %s: expected 200, got %d (%s)", userName, status, body)
	}

	var result services.LoginResult
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatalf("Failed to decode login response: %v", err)
	}
	if result.Token == "" {
		t.Fatal("Expected a token in login response")
	}
	return result.Token
}

func decodeMessage(t *testing.T, body []byte) string {
	t.Helper()
	var m map[string]string
	if err := json.Unmarshal(body, &m); err != nil {
		t.Fatalf("Expected {message} body, got %s", body)
	}
	return m["message"]
}

func decodeRobot(t *testing.T, body []byte) models.Robot {
	t.Helper()
	var robot models.Robot
	if err := json.Unmarshal(body, &robot); err != nil {
		t.Fatalf("Failed to decode robot: %v (%s)", err, body)
	}
	return robot
}

func TestRegisterTwice(t *testing.T) {
	app := setupTestApp(t)

	register(t, app, "alice", "pw")

	status, body := doRequest(t, app, "POST", "/register", "", fiber.Map{"userName": "alice", "password": "pw"})
	if status != fiber.StatusBadRequest {
		t.Fatalf("Expected 400 on duplicate, got %d", status)
	}
	if decodeMessage(t, body) == "" {
		t.Error("Expected a message on conflict")
	}
}

func TestRegisterValidation(t *testing.T) {
	app := setupTestApp(t)

	tests := []struct {
		name string
		body fiber.Map
	}{
		{"missing password", fiber.Map{"userName": "bob"}},
		{"blank name", fiber.Map{"userName": "  ", "password": "pw"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _ := doRequest(t, app, "POST", "/register", "", tt.body)
			if status != fiber.StatusBadRequest {
				t.Errorf("Expected 400, got %d", status)
			}
		})
	}
}

func TestLoginThenMe(t *testing.T) {
	app := setupTestApp(t)
	register(t, app, "alice", "pw")
	token := login(t, app, "alice", "pw")

	status, body := doRequest(t, app, "GET", "/me", token, nil)
	if status != fiber.StatusOK {
		t.Fatalf("Expected 200 from /me, got %d", status)
	}

	var resp struct {
		User map[string]interface{} `json:"user"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("Failed to decode /me: %v", err)
	}
	if resp.User["userName"] != "alice" {
		t.Errorf("Expected alice, got %v", resp.User["userName"])
	}
	if _, leaked := resp.User["password"]; leaked {
		t.Error("Password hash must not be serialized")
	}
}

func TestLoginFailureIsUniform(t *testing.T) {
	app := setupTestApp(t)
	register(t, app, "alice", "pw")

	wrongStatus, wrongBody := doRequest(t, app, "POST", "/login", "", fiber.Map{"username": "alice", "password": "nope"})
	unknownStatus, unknownBody := doRequest(t, app, "POST", "/login", "", fiber.Map{"username": "ghost", "password": "pw"})

	if wrongStatus != unknownStatus {
		t.Errorf("Status differs: wrong password %d, unknown user %d", wrongStatus, unknownStatus)
	}
	if !bytes.Equal(wrongBody, unknownBody) {
		t.Errorf("Body differs: %s vs %s", wrongBody, unknownBody)
	}
}

func TestLoginAcceptsUserNameField(t *testing.T) {
	app := setupTestApp(t)
	register(t, app, "alice", "pw")

	status, _ := doRequest(t, app, "POST", "/login", "", fiber.Map{"userName": "alice", "password": "pw"})
	if status != fiber.StatusOK {
		t.Errorf("Expected 200, got %d", status)
	}
}

func TestAdminRoutesGuarded(t *testing.T) {
	app := setupTestApp(t)
	register(t, app, "alice", "pw")
	userToken := login(t, app, "alice", "pw")
	adminToken := login(t, app, "admin", adminPassword)

	routes := []struct {
		method string
		path   string
	}{
		{"GET", "/admin/robots"},
		{"POST", "/admin/robots"},
		{"PUT", "/admin/robots/64b7f0c2a1b2c3d4e5f60718"},
		{"DELETE", "/admin/robots/64b7f0c2a1b2c3d4e5f60718"},
		{"GET", "/admin/users"},
		{"POST", "/admin/users"},
		{"PUT", "/admin/users/64b7f0c2a1b2c3d4e5f60718"},
		{"DELETE", "/admin/users/64b7f0c2a1b2c3d4e5f60718"},
	}

	for _, r := range routes {
		t.Run(r.method+" "+r.path, func(t *testing.T) {
			if status, _ := doRequest(t, app, r.method, r.path, "", nil); status != fiber.StatusUnauthorized {
				t.Errorf("Anonymous: expected 401, got %d", status)
			}
			if status, _ := doRequest(t, app, r.method, r.path, "garbage", nil); status != fiber.StatusUnauthorized {
				t.Errorf("Invalid token: expected 401, got %d", status)
			}
			if status, _ := doRequest(t, app, r.method, r.path, userToken, nil); status != fiber.StatusForbidden {
				t.Errorf("Regular user: expected 403, got %d", status)
			}
			if status, _ := doRequest(t, app, r.method, r.path, adminToken, nil); status == fiber.StatusForbidden || status == fiber.StatusUnauthorized {
				t.Errorf("Admin: expected to pass the guard, got %d", status)
			}
		})
	}
}

func TestClaimFlow(t *testing.T) {
	app := setupTestApp(t)
	register(t, app, "alice", "pw")
	token := login(t, app, "alice", "pw")
	adminToken := login(t, app, "admin", adminPassword)

	status, _ := doRequest(t, app, "POST", "/robots/claim", token, fiber.Map{"robotId": "R7"})
	if status != fiber.StatusNotFound {
		t.Fatalf("Expected 404 for unknown robot, got %d", status)
	}

	status, _ = doRequest(t, app, "POST", "/admin/robots", adminToken, fiber.Map{"robotId": "R7", "robotName": "Seven"})
	if status != fiber.StatusCreated {
		t.Fatalf("Expected 201 on create, got %d", status)
	}

	var robot models.Robot
	for i := 0; i < 2; i++ {
		status, body := doRequest(t, app, "POST", "/robots/claim", token, fiber.Map{"robotId": "R7"})
		if status != fiber.StatusOK {
			t.Fatalf("Claim %d: expected 200, got %d", i, status)
		}
		robot = decodeRobot(t, body)
	}
	if len(robot.OwnerUserIDs) != 1 {
		t.Errorf("Expected exactly one owner after repeated claims, got %d", len(robot.OwnerUserIDs))
	}

	status, body := doRequest(t, app, "GET", "/robots/mine", token, nil)
	if status != fiber.StatusOK {
		t.Fatalf("Expected 200 on /robots/mine, got %d", status)
	}
	var mine []models.Robot
	if err := json.Unmarshal(body, &mine); err != nil || len(mine) != 1 {
		t.Fatalf("Expected one owned robot, got %s", body)
	}

	status, body = doRequest(t, app, "PUT", "/robots/"+robot.ID.Hex()+"/name", token, fiber.Map{"robotName": "Lucky"})
	if status != fiber.StatusOK || decodeRobot(t, body).RobotName != "Lucky" {
		t.Fatalf("Rename failed: %d %s", status, body)
	}

	status, _ = doRequest(t, app, "DELETE", "/robots/"+robot.ID.Hex()+"/ownership", token, nil)
	if status != fiber.StatusOK {
		t.Fatalf("Expected 200 on release, got %d", status)
	}

	status, _ = doRequest(t, app, "PUT", "/robots/"+robot.ID.Hex()+"/name", token, fiber.Map{"robotName": "Again"})
	if status != fiber.StatusForbidden {
		t.Errorf("Expected 403 renaming a released robot, got %d", status)
	}
}

func TestMalformedIDIsNotFound(t *testing.T) {
	app := setupTestApp(t)
	adminToken := login(t, app, "admin", adminPassword)

	status, _ := doRequest(t, app, "DELETE", "/admin/robots/not-an-id", adminToken, nil)
	if status != fiber.StatusNotFound {
		t.Errorf("Expected 404, got %d", status)
	}
}

func TestDeleteRobotTwice(t *testing.T) {
	app := setupTestApp(t)
	adminToken := login(t, app, "admin", adminPassword)

	_, body := doRequest(t, app, "POST", "/admin/robots", adminToken, fiber.Map{"robotId": "R1", "robotName": "One"})
	robot := decodeRobot(t, body)

	if status, _ := doRequest(t, app, "DELETE", "/admin/robots/"+robot.ID.Hex(), adminToken, nil); status != fiber.StatusOK {
		t.Fatalf("First delete: expected 200, got %d", status)
	}
	if status, _ := doRequest(t, app, "DELETE", "/admin/robots/"+robot.ID.Hex(), adminToken, nil); status != fiber.StatusNotFound {
		t.Errorf("Second delete: expected 404, got %d", status)
	}
}

func TestAdminUserCRUD(t *testing.T) {
	app := setupTestApp(t)
	adminToken := login(t, app, "admin", adminPassword)

	status, body := doRequest(t, app, "POST", "/admin/users", adminToken, fiber.Map{"userName": "carol", "password": "pw"})
	if status != fiber.StatusCreated {
		t.Fatalf("Expected 201, got %d (%s)", status, body)
	}
	var created models.UserResponse
	if err := json.Unmarshal(body, &created); err != nil {
		t.Fatalf("Failed to decode user: %v", err)
	}

	status, _ = doRequest(t, app, "POST", "/admin/users", adminToken, fiber.Map{"userName": "carol", "password": "pw"})
	if status != fiber.StatusBadRequest {
		t.Errorf("Duplicate create: expected 400, got %d", status)
	}

	status, body = doRequest(t, app, "PUT", "/admin/users/"+created.ID, adminToken, fiber.Map{"userName": "caroline", "password": ""})
	if status != fiber.StatusOK {
		t.Fatalf("Update: expected 200, got %d (%s)", status, body)
	}
	login(t, app, "caroline", "pw")

	status, body = doRequest(t, app, "GET", "/admin/users", adminToken, nil)
	if status != fiber.StatusOK {
		t.Fatalf("List: expected 200, got %d", status)
	}
	if bytes.Contains(body, []byte("argon2id")) {
		t.Error("User list must not include password hashes")
	}

	if status, _ := doRequest(t, app, "DELETE", "/admin/users/"+created.ID, adminToken, nil); status != fiber.StatusOK {
		t.Fatalf("Delete: expected 200, got %d", status)
	}
	if status, _ := doRequest(t, app, "DELETE", "/admin/users/"+created.ID, adminToken, nil); status != fiber.StatusNotFound {
		t.Errorf("Second delete: expected 404, got %d", status)
	}
}

func TestDeletedUserTokenRejected(t *testing.T) {
	app := setupTestApp(t)
	register(t, app, "dave", "pw")
	token := login(t, app, "dave", "pw")
	adminToken := login(t, app, "admin", adminPassword)

	_, body := doRequest(t, app, "GET", "/me", token, nil)
	var me struct {
		User models.UserResponse `json:"user"`
	}
	if err := json.Unmarshal(body, &me); err != nil {
		t.Fatalf("Failed to decode /me: %v", err)
	}

	doRequest(t, app, "DELETE", "/admin/users/"+me.User.ID, adminToken, nil)

	if status, _ := doRequest(t, app, "GET", "/me", token, nil); status != fiber.StatusUnauthorized {
		t.Errorf("Expected 401 after account deletion, got %d", status)
	}
}

// TestSharedOwnership walks through an administrator registering a robot that two users then claim.
func TestSharedOwnership(t *testing.T) {
	app := setupTestApp(t)
	adminToken := login(t, app, "admin", adminPassword)
	register(t, app, "a", "pw")
	register(t, app, "b", "pw")
	tokenA := login(t, app, "a", "pw")
	tokenB := login(t, app, "b", "pw")

	status, _ := doRequest(t, app, "POST", "/admin/robots", adminToken, fiber.Map{"robotId": "R1", "robotName": "Michi-1"})
	if status != fiber.StatusCreated {
		t.Fatalf("Create: expected 201, got %d", status)
	}

	status, body := doRequest(t, app, "POST", "/robots/claim", tokenA, fiber.Map{"robotId": "R1"})
	if status != fiber.StatusOK || len(decodeRobot(t, body).OwnerUserIDs) != 1 {
		t.Fatalf("Claim by A: %d %s", status, body)
	}

	status, body = doRequest(t, app, "POST", "/robots/claim", tokenB, fiber.Map{"robotId": "R1"})
	if status != fiber.StatusOK || len(decodeRobot(t, body).OwnerUserIDs) != 2 {
		t.Fatalf("Claim by B: %d %s", status, body)
	}

	status, body = doRequest(t, app, "GET", "/admin/robots", adminToken, nil)
	if status != fiber.StatusOK {
		t.Fatalf("List: expected 200, got %d", status)
	}
	var robots []models.Robot
	if err := json.Unmarshal(body, &robots); err != nil {
		t.Fatalf("Failed to decode robots: %v", err)
	}
	if len(robots) != 1 || len(robots[0].OwnerUserIDs) != 2 {
		t.Errorf("Expected one robot with two owners, got %+v", robots)
	}
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("down") }

func TestHealth(t *testing.T) {
	app := setupTestApp(t)
	status, body := doRequest(t, app, "GET", "/health", "", nil)
	if status != fiber.StatusOK {
		t.Fatalf("Expected 200, got %d", status)
	}
	if !bytes.Contains(body, []byte(`"database":"memory"`)) {
		t.Errorf("Unexpected health body: %s", body)
	}

	degraded := fiber.New()
	degraded.Get("/health", NewHealthHandler(failingPinger{}).Handle)
	status, _ = doRequest(t, degraded, "GET", "/health", "", nil)
	if status != fiber.StatusServiceUnavailable {
		t.Errorf("Expected 503 when the database is unreachable, got %d", status)
	}
}

func TestRespondErrorHidesInternals(t *testing.T) {
	app := fiber.New()
	app.Get("/boom", func(c *fiber.Ctx) error {
		return respondError(c, errors.New("connection refused to 10.0.0.5"))
	})

	status, body := doRequest(t, app, "GET", "/boom", "", nil)
	if status != fiber.StatusInternalServerError {
		t.Fatalf("Expected 500, got %d", status)
	}
	if bytes.Contains(body, []byte("10.0.0.5")) {
		t.Errorf("Internal detail leaked: %s", body)
	}
}

type unreachableUsers struct{ store.UserStore }

func (unreachableUsers) GetByID(context.Context, primitive.ObjectID) (*models.User, error) {
	return nil, errors.New("server selection timeout")
}

func TestStoreOutageIsNotUnauthorized(t *testing.T) {
	jwtAuth, err := auth.NewLocalJWTAuth("handler-test-secret", time.Hour)
	if err != nil {
		t.Fatalf("Failed to create JWT auth: %v", err)
	}

	mem := store.NewMemory()
	user := &models.User{UserName: "alice"}
	if err := mem.Users().Create(context.Background(), user); err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	token, _, err := jwtAuth.GenerateToken(user.ID.Hex())
	if err != nil {
		t.Fatalf("Failed to mint token: %v", err)
	}

	users := unreachableUsers{mem.Users()}
	authService := services.NewAuthService(users, jwtAuth, time.Minute)
	app := fiber.New()
	RegisterRoutes(app, Services{
		Auth:   authService,
		Users:  services.NewUserService(users, mem.Robots(), authService),
		Robots: services.NewRobotService(mem.Robots()),
	})

	status, body := doRequest(t, app, "GET", "/robots/mine", token, nil)
	if status != fiber.StatusInternalServerError {
		t.Fatalf("Expected 500 during store outage, got %d (%s)", status, body)
	}
	if msg := decodeMessage(t, body); msg != "Internal server error" {
		t.Errorf("Expected generic message, got %q", msg)
	}
}
