package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"michi/internal/handlers"
	"michi/internal/services"
	"michi/internal/store"
	"michi/pkg/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const adminPassword = "admin-secret"

func newBackend(t *testing.T) *httptest.Server {
	t.Helper()

	jwtAuth, err := auth.NewLocalJWTAuth("api-test-secret", time.Hour)
	require.NoError(t, err)

	mem := store.NewMemory()
	authService := services.NewAuthService(mem.Users(), jwtAuth, time.Minute)
	require.NoError(t, authService.EnsureAdmin(context.Background(), adminPassword))

	app := fiber.New()
	handlers.RegisterRoutes(app, handlers.Services{
		Auth:   authService,
		Users:  services.NewUserService(mem.Users(), mem.Robots(), authService),
		Robots: services.NewRobotService(mem.Robots()),
	})

	srv := httptest.NewServer(adaptor.FiberApp(app))
	t.Cleanup(srv.Close)
	return srv
}

func loggedIn(t *testing.T, c *Client, name, password string) *Client {
	t.Helper()
	result, err := c.Login(context.Background(), name, password)
	require.NoError(t, err)
	require.NotEmpty(t, result.Token)
	assert.True(t, result.ExpiresAt.After(time.Now()))
	return c.WithToken(result.Token)
}

func TestClient_RegisterLoginMe(t *testing.T) {
	srv := newBackend(t)
	ctx := context.Background()
	c := NewClient(srv.URL+"/", time.Second)

	require.NoError(t, c.Register(ctx, "alice", "wonderland"))

	err := c.Register(ctx, "alice", "again")
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, StatusOf(err))

	alice := loggedIn(t, c, "alice", "wonderland")
	me, err := alice.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alice", me.UserName)
	assert.NotEmpty(t, me.ID)

	_, err = c.Me(ctx)
	assert.True(t, IsUnauthorized(err))

	_, err = c.Login(ctx, "alice", "wrong")
	assert.True(t, IsUnauthorized(err))
	assert.Equal(t, "invalid username or password", err.Error())
}

func TestClient_SharedOwnershipScenario(t *testing.T) {
	srv := newBackend(t)
	ctx := context.Background()
	c := NewClient(srv.URL, time.Second)
	admin := loggedIn(t, c, "admin", adminPassword)

	require.NoError(t, c.Register(ctx, "u1", "password1"))
	require.NoError(t, c.Register(ctx, "u2", "password2"))
	u1 := loggedIn(t, c, "u1", "password1")
	u2 := loggedIn(t, c, "u2", "password2")

	_, err := u1.ClaimRobot(ctx, "R1")
	assert.Equal(t, http.StatusNotFound, StatusOf(err))

	created, err := admin.CreateRobot(ctx, "R1", "Michi One")
	require.NoError(t, err)

	_, err = u1.ClaimRobot(ctx, "R1")
	require.NoError(t, err)
	robot, err := u2.ClaimRobot(ctx, "R1")
	require.NoError(t, err)
	assert.Len(t, robot.OwnerUserIDs, 2)

	renamed, err := u1.RenameRobot(ctx, created.ID.Hex(), "Kitchen Michi")
	require.NoError(t, err)
	assert.Equal(t, "Kitchen Michi", renamed.RobotName)

	mine, err := u2.MyRobots(ctx)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "Kitchen Michi", mine[0].RobotName)

	require.NoError(t, u1.ReleaseRobot(ctx, created.ID.Hex()))
	mine, err = u1.MyRobots(ctx)
	require.NoError(t, err)
	assert.Empty(t, mine)

	_, err = u1.RenameRobot(ctx, created.ID.Hex(), "Nope")
	assert.Equal(t, http.StatusForbidden, StatusOf(err))
}

func TestClient_AdminRoutes(t *testing.T) {
	srv := newBackend(t)
	ctx := context.Background()
	c := NewClient(srv.URL, time.Second)
	admin := loggedIn(t, c, "admin", adminPassword)

	require.NoError(t, c.Register(ctx, "bob", "builder1"))
	bob := loggedIn(t, c, "bob", "builder1")

	_, err := bob.ListUsers(ctx)
	assert.Equal(t, http.StatusForbidden, StatusOf(err))
	_, err = c.ListRobots(ctx)
	assert.Equal(t, http.StatusUnauthorized, StatusOf(err))

	carol, err := admin.CreateUser(ctx, "carol", "secret12")
	require.NoError(t, err)

	name := "caroline"
	updated, err := admin.UpdateUser(ctx, carol.ID, UserUpdate{UserName: &name})
	require.NoError(t, err)
	assert.Equal(t, "caroline", updated.UserName)

	users, err := admin.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 3)

	robot, err := admin.CreateRobot(ctx, "R9", "Nine")
	require.NoError(t, err)
	owners := []string{carol.ID}
	robotUpdated, err := admin.UpdateRobot(ctx, robot.ID.Hex(), RobotUpdate{OwnerUserIDs: &owners})
	require.NoError(t, err)
	require.Len(t, robotUpdated.OwnerUserIDs, 1)
	assert.Equal(t, carol.ID, robotUpdated.OwnerUserIDs[0].Hex())

	require.NoError(t, admin.DeleteRobot(ctx, robot.ID.Hex()))
	err = admin.DeleteRobot(ctx, robot.ID.Hex())
	assert.Equal(t, http.StatusNotFound, StatusOf(err))

	require.NoError(t, admin.DeleteUser(ctx, carol.ID))
	assert.Equal(t, http.StatusNotFound, StatusOf(admin.DeleteUser(ctx, carol.ID)))
}

func TestClient_Health(t *testing.T) {
	srv := newBackend(t)
	h, err := NewClient(srv.URL, time.Second).Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "memory", h.Database)
}

func TestClient_Timeout(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer slow.Close()

	_, err := NewClient(slow.URL, 50*time.Millisecond).Me(context.Background())
	require.Error(t, err)
	assert.Zero(t, StatusOf(err))
}

func TestClient_NonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second).MyRobots(context.Background())
	assert.Equal(t, http.StatusBadGateway, StatusOf(err))
	assert.Equal(t, "backend returned 502", err.Error())
}
