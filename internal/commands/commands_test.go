package commands

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"michi/internal/audio"
	"michi/internal/handlers"
	"michi/internal/models"
	"michi/internal/services"
	"michi/internal/store"
	"michi/pkg/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const adminPassword = "admin-secret"

// setupBackend serves the real routes over the memory store and points ConfigPath at it
func setupBackend(t *testing.T) {
	t.Helper()

	jwtAuth, err := auth.NewLocalJWTAuth("commands-test-secret", time.Hour)
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

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend_url: "+srv.URL+"\n"), 0o600))

	prev := ConfigPath
	ConfigPath = path
	t.Cleanup(func() { ConfigPath = prev })
}

func execute(run func(*cobra.Command, []string) error, stdin string, args ...string) (string, error) {
	cmd := &cobra.Command{}
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetIn(strings.NewReader(stdin))
	err := run(cmd, args)
	return out.String(), err
}

func loginAs(t *testing.T, user, password string) {
	t.Helper()
	loginUser, loginPassword = user, password
	defer func() { loginUser, loginPassword = "", "" }()

	out, err := execute(runLogin, "")
	require.NoError(t, err)
	require.Contains(t, out, "Logged in as "+user)
}

func TestCommands_OwnershipFlow(t *testing.T) {
	setupBackend(t)

	loginAs(t, models.AdminUserName, adminPassword)
	out, err := execute(runAdminRobotsCreate, "", "R-100", "Michi")
	require.NoError(t, err)
	assert.Contains(t, out, "Registered R-100")

	out, err = execute(runAdminRobotsList, "")
	require.NoError(t, err)
	assert.Contains(t, out, "R-100")

	_, err = execute(runLogout, "")
	require.NoError(t, err)
	_, err = execute(runWhoami, "")
	assert.ErrorIs(t, err, ErrNotLoggedIn)

	out, err = execute(runRegister, "alice\nwonderland\n")
	require.NoError(t, err)
	assert.Contains(t, out, "Account alice created")

	loginAs(t, "alice", "wonderland")

	out, err = execute(runWhoami, "")
	require.NoError(t, err)
	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "user")

	out, err = execute(runRobotsMine, "")
	require.NoError(t, err)
	assert.Contains(t, out, "No robots")

	out, err = execute(runRobotsClaim, "", "R-100")
	require.NoError(t, err)
	assert.Contains(t, out, "Claimed Michi")

	out, err = execute(runRobotsRename, "", "R-100", "Kitchen")
	require.NoError(t, err)
	assert.Contains(t, out, "Renamed to Kitchen")

	out, err = execute(runRobotsMine, "")
	require.NoError(t, err)
	assert.Contains(t, out, "Kitchen")

	_, err = execute(runRobotsRelease, "", "R-404")
	assert.Error(t, err)

	out, err = execute(runRobotsRelease, "", "R-100")
	require.NoError(t, err)
	assert.Contains(t, out, "Released Kitchen")

	_, err = execute(runAdminUsersList, "")
	require.Error(t, err)
}

func TestCommands_Status(t *testing.T) {
	setupBackend(t)

	out, err := execute(runStatus, "")
	require.NoError(t, err)
	assert.Contains(t, out, "database: memory")
	assert.Contains(t, out, "not logged in")
}

func TestCredentials(t *testing.T) {
	loginUser, loginPassword = "", ""

	var prompt bytes.Buffer
	user, password, err := credentials(strings.NewReader("  bob \nsecret pass\n"), &prompt)
	require.NoError(t, err)
	assert.Equal(t, "bob", user)
	assert.Equal(t, "secret pass", password)
	assert.Contains(t, prompt.String(), "Username: ")

	_, _, err = credentials(strings.NewReader("\n\n"), &prompt)
	assert.Error(t, err)
}

func TestParseOwners(t *testing.T) {
	assert.Equal(t, []string{}, parseOwners("-"))
	assert.Equal(t, []string{"a", "b"}, parseOwners(" a, ,b "))
}

func TestFindRobot(t *testing.T) {
	id := primitive.NewObjectID()
	robots := []models.Robot{{ID: id, RobotID: "R-1", RobotName: "One"}}

	r, err := findRobot(robots, "R-1")
	require.NoError(t, err)
	assert.Equal(t, id, r.ID)

	r, err = findRobot(robots, id.Hex())
	require.NoError(t, err)
	assert.Equal(t, "R-1", r.RobotID)

	_, err = findRobot(robots, "R-2")
	assert.Error(t, err)
}

func TestRecord_PlaysAndSavesReply(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	setupBackend(t)

	reply := audio.EncodeWAV([]int16{9, 8, 7}, 16000)
	processing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "audio/wav")
		_, _ = w.Write(reply)
	}))
	defer processing.Close()

	dir := t.TempDir()
	take := filepath.Join(dir, "take.wav")
	require.NoError(t, os.WriteFile(take, audio.EncodeWAV(make([]int16, 4000), 8000), 0o644))
	played := filepath.Join(dir, "played.wav")
	t.Setenv("MICHI_PLAYER", `sh -c cat>"$0" `+played)

	recordSource, recordFile, recordEndpoint, recordOut = "file", take, processing.URL, filepath.Join(dir, "replies")
	defer func() {
		recordSource, recordFile, recordEndpoint, recordOut, recordNoPlay = "mic", "", "", ".", false
	}()

	out, err := execute(runRecord, "")
	require.NoError(t, err)
	assert.Contains(t, out, "Sending 0.5s of audio")
	assert.Contains(t, out, "Reply saved to")
	assert.Contains(t, out, "Playing reply")

	got, err := os.ReadFile(played)
	require.NoError(t, err)
	assert.Equal(t, reply, got)

	require.NoError(t, os.Remove(played))
	recordNoPlay = true
	out, err = execute(runRecord, "")
	require.NoError(t, err)
	assert.NotContains(t, out, "Playing reply")
	assert.NoFileExists(t, played)
}
