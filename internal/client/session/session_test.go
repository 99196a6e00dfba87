package session

import (
	"path/filepath"
	"testing"
	"time"

	"michi/internal/client/config"
	"michi/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState_Transitions(t *testing.T) {
	now := time.Now()
	var s State
	assert.False(t, s.LoggedIn(now))
	assert.Empty(t, s.Role())

	in := s.Login("tok", now.Add(time.Hour), User{UserName: "alice", Role: models.RoleUser})
	assert.True(t, in.LoggedIn(now))
	assert.False(t, in.LoggedIn(now.Add(2*time.Hour)))
	assert.Equal(t, models.RoleUser, in.Role())
	assert.False(t, s.LoggedIn(now), "Login must not mutate the receiver")

	out := in.Logout()
	assert.False(t, out.LoggedIn(now))
	assert.Empty(t, out.UserName())
	assert.True(t, in.LoggedIn(now))
}

func TestFromResponse_NormalisesRole(t *testing.T) {
	u := FromResponse(models.UserResponse{ID: "1", UserName: "old"})
	assert.Equal(t, models.RoleUser, u.Role)

	a := FromResponse(models.UserResponse{ID: "2", UserName: "admin", Role: models.RoleAdmin})
	assert.Equal(t, models.RoleAdmin, a.Role)
}

func TestStores(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)

	stores := map[string]TokenStore{
		"memory": NewMemoryStore(),
		"file":   NewFileStore(cfg),
	}

	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			_, err := store.Load()
			assert.ErrorIs(t, err, ErrNoSession)

			exp := time.Now().Add(time.Hour).Truncate(time.Second)
			st := State{}.Login("abc", exp, User{UserName: "alice", Role: models.RoleUser})
			require.NoError(t, store.Save(st))

			loaded, err := store.Load()
			require.NoError(t, err)
			assert.Equal(t, "abc", loaded.Token)
			assert.True(t, exp.Equal(loaded.ExpiresAt))
			assert.Equal(t, "alice", loaded.UserName())

			require.NoError(t, store.Clear())
			_, err = store.Load()
			assert.ErrorIs(t, err, ErrNoSession)
		})
	}
}

func TestFileStore_SurvivesReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg, err := config.Load(path)
	require.NoError(t, err)

	require.NoError(t, NewFileStore(cfg).Save(State{}.Login("persisted", time.Time{}, User{UserName: "bob"})))

	reloaded, err := config.Load(path)
	require.NoError(t, err)
	st, err := NewFileStore(reloaded).Load()
	require.NoError(t, err)
	assert.Equal(t, "persisted", st.Token)
	assert.True(t, st.ExpiresAt.IsZero())
}
