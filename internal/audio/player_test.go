package audio

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestParseCommandPlayer(t *testing.T) {
	p, err := ParseCommandPlayer(DefaultPlayerCommand)
	require.NoError(t, err)
	assert.Equal(t, "ffplay", p.Name)
	assert.Equal(t, []string{"-nodisp", "-autoexit", "-loglevel", "quiet", "-"}, p.Args)

	_, err = ParseCommandPlayer("   ")
	assert.ErrorIs(t, err, ErrNoPlayer)
}

func TestCommandPlayer_PipesArtifactToStdin(t *testing.T) {
	requireShell(t)

	out := filepath.Join(t.TempDir(), "played.wav")
	p := CommandPlayer{Name: "sh", Args: []string{"-c", `cat > "$0"`, out}}

	reply := newArtifact(EncodeWAV([]int16{1, -1, 300}, 16000), "audio/wav", "")
	require.NoError(t, p.Play(context.Background(), reply))

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, reply.Data, got)
}

func TestCommandPlayer_Failures(t *testing.T) {
	requireShell(t)
	reply := newArtifact([]byte("reply"), "audio/wav", "")

	err := CommandPlayer{Name: "sh", Args: []string{"-c", "echo no device >&2; exit 3"}}.Play(context.Background(), reply)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no device")

	assert.ErrorIs(t, CommandPlayer{}.Play(context.Background(), reply), ErrNoPlayer)
	assert.Error(t, CommandPlayer{Name: "sh"}.Play(context.Background(), &Artifact{}))
	assert.Error(t, CommandPlayer{Name: "michi-no-such-player"}.Play(context.Background(), reply))
}
