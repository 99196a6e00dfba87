package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os/exec"
	"strings"
)

// DefaultPlayerCommand plays audio from stdin without opening a window
const DefaultPlayerCommand = "ffplay -nodisp -autoexit -loglevel quiet -"

// ErrNoPlayer is returned when no playback command is configured.
var ErrNoPlayer = errors.New("no audio player configured")

// Player plays a processed reply
type Player interface {
	Play(ctx context.Context, a *Artifact) error
}

// CommandPlayer pipes the artifact bytes to an external player's stdin,
// by default ffplay.
type CommandPlayer struct {
	Name string
	Args []string
}

// ParseCommandPlayer splits a command line such as DefaultPlayerCommand
func ParseCommandPlayer(line string) (CommandPlayer, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return CommandPlayer{}, ErrNoPlayer
	}
	return CommandPlayer{Name: fields[0], Args: fields[1:]}, nil
}

// Play blocks until the player exits
func (p CommandPlayer) Play(ctx context.Context, a *Artifact) error {
	if p.Name == "" {
		return ErrNoPlayer
	}
	if a == nil || len(a.Data) == 0 {
		return fmt.Errorf("nothing to play")
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, p.Name, p.Args...)
	cmd.Stdin = bytes.NewReader(a.Data)
	cmd.Stderr = &stderr

	log.Printf("🔊 [AUDIO] Playing %s (%d bytes) with %s", a.Name, len(a.Data), p.Name)
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("playback with %s failed: %w: %s", p.Name, err, msg)
		}
		return fmt.Errorf("playback with %s failed: %w", p.Name, err)
	}
	return nil
}
