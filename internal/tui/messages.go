package tui

import (
	"time"

	"michi/internal/audio"
	"michi/internal/chatlogs"
	"michi/internal/client/session"
	"michi/internal/knowledge"
	"michi/internal/models"
)

// TickMsg refreshes live views (recorder timer, waveform, console log)
type TickMsg time.Time

// LoginMsg carries the result of a sign-in
type LoginMsg struct {
	State session.State
	Err   error
}

// RobotsMsg carries a robot list for the current view
type RobotsMsg struct {
	Robots []models.Robot
	Err    error
}

// UsersMsg carries the account list
type UsersMsg struct {
	Users []models.UserResponse
	Err   error
}

// ChatLogsMsg carries the transcript of a robot
type ChatLogsMsg struct {
	Logs []chatlogs.Log
	Err  error
}

// KnowledgeMsg carries the knowledge documents of a robot
type KnowledgeMsg struct {
	Docs []knowledge.Document
	Err  error
}

// ActionMsg reports a finished mutation. Refresh reloads the current view,
// Back leaves it.
type ActionMsg struct {
	Status  string
	Err     error
	Refresh bool
	Back    bool
}

// RecordingStartedMsg reports the outcome of opening the microphone
type RecordingStartedMsg struct {
	Err error
}

// RecordingDoneMsg carries the processed reply of a submitted recording
type RecordingDoneMsg struct {
	Artifact *audio.Artifact
	Err      error
}

// PlaybackDoneMsg reports the end of a reply playback
type PlaybackDoneMsg struct {
	Name string
	Err  error
}

// ConsoleOpenedMsg reports the broker connection outcome for console generation Gen
type ConsoleOpenedMsg struct {
	Gen int
	Err error
}
