package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"michi/internal/client/api"
	"michi/internal/client/config"
	"michi/internal/client/session"

	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"
)

var (
	// ConfigPath overrides the config file location (--config)
	ConfigPath string
	// Verbose enables debug logging (--verbose)
	Verbose bool
	// AppVersion is set by main
	AppVersion = "0.0.0-dev"
)

// ErrNotLoggedIn is returned by commands that need a saved session
var ErrNotLoggedIn = errors.New("not logged in, run 'michi login' first")

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
)

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// newLogger writes to stderr, or to ~/.michi/michi.log when the terminal belongs to the UI
func newLogger(cfg *config.Config, toFile bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logger.SetLevel(logrus.WarnLevel)
	if Verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	if !toFile {
		logger.SetOutput(os.Stderr)
		return logger
	}

	path := filepath.Join(filepath.Dir(cfg.Path()), "michi.log")
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err == nil {
		if f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600); err == nil {
			logger.SetOutput(f)
			logger.SetLevel(logrus.InfoLevel)
			if Verbose {
				logger.SetLevel(logrus.DebugLevel)
			}
			return logger
		}
	}
	logger.SetOutput(io.Discard)
	return logger
}

func newAPIClient(cfg *config.Config) *api.Client {
	return api.NewClient(cfg.BackendURL, cfg.HTTPTimeout)
}

// authedClient returns a client carrying the saved token
func authedClient(cfg *config.Config) (*api.Client, session.State, error) {
	st, err := session.NewFileStore(cfg).Load()
	if errors.Is(err, session.ErrNoSession) || !st.LoggedIn(time.Now()) {
		return nil, session.State{}, ErrNotLoggedIn
	}
	if err != nil {
		return nil, session.State{}, err
	}
	return newAPIClient(cfg).WithToken(st.Token), st, nil
}

// explain turns a 401 into a login hint
func explain(err error) error {
	if api.IsUnauthorized(err) {
		return fmt.Errorf("%v (session expired, run 'michi login')", err)
	}
	return err
}
