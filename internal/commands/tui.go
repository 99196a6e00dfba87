package commands

import (
	"errors"
	"log"
	"path/filepath"

	"michi/internal/audio"
	"michi/internal/chatlogs"
	"michi/internal/client/session"
	"michi/internal/knowledge"
	"michi/internal/messaging"
	"michi/internal/tui"

	"github.com/spf13/cobra"
)

// TUICmd launches the interactive dashboard
var TUICmd = &cobra.Command{
	Use:    "ui",
	Short:  "Launch the interactive dashboard",
	Hidden: true, // `michi` without arguments does the same
	Long: `Launch the terminal dashboard.

Navigation:
  - 1-5 switch screens (function test, recorder, robots, users)
  - arrow keys or j/k move through lists, Enter opens
  - Esc goes back, x logs out, q quits`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunTUI()
	},
}

// RunTUI starts the dashboard with the saved session, if any
func RunTUI() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// The terminal belongs to the UI; everything else logs to a file.
	logger := newLogger(cfg, true)
	log.SetOutput(logger.Out)

	store := session.NewFileStore(cfg)
	saved, err := store.Load()
	if err != nil && !errors.Is(err, session.ErrNoSession) {
		return err
	}

	var uploader audio.Uploader
	if sub, err := audio.NewSubmitter(cfg.ProcessURL, cfg.HTTPTimeout); err == nil {
		uploader = sub
	} else {
		logger.WithError(err).Warn("Audio processing disabled")
	}

	var recorder *audio.Recorder
	if uploader != nil {
		recorder = audio.NewRecorder(audio.ArecordSource(cfg.SampleRate), uploader, nil)
	}

	var player audio.Player
	if p, err := audio.ParseCommandPlayer(cfg.Player); err == nil {
		player = p
	} else {
		logger.WithError(err).Warn("Reply playback disabled")
	}

	deps := tui.Deps{
		API:      newAPIClient(cfg),
		Store:    store,
		Recorder: recorder,
		Player:   player,
		NewConsole: func() *messaging.Console {
			return messaging.NewConsole(messaging.Options{
				BrokerURL: cfg.MQTT.BrokerURL,
				Topic:     cfg.MQTT.Topic,
				Logger:    logger,
			})
		},
		ChatLogs:  chatlogs.NewClient(cfg.ChatLogsURL, cfg.HTTPTimeout, logger),
		Knowledge: knowledge.NewClient(cfg.KnowledgeURL, cfg.HTTPTimeout, logger),
		SaveDir:   filepath.Join(filepath.Dir(cfg.Path()), "replies"),
	}
	return tui.Run(deps, saved)
}
