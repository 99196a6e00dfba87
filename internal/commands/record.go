package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"michi/internal/audio"
	"michi/internal/client/config"

	"github.com/spf13/cobra"
)

var (
	recordSource   string
	recordFile     string
	recordDuration time.Duration
	recordOut      string
	recordEndpoint string
	recordNoPlay   bool
)

var RecordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record a voice prompt and send it for processing",
	Long: `Capture mono 16-bit audio, wrap it in a WAV container and post it to the
audio processing service. The reply is played back right away (see the
player config key) and saved to --out.

Sources:
  mic     arecord (ALSA) until Enter or --duration
  stdin   raw S16LE PCM from stdin until EOF or --duration
  file    a 16-bit mono WAV file given by --file`,
	RunE: runRecord,
}

func init() {
	RecordCmd.Flags().StringVar(&recordSource, "source", "mic", "audio source: mic, stdin or file")
	RecordCmd.Flags().StringVar(&recordFile, "file", "", "WAV file for --source file")
	RecordCmd.Flags().DurationVar(&recordDuration, "duration", 0, "stop after this long (0 waits for Enter or end of input)")
	RecordCmd.Flags().StringVarP(&recordOut, "out", "o", ".", "directory for the reply audio")
	RecordCmd.Flags().StringVar(&recordEndpoint, "endpoint", "", "processing URL (default from config)")
	RecordCmd.Flags().BoolVar(&recordNoPlay, "no-play", false, "save the reply without playing it")
}

func audioSource(cfg *config.Config, kind, file string) (audio.Source, error) {
	switch kind {
	case "mic", "arecord":
		return audio.ArecordSource(cfg.SampleRate), nil
	case "stdin":
		return audio.ReaderSource{Reader: os.Stdin, Rate: cfg.SampleRate}, nil
	case "file":
		if file == "" {
			return nil, fmt.Errorf("--file is required with --source file")
		}
		return audio.WAVFileSource{Path: file}, nil
	default:
		return nil, fmt.Errorf("unknown source %q", kind)
	}
}

func runRecord(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	src, err := audioSource(cfg, recordSource, recordFile)
	if err != nil {
		return err
	}
	endpoint := cfg.ProcessURL
	if recordEndpoint != "" {
		endpoint = recordEndpoint
	}
	submitter, err := audio.NewSubmitter(endpoint, cfg.HTTPTimeout)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rec := audio.NewRecorder(src, submitter, nil)
	if err := rec.Start(ctx); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "🎙️  Recording...")

	if !waitForTake(ctx, rec, recordSource == "mic" || recordSource == "arecord") {
		rec.Cancel()
		fmt.Fprintln(out, "Recording cancelled.")
		return nil
	}

	fmt.Fprintln(out, dimStyle.Render(fmt.Sprintf("Sending %.1fs of audio to %s", audio.Duration(rec.SampleCount(), rec.SampleRate()), endpoint)))
	artifact, err := rec.Stop(context.Background())
	if err != nil {
		return err
	}

	path, err := rec.Artifacts().Save(artifact.ID, recordOut)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, successStyle.Render("✅ Reply saved to "+path))

	if !recordNoPlay {
		playReply(ctx, cfg, artifact, out)
	}
	return nil
}

// playReply plays the artifact with the configured player. Failures are reported, the saved file stays.
func playReply(ctx context.Context, cfg *config.Config, artifact *audio.Artifact, out io.Writer) {
	player, err := audio.ParseCommandPlayer(cfg.Player)
	if err != nil {
		fmt.Fprintln(out, dimStyle.Render("Playback disabled: "+err.Error()))
		return
	}
	fmt.Fprintln(out, "🔊 Playing reply...")
	if err := player.Play(ctx, artifact); err != nil {
		fmt.Fprintln(out, dimStyle.Render("⚠️  "+err.Error()))
	}
}

// waitForTake blocks until the take should be submitted. It returns false on interrupt.
func waitForTake(ctx context.Context, rec *audio.Recorder, live bool) bool {
	var timeout <-chan time.Time
	if recordDuration > 0 {
		timer := time.NewTimer(recordDuration)
		defer timer.Stop()
		timeout = timer.C
	}

	var enter chan struct{}
	if live && recordDuration == 0 {
		enter = make(chan struct{})
		fmt.Fprintln(os.Stderr, dimStyle.Render("Press Enter to stop."))
		go func() {
			_, _ = bufio.NewReader(os.Stdin).ReadString('\n')
			close(enter)
		}()
	}

	select {
	case <-ctx.Done():
		return false
	case <-timeout:
	case <-enter:
	case <-rec.Exhausted():
	}
	return true
}
