package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"michi/internal/messaging"

	"github.com/spf13/cobra"
)

var (
	consoleBroker string
	consoleTopic  string
	consoleSend   []string
)

var ConsoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Publish test commands to robots over MQTT",
	Long: `Connect to the MQTT broker, subscribe to the test topic and publish commands.

Commands are read from stdin, one per line:
  hands | neck | eyes | speaker | all   test a component
  stop | idle | sleep                   control commands

Use --send to publish a fixed list and exit.`,
	RunE: runConsole,
}

func init() {
	ConsoleCmd.Flags().StringVar(&consoleBroker, "broker", "", "broker URL (default from config)")
	ConsoleCmd.Flags().StringVar(&consoleTopic, "topic", "", "topic (default from config)")
	ConsoleCmd.Flags().StringSliceVar(&consoleSend, "send", nil, "commands to publish, then exit")
}

func runConsole(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	broker, topic := cfg.MQTT.BrokerURL, cfg.MQTT.Topic
	if consoleBroker != "" {
		broker = consoleBroker
	}
	if consoleTopic != "" {
		topic = consoleTopic
	}

	console := messaging.NewConsole(messaging.Options{
		BrokerURL: broker,
		Topic:     topic,
		Logger:    newLogger(cfg, false),
	})
	defer console.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	go printUpdates(ctx, out, console.Updates())

	openCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	err = console.Open(openCtx)
	cancel()
	if err != nil {
		return err
	}

	if err := waitConnected(ctx, console); err != nil {
		return err
	}

	if len(consoleSend) > 0 {
		for _, name := range consoleSend {
			if err := publishNamed(console, name); err != nil {
				return err
			}
		}
		// Let the echo from the subscription arrive.
		time.Sleep(500 * time.Millisecond)
		return nil
	}

	fmt.Fprintln(out, dimStyle.Render("Type a command and press Enter. Ctrl+D to exit."))
	return readCommands(ctx, cmd.InOrStdin(), out, console)
}

func printUpdates(ctx context.Context, out io.Writer, updates <-chan string) {
	for {
		select {
		case <-ctx.Done():
			return
		case line := <-updates:
			fmt.Fprintf(out, "%s %s\n", dimStyle.Render(time.Now().Format("15:04:05")), line)
		}
	}
}

func waitConnected(ctx context.Context, console *messaging.Console) error {
	deadline := time.NewTimer(10 * time.Second)
	defer deadline.Stop()
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for !console.Connected() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return messaging.ErrNotConnected
		case <-ticker.C:
		}
	}
	return nil
}

func publishNamed(console *messaging.Console, name string) error {
	command, err := messaging.ParseCommand(name)
	if err != nil {
		return err
	}
	return console.Publish(command)
}

func readCommands(ctx context.Context, in io.Reader, out io.Writer, console *messaging.Console) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			command, err := messaging.ParseCommand(line)
			if err != nil {
				fmt.Fprintln(out, err)
				continue
			}
			// Publish failures are already in the console log.
			_ = console.Publish(command)
		}
	}
}
