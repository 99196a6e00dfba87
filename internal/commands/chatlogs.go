package commands

import (
	"context"
	"fmt"
	"time"

	"michi/internal/chatlogs"

	"github.com/spf13/cobra"
)

var (
	chatLogsDate   string
	chatLogsExport string
	chatLogsDates  bool
)

var ChatLogsCmd = &cobra.Command{
	Use:   "chatlogs <robot-id>",
	Short: "Show or export a robot's conversation history",
	Long: `Fetch the conversation history of a robot.

Examples:
  michi chatlogs R-100
  michi chatlogs R-100 --date 2025-07-15
  michi chatlogs R-100 --export july.xlsx
  michi chatlogs R-100 --date 2025-07-15 --export day.html`,
	Args: cobra.ExactArgs(1),
	RunE: runChatLogs,
}

func init() {
	ChatLogsCmd.Flags().StringVar(&chatLogsDate, "date", "", "only show this day (YYYY-MM-DD, local time)")
	ChatLogsCmd.Flags().StringVar(&chatLogsExport, "export", "", "write to a .xlsx or .html file instead of printing")
	ChatLogsCmd.Flags().BoolVar(&chatLogsDates, "dates", false, "list the days that have conversations")
}

func runChatLogs(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if _, _, err := authedClient(cfg); err != nil {
		return err
	}

	robotID := args[0]
	client := chatlogs.NewClient(cfg.ChatLogsURL, cfg.HTTPTimeout, newLogger(cfg, false))
	logs, err := client.Fetch(context.Background(), robotID)
	if err != nil {
		return err
	}
	chatlogs.SortByTime(logs)

	out := cmd.OutOrStdout()
	if chatLogsDates {
		for _, d := range chatlogs.Dates(logs, time.Local) {
			fmt.Fprintln(out, d.Format(chatlogs.DateLayout))
		}
		return nil
	}

	title := "Chat logs for " + robotID
	if chatLogsDate != "" {
		day, err := chatlogs.ParseDate(chatLogsDate, time.Local)
		if err != nil {
			return err
		}
		logs = chatlogs.FilterByDate(logs, day, time.Local)
		title += " on " + chatLogsDate
	}

	if chatLogsExport != "" {
		if err := chatlogs.Export(logs, chatLogsExport, title); err != nil {
			return err
		}
		fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✅ Exported %d conversations to %s", len(logs), chatLogsExport)))
		return nil
	}

	if len(logs) == 0 {
		fmt.Fprintln(out, "💬 No conversations")
		return nil
	}
	for _, l := range logs {
		fmt.Fprintf(out, "%s\n", dimStyle.Render(l.Time.Local().Format("2006-01-02 15:04:05")))
		fmt.Fprintf(out, "  > %s\n", l.Input)
		fmt.Fprintf(out, "  %s\n\n", l.Response)
	}
	return nil
}
