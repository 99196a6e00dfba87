package main

import (
	"fmt"
	"os"

	"michi/internal/commands"

	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags "-X main.Version=X.Y.Z"
var Version = "0.0.0-dev"

var rootCmd = &cobra.Command{
	Use:   "michi",
	Short: "Michi - manage and test your companion robots",
	Long: `Michi manages companion robots from the terminal.

Quick Start:
  michi                          Launch interactive dashboard (default)
  michi login                    Sign in
  michi robots claim R-100       Become an owner of a robot

Commands:
  login / logout / register      Session and account
  whoami / status                Who is signed in, backend health
  robots mine|claim|rename|release
  admin users|robots ...         Registry administration (admin only)
  console                        MQTT function test console
  record                         Send a voice prompt, save the reply
  chatlogs <robot-id>            Conversation history and export
  knowledge list|upload|delete   Robot knowledge documents

Config: ~/.michi/config.yaml (MICHI_* environment variables override it)
Logs:   ~/.michi/michi.log (dashboard only)`,
	Version: Version,
	RunE: func(cmd *cobra.Command, args []string) error {
		return commands.RunTUI()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&commands.ConfigPath, "config", "", "config file (default ~/.michi/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&commands.Verbose, "verbose", "v", false, "Enable verbose logging")

	rootCmd.AddCommand(commands.TUICmd)
	rootCmd.AddCommand(commands.LoginCmd)
	rootCmd.AddCommand(commands.RegisterCmd)
	rootCmd.AddCommand(commands.LogoutCmd)
	rootCmd.AddCommand(commands.WhoamiCmd)
	rootCmd.AddCommand(commands.StatusCmd)
	rootCmd.AddCommand(commands.RobotsCmd)
	rootCmd.AddCommand(commands.AdminCmd)
	rootCmd.AddCommand(commands.ConsoleCmd)
	rootCmd.AddCommand(commands.RecordCmd)
	rootCmd.AddCommand(commands.ChatLogsCmd)
	rootCmd.AddCommand(commands.KnowledgeCmd)
}

func main() {
	commands.AppVersion = Version
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
