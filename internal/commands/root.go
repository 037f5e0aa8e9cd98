package commands

import (
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "therapy-scheduler",
	Short: "Therapy package session scheduler",
	Long: `therapy-scheduler expands the weekly schedule of purchased therapy packages
into dated sessions and serves the clinic functions over HTTP and Telegram.`,
	SilenceUsage: true,
}

// SetVersion задаёт информацию о сборке
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// Execute запускает корневую команду
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(versionCmd)
}
