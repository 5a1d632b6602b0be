// Command waved runs the wave progression engine: it observes the event
// catalog, tracks the device position, and publishes state streams and
// hit notifications. The simulate subcommand replays a single event
// against a synthetic clock for local testing.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "waved",
	Short:        "Worldwide wave progression engine",
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(simulateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}
