// Package cmd contains the SkyMessage command-line interface.
//
// Design: Following the pattern used by kubectl, hugo, and other
// standard Go CLI tools, all application logic is contained in the cmd
// package, leaving main.go as a minimal entry point.
package cmd

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "skymessage",
	Short: "SkyMessage - retrieval-augmented saint chat backend",
	Long: `SkyMessage answers questions in the voice of Catholic saints.

It ingests source texts into a vector index, retrieves grounded context
for each question, and generates first-person persona answers with
citation badges. Run 'skymessage serve' to start the HTTP API.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	// A local .env carries API keys in development; missing is fine.
	if err := godotenv.Load(); err == nil {
		slog.Debug("loaded environment from .env")
	}
	return rootCmd.Execute()
}

// initLogger initializes the default structured logger.
// DEBUG set (any value) enables debug level logging.
func initLogger() {
	level := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}
