// Package cli implements the sockline command-line interface.
package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sockline/sockline/pkg/logging"
)

var (
	logLevel  string
	logFormat string
)

// rootCmd is the Cobra command for "sockline".
var rootCmd = &cobra.Command{
	Use:   "sockline",
	Short: "Validate and exercise websocket channel configurations",
	Long: `sockline is a websocket channel client.

It validates connection options into a typed configuration and can connect
to a channel server, join topics and stream messages.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format (text, json)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// newLogger builds the logger from the persistent flags.
func newLogger() *slog.Logger {
	return logging.New(logging.Config{
		Level:  logging.ParseLevel(logLevel),
		Format: logging.ParseFormat(logFormat),
	})
}
