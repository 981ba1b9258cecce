package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	version = "dev"

	// verbose lowers the log level to debug for every command
	verbose bool
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "playbadge",
		Short:        "Render \"now playing\" badges as animated SVG or PNG",
		Long:         "playbadge follows the local media session and serves a small badge showing what is playing, suitable for embedding in a profile page.",
		Version:      version,
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newServeCmd())
	root.AddCommand(newRenderCmd())
	return root
}

// newLogger creates a new zap logger instance
func newLogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return cfg.Build()
}
