package cmd

import (
	"os"

	"github.com/gofiber/fiber/v2/log"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the hadith-inspect command tree. Without a sub-command it runs inspect.
func NewRootCmd(version string) *cobra.Command {
	var logLevel string
	opts := &inspectOptions{}

	cmd := &cobra.Command{
		Use:          "hadith-inspect",
		Short:        "Inspect the response shape of the hadith API",
		Version:      version,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			SetLogLevel(logLevel)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, opts)
		},
	}

	cmd.PersistentFlags().StringVar(&logLevel, "log-level", os.Getenv("LOG_LEVEL"), "Set the log level (debug, info, warn, error)")
	addInspectFlags(cmd, opts)

	cmd.AddCommand(
		NewInspectCmd(),
		NewWatchCmd(),
		NewVersionCmd(version),
	)

	return cmd
}

// SetLogLevel applies a level name, defaulting to info
func SetLogLevel(level string) {
	switch level {
	case "debug":
		log.SetLevel(log.LevelDebug)
	case "warn":
		log.SetLevel(log.LevelWarn)
	case "error":
		log.SetLevel(log.LevelError)
	default:
		log.SetLevel(log.LevelInfo)
	}
}
