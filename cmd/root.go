package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"Bt1QPlayer/config"
	"Bt1QPlayer/logger"
)

// envFile is watched for live reloads by the server command.
const envFile = ".env"

var (
	cfg      *config.Config
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "bt1qplayer",
	Short: "Bt1QPlayer drives embedded YouTube players from a Go session server.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.Load()
		if logLevel != "" {
			cfg.LogLevel = logLevel
		}
		if err := logger.InitLogger(logger.Config{
			Level:      logger.LogLevel(cfg.LogLevel),
			OutputPath: cfg.LogFile,
			MaxSize:    cfg.LogMaxSize,
			MaxBackups: cfg.LogMaxBackups,
			MaxAge:     cfg.LogMaxAge,
			Compress:   true,
		}); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override LOG_LEVEL (debug, info, warn, error)")
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
