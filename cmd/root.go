package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"cmcts/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string

	// cfg is the effective configuration, loaded before any subcommand runs.
	cfg config.File
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a YAML or JSON config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log.level (trace, debug, info, warn, error)")

	rootCmd.AddCommand(runCmd, experimentCmd)
}

var rootCmd = &cobra.Command{
	Use:          "cmcts",
	Short:        "Constrained Monte Carlo tree search planner",
	Long:         "Plan under cost budgets with double progressive widening and dual ascent on the constraint multipliers",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if logLevel != "" {
			loaded.Log.Level = logLevel
		}
		cfg = loaded
		return setupLogging(cfg.Log)
	},
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func setupLogging(c config.LogConfig) error {
	level, err := zerolog.ParseLevel(c.Level)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	zerolog.SetGlobalLevel(level)
	if c.Console {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	return nil
}
