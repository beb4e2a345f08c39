package cmd

import (
	"context"
	"fmt"

	"cmcts/config"
	"cmcts/experiments"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var experimentRunners = map[string]func(ctx context.Context, base config.File) (string, error){
	"schedule": experiments.RunScheduleExperiment,
	"budget":   experiments.RunBudgetExperiment,
}

func init() {
	experimentCmd.Flags().StringP("out", "o", "", "Directory for experiment records")
	experimentCmd.Flags().String("format", "", "Record format (csv, parquet)")
}

var experimentCmd = &cobra.Command{
	Use:       "experiment <schedule|budget>",
	Short:     "Run a planner sweep on the lane",
	Long:      "Run a sweep of planner configurations and write planner, episode and step records",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"schedule", "budget"},
	Example: `
# Compare dual step schedules
cmcts experiment schedule --config planner.yaml --out results

# Sweep iteration budgets and write parquet
cmcts experiment budget --format parquet
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		runner, ok := experimentRunners[args[0]]
		if !ok {
			return fmt.Errorf("unknown experiment %q", args[0])
		}
		if cmd.Flags().Changed("out") {
			cfg.Run.Out, _ = cmd.Flags().GetString("out")
		}
		if cmd.Flags().Changed("format") {
			cfg.Run.Format, _ = cmd.Flags().GetString("format")
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid flags: %w", err)
		}

		dir, err := runner(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		log.Info().Str("dir", dir).Msgf("%s experiment written", args[0])
		return nil
	},
}
