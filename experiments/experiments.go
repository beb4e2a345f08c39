package experiments

import (
	"context"
	"fmt"

	"cmcts/config"
	"cmcts/engine"
	"cmcts/experiments/metrics"
	"cmcts/problem"
	"cmcts/searcher"

	"github.com/rs/zerolog/log"
)

type PlannerConfig = metrics.PlannerConfig

// RunScheduleExperiment compares the constant and inverse dual step
// schedules at two step scales on the lane.
func RunScheduleExperiment(ctx context.Context, base config.File) (string, error) {
	nu := base.Constraints.Nu
	configs := []PlannerConfig{
		{ID: 1, Nu: nu, Schedule: searcher.Constant.String(), KeepTree: true},
		{ID: 2, Nu: nu, Schedule: searcher.Inverse.String(), KeepTree: true},
		{ID: 3, Nu: 10 * nu, Schedule: searcher.Constant.String(), KeepTree: true},
		{ID: 4, Nu: 10 * nu, Schedule: searcher.Inverse.String(), KeepTree: true},
	}
	return runExperiment(ctx, "schedule", base, configs)
}

// RunBudgetExperiment sweeps the per-step iteration budget on the lane.
func RunBudgetExperiment(ctx context.Context, base config.File) (string, error) {
	configs := []PlannerConfig{}
	for i, iterations := range []int{10, 50, 100, 500, 1000} {
		configs = append(configs, PlannerConfig{ID: i + 1, Iterations: iterations, KeepTree: base.Search.KeepTree})
	}
	return runExperiment(ctx, "budget", base, configs)
}

// runExperiment plays base.Run.Episodes lane episodes per configuration and
// writes the records. It returns the output directory.
func runExperiment(ctx context.Context, name string, base config.File, configs []PlannerConfig) (string, error) {
	count := 0
	episodeRecords := []metrics.EpisodeRecord{}
	stepRecords := []metrics.StepRecord{}
	episodes := base.Run.Episodes

	log.Info().Msgf("starting %s experiment...", name)

	for ci := range configs {
		file := configure(base, configs[ci])
		describe(&configs[ci], file)
		if err := file.Validate(); err != nil {
			return "", fmt.Errorf("planner config %d: %w", configs[ci].ID, err)
		}

		log.Info().Msgf("starting config %d of %d: %+v...", ci+1, len(configs), configs[ci])

		for i := 0; i < episodes; i++ {
			episode, steps, err := runEpisode(ctx, file, configs[ci].ID, uint64(i))
			if err != nil {
				return "", fmt.Errorf("config %d episode %d: %w", configs[ci].ID, i+1, err)
			}
			count++
			episodeRecords = append(episodeRecords, metrics.EpisodeRecord{EpisodeMetric: episode})
			for _, step := range steps {
				stepRecords = append(stepRecords, metrics.StepRecord{Planner: configs[ci].ID, StepMetric: step})
			}

			log.Info().Msgf("completed config %d episode %d of %d with reward %.3f, violated: %t",
				configs[ci].ID, i+1, episodes, episode.TotalReward, episode.Violated)
		}
		log.Info().Msgf("completed config %d of %d", ci+1, len(configs))
	}

	log.Info().Msgf("completed %s experiment with %d episodes", name, count)
	return writeRecords(name, base.Run, configs, episodeRecords, stepRecords)
}

// runEpisode plays one lane episode. Planner and environment seeds are
// offset by the episode index.
func runEpisode(ctx context.Context, file config.File, plannerID int, offset uint64) (metrics.EpisodeMetric, []metrics.StepMetric, error) {
	lane := problem.DefaultLane()
	file.Search.Seed += offset
	planner, err := NewLanePlanner(file, lane, searcher.WithMetrics(metrics.NewCollector()))
	if err != nil {
		return metrics.EpisodeMetric{}, nil, err
	}
	e := engine.New[problem.LaneState, float64](planner, lane,
		engine.WithSeed(file.Run.Seed+offset),
		engine.WithMaxSteps(file.Run.MaxSteps),
		engine.WithPlannerID(plannerID),
	)
	return e.Run(ctx, lane.StartState())
}

// describe fills the fields of pc that were left to the base file.
func describe(pc *PlannerConfig, file config.File) {
	pc.Iterations = file.Search.Iterations
	pc.Duration = file.Search.MaxTime
	pc.Depth = file.Search.Depth
	pc.Exploration = file.Search.Exploration
	pc.Nu = file.Constraints.Nu
	pc.Schedule = file.Constraints.Schedule
	pc.Terminal = file.Search.Terminal
}

func writeRecords(name string, run config.RunConfig, configs []PlannerConfig, episodes []metrics.EpisodeRecord, steps []metrics.StepRecord) (string, error) {
	format, err := metrics.ParseFormat(run.Format)
	if err != nil {
		return "", err
	}
	writer, err := metrics.NewWriter(run.Out, name, format)
	if err != nil {
		return "", fmt.Errorf("failed to create experiment writer: %w", err)
	}

	if err := writer.WritePlannerConfigs(configs); err != nil {
		return "", fmt.Errorf("failed to store planner configs: %w", err)
	}
	log.Info().Msg("stored planner configs")

	if err := writer.WriteEpisodeRecords(episodes); err != nil {
		return "", fmt.Errorf("failed to write episode records: %w", err)
	}
	log.Info().Msg("stored episode records")

	if err := writer.WriteStepRecords(steps); err != nil {
		return "", fmt.Errorf("failed to write step records: %w", err)
	}
	log.Info().Msg("stored step records")
	return writer.Dir(), nil
}
