package experiments

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"cmcts/config"
	"cmcts/problem"

	"github.com/stretchr/testify/require"
)

func smallBase(t *testing.T) config.File {
	base := config.Default()
	base.Search.Iterations = 5
	base.Search.Depth = 3
	base.Run.Episodes = 1
	base.Run.MaxSteps = 2
	base.Run.Out = t.TempDir()
	return base
}

func TestConfigure(t *testing.T) {
	base := config.Default()

	file := configure(base, PlannerConfig{Iterations: 7, Schedule: "inverse", KeepTree: true})
	require.Equal(t, 7, file.Search.Iterations)
	require.Equal(t, "inverse", file.Constraints.Schedule)
	require.True(t, file.Search.KeepTree)
	require.Equal(t, base.Search.Depth, file.Search.Depth, "Should keep base values for zero fields")
	require.Equal(t, base.Constraints.Nu, file.Constraints.Nu)

	pc := PlannerConfig{ID: 3}
	describe(&pc, file)
	require.Equal(t, 7, pc.Iterations)
	require.Equal(t, base.Search.Depth, pc.Depth)
	require.Equal(t, "inverse", pc.Schedule)
}

func TestRunScheduleExperiment(t *testing.T) {
	base := smallBase(t)
	dir, err := RunScheduleExperiment(context.Background(), base)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(base.Run.Out, "schedule"), filepath.Dir(dir))

	for _, name := range []string{"planner_configs.csv", "episode_records.csv", "step_records.csv"} {
		_, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err, "Should write %s", name)
	}
}

func TestRunBudgetExperiment(t *testing.T) {
	base := smallBase(t)
	base.Run.Format = "parquet"
	base.Run.MaxSteps = 1
	dir, err := RunBudgetExperiment(context.Background(), base)
	require.NoError(t, err)

	for _, name := range []string{"planner_configs.csv", "episode_records.parquet", "step_records.parquet"} {
		_, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err, "Should write %s", name)
	}
}

func TestRunExperimentRejectsInvalidConfig(t *testing.T) {
	base := smallBase(t)
	_, err := runExperiment(context.Background(), "invalid", base, []PlannerConfig{{ID: 1, Schedule: "linear"}})
	require.Error(t, err)
}

func TestNewPlanners(t *testing.T) {
	file := config.Default()
	file.Search.Iterations = 10

	lane, err := NewLanePlanner(file, problem.DefaultLane())
	require.NoError(t, err)
	action, err := lane.Act(context.Background(), problem.DefaultLane().StartState())
	require.NoError(t, err)
	require.LessOrEqual(t, action, problem.DefaultLane().MaxSpeed)

	bandit, err := NewBanditPlanner(file, problem.NewTwoArmBandit())
	require.NoError(t, err)
	_, err = bandit.Act(context.Background(), problem.Start)
	require.NoError(t, err)

	file.Constraints.Schedule = "linear"
	_, err = NewLanePlanner(file, problem.DefaultLane())
	require.Error(t, err)
}
