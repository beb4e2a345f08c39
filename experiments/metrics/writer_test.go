package metrics

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/require"
)

func sampleRecords() ([]PlannerConfig, []EpisodeRecord, []StepRecord) {
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	configs := []PlannerConfig{{ID: 1, Iterations: 100, Depth: 10, Exploration: 1, Nu: 0.01, Schedule: "inverse", Terminal: "max_feasible_q"}}
	episodes := []EpisodeRecord{{EpisodeMetric{
		ID: "e1", Planner: 1, StartTime: start, EndTime: start.Add(time.Second), Duration: time.Second,
		Steps: 2, TotalReward: 3.5, TotalCost: []float64{0.5, 1}, Violated: true,
	}}}
	steps := []StepRecord{
		{Planner: 1, StepMetric: StepMetric{Episode: "e1", Step: 1, Action: "B", Reward: 1, Costs: []float64{0.25, 0.5}, Budget: []float64{1, 1},
			Feasible: true, SearchMetric: SearchMetric{Iterations: 100, Lambda: []float64{0.1, 0}}}},
		{Planner: 1, StepMetric: StepMetric{Episode: "e1", Step: 2, Action: "A", Reward: 2.5, Costs: []float64{0.25, 0.5}, Budget: []float64{0.75, 0.5},
			Fallback: true}},
	}
	return configs, episodes, steps
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestWriterCSV(t *testing.T) {
	root := t.TempDir()
	w, err := NewWriter(root, "schedule", CSV)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(root, "schedule"), filepath.Dir(w.Dir()))

	configs, episodes, steps := sampleRecords()
	require.NoError(t, w.WritePlannerConfigs(configs))
	require.NoError(t, w.WriteEpisodeRecords(episodes))
	require.NoError(t, w.WriteStepRecords(steps))

	rows := readCSV(t, filepath.Join(w.Dir(), "planner_configs.csv"))
	require.Len(t, rows, 2)
	require.Equal(t, []string{"1", "100", "0s", "10", "1", "0.01", "inverse", "false", "max_feasible_q"}, rows[1])

	rows = readCSV(t, filepath.Join(w.Dir(), "episode_records.csv"))
	require.Len(t, rows, 2)
	require.Equal(t, "e1", rows[1][0])
	require.Equal(t, "0.5;1", rows[1][7], "Should join vectors with semicolons")
	require.Equal(t, "true", rows[1][8])

	rows = readCSV(t, filepath.Join(w.Dir(), "step_records.csv"))
	require.Len(t, rows, 3)
	require.Equal(t, "B", rows[1][3])
	require.Equal(t, "0.1;0", rows[1][7])
	require.Equal(t, "true", rows[2][12], "Should record the fallback flag")
}

func TestWriterParquet(t *testing.T) {
	w, err := NewWriter(t.TempDir(), "budget", Parquet)
	require.NoError(t, err)

	configs, episodes, steps := sampleRecords()
	require.NoError(t, w.WritePlannerConfigs(configs))
	require.NoError(t, w.WriteEpisodeRecords(episodes))
	require.NoError(t, w.WriteStepRecords(steps))

	_, err = os.Stat(filepath.Join(w.Dir(), "planner_configs.csv"))
	require.NoError(t, err, "Should keep configs as CSV")

	episodeRows, err := parquet.ReadFile[episodeRow](filepath.Join(w.Dir(), "episode_records.parquet"))
	require.NoError(t, err)
	require.Len(t, episodeRows, 1)
	require.Equal(t, "e1", episodeRows[0].ID)
	require.Equal(t, []float64{0.5, 1}, episodeRows[0].TotalCost)
	require.True(t, episodeRows[0].Violated)

	stepRows, err := parquet.ReadFile[stepRow](filepath.Join(w.Dir(), "step_records.parquet"))
	require.NoError(t, err)
	require.Len(t, stepRows, 2)
	require.Equal(t, "A", stepRows[1].Action)
	require.Equal(t, int32(100), stepRows[0].Iterations)
	require.True(t, stepRows[1].Fallback)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	require.Equal(t, CSV, f)
	f, err = ParseFormat("parquet")
	require.NoError(t, err)
	require.Equal(t, Parquet, f)
	_, err = ParseFormat("xml")
	require.Error(t, err)
}
