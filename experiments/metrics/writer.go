package metrics

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"
)

// PlannerConfig identifies one planner setup within an experiment.
type PlannerConfig struct {
	ID          int
	Iterations  int
	Duration    time.Duration
	Depth       int
	Exploration float64
	Nu          float64
	Schedule    string
	KeepTree    bool
	Terminal    string
}

type EpisodeRecord struct {
	EpisodeMetric
}

type StepRecord struct {
	Planner int // PlannerConfig.ID
	StepMetric
}

type Format string

const (
	CSV     Format = "csv"
	Parquet Format = "parquet"
)

func ParseFormat(name string) (Format, error) {
	switch Format(name) {
	case CSV, "":
		return CSV, nil
	case Parquet:
		return Parquet, nil
	}
	return "", fmt.Errorf("unknown record format %q", name)
}

type Writer struct {
	baseDir string
	format  Format
}

// NewWriter creates <root>/<name>/<timestamp> and writes records there.
func NewWriter(root, name string, format Format) (*Writer, error) {
	timestamp := time.Now().UTC().Format("20060102T150405Z")
	baseDir := filepath.Join(root, name, timestamp)
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	return &Writer{baseDir: baseDir, format: format}, nil
}

func (w *Writer) Dir() string {
	return w.baseDir
}

func (w *Writer) WritePlannerConfigs(configs []PlannerConfig) error {
	header := []string{"id", "iterations", "duration", "depth", "exploration", "nu", "schedule", "keep_tree", "terminal"}
	rows := make([][]string, 0, len(configs))
	for _, config := range configs {
		rows = append(rows, []string{
			strconv.Itoa(config.ID),
			strconv.Itoa(config.Iterations),
			config.Duration.String(),
			strconv.Itoa(config.Depth),
			formatFloat(config.Exploration),
			formatFloat(config.Nu),
			config.Schedule,
			strconv.FormatBool(config.KeepTree),
			config.Terminal,
		})
	}
	// Configurations are small and always written as CSV.
	return w.writeCSV("planner_configs.csv", header, rows)
}

func (w *Writer) WriteEpisodeRecords(records []EpisodeRecord) error {
	if w.format == Parquet {
		rows := make([]episodeRow, len(records))
		for i, r := range records {
			rows[i] = episodeRow{
				ID:          r.ID,
				Planner:     int32(r.Planner),
				StartTime:   r.StartTime.UnixMilli(),
				DurationMs:  r.Duration.Milliseconds(),
				Steps:       int32(r.Steps),
				TotalReward: r.TotalReward,
				TotalCost:   r.TotalCost,
				Violated:    r.Violated,
			}
		}
		return w.writeParquet("episode_records.parquet", rows)
	}

	header := []string{"id", "planner", "start_time", "end_time", "duration", "steps", "total_reward", "total_cost", "violated"}
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.ID,
			strconv.Itoa(r.Planner),
			r.StartTime.Format(time.RFC3339),
			r.EndTime.Format(time.RFC3339),
			r.Duration.String(),
			strconv.Itoa(r.Steps),
			formatFloat(r.TotalReward),
			formatFloats(r.TotalCost),
			strconv.FormatBool(r.Violated),
		})
	}
	return w.writeCSV("episode_records.csv", header, rows)
}

func (w *Writer) WriteStepRecords(records []StepRecord) error {
	if w.format == Parquet {
		rows := make([]stepRow, len(records))
		for i, r := range records {
			rows[i] = stepRow{
				Episode:         r.Episode,
				Planner:         int32(r.Planner),
				Step:            int32(r.Step),
				Action:          r.Action,
				Reward:          r.Reward,
				Costs:           r.Costs,
				Budget:          r.Budget,
				Lambda:          r.Lambda,
				Iterations:      int32(r.Iterations),
				LeafEvaluations: int32(r.LeafEvaluations),
				DurationUs:      r.Duration.Microseconds(),
				Feasible:        r.Feasible,
				Fallback:        r.Fallback,
				IsTreeReset:     r.IsTreeReset,
			}
		}
		return w.writeParquet("step_records.parquet", rows)
	}

	header := []string{"episode", "planner", "step", "action", "reward", "costs", "budget", "lambda", "iterations", "leaf_evaluations", "duration", "feasible", "fallback", "is_tree_reset"}
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.Episode,
			strconv.Itoa(r.Planner),
			strconv.Itoa(r.Step),
			r.Action,
			formatFloat(r.Reward),
			formatFloats(r.Costs),
			formatFloats(r.Budget),
			formatFloats(r.Lambda),
			strconv.Itoa(r.Iterations),
			strconv.Itoa(r.LeafEvaluations),
			r.Duration.String(),
			strconv.FormatBool(r.Feasible),
			strconv.FormatBool(r.Fallback),
			strconv.FormatBool(r.IsTreeReset),
		})
	}
	return w.writeCSV("step_records.csv", header, rows)
}

func (w *Writer) writeCSV(name string, header []string, rows [][]string) error {
	path := filepath.Join(w.baseDir, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write %s header: %w", name, err)
	}
	if err := writer.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write %s rows: %w", name, err)
	}
	return nil
}

func (w *Writer) writeParquet(name string, rows any) error {
	path := filepath.Join(w.baseDir, name)
	codec := parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression})
	var err error
	switch rows := rows.(type) {
	case []episodeRow:
		err = parquet.WriteFile(path, rows, codec)
	case []stepRow:
		err = parquet.WriteFile(path, rows, codec)
	default:
		err = fmt.Errorf("unsupported row type %T", rows)
	}
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

type episodeRow struct {
	ID          string    `parquet:"id"`
	Planner     int32     `parquet:"planner"`
	StartTime   int64     `parquet:"start_time_ms"`
	DurationMs  int64     `parquet:"duration_ms"`
	Steps       int32     `parquet:"steps"`
	TotalReward float64   `parquet:"total_reward"`
	TotalCost   []float64 `parquet:"total_cost"`
	Violated    bool      `parquet:"violated"`
}

type stepRow struct {
	Episode         string    `parquet:"episode,dict"`
	Planner         int32     `parquet:"planner"`
	Step            int32     `parquet:"step"`
	Action          string    `parquet:"action,dict"`
	Reward          float64   `parquet:"reward"`
	Costs           []float64 `parquet:"costs"`
	Budget          []float64 `parquet:"budget"`
	Lambda          []float64 `parquet:"lambda"`
	Iterations      int32     `parquet:"iterations"`
	LeafEvaluations int32     `parquet:"leaf_evaluations"`
	DurationUs      int64     `parquet:"duration_us"`
	Feasible        bool      `parquet:"feasible"`
	Fallback        bool      `parquet:"fallback"`
	IsTreeReset     bool      `parquet:"is_tree_reset"`
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func formatFloats(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = formatFloat(v)
	}
	return strings.Join(parts, ";")
}
