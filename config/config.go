package config

import (
	"errors"
	"fmt"
	"math"
	"time"

	"cmcts/searcher"

	"github.com/go-playground/validator/v10"
)

// File is the on-disk planner and run configuration.
type File struct {
	Search      SearchConfig      `json:"search" yaml:"search"`
	Widening    WideningConfig    `json:"widening" yaml:"widening"`
	Constraints ConstraintConfig  `json:"constraints" yaml:"constraints"`
	Diagnostics DiagnosticsConfig `json:"diagnostics" yaml:"diagnostics"`
	Run         RunConfig         `json:"run" yaml:"run"`
	Log         LogConfig         `json:"log" yaml:"log"`
}

type SearchConfig struct {
	Depth       int           `json:"depth" yaml:"depth" validate:"gte=0"`
	Exploration float64       `json:"exploration" yaml:"exploration" validate:"gte=0"`
	Iterations  int           `json:"iterations" yaml:"iterations" validate:"gte=0"`
	MaxTime     time.Duration `json:"max_time" yaml:"max_time" validate:"gte=0"`
	Seed        uint64        `json:"seed" yaml:"seed"`
	KeepTree    bool          `json:"keep_tree" yaml:"keep_tree"`
	Terminal    string        `json:"terminal" yaml:"terminal" validate:"omitempty,oneof=default max_feasible_q safe_action best_cost"`
}

type WidenConfig struct {
	Enabled bool    `json:"enabled" yaml:"enabled"`
	K       float64 `json:"k" yaml:"k" validate:"gte=0"`
	Alpha   float64 `json:"alpha" yaml:"alpha" validate:"gte=0,lte=1"`
}

type WideningConfig struct {
	Action            WidenConfig `json:"action" yaml:"action"`
	State             WidenConfig `json:"state" yaml:"state"`
	CheckRepeatState  bool        `json:"check_repeat_state" yaml:"check_repeat_state"`
	CheckRepeatAction bool        `json:"check_repeat_action" yaml:"check_repeat_action"`
}

type ConstraintConfig struct {
	Nu            float64   `json:"nu" yaml:"nu" validate:"gte=0"`
	Schedule      string    `json:"schedule" yaml:"schedule" validate:"oneof=constant scale inverse scale/iteration"`
	MaxClip       []float64 `json:"max_clip" yaml:"max_clip" validate:"omitempty,dive,gte=0"`
	InitialLambda []float64 `json:"initial_lambda" yaml:"initial_lambda" validate:"omitempty,dive,gte=0"`
}

type DiagnosticsConfig struct {
	TreeInInfo     bool `json:"tree_in_info" yaml:"tree_in_info"`
	SearchProgress bool `json:"search_progress" yaml:"search_progress"`
	// MetricsAddr serves Prometheus metrics when set, e.g. ":9090".
	MetricsAddr string `json:"metrics_addr" yaml:"metrics_addr" validate:"omitempty,hostname_port"`
}

type RunConfig struct {
	Problem  string `json:"problem" yaml:"problem" validate:"oneof=lane bandit"`
	Episodes int    `json:"episodes" yaml:"episodes" validate:"gte=1"`
	MaxSteps int    `json:"max_steps" yaml:"max_steps" validate:"gte=1"`
	// Seed drives the environment, independently of the planner's stream.
	Seed   uint64 `json:"seed" yaml:"seed"`
	Out    string `json:"out" yaml:"out"`
	Format string `json:"format" yaml:"format" validate:"oneof=csv parquet"`
}

type LogConfig struct {
	Level   string `json:"level" yaml:"level" validate:"oneof=trace debug info warn error"`
	Console bool   `json:"console" yaml:"console"`
}

func Default() File {
	params := searcher.DefaultParams()
	return File{
		Search: SearchConfig{
			Depth:       params.Depth,
			Exploration: params.Exploration,
			Iterations:  params.Iterations,
			MaxTime:     params.MaxTime,
			Terminal:    params.Terminal.String(),
		},
		Widening: WideningConfig{
			Action:            WidenConfig{Enabled: params.ActionWidening, K: params.KAction, Alpha: params.AlphaAction},
			State:             WidenConfig{Enabled: params.StateWidening, K: params.KState, Alpha: params.AlphaState},
			CheckRepeatState:  params.CheckRepeatState,
			CheckRepeatAction: params.CheckRepeatAction,
		},
		Constraints: ConstraintConfig{
			Nu:       params.Nu,
			Schedule: params.Schedule.String(),
		},
		Run: RunConfig{
			Problem:  "lane",
			Episodes: 1,
			MaxSteps: 100,
			Out:      "results",
			Format:   "csv",
		},
		Log: LogConfig{
			Level:   "info",
			Console: true,
		},
	}
}

var validate = validator.New()

// Validate checks field ranges and the constraints between fields.
func (f File) Validate() error {
	if err := validate.Struct(f); err != nil {
		return err
	}
	var errs []error
	if f.Widening.Action.Enabled && f.Widening.Action.K <= 0 {
		errs = append(errs, fmt.Errorf("widening.action.k must be > 0 when action widening is enabled"))
	}
	if f.Widening.State.Enabled && f.Widening.State.K <= 0 {
		errs = append(errs, fmt.Errorf("widening.state.k must be > 0 when state widening is enabled"))
	}
	if f.Search.KeepTree && !f.Widening.CheckRepeatState {
		errs = append(errs, fmt.Errorf("search.keep_tree needs widening.check_repeat_state to find the next root"))
	}
	if n := len(f.Constraints.InitialLambda); n > 0 && len(f.Constraints.MaxClip) > 1 && n != len(f.Constraints.MaxClip) {
		errs = append(errs, fmt.Errorf("constraints.initial_lambda has %d entries but constraints.max_clip has %d", n, len(f.Constraints.MaxClip)))
	}
	return errors.Join(errs...)
}

// Options translates the file into planner options. Unknown names have been
// rejected by Validate, so parse errors are returned only for files that were
// never validated.
func (f File) Options() ([]searcher.Option, error) {
	schedule, err := searcher.ParseSchedule(f.Constraints.Schedule)
	if err != nil {
		return nil, err
	}
	terminal, err := searcher.ParseTerminalPolicy(f.Search.Terminal)
	if err != nil {
		return nil, err
	}

	options := []searcher.Option{
		searcher.WithDepth(f.Search.Depth),
		searcher.WithExploration(f.Search.Exploration),
		searcher.WithIterations(f.Search.Iterations),
		searcher.WithDuration(f.Search.MaxTime),
		searcher.WithSeed(f.Search.Seed),
		searcher.WithTerminalPolicy(terminal),
		searcher.WithRepeatChecks(f.Widening.CheckRepeatState, f.Widening.CheckRepeatAction),
		searcher.WithDualAscent(f.Constraints.Nu, schedule),
	}
	if f.Widening.Action.Enabled {
		options = append(options, searcher.WithActionWidening(f.Widening.Action.K, f.Widening.Action.Alpha))
	} else {
		options = append(options, searcher.WithoutActionWidening())
	}
	if f.Widening.State.Enabled {
		options = append(options, searcher.WithStateWidening(f.Widening.State.K, f.Widening.State.Alpha))
	} else {
		options = append(options, searcher.WithoutStateWidening())
	}
	if len(f.Constraints.MaxClip) > 0 {
		options = append(options, searcher.WithMaxClip(f.Constraints.MaxClip...))
	}
	if len(f.Constraints.InitialLambda) > 0 {
		options = append(options, searcher.WithInitialLambda(f.Constraints.InitialLambda...))
	}
	if f.Search.KeepTree {
		options = append(options, searcher.WithKeepTree())
	}
	if f.Diagnostics.TreeInInfo {
		options = append(options, searcher.WithTreeInInfo())
	}
	if f.Diagnostics.SearchProgress {
		options = append(options, searcher.WithSearchProgress())
	}
	return options, nil
}

// HasTimeLimit reports whether the search is bounded by wall-clock time.
func (s SearchConfig) HasTimeLimit() bool {
	return s.MaxTime != time.Duration(math.MaxInt64)
}
