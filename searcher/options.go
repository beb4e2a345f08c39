package searcher

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"cmcts/experiments/metrics"

	"github.com/rs/zerolog"
)

// NoTimeLimit leaves the search bounded by iterations only.
const NoTimeLimit = time.Duration(math.MaxInt64)

// Schedule selects the dual-ascent step size.
type Schedule int

const (
	Constant Schedule = iota // step = nu
	Inverse                  // step = nu / t
)

func (s Schedule) String() string {
	switch s {
	case Constant:
		return "constant"
	case Inverse:
		return "inverse"
	}
	return fmt.Sprintf("Schedule(%d)", int(s))
}

func ParseSchedule(name string) (Schedule, error) {
	switch name {
	case "constant", "scale":
		return Constant, nil
	case "inverse", "scale/iteration":
		return Inverse, nil
	}
	return 0, fmt.Errorf("unknown schedule %q", name)
}

// TerminalPolicy chooses how the root action is picked once search ends.
type TerminalPolicy int

const (
	MaxFeasibleQ TerminalPolicy = iota
	SafeAction
	BestCost
)

func (p TerminalPolicy) String() string {
	switch p {
	case MaxFeasibleQ:
		return "max_feasible_q"
	case SafeAction:
		return "safe_action"
	case BestCost:
		return "best_cost"
	}
	return fmt.Sprintf("TerminalPolicy(%d)", int(p))
}

func ParseTerminalPolicy(name string) (TerminalPolicy, error) {
	switch name {
	case "", "max_feasible_q", "default":
		return MaxFeasibleQ, nil
	case "safe_action":
		return SafeAction, nil
	case "best_cost":
		return BestCost, nil
	}
	return 0, fmt.Errorf("unknown terminal policy %q", name)
}

// Params holds the scalar hyperparameters of the planner.
type Params struct {
	Depth       int
	Exploration float64
	Iterations  int
	MaxTime     time.Duration

	KAction, AlphaAction float64
	KState, AlphaState   float64
	ActionWidening       bool
	StateWidening        bool
	CheckRepeatState     bool
	CheckRepeatAction    bool

	Nu            float64
	Schedule      Schedule
	MaxClip       []float64
	InitialLambda []float64

	KeepTree       bool
	Terminal       TerminalPolicy
	TreeInInfo     bool
	SearchProgress bool

	Seed    uint64
	Logger  zerolog.Logger
	Metrics metrics.Collector
}

type Option func(p *Params)

func DefaultParams() Params {
	return Params{
		Depth:             10,
		Exploration:       1.0,
		Iterations:        100,
		MaxTime:           NoTimeLimit,
		KAction:           10,
		AlphaAction:       0.5,
		KState:            10,
		AlphaState:        0.5,
		ActionWidening:    true,
		StateWidening:     true,
		CheckRepeatState:  true,
		CheckRepeatAction: true,
		Nu:                0.01,
		Schedule:          Constant,
		MaxClip:           []float64{math.Inf(1)},
		Terminal:          MaxFeasibleQ,
		Logger:            zerolog.Nop(),
		Metrics:           metrics.NewDummyCollector(),
	}
}

func WithDepth(depth int) Option {
	return func(p *Params) {
		p.Depth = depth
	}
}

func WithIterations(iterations int) Option {
	return func(p *Params) {
		if iterations >= 0 {
			p.Iterations = iterations
		}
	}
}

// WithDuration bounds the wall-clock time of a planning call. A zero
// duration still completes the iteration in flight.
func WithDuration(duration time.Duration) Option {
	return func(p *Params) {
		if duration >= 0 {
			p.MaxTime = duration
		}
	}
}

func WithExploration(c float64) Option {
	return func(p *Params) {
		p.Exploration = c
	}
}

func WithActionWidening(k, alpha float64) Option {
	return func(p *Params) {
		p.ActionWidening = true
		p.KAction = k
		p.AlphaAction = alpha
	}
}

func WithoutActionWidening() Option {
	return func(p *Params) {
		p.ActionWidening = false
	}
}

func WithStateWidening(k, alpha float64) Option {
	return func(p *Params) {
		p.StateWidening = true
		p.KState = k
		p.AlphaState = alpha
	}
}

func WithoutStateWidening() Option {
	return func(p *Params) {
		p.StateWidening = false
	}
}

func WithRepeatChecks(states, actions bool) Option {
	return func(p *Params) {
		p.CheckRepeatState = states
		p.CheckRepeatAction = actions
	}
}

func WithDualAscent(nu float64, schedule Schedule) Option {
	return func(p *Params) {
		p.Nu = nu
		p.Schedule = schedule
	}
}

// WithMaxClip sets the multiplier ceiling, either one value for every
// dimension or one value per dimension.
func WithMaxClip(clip ...float64) Option {
	return func(p *Params) {
		if len(clip) > 0 {
			p.MaxClip = slices.Clone(clip)
		}
	}
}

func WithInitialLambda(lambda ...float64) Option {
	return func(p *Params) {
		p.InitialLambda = slices.Clone(lambda)
	}
}

func WithKeepTree() Option {
	return func(p *Params) {
		p.KeepTree = true
	}
}

func WithTerminalPolicy(policy TerminalPolicy) Option {
	return func(p *Params) {
		p.Terminal = policy
	}
}

func WithTreeInInfo() Option {
	return func(p *Params) {
		p.TreeInInfo = true
	}
}

func WithSearchProgress() Option {
	return func(p *Params) {
		p.SearchProgress = true
	}
}

func WithSeed(seed uint64) Option {
	return func(p *Params) {
		p.Seed = seed
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(p *Params) {
		p.Logger = logger
	}
}

func WithMetrics(collector metrics.Collector) Option {
	return func(p *Params) {
		if collector != nil {
			p.Metrics = collector
		}
	}
}

// Validate checks the parameters against a budget of dims constraints.
func (p Params) Validate(dims int) error {
	var errs []error
	if p.Depth < 0 {
		errs = append(errs, fmt.Errorf("depth must be >= 0, got %d", p.Depth))
	}
	if p.Exploration < 0 {
		errs = append(errs, fmt.Errorf("exploration constant must be >= 0, got %g", p.Exploration))
	}
	if p.ActionWidening && (p.KAction <= 0 || p.AlphaAction < 0 || p.AlphaAction > 1) {
		errs = append(errs, fmt.Errorf("action widening needs k > 0 and alpha in [0, 1], got k=%g alpha=%g", p.KAction, p.AlphaAction))
	}
	if p.StateWidening && (p.KState <= 0 || p.AlphaState < 0 || p.AlphaState > 1) {
		errs = append(errs, fmt.Errorf("state widening needs k > 0 and alpha in [0, 1], got k=%g alpha=%g", p.KState, p.AlphaState))
	}
	if p.KeepTree && !p.CheckRepeatState {
		errs = append(errs, errors.New("keep tree needs repeated state checks to find the next root"))
	}
	if p.Nu < 0 {
		errs = append(errs, fmt.Errorf("nu must be >= 0, got %g", p.Nu))
	}
	if p.Schedule != Constant && p.Schedule != Inverse {
		errs = append(errs, fmt.Errorf("unknown schedule %v", p.Schedule))
	}
	if len(p.MaxClip) != 1 && len(p.MaxClip) != dims {
		errs = append(errs, fmt.Errorf("%w: max clip has %d entries, want 1 or %d", ErrDimensionMismatch, len(p.MaxClip), dims))
	}
	for _, c := range p.MaxClip {
		if c < 0 {
			errs = append(errs, fmt.Errorf("max clip must be >= 0, got %g", c))
		}
	}
	if p.InitialLambda != nil && len(p.InitialLambda) != dims {
		errs = append(errs, fmt.Errorf("%w: initial lambda has %d entries, want %d", ErrDimensionMismatch, len(p.InitialLambda), dims))
	}
	if p.Terminal < MaxFeasibleQ || p.Terminal > BestCost {
		errs = append(errs, fmt.Errorf("unknown terminal policy %v", p.Terminal))
	}
	return errors.Join(errs...)
}
