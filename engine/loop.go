package engine

import (
	"context"
	"fmt"
	"slices"
	"time"

	"cmcts/experiments/metrics"
	"cmcts/searcher"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/exp/rand"
)

// Engine runs an agent against an environment model. The environment draws
// from its own random stream so the agent's planning does not perturb it.
type Engine[S, A comparable] struct {
	agent     Agent[S, A]
	env       searcher.Model[S, A]
	rng       *rand.Rand
	maxSteps  int
	plannerID int
	log       zerolog.Logger
}

type options struct {
	seed      uint64
	maxSteps  int
	plannerID int
	logger    zerolog.Logger
}

type Option func(o *options)

func WithSeed(seed uint64) Option {
	return func(o *options) {
		o.seed = seed
	}
}

func WithMaxSteps(steps int) Option {
	return func(o *options) {
		if steps > 0 {
			o.maxSteps = steps
		}
	}
}

// WithPlannerID tags episode metrics with a planner configuration.
func WithPlannerID(id int) Option {
	return func(o *options) {
		o.plannerID = id
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func New[S, A comparable](agent Agent[S, A], env searcher.Model[S, A], opts ...Option) *Engine[S, A] {
	o := options{maxSteps: MaxSteps, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Engine[S, A]{
		agent:     agent,
		env:       env,
		rng:       rand.New(rand.NewSource(o.seed)),
		maxSteps:  o.maxSteps,
		plannerID: o.plannerID,
		log:       o.logger,
	}
}

// Run executes the episode loop. On error the metrics gathered so far are
// returned with it.
func (e *Engine[S, A]) Run(ctx context.Context, start S) (metrics.EpisodeMetric, []metrics.StepMetric, error) {
	budget := e.env.InitialBudget()
	episode := metrics.EpisodeMetric{
		ID:        uuid.NewString(),
		Planner:   e.plannerID,
		StartTime: time.Now(),
		TotalCost: make([]float64, len(budget)),
	}
	log := e.log.With().Str("episode", episode.ID).Logger()
	log.Info().Msg("starting episode")

	var steps []metrics.StepMetric
	finish := func(err error) (metrics.EpisodeMetric, []metrics.StepMetric, error) {
		episode.EndTime = time.Now()
		episode.Duration = episode.EndTime.Sub(episode.StartTime)
		episode.Steps = len(steps)
		for i := range budget {
			if episode.TotalCost[i] > budget[i] {
				episode.Violated = true
			}
		}
		return episode, steps, err
	}

	state := start
	for step := 1; step <= e.maxSteps && !e.env.IsTerminal(state); step++ {
		if err := ctx.Err(); err != nil {
			return finish(err)
		}

		action, info, err := e.agent.ActInfo(ctx, state)
		if err != nil {
			return finish(fmt.Errorf("plan step %d: %w", step, err))
		}
		next, reward, costs, err := e.env.Step(state, action, e.rng)
		if err != nil {
			return finish(fmt.Errorf("environment step %d: %w", step, err))
		}
		if len(costs) != len(budget) {
			return finish(fmt.Errorf("environment step %d: %w: got %d costs, want %d", step, searcher.ErrDimensionMismatch, len(costs), len(budget)))
		}
		if err := e.agent.Consume(costs); err != nil {
			return finish(fmt.Errorf("consume step %d: %w", step, err))
		}

		episode.TotalReward += reward
		for i, c := range costs {
			episode.TotalCost[i] += c
		}

		search := info.Metric
		search.Iterations = info.Iterations
		search.Duration = info.Elapsed
		search.Lambda = slices.Clone(info.Lambda)
		steps = append(steps, metrics.StepMetric{
			Episode:      episode.ID,
			Step:         step,
			Action:       fmt.Sprint(action),
			Reward:       reward,
			Costs:        slices.Clone(costs),
			Budget:       slices.Clone(info.Budget),
			Feasible:     info.Feasible,
			Fallback:     info.Fallback,
			SearchMetric: search,
		})

		log.Debug().
			Int("step", step).
			Interface("action", action).
			Float64("reward", reward).
			Floats64("costs", costs).
			Floats64("lambda", info.Lambda).
			Msg("applied action")
		state = next
	}

	episode, steps, err := finish(nil)
	log.Info().
		Int("steps", episode.Steps).
		Float64("reward", episode.TotalReward).
		Floats64("cost", episode.TotalCost).
		Bool("violated", episode.Violated).
		Msg("completed episode")
	return episode, steps, err
}
