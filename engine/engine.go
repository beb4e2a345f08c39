package engine

import (
	"context"

	"cmcts/experiments/metrics"
	"cmcts/searcher"
)

const MaxSteps = 10000

// Agent plans one action per step and is charged the realized costs.
// *searcher.Planner satisfies it.
type Agent[S, A comparable] interface {
	ActInfo(ctx context.Context, state S) (A, searcher.Info[S, A], error)
	Consume(costs []float64) error
}

type Runner[S comparable] interface {
	// Run plays an episode from start until the environment terminates or the
	// step limit is reached
	Run(ctx context.Context, start S) (metrics.EpisodeMetric, []metrics.StepMetric, error)
}
