package searcher

import (
	"fmt"

	"golang.org/x/exp/rand"
)

// ZeroEstimator values every leaf at zero reward and zero cost.
type ZeroEstimator[S, A comparable] struct{}

func (ZeroEstimator[S, A]) Estimate(model Model[S, A], _ S, _ int, _ *rand.Rand) (float64, []float64, error) {
	return 0, make([]float64, len(model.InitialBudget())), nil
}

// RolloutEstimator plays uniformly random actions from Model.Actions for the
// remaining depth and returns the discounted reward and cost sums.
type RolloutEstimator[S, A comparable] struct{}

func (RolloutEstimator[S, A]) Estimate(model Model[S, A], state S, depth int, rng *rand.Rand) (float64, []float64, error) {
	dims := len(model.InitialBudget())
	value := 0.0
	costs := make([]float64, dims)
	discount := 1.0
	gamma := model.Discount()

	for d := 0; d < depth && !model.IsTerminal(state); d++ {
		actions := model.Actions(state)
		if len(actions) == 0 {
			break
		}
		action := actions[rng.Intn(len(actions))]
		next, reward, stepCosts, err := model.Step(state, action, rng)
		if err != nil {
			return 0, nil, fmt.Errorf("rollout step %d: %w", d, err)
		}
		if err := checkDims("model", stepCosts, dims); err != nil {
			return 0, nil, err
		}
		value += discount * reward
		for i, c := range stepCosts {
			costs[i] += discount * c
		}
		discount *= gamma
		state = next
	}
	return value, costs, nil
}
