package experiments

import (
	"fmt"

	"cmcts/config"
	"cmcts/problem"
	"cmcts/searcher"
)

// LanePlanner is a planner over the lane task.
type LanePlanner = searcher.Planner[problem.LaneState, float64]

type BanditPlanner = searcher.Planner[problem.BanditState, string]

// NewLanePlanner builds a lane planner with continuous velocity proposals,
// the distance heuristic at leaves and a hazard prior on new actions. A failed
// search stands still.
func NewLanePlanner(file config.File, lane *problem.Lane, extra ...searcher.Option) (*LanePlanner, error) {
	options, err := file.Options()
	if err != nil {
		return nil, fmt.Errorf("planner options: %w", err)
	}
	strategies := searcher.Strategies[problem.LaneState, float64]{
		NextAction:    problem.UniformVelocity{Max: lane.MaxSpeed},
		Estimator:     problem.DistanceEstimator{},
		InitQc:        problem.HazardPrior(lane),
		DefaultAction: searcher.FixedAction[problem.LaneState, float64](0),
	}
	return searcher.Solve[problem.LaneState, float64](lane, strategies, append(options, extra...)...)
}

func NewBanditPlanner(file config.File, bandit *problem.Bandit, extra ...searcher.Option) (*BanditPlanner, error) {
	options, err := file.Options()
	if err != nil {
		return nil, fmt.Errorf("planner options: %w", err)
	}
	return searcher.Solve[problem.BanditState, string](bandit, searcher.Strategies[problem.BanditState, string]{}, append(options, extra...)...)
}

// configure overlays a planner configuration on the base file. Zero fields
// keep the base value.
func configure(base config.File, pc PlannerConfig) config.File {
	file := base
	if pc.Iterations > 0 {
		file.Search.Iterations = pc.Iterations
	}
	if pc.Duration > 0 {
		file.Search.MaxTime = pc.Duration
	}
	if pc.Depth > 0 {
		file.Search.Depth = pc.Depth
	}
	if pc.Exploration > 0 {
		file.Search.Exploration = pc.Exploration
	}
	if pc.Nu > 0 {
		file.Constraints.Nu = pc.Nu
	}
	if pc.Schedule != "" {
		file.Constraints.Schedule = pc.Schedule
	}
	if pc.Terminal != "" {
		file.Search.Terminal = pc.Terminal
	}
	file.Search.KeepTree = pc.KeepTree
	return file
}
