package problem

import (
	"fmt"
	"math"

	"cmcts/searcher"

	"golang.org/x/exp/rand"
)

// LaneState is a position on the lane and the number of steps taken.
type LaneState struct {
	X float64
	T int
}

// Lane is a continuous one-dimensional navigation task. The agent picks a
// velocity each step, moves with Gaussian noise, and pays a unit cost for
// every step that ends inside the hazard interval.
type Lane struct {
	Start     float64
	Goal      float64
	GoalWidth float64
	HazardLo  float64
	HazardHi  float64
	MaxSpeed  float64
	Noise     float64
	Horizon   int
	Gamma     float64
	Budget    float64
	// Grid is the number of velocities returned by Actions.
	Grid int
}

func DefaultLane() *Lane {
	return &Lane{
		Start:     0,
		Goal:      10,
		GoalWidth: 0.5,
		HazardLo:  4,
		HazardHi:  6,
		MaxSpeed:  2,
		Noise:     0.3,
		Horizon:   20,
		Gamma:     0.95,
		Budget:    0.5,
		Grid:      5,
	}
}

const (
	stepPenalty  = 0.1
	distanceCost = 0.05
	goalReward   = 10.0
)

func (l *Lane) StartState() LaneState {
	return LaneState{X: l.Start}
}

func (l *Lane) Step(state LaneState, velocity float64, rng *rand.Rand) (LaneState, float64, []float64, error) {
	if l.IsTerminal(state) {
		return state, 0, nil, fmt.Errorf("lane episode is over at %+v", state)
	}
	if math.IsNaN(velocity) {
		return state, 0, nil, fmt.Errorf("velocity is NaN")
	}
	v := math.Max(-l.MaxSpeed, math.Min(l.MaxSpeed, velocity))
	next := LaneState{X: state.X + v + l.Noise*rng.NormFloat64(), T: state.T + 1}

	reward := -stepPenalty - distanceCost*math.Abs(l.Goal-next.X)
	if l.atGoal(next.X) {
		reward += goalReward
	}
	cost := 0.0
	if l.InHazard(next.X) {
		cost = 1
	}
	return next, reward, []float64{cost}, nil
}

func (l *Lane) Actions(LaneState) []float64 {
	if l.Grid < 2 {
		return []float64{l.MaxSpeed}
	}
	actions := make([]float64, l.Grid)
	for i := range actions {
		actions[i] = -l.MaxSpeed + 2*l.MaxSpeed*float64(i)/float64(l.Grid-1)
	}
	return actions
}

func (l *Lane) IsTerminal(state LaneState) bool {
	return state.T >= l.Horizon || l.atGoal(state.X)
}

func (l *Lane) Discount() float64 {
	return l.Gamma
}

func (l *Lane) InitialBudget() []float64 {
	return []float64{l.Budget}
}

func (l *Lane) InHazard(x float64) bool {
	return x >= l.HazardLo && x <= l.HazardHi
}

func (l *Lane) atGoal(x float64) bool {
	return math.Abs(x-l.Goal) <= l.GoalWidth
}

// UniformVelocity proposes velocities uniformly from [-Max, Max]. The action
// space is continuous, so it never runs out of candidates.
type UniformVelocity struct {
	Max float64
}

func (u UniformVelocity) Propose(_ searcher.Model[LaneState, float64], _ LaneState, node searcher.StateView[float64], rng *rand.Rand) (float64, error) {
	for {
		v := (2*rng.Float64() - 1) * u.Max
		if !node.Has(v) {
			return v, nil
		}
	}
}

// DistanceEstimator values a leaf by the remaining distance to the goal,
// assuming progress at full speed and no further hazard cost.
type DistanceEstimator struct{}

func (DistanceEstimator) Estimate(model searcher.Model[LaneState, float64], state LaneState, depth int, _ *rand.Rand) (float64, []float64, error) {
	l, ok := model.(*Lane)
	if !ok {
		return 0, nil, fmt.Errorf("distance estimator needs a *Lane, got %T", model)
	}
	value := 0.0
	discount := 1.0
	x := state.X
	for d := 0; d < depth && d+state.T < l.Horizon; d++ {
		step := math.Copysign(math.Min(l.MaxSpeed, math.Abs(l.Goal-x)), l.Goal-x)
		x += step
		value += discount * (-stepPenalty - distanceCost*math.Abs(l.Goal-x))
		if l.atGoal(x) {
			value += discount * goalReward
			break
		}
		discount *= l.Gamma
	}
	return value, []float64{0}, nil
}

// HazardPrior seeds the cost estimate of a new action with 1 when the
// noiseless move lands in the hazard.
func HazardPrior(l *Lane) searcher.CostInit[LaneState, float64] {
	return searcher.CostFunc[LaneState, float64](func(_ searcher.Model[LaneState, float64], state LaneState, velocity float64) []float64 {
		if l.InHazard(state.X + velocity) {
			return []float64{1}
		}
		return []float64{0}
	})
}
