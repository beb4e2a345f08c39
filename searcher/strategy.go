package searcher

import (
	"fmt"
	"slices"

	"golang.org/x/exp/rand"
)

// Seeding strategies for new state-action nodes. Each comes as a constant,
// a pure function or any type implementing the interface.

type ValueInit[S, A comparable] interface {
	InitValue(model Model[S, A], state S, action A) float64
}

type VisitInit[S, A comparable] interface {
	InitVisits(model Model[S, A], state S, action A) int
}

type CostInit[S, A comparable] interface {
	InitCosts(model Model[S, A], state S, action A) []float64
}

type constValue[S, A comparable] float64

func (v constValue[S, A]) InitValue(Model[S, A], S, A) float64 { return float64(v) }

func ConstValue[S, A comparable](v float64) ValueInit[S, A] { return constValue[S, A](v) }

type ValueFunc[S, A comparable] func(model Model[S, A], state S, action A) float64

func (f ValueFunc[S, A]) InitValue(model Model[S, A], state S, action A) float64 {
	return f(model, state, action)
}

type constVisits[S, A comparable] int

func (v constVisits[S, A]) InitVisits(Model[S, A], S, A) int { return int(v) }

func ConstVisits[S, A comparable](n int) VisitInit[S, A] { return constVisits[S, A](n) }

type VisitFunc[S, A comparable] func(model Model[S, A], state S, action A) int

func (f VisitFunc[S, A]) InitVisits(model Model[S, A], state S, action A) int {
	return f(model, state, action)
}

type constCosts[S, A comparable] []float64

func (c constCosts[S, A]) InitCosts(Model[S, A], S, A) []float64 { return slices.Clone(c) }

func ConstCosts[S, A comparable](costs ...float64) CostInit[S, A] {
	return constCosts[S, A](slices.Clone(costs))
}

type CostFunc[S, A comparable] func(model Model[S, A], state S, action A) []float64

func (f CostFunc[S, A]) InitCosts(model Model[S, A], state S, action A) []float64 {
	return f(model, state, action)
}

// zeroCosts seeds every cost estimate with zeros of the budget's length.
type zeroCosts[S, A comparable] struct{ dims int }

func (z zeroCosts[S, A]) InitCosts(Model[S, A], S, A) []float64 { return make([]float64, z.dims) }

// Fallback resolves an action when a planning call fails.
type Fallback[S, A comparable] interface {
	Resolve(model Model[S, A], state S, cause error) (A, error)
}

type fixedAction[S, A comparable] struct{ action A }

func (f fixedAction[S, A]) Resolve(Model[S, A], S, error) (A, error) { return f.action, nil }

func FixedAction[S, A comparable](action A) Fallback[S, A] { return fixedAction[S, A]{action: action} }

type FallbackFunc[S, A comparable] func(model Model[S, A], state S, cause error) (A, error)

func (f FallbackFunc[S, A]) Resolve(model Model[S, A], state S, cause error) (A, error) {
	return f(model, state, cause)
}

type rethrow[S, A comparable] struct{}

func (rethrow[S, A]) Resolve(_ Model[S, A], _ S, cause error) (A, error) {
	var zero A
	return zero, cause
}

// Rethrow is the default fallback: the failure reaches the caller.
func Rethrow[S, A comparable]() Fallback[S, A] { return rethrow[S, A]{} }

// RandomActions proposes untried actions from Model.Actions in a random order.
type RandomActions[S, A comparable] struct{}

func (RandomActions[S, A]) Propose(model Model[S, A], state S, node StateView[A], rng *rand.Rand) (A, error) {
	var zero A
	candidates := []A{}
	for _, action := range model.Actions(state) {
		if !node.Has(action) {
			candidates = append(candidates, action)
		}
	}
	if len(candidates) == 0 {
		return zero, ErrWideningExhausted
	}
	return candidates[rng.Intn(len(candidates))], nil
}

// Strategies groups the pluggable parts of the planner. Nil fields are
// replaced by defaults in Solve.
type Strategies[S, A comparable] struct {
	InitQ         ValueInit[S, A]
	InitN         VisitInit[S, A]
	InitQc        CostInit[S, A]
	NextAction    ActionGenerator[S, A]
	Estimator     Estimator[S, A]
	DefaultAction Fallback[S, A]
	// ResetCallback resynchronizes a stateful simulator to the root state
	// after each iteration.
	ResetCallback func(model Model[S, A], state S)
}

func (st Strategies[S, A]) resolve(dims int) Strategies[S, A] {
	if st.InitQ == nil {
		st.InitQ = ConstValue[S, A](0)
	}
	if st.InitN == nil {
		st.InitN = ConstVisits[S, A](0)
	}
	if st.InitQc == nil {
		st.InitQc = zeroCosts[S, A]{dims: dims}
	}
	if st.NextAction == nil {
		st.NextAction = RandomActions[S, A]{}
	}
	if st.Estimator == nil {
		st.Estimator = ZeroEstimator[S, A]{}
	}
	if st.DefaultAction == nil {
		st.DefaultAction = Rethrow[S, A]()
	}
	return st
}

// seed computes the initial statistics of a new state-action node.
func (st Strategies[S, A]) seed(model Model[S, A], state S, action A, dims int) (int, float64, []float64, error) {
	n0 := st.InitN.InitVisits(model, state, action)
	if n0 < 0 {
		return 0, 0, nil, fmt.Errorf("initial visit count %d is negative", n0)
	}
	q0 := st.InitQ.InitValue(model, state, action)
	qc0 := st.InitQc.InitCosts(model, state, action)
	if err := checkDims("cost initializer", qc0, dims); err != nil {
		return 0, 0, nil, err
	}
	return n0, q0, qc0, nil
}
