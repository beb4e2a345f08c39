package searcher

import "golang.org/x/exp/rand"

// Model is the generative decision process the planner searches over.
//
// S and A must be comparable: state and action deduplication uses Go equality
// on them (structural for structs and arrays, identity for pointers).
type Model[S, A comparable] interface {
	// Step samples a transition. The returned cost vector must have one entry
	// per constraint, i.e. the length of InitialBudget().
	Step(state S, action A, rng *rand.Rand) (next S, reward float64, costs []float64, err error)
	// Actions returns the full action set of a state. It is used when action
	// widening is disabled and by the default candidate generator.
	Actions(state S) []A
	IsTerminal(state S) bool
	Discount() float64
	// InitialBudget returns the cost budget a fresh planning call starts from.
	InitialBudget() []float64
}

// Estimator values a leaf state with a reward estimate and a cost estimate.
type Estimator[S, A comparable] interface {
	Estimate(model Model[S, A], state S, depth int, rng *rand.Rand) (value float64, costs []float64, err error)
}

// ActionGenerator proposes an action that is not yet a child of node.
// Returning ErrWideningExhausted stops action widening for this visit.
type ActionGenerator[S, A comparable] interface {
	Propose(model Model[S, A], state S, node StateView[A], rng *rand.Rand) (A, error)
}

// StateView is the read-only view of a state node handed to generators.
type StateView[A comparable] interface {
	Visits() int
	Tried() []A
	Has(action A) bool
}

type EstimatorFunc[S, A comparable] func(model Model[S, A], state S, depth int, rng *rand.Rand) (float64, []float64, error)

func (f EstimatorFunc[S, A]) Estimate(model Model[S, A], state S, depth int, rng *rand.Rand) (float64, []float64, error) {
	return f(model, state, depth, rng)
}

type ActionGeneratorFunc[S, A comparable] func(model Model[S, A], state S, node StateView[A], rng *rand.Rand) (A, error)

func (f ActionGeneratorFunc[S, A]) Propose(model Model[S, A], state S, node StateView[A], rng *rand.Rand) (A, error) {
	return f(model, state, node, rng)
}
