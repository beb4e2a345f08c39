package searcher

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"cmcts/experiments/metrics"

	"github.com/rs/zerolog"
	"golang.org/x/exp/rand"
)

// RootStat summarizes one root action after a planning call.
type RootStat[A comparable] struct {
	Action A
	Visits int
	Q      float64
	Qc     []float64
}

// Info is the diagnostic bundle returned by ActInfo.
type Info[S, A comparable] struct {
	Iterations int
	Elapsed    time.Duration
	Lambda     []float64
	Budget     []float64
	Realized   []float64
	// Feasible is false when no root action met the budget.
	Feasible bool
	Fallback bool
	Root     []RootStat[A]
	Tree     *Tree[S, A]
	Progress []Progress[A]
	Metric   metrics.SearchMetric
}

// Planner owns a search tree, the constraint multipliers and a random stream.
// It is not safe for concurrent use.
type Planner[S, A comparable] struct {
	model      Model[S, A]
	strategies Strategies[S, A]
	params     Params
	dims       int

	rng     *rand.Rand
	tree    *Tree[S, A]
	dual    *controller
	log     zerolog.Logger
	metrics metrics.Collector
}

// Solve builds a planner for model.
func Solve[S, A comparable](model Model[S, A], strategies Strategies[S, A], options ...Option) (*Planner[S, A], error) {
	params := DefaultParams()
	for _, option := range options {
		option(&params)
	}

	budget := model.InitialBudget()
	if err := params.Validate(len(budget)); err != nil {
		return nil, fmt.Errorf("invalid planner parameters: %w", err)
	}

	return &Planner[S, A]{
		model:      model,
		strategies: strategies.resolve(len(budget)),
		params:     params,
		dims:       len(budget),
		rng:        rand.New(rand.NewSource(params.Seed)),
		tree:       NewTree[S, A](sizeHint(params.Iterations)),
		dual:       newController(budget, params),
		log:        params.Logger,
		metrics:    params.Metrics,
	}, nil
}

// Act plans from state and returns the chosen action.
func (p *Planner[S, A]) Act(ctx context.Context, state S) (A, error) {
	action, _, err := p.ActInfo(ctx, state)
	return action, err
}

// ActInfo plans from state and also returns diagnostics. Failures during
// search are resolved by the configured fallback; a cost dimension mismatch
// is always returned as an error.
func (p *Planner[S, A]) ActInfo(ctx context.Context, state S) (A, Info[S, A], error) {
	if !p.params.KeepTree {
		p.tree = NewTree[S, A](sizeHint(p.params.Iterations))
		p.dual.reset()
	}
	root, reused := p.rootFor(state)
	p.metrics.SetTreeReset(!reused)

	p.metrics.Start()
	start := time.Now()
	iterations, progress, err := p.search(ctx, root)
	info := Info[S, A]{
		Iterations: iterations,
		Elapsed:    time.Since(start),
		Lambda:     slices.Clone(p.dual.lambda),
		Budget:     slices.Clone(p.dual.budget),
		Realized:   slices.Clone(p.dual.realized),
		Progress:   progress,
		Root:       p.rootStats(root),
	}
	if p.params.TreeInInfo {
		info.Tree = p.tree.Snapshot()
	}

	var zero A
	if err == nil && iterations == 0 {
		err = stateError[S, A]("plan", state, fmt.Errorf("%w: no iterations completed", ErrNoActions))
	}
	if err != nil {
		action, ferr := p.fallback(state, err)
		info.Fallback = true
		info.Metric = p.metrics.Complete()
		if ferr != nil {
			return zero, info, ferr
		}
		return action, info, nil
	}

	index, feasible := p.tree.chooseAction(root, p.dual.budget, p.params.Terminal)
	if index == -1 {
		action, ferr := p.fallback(state, stateError[S, A]("plan", state, ErrNoActions))
		info.Fallback = true
		info.Metric = p.metrics.Complete()
		if ferr != nil {
			return zero, info, ferr
		}
		return action, info, nil
	}
	action := p.tree.Action(index).Label
	info.Feasible = feasible
	info.Metric = p.metrics.Complete()

	if !feasible {
		p.log.Warn().
			Str("policy", p.params.Terminal.String()).
			Floats64("budget", p.dual.budget).
			Floats64("qc", p.tree.Action(index).Qc).
			Msg("no root action satisfies the cost budget")
	}
	p.log.Debug().
		Int("iterations", iterations).
		Dur("elapsed", info.Elapsed).
		Floats64("lambda", info.Lambda).
		Interface("action", action).
		Msg("planned action")
	return action, info, nil
}

// Consume charges costs incurred in the environment against the remaining
// budget. It only has an effect when the tree is kept across calls; otherwise
// each call starts from the initial budget.
func (p *Planner[S, A]) Consume(costs []float64) error {
	if err := checkDims("consume", costs, p.dims); err != nil {
		return err
	}
	if p.params.KeepTree {
		p.dual.consume(costs, p.model.Discount())
	}
	return nil
}

func (p *Planner[S, A]) Lambda() []float64 { return slices.Clone(p.dual.lambda) }
func (p *Planner[S, A]) Budget() []float64 { return slices.Clone(p.dual.budget) }
func (p *Planner[S, A]) Tree() *Tree[S, A] { return p.tree }
func (p *Planner[S, A]) Params() Params    { return p.params }

// rootFor finds the node of state in a kept tree. On a miss the old tree is
// dropped and state becomes the root of a new one; the multipliers and the
// remaining budget are kept.
func (p *Planner[S, A]) rootFor(state S) (int, bool) {
	if p.params.KeepTree && p.params.CheckRepeatState {
		if index, ok := p.tree.StateIndex(state); ok {
			return index, true
		}
		if p.tree.NumStates() > 0 {
			p.tree = NewTree[S, A](sizeHint(p.params.Iterations))
		}
	}
	return p.tree.InsertStateNode(state, p.params.CheckRepeatState), false
}

func (p *Planner[S, A]) rootStats(root int) []RootStat[A] {
	children := p.tree.State(root).Children
	stats := make([]RootStat[A], len(children))
	for i, child := range children {
		a := p.tree.Action(child)
		stats[i] = RootStat[A]{Action: a.Label, Visits: a.Visits, Q: a.Q, Qc: slices.Clone(a.Qc)}
	}
	return stats
}

func (p *Planner[S, A]) fallback(state S, cause error) (A, error) {
	var zero A
	if fatal(cause) {
		return zero, cause
	}
	p.metrics.AddFallback()
	action, err := p.strategies.DefaultAction.Resolve(p.model, state, cause)
	if err != nil {
		if errors.Is(err, cause) {
			return zero, err
		}
		return zero, fmt.Errorf("default action failed: %w", err)
	}
	p.log.Warn().Err(cause).Interface("action", action).Msg("search failed, using default action")
	return action, nil
}

func sizeHint(iterations int) int {
	if iterations < 0 || iterations >= 1<<16 {
		return 1 << 16
	}
	return iterations + 1
}
