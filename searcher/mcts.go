package searcher

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"time"
)

// Progress is one completed iteration of a planning call.
type Progress[A comparable] struct {
	Iteration int
	Greedy    A
	Q         float64
	Qc        []float64
	Lambda    []float64
}

// search runs iterations from root until the iteration count or the time
// limit is exhausted. Both limits, and ctx, are checked between iterations
// only.
func (p *Planner[S, A]) search(ctx context.Context, root int) (int, []Progress[A], error) {
	var progress []Progress[A]
	label := p.tree.State(root).Label
	start := time.Now()
	defer func() { p.metrics.SetLambda(p.dual.lambda) }()

	iterations := 0
	for iterations < p.params.Iterations {
		if _, _, err := p.simulate(root, p.params.Depth); err != nil {
			return iterations, progress, err
		}
		iterations++
		p.metrics.AddIteration()

		if greedy := p.tree.greedyChild(root, p.dual.lambda); greedy != -1 {
			a := p.tree.Action(greedy)
			p.dual.update(a.Qc)
			if p.params.SearchProgress {
				progress = append(progress, Progress[A]{
					Iteration: iterations,
					Greedy:    a.Label,
					Q:         a.Q,
					Qc:        slices.Clone(a.Qc),
					Lambda:    slices.Clone(p.dual.lambda),
				})
			}
		}
		if p.strategies.ResetCallback != nil {
			p.strategies.ResetCallback(p.model, label)
		}

		if time.Since(start) >= p.params.MaxTime || ctx.Err() != nil {
			break
		}
	}
	return iterations, progress, nil
}

// simulate runs one iteration below state with d steps of depth left and
// returns the sampled discounted reward and cost vector.
func (p *Planner[S, A]) simulate(state int, d int) (float64, []float64, error) {
	label := p.tree.State(state).Label
	if p.model.IsTerminal(label) {
		return 0, make([]float64, p.dims), nil
	}
	if d == 0 {
		return p.estimate(label, 0)
	}

	if err := p.widenActions(state); err != nil {
		return 0, nil, err
	}
	sa := p.tree.selectChild(state, newUCB(p.params.Exploration, p.tree.State(state).Visits, p.dual.lambda))
	if sa == -1 {
		// No action was ever admitted here; value it like a leaf.
		return p.estimate(label, d)
	}

	next, reward, costs, isNew, err := p.sampleTransition(state, sa)
	if err != nil {
		return 0, nil, err
	}

	var future float64
	var futureCosts []float64
	if isNew {
		future, futureCosts, err = p.estimate(p.tree.State(next).Label, d-1)
	} else {
		future, futureCosts, err = p.simulate(next, d-1)
	}
	if err != nil {
		return 0, nil, err
	}

	gamma := p.model.Discount()
	q := reward + gamma*future
	qc := make([]float64, p.dims)
	for i := range qc {
		qc[i] = costs[i] + gamma*futureCosts[i]
	}

	p.backup(state, sa, q, qc)
	return q, qc, nil
}

// widenActions admits at most one new action under state.
func (p *Planner[S, A]) widenActions(state int) error {
	node := p.tree.State(state)
	label := node.Label

	if !p.params.ActionWidening {
		if len(node.Children) > 0 {
			return nil
		}
		for _, action := range p.model.Actions(label) {
			if err := p.admit(state, action); err != nil {
				return err
			}
		}
		return nil
	}

	limit := p.params.KAction * math.Pow(float64(node.Visits), p.params.AlphaAction)
	if len(node.Children) > 0 && float64(len(node.Children)) > limit {
		return nil
	}
	action, err := p.strategies.NextAction.Propose(p.model, label, view[S, A]{tree: p.tree, state: state}, p.rng)
	if errors.Is(err, ErrWideningExhausted) {
		return nil
	}
	if err != nil {
		return stateError[S, A]("propose action", label, fmt.Errorf("%w: %w", ErrActionGeneration, err))
	}
	if p.params.CheckRepeatAction {
		if _, ok := p.tree.ActionIndex(state, action); ok {
			return nil
		}
	}
	return p.admit(state, action)
}

func (p *Planner[S, A]) admit(state int, action A) error {
	label := p.tree.State(state).Label
	n0, q0, qc0, err := p.strategies.seed(p.model, label, action, p.dims)
	if err != nil {
		return actionError("seed action", label, action, err)
	}
	p.tree.InsertActionNode(state, action, n0, q0, qc0, p.params.CheckRepeatAction)
	return nil
}

// successorLimit is the number of distinct successors a state-action node
// with n visits may hold.
func successorLimit(k, alpha float64, n int) int {
	return max(1, int(math.Ceil(k*math.Pow(float64(n), alpha))))
}

// sampleTransition either draws a new successor from the model or reuses a
// recorded one, following state widening.
func (p *Planner[S, A]) sampleTransition(state, sa int) (next int, reward float64, costs []float64, isNew bool, err error) {
	a := p.tree.Action(sa)

	var widen bool
	if p.params.StateWidening {
		widen = a.Distinct < successorLimit(p.params.KState, p.params.AlphaState, a.Visits)
	} else {
		widen = len(a.Transitions) == 0
	}
	if !widen {
		tr := a.Transitions[0]
		if p.params.StateWidening {
			tr = a.Transitions[p.rng.Intn(len(a.Transitions))]
		}
		return tr.Next, tr.Reward, tr.Costs, false, nil
	}

	label := p.tree.State(state).Label
	nextLabel, reward, costs, err := p.model.Step(label, a.Label, p.rng)
	if err != nil {
		return 0, 0, nil, false, actionError("step model", label, a.Label, fmt.Errorf("%w: %w", ErrModelSimulation, err))
	}
	if err := checkDims("model", costs, p.dims); err != nil {
		return 0, 0, nil, false, actionError("step model", label, a.Label, err)
	}

	next = -1
	if p.params.CheckRepeatState {
		if index, ok := p.tree.StateIndex(nextLabel); ok {
			next = index
		}
	}
	if next == -1 {
		next = p.tree.InsertStateNode(nextLabel, p.params.CheckRepeatState)
		isNew = true
	}

	costs = slices.Clone(costs)
	a.Transitions = append(a.Transitions, Transition{Next: next, Reward: reward, Costs: costs})
	if !p.params.CheckRepeatState || p.tree.MarkTransition(sa, next) {
		a.Distinct++
	}
	return next, reward, costs, isNew, nil
}

func (p *Planner[S, A]) estimate(state S, depth int) (float64, []float64, error) {
	if p.model.IsTerminal(state) {
		return 0, make([]float64, p.dims), nil
	}
	p.metrics.AddLeafEvaluation()
	value, costs, err := p.strategies.Estimator.Estimate(p.model, state, depth, p.rng)
	if err != nil {
		if fatal(err) {
			return 0, nil, stateError[S, A]("estimate leaf", state, err)
		}
		return 0, nil, stateError[S, A]("estimate leaf", state, fmt.Errorf("%w: %w", ErrEstimation, err))
	}
	if err := checkDims("estimator", costs, p.dims); err != nil {
		return 0, nil, stateError[S, A]("estimate leaf", state, err)
	}
	return value, costs, nil
}

// backup folds one sample into the running means of sa and bumps visits.
func (p *Planner[S, A]) backup(state, sa int, q float64, qc []float64) {
	p.tree.State(state).Visits++
	a := p.tree.Action(sa)
	a.Visits++
	n := float64(a.Visits)
	a.Q += (q - a.Q) / n
	for i := range a.Qc {
		a.Qc[i] += (qc[i] - a.Qc[i]) / n
	}
}
