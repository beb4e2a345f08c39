package searcher

import "math"

// ucb scores children of one state node:
// q + c*sqrt(ln(N)/n) - λ·qc
type ucb struct {
	c      float64
	logN   float64
	lambda []float64
}

func newUCB(c float64, N int, lambda []float64) ucb {
	logN := 0.0
	if N > 0 {
		logN = math.Log(float64(N))
	}
	return ucb{c: c, logN: logN, lambda: lambda}
}

func (u ucb) evaluate(q float64, qc []float64, n int) float64 {
	if n == 0 {
		return math.Inf(1)
	}
	return q + u.c*math.Sqrt(u.logN/float64(n)) - dot(u.lambda, qc)
}

// selectChild returns the child index with the highest score, preferring the
// lowest index on ties.
func (t *Tree[S, A]) selectChild(state int, score ucb) int {
	best := -1
	bestScore := math.Inf(-1)
	for _, child := range t.State(state).Children {
		a := t.Action(child)
		s := score.evaluate(a.Q, a.Qc, a.Visits)
		if best == -1 || s > bestScore {
			best = child
			bestScore = s
		}
	}
	return best
}

// greedyChild is selectChild without the exploration bonus. It restricts
// itself to visited children when there are any.
func (t *Tree[S, A]) greedyChild(state int, lambda []float64) int {
	best := -1
	bestScore := math.Inf(-1)
	for _, child := range candidates(t, state) {
		a := t.Action(child)
		s := a.Q - dot(lambda, a.Qc)
		if best == -1 || s > bestScore {
			best = child
			bestScore = s
		}
	}
	return best
}

// chooseAction applies the terminal policy to the root's children. feasible
// reports whether the chosen action's cost estimate is within budget.
func (t *Tree[S, A]) chooseAction(root int, budget []float64, policy TerminalPolicy) (index int, feasible bool) {
	children := candidates(t, root)
	if len(children) == 0 {
		return -1, false
	}

	if policy == BestCost {
		best, bestCost := -1, math.Inf(1)
		for _, child := range children {
			if c := sum(t.Action(child).Qc); best == -1 || c < bestCost {
				best, bestCost = child, c
			}
		}
		return best, within(t.Action(best).Qc, budget)
	}

	best, bestQ := -1, math.Inf(-1)
	for _, child := range children {
		a := t.Action(child)
		if within(a.Qc, budget) && (best == -1 || a.Q > bestQ) {
			best, bestQ = child, a.Q
		}
	}
	if best != -1 {
		return best, true
	}

	if policy == SafeAction {
		least := math.Inf(1)
		for _, child := range children {
			if v := violation(t.Action(child).Qc, budget); best == -1 || v < least {
				best, least = child, v
			}
		}
		return best, false
	}

	// Best effort when nothing is feasible.
	for _, child := range children {
		if q := t.Action(child).Q; best == -1 || q > bestQ {
			best, bestQ = child, q
		}
	}
	return best, false
}

// candidates returns the visited children of state, or all of them when none
// has been visited.
func candidates[S, A comparable](t *Tree[S, A], state int) []int {
	children := t.State(state).Children
	visited := make([]int, 0, len(children))
	for _, child := range children {
		if t.Action(child).Visits > 0 {
			visited = append(visited, child)
		}
	}
	if len(visited) == 0 {
		return children
	}
	return visited
}

func dot(a, b []float64) float64 {
	total := 0.0
	for i := range a {
		total += a[i] * b[i]
	}
	return total
}

func sum(v []float64) float64 {
	total := 0.0
	for _, x := range v {
		total += x
	}
	return total
}

func within(costs, budget []float64) bool {
	for i := range costs {
		if costs[i] > budget[i] {
			return false
		}
	}
	return true
}

// violation is the worst excess of costs over budget across dimensions.
func violation(costs, budget []float64) float64 {
	worst := math.Inf(-1)
	for i := range costs {
		worst = math.Max(worst, costs[i]-budget[i])
	}
	return worst
}
