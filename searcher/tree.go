package searcher

import (
	"fmt"
	"slices"
)

// Transition is one sampled outcome of a state-action node.
type Transition struct {
	Next   int
	Reward float64
	Costs  []float64
}

type StateNode[S comparable] struct {
	Label    S
	Visits   int
	Children []int
}

type ActionNode[A comparable] struct {
	Parent      int
	Label       A
	Visits      int
	Q           float64
	Qc          []float64
	Transitions []Transition
	// Distinct counts successors that count towards state widening.
	Distinct int
}

type actionKey[A comparable] struct {
	state  int
	action A
}

type transitionKey struct {
	action int
	next   int
}

// Tree is an append-only arena of state nodes and state-action nodes.
// Indices are assigned in insertion order and stay valid for the lifetime of
// the tree.
type Tree[S, A comparable] struct {
	states      []*StateNode[S]
	actions     []*ActionNode[A]
	stateIndex  map[S]int
	actionIndex map[actionKey[A]]int
	seen        map[transitionKey]struct{}
}

func NewTree[S, A comparable](sizeHint int) *Tree[S, A] {
	return &Tree[S, A]{
		states:      make([]*StateNode[S], 0, sizeHint),
		actions:     make([]*ActionNode[A], 0, sizeHint),
		stateIndex:  make(map[S]int, sizeHint),
		actionIndex: make(map[actionKey[A]]int, sizeHint),
		seen:        make(map[transitionKey]struct{}),
	}
}

// InsertStateNode appends a state node. A registered label overwrites any
// earlier registration, so callers that want deduplication check StateIndex
// first.
func (t *Tree[S, A]) InsertStateNode(label S, register bool) int {
	index := len(t.states)
	t.states = append(t.states, &StateNode[S]{Label: label})
	if register {
		t.stateIndex[label] = index
	}
	return index
}

// InsertActionNode appends a state-action node under state with the given
// initial statistics. n0 is also added to the parent's visit count so that
// N(s) stays equal to the sum of its children's visits.
func (t *Tree[S, A]) InsertActionNode(state int, label A, n0 int, q0 float64, qc0 []float64, register bool) int {
	parent := t.State(state)
	index := len(t.actions)
	t.actions = append(t.actions, &ActionNode[A]{
		Parent: state,
		Label:  label,
		Visits: n0,
		Q:      q0,
		Qc:     slices.Clone(qc0),
	})
	parent.Children = append(parent.Children, index)
	parent.Visits += n0
	if register {
		t.actionIndex[actionKey[A]{state: state, action: label}] = index
	}
	return index
}

func (t *Tree[S, A]) IsEmpty() bool {
	return len(t.actions) == 0
}

func (t *Tree[S, A]) NumStates() int  { return len(t.states) }
func (t *Tree[S, A]) NumActions() int { return len(t.actions) }

func (t *Tree[S, A]) State(index int) *StateNode[S] {
	if index < 0 || index >= len(t.states) {
		panic(fmt.Sprintf("state index %d out of range [0, %d)", index, len(t.states)))
	}
	return t.states[index]
}

func (t *Tree[S, A]) Action(index int) *ActionNode[A] {
	if index < 0 || index >= len(t.actions) {
		panic(fmt.Sprintf("action index %d out of range [0, %d)", index, len(t.actions)))
	}
	return t.actions[index]
}

func (t *Tree[S, A]) StateIndex(label S) (int, bool) {
	index, ok := t.stateIndex[label]
	return index, ok
}

func (t *Tree[S, A]) ActionIndex(state int, label A) (int, bool) {
	index, ok := t.actionIndex[actionKey[A]{state: state, action: label}]
	return index, ok
}

// SeenTransition reports whether the (action, next) pair was recorded.
func (t *Tree[S, A]) SeenTransition(action, next int) bool {
	_, ok := t.seen[transitionKey{action: action, next: next}]
	return ok
}

// MarkTransition records the (action, next) pair and reports whether it is
// new.
func (t *Tree[S, A]) MarkTransition(action, next int) bool {
	key := transitionKey{action: action, next: next}
	if _, ok := t.seen[key]; ok {
		return false
	}
	t.seen[key] = struct{}{}
	return true
}

// Snapshot returns a deep copy of the tree for diagnostics.
func (t *Tree[S, A]) Snapshot() *Tree[S, A] {
	c := &Tree[S, A]{
		states:      make([]*StateNode[S], len(t.states)),
		actions:     make([]*ActionNode[A], len(t.actions)),
		stateIndex:  make(map[S]int, len(t.stateIndex)),
		actionIndex: make(map[actionKey[A]]int, len(t.actionIndex)),
		seen:        make(map[transitionKey]struct{}, len(t.seen)),
	}
	for i, s := range t.states {
		c.states[i] = &StateNode[S]{Label: s.Label, Visits: s.Visits, Children: slices.Clone(s.Children)}
	}
	for i, a := range t.actions {
		transitions := make([]Transition, len(a.Transitions))
		for j, tr := range a.Transitions {
			transitions[j] = Transition{Next: tr.Next, Reward: tr.Reward, Costs: slices.Clone(tr.Costs)}
		}
		c.actions[i] = &ActionNode[A]{
			Parent:      a.Parent,
			Label:       a.Label,
			Visits:      a.Visits,
			Q:           a.Q,
			Qc:          slices.Clone(a.Qc),
			Transitions: transitions,
			Distinct:    a.Distinct,
		}
	}
	for k, v := range t.stateIndex {
		c.stateIndex[k] = v
	}
	for k, v := range t.actionIndex {
		c.actionIndex[k] = v
	}
	for k := range t.seen {
		c.seen[k] = struct{}{}
	}
	return c
}

// view exposes a state node to action generators without handing out the
// tree itself.
type view[S, A comparable] struct {
	tree  *Tree[S, A]
	state int
}

func (v view[S, A]) Visits() int {
	return v.tree.State(v.state).Visits
}

func (v view[S, A]) Tried() []A {
	children := v.tree.State(v.state).Children
	tried := make([]A, len(children))
	for i, child := range children {
		tried[i] = v.tree.Action(child).Label
	}
	return tried
}

func (v view[S, A]) Has(action A) bool {
	if _, ok := v.tree.ActionIndex(v.state, action); ok {
		return true
	}
	for _, child := range v.tree.State(v.state).Children {
		if v.tree.Action(child).Label == action {
			return true
		}
	}
	return false
}
