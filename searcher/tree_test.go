package searcher

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTreeInsert(t *testing.T) {
	t.Run("indices follow insertion order", func(t *testing.T) {
		tree := NewTree[string, int](4)
		require.True(t, tree.IsEmpty(), "Should start empty")

		root := tree.InsertStateNode("root", true)
		other := tree.InsertStateNode("other", true)
		require.Equal(t, 0, root, "Should give the first state index 0")
		require.Equal(t, 1, other, "Should give the second state index 1")

		a := tree.InsertActionNode(root, 7, 0, 0, []float64{0}, true)
		b := tree.InsertActionNode(root, 8, 0, 0, []float64{0}, true)
		require.Equal(t, []int{a, b}, tree.State(root).Children, "Should append children in order")
		require.Equal(t, root, tree.Action(a).Parent, "Should record the parent state")
		require.False(t, tree.IsEmpty(), "Should not be empty once an action exists")
		require.Equal(t, 2, tree.NumStates())
		require.Equal(t, 2, tree.NumActions())
	})

	t.Run("initial visits are added to the parent", func(t *testing.T) {
		tree := NewTree[string, int](4)
		root := tree.InsertStateNode("root", true)
		tree.InsertActionNode(root, 1, 3, 0.5, []float64{0.1}, true)
		tree.InsertActionNode(root, 2, 2, 0.5, []float64{0.1}, true)

		require.Equal(t, 5, tree.State(root).Visits, "Should keep N(s) equal to the sum of children visits")
	})

	t.Run("initial costs are copied", func(t *testing.T) {
		tree := NewTree[string, int](1)
		root := tree.InsertStateNode("root", true)
		qc := []float64{1, 2}
		a := tree.InsertActionNode(root, 1, 0, 0, qc, true)
		qc[0] = 99

		require.Equal(t, []float64{1, 2}, tree.Action(a).Qc, "Should not alias the caller's slice")
	})

	t.Run("out of range index panics", func(t *testing.T) {
		tree := NewTree[string, int](1)
		require.Panics(t, func() { tree.State(0) }, "Should panic on a missing state")
		require.Panics(t, func() { tree.Action(-1) }, "Should panic on a negative action index")
	})
}

func TestTreeLookup(t *testing.T) {
	t.Run("registered labels are found", func(t *testing.T) {
		tree := NewTree[string, int](4)
		root := tree.InsertStateNode("root", true)
		a := tree.InsertActionNode(root, 5, 0, 0, nil, true)

		index, ok := tree.StateIndex("root")
		require.True(t, ok)
		require.Equal(t, root, index)

		index, ok = tree.ActionIndex(root, 5)
		require.True(t, ok)
		require.Equal(t, a, index)
	})

	t.Run("unregistered labels are not found", func(t *testing.T) {
		tree := NewTree[string, int](4)
		root := tree.InsertStateNode("root", false)
		tree.InsertActionNode(root, 5, 0, 0, nil, false)

		_, ok := tree.StateIndex("root")
		require.False(t, ok, "Should skip the lookup map when register is false")
		_, ok = tree.ActionIndex(root, 5)
		require.False(t, ok, "Should skip the lookup map when register is false")
	})

	t.Run("struct labels compare by value", func(t *testing.T) {
		type point struct{ X, Y int }
		tree := NewTree[point, int](2)
		root := tree.InsertStateNode(point{1, 2}, true)

		index, ok := tree.StateIndex(point{1, 2})
		require.True(t, ok, "Should find an equal struct")
		require.Equal(t, root, index)
	})

	t.Run("action labels are scoped to their parent", func(t *testing.T) {
		tree := NewTree[string, int](4)
		s1 := tree.InsertStateNode("s1", true)
		s2 := tree.InsertStateNode("s2", true)
		tree.InsertActionNode(s1, 1, 0, 0, nil, true)

		_, ok := tree.ActionIndex(s2, 1)
		require.False(t, ok, "Should not find s1's action under s2")
	})
}

func TestMarkTransition(t *testing.T) {
	tree := NewTree[string, int](1)
	require.True(t, tree.MarkTransition(0, 3), "Should report the first sighting as new")
	require.False(t, tree.MarkTransition(0, 3), "Should report a repeat as seen")
	require.True(t, tree.MarkTransition(1, 3), "Should key on the action too")
	require.True(t, tree.SeenTransition(0, 3))
	require.False(t, tree.SeenTransition(2, 3), "Should not mark pairs on lookup")
	require.False(t, tree.SeenTransition(2, 3))
}

func TestSnapshot(t *testing.T) {
	tree := NewTree[string, int](4)
	root := tree.InsertStateNode("root", true)
	a := tree.InsertActionNode(root, 1, 1, 0.5, []float64{0.2}, true)
	tree.Action(a).Transitions = append(tree.Action(a).Transitions, Transition{Next: 0, Reward: 1, Costs: []float64{0.2}})

	copied := tree.Snapshot()
	tree.Action(a).Qc[0] = 9
	tree.Action(a).Transitions[0].Costs[0] = 9
	tree.InsertStateNode("later", true)

	require.Equal(t, []float64{0.2}, copied.Action(a).Qc, "Should deep copy cost estimates")
	require.Equal(t, []float64{0.2}, copied.Action(a).Transitions[0].Costs, "Should deep copy transitions")
	require.Equal(t, 1, copied.NumStates(), "Should not see later inserts")
	_, ok := copied.ActionIndex(root, 1)
	require.True(t, ok, "Should copy the lookup maps")
}

func TestStateView(t *testing.T) {
	tree := NewTree[string, int](4)
	root := tree.InsertStateNode("root", true)
	tree.InsertActionNode(root, 3, 2, 0, nil, false)
	tree.InsertActionNode(root, 4, 1, 0, nil, true)

	v := view[string, int]{tree: tree, state: root}
	require.Equal(t, 3, v.Visits())
	require.Equal(t, []int{3, 4}, v.Tried())
	require.True(t, v.Has(3), "Should find unregistered children by scanning")
	require.True(t, v.Has(4))
	require.False(t, v.Has(5))
}
