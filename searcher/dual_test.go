package searcher

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestControllerUpdate(t *testing.T) {
	t.Run("constant step", func(t *testing.T) {
		p := DefaultParams()
		p.Nu = 0.5
		c := newController([]float64{1.0}, p)

		c.update([]float64{3.0})
		require.InDelta(t, 1.0, c.lambda[0], 1e-12, "Should move by nu times the excess")
		c.update([]float64{3.0})
		require.InDelta(t, 2.0, c.lambda[0], 1e-12)
		require.Equal(t, []float64{3.0}, c.realized)
	})

	t.Run("inverse step", func(t *testing.T) {
		p := DefaultParams()
		p.Nu = 1.0
		p.Schedule = Inverse
		c := newController([]float64{0.0}, p)

		c.update([]float64{1.0})
		c.update([]float64{1.0})
		c.update([]float64{1.0})
		require.InDelta(t, 1.0+0.5+1.0/3, c.lambda[0], 1e-12, "Should scale the step by 1/t")
	})

	t.Run("lambda never goes negative", func(t *testing.T) {
		p := DefaultParams()
		p.Nu = 10
		c := newController([]float64{5.0}, p)
		c.update([]float64{0.0})
		require.Equal(t, 0.0, c.lambda[0])
	})

	t.Run("lambda is clipped per dimension", func(t *testing.T) {
		p := DefaultParams()
		p.Nu = 10
		p.MaxClip = []float64{0.5, math.Inf(1)}
		c := newController([]float64{0, 0}, p)
		c.update([]float64{1, 1})
		require.Equal(t, []float64{0.5, 10}, c.lambda)
	})

	t.Run("scalar clip is broadcast", func(t *testing.T) {
		p := DefaultParams()
		p.Nu = 10
		p.MaxClip = []float64{2}
		c := newController([]float64{0, 0, 0}, p)
		c.update([]float64{1, 1, 1})
		require.Equal(t, []float64{2, 2, 2}, c.lambda)
	})
}

func TestControllerReset(t *testing.T) {
	p := DefaultParams()
	p.Nu = 1
	p.Schedule = Inverse
	p.InitialLambda = []float64{0.25}
	c := newController([]float64{1.0}, p)
	require.Equal(t, []float64{0.25}, c.lambda, "Should start from the initial lambda")

	c.update([]float64{2})
	c.consume([]float64{0.5}, 1)
	c.reset()

	require.Equal(t, []float64{0.25}, c.lambda)
	require.Equal(t, []float64{1.0}, c.budget)
	require.Equal(t, []float64{0}, c.realized)
	require.Equal(t, 0, c.steps, "Should restart the inverse schedule")
}

func TestControllerConsume(t *testing.T) {
	c := newController([]float64{1.0, 2.0}, DefaultParams())
	c.consume([]float64{0.5, 0.0}, 0.5)
	require.InDeltaSlice(t, []float64{1.0, 4.0}, c.budget, 1e-12, "Should charge costs and rescale by the discount")
}
