package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestCollector(t *testing.T) {
	t.Run("counts one planning call", func(t *testing.T) {
		c := NewCollector()
		c.SetTreeReset(true)
		c.Start()
		c.AddIteration()
		c.AddIteration()
		c.AddLeafEvaluation()
		c.AddFallback()
		lambda := []float64{0.5}
		c.SetLambda(lambda)
		lambda[0] = 9

		m := c.Complete()
		require.Equal(t, 2, m.Iterations)
		require.Equal(t, 1, m.LeafEvaluations)
		require.Equal(t, 1, m.Fallbacks)
		require.Equal(t, []float64{0.5}, m.Lambda, "Should copy lambda")
		require.True(t, m.IsTreeReset)
		require.GreaterOrEqual(t, m.Duration, time.Duration(0))
	})

	t.Run("start clears the counters", func(t *testing.T) {
		c := NewCollector()
		c.Start()
		c.AddIteration()
		c.Start()
		require.Equal(t, 0, c.Complete().Iterations)
	})

	t.Run("dummy collector reports nothing", func(t *testing.T) {
		c := NewDummyCollector()
		c.Start()
		c.AddIteration()
		require.Equal(t, SearchMetric{}, c.Complete())
	})
}

func TestPrometheusCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewPrometheusCollector(reg, "lane")

	c.SetTreeReset(true)
	c.Start()
	c.AddIteration()
	c.AddIteration()
	c.AddIteration()
	c.AddLeafEvaluation()
	c.AddFallback()
	c.SetLambda([]float64{0.25, 1.5})
	m := c.Complete()

	require.Equal(t, 3, m.Iterations, "Should still report the in-memory metric")

	p := c.(*promCollector)
	require.Equal(t, 3.0, testutil.ToFloat64(p.iterations))
	require.Equal(t, 1.0, testutil.ToFloat64(p.leaves))
	require.Equal(t, 1.0, testutil.ToFloat64(p.fallbacks))
	require.Equal(t, 1.0, testutil.ToFloat64(p.resets))
	require.Equal(t, 0.25, testutil.ToFloat64(p.lambda.WithLabelValues("0")))
	require.Equal(t, 1.5, testutil.ToFloat64(p.lambda.WithLabelValues("1")))

	count, err := testutil.GatherAndCount(reg, "cmcts_search_duration_seconds")
	require.NoError(t, err)
	require.Equal(t, 1, count)

	require.Panics(t, func() { NewPrometheusCollector(reg, "lane") }, "Should refuse duplicate registration")
	require.NotPanics(t, func() { NewPrometheusCollector(reg, "bandit") })
}
