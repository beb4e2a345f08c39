package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// promCollector mirrors the in-memory collector into Prometheus series.
type promCollector struct {
	inner      Collector
	iterations prometheus.Counter
	leaves     prometheus.Counter
	fallbacks  prometheus.Counter
	resets     prometheus.Counter
	duration   prometheus.Histogram
	lambda     *prometheus.GaugeVec
}

// NewPrometheusCollector registers the search series on reg, labelled with
// the planner name. Registering the same planner name twice on one registry
// panics, as promauto does.
func NewPrometheusCollector(reg prometheus.Registerer, planner string) Collector {
	factory := promauto.With(reg)
	labels := prometheus.Labels{"planner": planner}
	return &promCollector{
		inner: NewCollector(),
		iterations: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   "cmcts",
			Subsystem:   "search",
			Name:        "iterations_total",
			Help:        "Total completed search iterations",
			ConstLabels: labels,
		}),
		leaves: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   "cmcts",
			Subsystem:   "search",
			Name:        "leaf_evaluations_total",
			Help:        "Total leaf estimator calls",
			ConstLabels: labels,
		}),
		fallbacks: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   "cmcts",
			Subsystem:   "search",
			Name:        "fallbacks_total",
			Help:        "Total planning calls resolved by the default action",
			ConstLabels: labels,
		}),
		resets: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   "cmcts",
			Subsystem:   "search",
			Name:        "tree_resets_total",
			Help:        "Total planning calls that started from an empty tree",
			ConstLabels: labels,
		}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   "cmcts",
			Subsystem:   "search",
			Name:        "duration_seconds",
			Help:        "Planning call latency in seconds",
			Buckets:     []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			ConstLabels: labels,
		}),
		lambda: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   "cmcts",
			Subsystem:   "search",
			Name:        "lambda",
			Help:        "Current Lagrange multiplier per cost dimension",
			ConstLabels: labels,
		}, []string{"dim"}),
	}
}

func (m *promCollector) Start() {
	m.inner.Start()
}

func (m *promCollector) SetTreeReset(value bool) {
	m.inner.SetTreeReset(value)
	if value {
		m.resets.Inc()
	}
}

func (m *promCollector) AddIteration() {
	m.inner.AddIteration()
	m.iterations.Inc()
}

func (m *promCollector) AddLeafEvaluation() {
	m.inner.AddLeafEvaluation()
	m.leaves.Inc()
}

func (m *promCollector) AddFallback() {
	m.inner.AddFallback()
	m.fallbacks.Inc()
}

func (m *promCollector) SetLambda(lambda []float64) {
	m.inner.SetLambda(lambda)
	for i, v := range lambda {
		m.lambda.WithLabelValues(strconv.Itoa(i)).Set(v)
	}
}

func (m *promCollector) Complete() SearchMetric {
	metric := m.inner.Complete()
	m.duration.Observe(metric.Duration.Seconds())
	return metric
}
