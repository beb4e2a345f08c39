package metrics

import (
	"slices"
	"time"
)

// SearchMetric describes one planning call.
type SearchMetric struct {
	Duration        time.Duration
	Iterations      int
	LeafEvaluations int
	Fallbacks       int
	Lambda          []float64
	IsTreeReset     bool
}

// StepMetric describes one closed-loop decision step.
type StepMetric struct {
	Episode  string
	Step     int
	Action   string
	Reward   float64
	Costs    []float64
	Budget   []float64
	Feasible bool
	Fallback bool
	SearchMetric
}

// EpisodeMetric describes one closed-loop episode.
type EpisodeMetric struct {
	ID          string
	Planner     int // PlannerConfig.ID
	StartTime   time.Time
	EndTime     time.Time
	Duration    time.Duration
	Steps       int
	TotalReward float64
	TotalCost   []float64
	Violated    bool
}

// Collector gathers metrics for a single planning call at a time.
type Collector interface {
	Start()
	SetTreeReset(value bool)
	AddIteration()
	AddLeafEvaluation()
	AddFallback()
	SetLambda(lambda []float64)
	Complete() SearchMetric
}

type collector struct {
	startTime       time.Time
	iterations      int
	leafEvaluations int
	fallbacks       int
	lambda          []float64
	isTreeReset     bool
}

func NewCollector() Collector {
	return &collector{}
}

func (m *collector) SetTreeReset(value bool) {
	m.isTreeReset = value
}

// Start begins a new planning call and clears the counters.
func (m *collector) Start() {
	m.startTime = time.Now()
	m.iterations = 0
	m.leafEvaluations = 0
	m.fallbacks = 0
	m.lambda = nil
}

func (m *collector) AddIteration() {
	m.iterations++
}

func (m *collector) AddLeafEvaluation() {
	m.leafEvaluations++
}

func (m *collector) AddFallback() {
	m.fallbacks++
}

func (m *collector) SetLambda(lambda []float64) {
	m.lambda = slices.Clone(lambda)
}

func (m *collector) Complete() SearchMetric {
	return SearchMetric{
		Duration:        time.Since(m.startTime),
		Iterations:      m.iterations,
		LeafEvaluations: m.leafEvaluations,
		Fallbacks:       m.fallbacks,
		Lambda:          slices.Clone(m.lambda),
		IsTreeReset:     m.isTreeReset,
	}
}

type dummyCollector struct{}

func NewDummyCollector() Collector {
	return &dummyCollector{}
}

func (m *dummyCollector) Start()                 {}
func (m *dummyCollector) SetTreeReset(bool)      {}
func (m *dummyCollector) AddIteration()          {}
func (m *dummyCollector) AddLeafEvaluation()     {}
func (m *dummyCollector) AddFallback()           {}
func (m *dummyCollector) SetLambda([]float64)    {}
func (m *dummyCollector) Complete() SearchMetric { return SearchMetric{} }
