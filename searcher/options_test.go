package searcher

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestOptions(t *testing.T) {
	params := DefaultParams()
	for _, option := range []Option{
		WithDepth(3),
		WithIterations(50),
		WithDuration(time.Second),
		WithExploration(2),
		WithActionWidening(2, 0.25),
		WithoutStateWidening(),
		WithRepeatChecks(true, false),
		WithDualAscent(0.1, Inverse),
		WithMaxClip(5),
		WithInitialLambda(0.5),
		WithKeepTree(),
		WithTerminalPolicy(SafeAction),
		WithTreeInInfo(),
		WithSearchProgress(),
		WithSeed(42),
	} {
		option(&params)
	}

	require.Equal(t, 3, params.Depth)
	require.Equal(t, 50, params.Iterations)
	require.Equal(t, time.Second, params.MaxTime)
	require.Equal(t, 2.0, params.Exploration)
	require.True(t, params.ActionWidening)
	require.Equal(t, 2.0, params.KAction)
	require.Equal(t, 0.25, params.AlphaAction)
	require.False(t, params.StateWidening)
	require.True(t, params.CheckRepeatState)
	require.False(t, params.CheckRepeatAction)
	require.Equal(t, 0.1, params.Nu)
	require.Equal(t, Inverse, params.Schedule)
	require.Equal(t, []float64{5}, params.MaxClip)
	require.Equal(t, []float64{0.5}, params.InitialLambda)
	require.True(t, params.KeepTree)
	require.Equal(t, SafeAction, params.Terminal)
	require.True(t, params.TreeInInfo)
	require.True(t, params.SearchProgress)
	require.Equal(t, uint64(42), params.Seed)
	require.NoError(t, params.Validate(1))
}

func TestValidate(t *testing.T) {
	t.Run("defaults are valid", func(t *testing.T) {
		require.NoError(t, DefaultParams().Validate(2))
	})

	tests := []struct {
		name   string
		mutate func(p *Params)
		dims   int
	}{
		{"negative depth", func(p *Params) { p.Depth = -1 }, 1},
		{"negative exploration", func(p *Params) { p.Exploration = -0.1 }, 1},
		{"zero widening k", func(p *Params) { p.KAction = 0 }, 1},
		{"alpha above one", func(p *Params) { p.AlphaState = 1.5 }, 1},
		{"negative nu", func(p *Params) { p.Nu = -1 }, 1},
		{"negative clip", func(p *Params) { p.MaxClip = []float64{-1} }, 1},
		{"keep tree without state checks", func(p *Params) { p.KeepTree = true; p.CheckRepeatState = false }, 1},
		{"unknown policy", func(p *Params) { p.Terminal = TerminalPolicy(9) }, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.mutate(&p)
			require.Error(t, p.Validate(tt.dims))
		})
	}

	t.Run("clip length must match the budget", func(t *testing.T) {
		p := DefaultParams()
		p.MaxClip = []float64{1, 2}
		require.ErrorIs(t, p.Validate(3), ErrDimensionMismatch)
	})

	t.Run("initial lambda length must match the budget", func(t *testing.T) {
		p := DefaultParams()
		p.InitialLambda = []float64{1}
		require.ErrorIs(t, p.Validate(2), ErrDimensionMismatch)
	})

	t.Run("disabled widening skips its constants", func(t *testing.T) {
		p := DefaultParams()
		p.ActionWidening = false
		p.KAction = 0
		require.NoError(t, p.Validate(1))
	})

	t.Run("clip may be infinite", func(t *testing.T) {
		p := DefaultParams()
		p.MaxClip = []float64{math.Inf(1)}
		require.NoError(t, p.Validate(1))
	})
}

func TestParseSchedule(t *testing.T) {
	for name, want := range map[string]Schedule{
		"constant":        Constant,
		"scale":           Constant,
		"inverse":         Inverse,
		"scale/iteration": Inverse,
	} {
		got, err := ParseSchedule(name)
		require.NoError(t, err, name)
		require.Equal(t, want, got, name)
	}
	_, err := ParseSchedule("linear")
	require.Error(t, err)
}

func TestParseTerminalPolicy(t *testing.T) {
	for _, policy := range []TerminalPolicy{MaxFeasibleQ, SafeAction, BestCost} {
		got, err := ParseTerminalPolicy(policy.String())
		require.NoError(t, err)
		require.Equal(t, policy, got, "Should round-trip through String")
	}
	got, err := ParseTerminalPolicy("")
	require.NoError(t, err)
	require.Equal(t, MaxFeasibleQ, got, "Should default to max_feasible_q")
	_, err = ParseTerminalPolicy("greedy")
	require.Error(t, err)
}
