package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"cmcts/engine"
	"cmcts/experiments"
	"cmcts/experiments/metrics"
	"cmcts/problem"
	"cmcts/searcher"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func init() {
	runCmd.Flags().String("problem", "", "Problem to plan on (lane, bandit)")
	runCmd.Flags().Uint64("seed", 0, "Planner seed")
	runCmd.Flags().Int("episodes", 0, "Number of episodes")
	runCmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address while running")
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run closed-loop episodes",
	Long:  "Plan and act on the configured problem for a number of episodes and log a summary",
	Example: `
# Run three lane episodes with a config file
cmcts run --config planner.yaml --episodes 3

# Plan on the two-arm bandit and expose metrics
cmcts run --problem bandit --metrics-addr :9090
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("problem") {
			cfg.Run.Problem, _ = cmd.Flags().GetString("problem")
		}
		if cmd.Flags().Changed("seed") {
			cfg.Search.Seed, _ = cmd.Flags().GetUint64("seed")
		}
		if cmd.Flags().Changed("episodes") {
			cfg.Run.Episodes, _ = cmd.Flags().GetInt("episodes")
		}
		if cmd.Flags().Changed("metrics-addr") {
			cfg.Diagnostics.MetricsAddr, _ = cmd.Flags().GetString("metrics-addr")
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid flags: %w", err)
		}

		collector := metrics.NewCollector()
		if cfg.Diagnostics.MetricsAddr != "" {
			reg := prometheus.NewRegistry()
			collector = metrics.NewPrometheusCollector(reg, cfg.Run.Problem)
			stop := serveMetrics(cfg.Diagnostics.MetricsAddr, reg)
			defer stop()
		}

		ctx := cmd.Context()
		var summary runSummary
		var err error
		switch cfg.Run.Problem {
		case "bandit":
			bandit := problem.NewTwoArmBandit()
			summary, err = playEpisodes(ctx, bandit, problem.Start, func(seed uint64) (engine.Agent[problem.BanditState, string], error) {
				return experiments.NewBanditPlanner(cfg, bandit, searcher.WithSeed(seed), searcher.WithMetrics(collector), searcher.WithLogger(log.Logger))
			})
		default:
			lane := problem.DefaultLane()
			summary, err = playEpisodes(ctx, lane, lane.StartState(), func(seed uint64) (engine.Agent[problem.LaneState, float64], error) {
				return experiments.NewLanePlanner(cfg, lane, searcher.WithSeed(seed), searcher.WithMetrics(collector), searcher.WithLogger(log.Logger))
			})
		}
		if err != nil {
			return err
		}

		log.Info().
			Str("problem", cfg.Run.Problem).
			Int("episodes", summary.episodes).
			Float64("mean_reward", summary.meanReward()).
			Int("violations", summary.violations).
			Int("steps", summary.steps).
			Bool("time_limited", cfg.Search.HasTimeLimit()).
			Msg("run complete")
		return nil
	},
}

type runSummary struct {
	episodes    int
	steps       int
	violations  int
	totalReward float64
}

func (s runSummary) meanReward() float64 {
	if s.episodes == 0 {
		return 0
	}
	return s.totalReward / float64(s.episodes)
}

// playEpisodes builds a fresh agent per episode so every episode starts from
// the initial budget.
func playEpisodes[S, A comparable](ctx context.Context, env searcher.Model[S, A], start S, newAgent func(seed uint64) (engine.Agent[S, A], error)) (runSummary, error) {
	var summary runSummary
	for i := 0; i < cfg.Run.Episodes; i++ {
		agent, err := newAgent(cfg.Search.Seed + uint64(i))
		if err != nil {
			return summary, err
		}
		e := engine.New[S, A](agent, env,
			engine.WithSeed(cfg.Run.Seed+uint64(i)),
			engine.WithMaxSteps(cfg.Run.MaxSteps),
			engine.WithLogger(log.Logger),
		)
		episode, _, err := e.Run(ctx, start)
		if err != nil {
			return summary, fmt.Errorf("episode %d: %w", i+1, err)
		}
		summary.episodes++
		summary.steps += episode.Steps
		summary.totalReward += episode.TotalReward
		if episode.Violated {
			summary.violations++
		}
	}
	return summary, nil
}

// serveMetrics exposes reg on addr until the returned stop function is
// called.
func serveMetrics(addr string, reg *prometheus.Registry) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		log.Info().Str("addr", addr).Msg("serving metrics")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	}
}
