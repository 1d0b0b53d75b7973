package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/freeeve/haggle/internal/analytics"
	"github.com/freeeve/haggle/internal/arena"
)

var matchFlags struct {
	games     int
	workers   int
	seed      int64
	rounds    int
	opponent  string
	uncertain bool
	ranked    int
	cost      float64
	issues    int
	values    int
}

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Run self-play sessions against a baseline opponent",
	RunE:  runMatch,
}

func init() {
	f := matchCmd.Flags()
	f.IntVarP(&matchFlags.games, "games", "n", 1, "number of sessions to run")
	f.IntVar(&matchFlags.workers, "workers", 1, "sessions played in parallel")
	f.Int64Var(&matchFlags.seed, "seed", 0, "base seed (0 = config seed)")
	f.IntVar(&matchFlags.rounds, "rounds", 180, "deadline in rounds")
	f.StringVar(&matchFlags.opponent, "opponent", arena.KindRandom, "opponent: "+strings.Join(arena.Kinds(), ", "))
	f.BoolVar(&matchFlags.uncertain, "uncertain", false, "agent starts from a partial preference ranking")
	f.IntVar(&matchFlags.ranked, "ranked", 10, "bids in the partial ranking")
	f.Float64Var(&matchFlags.cost, "cost", 0.001, "elicitation cost per query")
	f.IntVar(&matchFlags.issues, "issues", 4, "issues in a generated scenario")
	f.IntVar(&matchFlags.values, "values", 5, "values per issue in a generated scenario")
}

func runMatch(cmd *cobra.Command, _ []string) error {
	seed := matchFlags.seed
	if seed == 0 {
		seed = cfg.Seed
	}
	sc, err := loadScenario(seed, matchFlags.issues, matchFlags.values)
	if err != nil {
		return err
	}

	sink, err := openSink()
	if err != nil {
		return err
	}
	defer sink.Close()

	ctx, cancel := signalContext()
	defer cancel()

	l := log.Logger
	batch := arena.RunBatch(ctx, arena.BatchConfig{
		Session: arena.SessionConfig{
			Scenario:  sc,
			Opponent:  matchFlags.opponent,
			Rounds:    matchFlags.rounds,
			Hyper:     cfg.Hyperparameters,
			Uncertain: matchFlags.uncertain,
			Ranked:    matchFlags.ranked,
			Cost:      matchFlags.cost,
			Sink:      sink,
			Logger:    &l,
		},
		Games:   matchFlags.games,
		Workers: matchFlags.workers,
		Seed:    seed,
	})

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Results []*arena.Result `json:"results"`
			Summary arena.Summary   `json:"summary"`
		}{batch.Results, batch.Summarize()})
	}
	printSummary(batch)
	return nil
}

// openSink logs records at debug level and also streams them to Redis
// when a Redis URL is configured.
func openSink() (analytics.Sink, error) {
	logSink := analytics.NewLogSink(log.Logger)
	if cfg.RedisURL == "" {
		return logSink, nil
	}
	rs, err := analytics.NewRedisSink(cfg.RedisURL, cfg.AnalyticsStream)
	if err != nil {
		return nil, err
	}
	log.Info().Str("stream", cfg.AnalyticsStream).Msg("Streaming analytics to Redis")
	return analytics.Multi(logSink, rs), nil
}

func printSummary(b *arena.Batch) {
	s := b.Summarize()
	fmt.Printf("\nResults (%d sessions vs %s):\n", s.Games-s.Errors, matchFlags.opponent)
	if s.Errors > 0 {
		fmt.Printf("  (%d sessions failed)\n", s.Errors)
	}
	fmt.Printf("  agreements  %d\n", s.Agreements)
	fmt.Printf("  withdrawals %d\n", s.Withdrawals)
	fmt.Printf("  deadlines   %d\n", s.Deadlines)
	fmt.Printf("  mean utility   agent %s  opponent %s\n", s.AgentUtility, s.OpponentUtility)
	fmt.Printf("  mean nash      %s\n", s.NashProduct)
	fmt.Printf("  mean rounds    %s\n", s.Rounds)
	if matchFlags.uncertain {
		fmt.Printf("  queries        %d\n", s.Queries)
	}
}
