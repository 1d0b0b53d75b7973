package arena

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/freeeve/haggle/pkg/negotiation"
)

// BatchConfig runs Games sessions of Session with at most Workers in
// flight. Session i is seeded Seed+i when Seed is non-zero.
type BatchConfig struct {
	Session SessionConfig
	Games   int
	Workers int
	Seed    int64
}

// Batch holds the results of a batch in session order. Failed sessions
// leave a nil entry.
type Batch struct {
	Results []*Result
	Errors  int
}

// RunBatch plays a batch of sessions concurrently.
func RunBatch(ctx context.Context, cfg BatchConfig) *Batch {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	log := cfg.Session.Logger
	b := &Batch{Results: make([]*Result, cfg.Games)}
	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, cfg.Workers)

	for i := 0; i < cfg.Games; i++ {
		wg.Add(1)
		sem <- struct{}{}

		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()

			sc := cfg.Session
			if cfg.Seed != 0 {
				sc.Seed = cfg.Seed + int64(idx)
			}
			result, err := RunSession(ctx, sc)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if log != nil {
					log.Error().Err(err).Int("game", idx+1).Msg("Session failed")
				}
				b.Errors++
				return
			}
			b.Results[idx] = result
		}(i)
	}

	wg.Wait()
	return b
}

// Summary aggregates a batch.
type Summary struct {
	Games           int             `json:"games"`
	Errors          int             `json:"errors"`
	Agreements      int             `json:"agreements"`
	Withdrawals     int             `json:"withdrawals"`
	Deadlines       int             `json:"deadlines"`
	AgentUtility    decimal.Decimal `json:"mean_agent_utility"`
	OpponentUtility decimal.Decimal `json:"mean_opponent_utility"`
	NashProduct     decimal.Decimal `json:"mean_nash_product"`
	Rounds          decimal.Decimal `json:"mean_rounds"`
	Queries         int             `json:"queries,omitempty"`
}

// Summarize averages the completed sessions of a batch.
func (b *Batch) Summarize() Summary {
	s := Summary{Games: len(b.Results), Errors: b.Errors}
	var ua, uo, nash decimal.Decimal
	rounds, done := 0, 0
	for _, r := range b.Results {
		if r == nil {
			continue
		}
		done++
		switch r.Outcome {
		case OutcomeAgreement:
			s.Agreements++
		case OutcomeWithdrawn:
			s.Withdrawals++
		default:
			s.Deadlines++
		}
		ua = ua.Add(r.AgentUtility)
		uo = uo.Add(r.OpponentUtility)
		nash = nash.Add(r.NashProduct)
		rounds += r.Rounds
		s.Queries += r.Queries
	}
	if done == 0 {
		return s
	}
	n := decimal.NewFromInt(int64(done))
	s.AgentUtility = mean(ua, n)
	s.OpponentUtility = mean(uo, n)
	s.NashProduct = mean(nash, n)
	s.Rounds = mean(decimal.NewFromInt(int64(rounds)), n)
	return s
}

func mean(sum, n decimal.Decimal) decimal.Decimal {
	f, _ := sum.Div(n).Float64()
	return negotiation.Significant(f, negotiation.ReportDigits)
}
