// Package arena plays self-play negotiation sessions between the agent and
// baseline parties on a scenario, alternating turns under a round clock.
package arena

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/freeeve/haggle/internal/agent"
	"github.com/freeeve/haggle/internal/analytics"
	"github.com/freeeve/haggle/internal/config"
	"github.com/freeeve/haggle/pkg/negotiation"
)

// Outcomes of a session.
const (
	OutcomeAgreement = "agreement"
	OutcomeWithdrawn = "withdrawn"
	OutcomeDeadline  = "deadline"
)

// ErrProtocol reports a party action the host cannot apply.
var ErrProtocol = errors.New("arena: protocol violation")

// SessionConfig configures a single agent-vs-opponent session.
type SessionConfig struct {
	Scenario  *negotiation.Scenario
	Opponent  string // hardliner, random or agent
	Rounds    int    // deadline in exchanges
	Seed      int64  // 0 = random
	Hyper     config.Hyperparameters
	Uncertain bool    // agent negotiates from a partial ranking
	Ranked    int     // bids in the partial ranking
	Cost      float64 // elicitation cost per query
	Sink      analytics.Sink
	Logger    *zerolog.Logger
}

func (c *SessionConfig) fill() {
	if c.Opponent == "" {
		c.Opponent = KindRandom
	}
	if c.Rounds <= 0 {
		c.Rounds = 180
	}
	if c.Seed == 0 {
		c.Seed = time.Now().UnixNano()
	}
	if c.Hyper == (config.Hyperparameters{}) {
		c.Hyper = config.DefaultHyperparameters()
	}
	if c.Ranked <= 0 {
		c.Ranked = 10
	}
	if c.Sink == nil {
		c.Sink = analytics.Discard
	}
	if c.Logger == nil {
		nop := zerolog.Nop()
		c.Logger = &nop
	}
}

// Result describes the outcome of a completed session. Utilities are
// rounded to four significant digits.
type Result struct {
	SessionID       string           `json:"session_id"`
	Opponent        string           `json:"opponent"`
	Outcome         string           `json:"outcome"`
	EndedBy         string           `json:"ended_by,omitempty"`
	Agreement       *negotiation.Bid `json:"-"`
	AgreementText   string           `json:"agreement,omitempty"`
	Rounds          int              `json:"rounds"`
	AgentUtility    decimal.Decimal  `json:"agent_utility"`
	OpponentUtility decimal.Decimal  `json:"opponent_utility"`
	NashProduct     decimal.Decimal  `json:"nash_product"`
	Queries         int              `json:"queries,omitempty"`
}

// RunSession plays one session. The agent is always the first party to
// move and is scored with its true profile, even when it negotiates from
// an estimated one.
func RunSession(ctx context.Context, cfg SessionConfig) (*Result, error) {
	cfg.fill()
	sc := cfg.Scenario
	if sc == nil {
		return nil, errors.New("arena: no scenario")
	}
	id := uuid.NewString()
	log := cfg.Logger.With().Str("sessionId", id).Logger()
	rng := rand.New(rand.NewSource(cfg.Seed))
	clock := negotiation.NewRoundClock(cfg.Rounds)

	var user *negotiation.SimulatedUser
	opts := agent.Options{
		Name:      sc.Names[0],
		SessionID: id,
		Hyper:     cfg.Hyper,
		Rand:      rand.New(rand.NewSource(rng.Int63())),
		Logger:    &log,
		Sink:      cfg.Sink,
	}
	var self negotiation.Party
	if cfg.Uncertain {
		ranking, err := PartialRanking(rng, sc, cfg.Ranked)
		if err != nil {
			return nil, err
		}
		user = negotiation.NewSimulatedUser(sc.Profiles[0], cfg.Cost)
		a, err := agent.NewUncertain(sc.Domain, user, ranking, sc.Profiles[0].ReservationValue(), clock, opts)
		if err != nil {
			return nil, err
		}
		self = a
	} else {
		a, err := agent.New(sc.Domain, sc.Profiles[0], clock, opts)
		if err != nil {
			return nil, err
		}
		self = a
	}

	opp, err := NewOpponent(cfg.Opponent, sc, clock, rand.New(rand.NewSource(rng.Int63())), cfg.Hyper, &log)
	if err != nil {
		return nil, err
	}

	result, err := play(ctx, [2]negotiation.Party{self, opp}, clock, log)
	if err != nil {
		return nil, err
	}
	result.SessionID = id
	result.Opponent = cfg.Opponent
	if user != nil {
		result.Queries = user.Queries()
	}
	score(result, sc)

	log.Info().Str("outcome", result.Outcome).Str("endedBy", result.EndedBy).Int("rounds", result.Rounds).
		Str("agent", result.AgentUtility.String()).Str("opponent", result.OpponentUtility.String()).
		Msg("Arena session finished")
	return result, nil
}

// NewOpponent builds the counterpart party for kind using the scenario's
// second profile.
func NewOpponent(kind string, sc *negotiation.Scenario, clock negotiation.Clock, rng *rand.Rand, hp config.Hyperparameters, log *zerolog.Logger) (negotiation.Party, error) {
	name := sc.Names[1]
	switch kind {
	case KindHardliner:
		return NewHardliner(name, sc.Profiles[1])
	case KindRandom:
		return NewRandomParty(name, sc.Domain, sc.Profiles[1], clock, rng), nil
	case KindAgent:
		return agent.New(sc.Domain, sc.Profiles[1], clock, agent.Options{Name: name, Hyper: hp, Rand: rng, Logger: log})
	default:
		return nil, fmt.Errorf("arena: unknown opponent %q", kind)
	}
}

// play alternates turns until a party accepts or withdraws, or the clock
// expires. One round is one turn of each party.
func play(ctx context.Context, parties [2]negotiation.Party, clock *negotiation.RoundClock, log zerolog.Logger) (*Result, error) {
	var offers [2]*negotiation.Bid
	for !clock.Expired() {
		for i, p := range parties {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			act := p.ChooseAction()
			switch act.Type {
			case negotiation.ActionOffer:
				if act.Bid == nil {
					return nil, fmt.Errorf("%w: %s offered no bid", ErrProtocol, p.Name())
				}
				offers[i] = act.Bid
				if err := parties[1-i].ReceiveOffer(act.Bid); err != nil {
					return nil, fmt.Errorf("deliver offer to %s: %w", parties[1-i].Name(), err)
				}
			case negotiation.ActionAccept:
				if offers[1-i] == nil {
					return nil, fmt.Errorf("%w: %s accepted before any offer", ErrProtocol, p.Name())
				}
				return &Result{Outcome: OutcomeAgreement, EndedBy: p.Name(), Agreement: offers[1-i], Rounds: clock.Round() + 1}, nil
			case negotiation.ActionWithdraw:
				return &Result{Outcome: OutcomeWithdrawn, EndedBy: p.Name(), Rounds: clock.Round() + 1}, nil
			}
			log.Debug().Str("party", p.Name()).Str("action", act.String()).Int("round", clock.Round()).Msg("Turn played")
		}
		clock.Advance()
	}
	return &Result{Outcome: OutcomeDeadline, Rounds: clock.Round()}, nil
}

// score fills in utilities and the Nash product. Without agreement each
// party gets its reservation value and the Nash product is zero.
func score(r *Result, sc *negotiation.Scenario) {
	a, b := sc.Profiles[0], sc.Profiles[1]
	ua, ub := a.ReservationValue(), b.ReservationValue()
	nash := 0.0
	if r.Agreement != nil {
		ua, ub = a.Utility(r.Agreement), b.Utility(r.Agreement)
		nash = (ua - a.ReservationValue()) * (ub - b.ReservationValue())
		r.AgreementText = r.Agreement.String()
	}
	r.AgentUtility = negotiation.Significant(ua, negotiation.ReportDigits)
	r.OpponentUtility = negotiation.Significant(ub, negotiation.ReportDigits)
	r.NashProduct = negotiation.Significant(nash, negotiation.ReportDigits)
}

// PartialRanking ranks n distinct random bids by the first profile of sc.
func PartialRanking(rng *rand.Rand, sc *negotiation.Scenario, n int) (*negotiation.BidRanking, error) {
	total := sc.Domain.NumberOfPossibleBids()
	if int64(n) > total {
		n = int(total)
	}
	seen := make(map[string]bool, n)
	bids := make([]*negotiation.Bid, 0, n)
	for len(bids) < n {
		b := sc.Domain.RandomBid(rng)
		if seen[b.Key()] {
			continue
		}
		seen[b.Key()] = true
		bids = append(bids, b)
	}
	return negotiation.RankingFromProfile(sc.Profiles[0], bids)
}
