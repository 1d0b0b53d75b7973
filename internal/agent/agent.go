// Package agent implements the per-turn decision policy of the negotiator:
// it tracks the counterpart's offers, asks the concession strategy for a
// target and picks between accepting, counter-offering and withdrawing.
package agent

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/rs/zerolog"

	"github.com/freeeve/haggle/internal/analytics"
	"github.com/freeeve/haggle/internal/bidspace"
	"github.com/freeeve/haggle/internal/concession"
	"github.com/freeeve/haggle/internal/config"
	"github.com/freeeve/haggle/internal/elicit"
	"github.com/freeeve/haggle/internal/opponent"
	"github.com/freeeve/haggle/pkg/negotiation"
)

// ErrFinished is returned when a finished session receives more offers.
var ErrFinished = errors.New("agent: negotiation already finished")

// State is the position of the agent in its session lifecycle.
type State int

const (
	StateNoExchangeYet State = iota
	StateInProgress
	StateAccepted
	StateWithdrawn
)

func (s State) String() string {
	switch s {
	case StateNoExchangeYet:
		return "NO_EXCHANGE_YET"
	case StateInProgress:
		return "IN_PROGRESS"
	case StateAccepted:
		return "ACCEPTED"
	default:
		return "WITHDRAWN"
	}
}

// Options configure an agent. Zero values select defaults: default
// hyperparameters, a source seeded with 1, a disabled logger and no
// analytics.
type Options struct {
	Name      string
	SessionID string
	Hyper     config.Hyperparameters
	Rand      *rand.Rand
	Logger    *zerolog.Logger
	Sink      analytics.Sink
}

func (o *Options) fill() {
	if o.Name == "" {
		o.Name = "haggle"
	}
	if o.Hyper == (config.Hyperparameters{}) {
		o.Hyper = config.DefaultHyperparameters()
	}
	if o.Rand == nil {
		o.Rand = rand.New(rand.NewSource(1))
	}
	if o.Logger == nil {
		nop := zerolog.Nop()
		o.Logger = &nop
	}
	if o.Sink == nil {
		o.Sink = analytics.Discard
	}
}

// Agent is a single-session negotiator. It is not safe for concurrent use.
type Agent struct {
	name      string
	sessionID string
	hp        config.Hyperparameters
	rng       *rand.Rand
	log       zerolog.Logger
	sink      analytics.Sink

	self     negotiation.UtilityOracle
	clock    negotiation.Clock
	maxBid   *negotiation.Bid
	model    *opponent.Model
	oppUtil  func(*negotiation.Bid) float64
	sampler  *bidspace.Sampler
	strategy *concession.Strategy

	state       State
	offers      []*negotiation.Bid
	lastOffer   *negotiation.Bid
	myLastOffer *negotiation.Bid
	best        *negotiation.Bid
	bestUtility float64
	final       negotiation.Action
}

// New creates an agent that knows its own utility function. Candidate bids
// are drawn at random from the domain.
func New(d *negotiation.Domain, self negotiation.UtilityOracle, clock negotiation.Clock, opts Options) (*Agent, error) {
	opts.fill()
	a, err := newAgent(d, self, clock, opts)
	if err != nil {
		return nil, err
	}
	a.sampler = bidspace.NewFromDomain(d, self, a.hp.MaxListSize, self.ReservationValue(), a.rng)
	a.log.Info().Int("candidates", a.sampler.Len()).Msg("Candidate bids generated")
	return a, nil
}

// NewUncertain creates an agent that only knows a partial ranking of its
// preferences. It first spends its elicitation budget on random bids, then
// fits a utility space to the grown ranking. The fitted space is returned
// by Self.
func NewUncertain(d *negotiation.Domain, user negotiation.User, ranking *negotiation.BidRanking, reservation float64, clock negotiation.Clock, opts Options) (*Agent, error) {
	opts.fill()
	if ranking == nil || ranking.Len() == 0 {
		return nil, errors.New("agent: preference uncertainty needs a non-empty ranking")
	}
	allowed := elicit.AllowedQueries(d.NumberOfPossibleBids(), ranking.Len(), opts.Hyper.MaxElicitationPenalty, user.ElicitationCost())
	ranking = elicit.Elicit(opts.Rand, d, user, ranking, allowed)

	fit, err := elicit.EstimateUtilitySpace(d, ranking, reservation)
	if err != nil {
		return nil, fmt.Errorf("agent: estimate utility space: %w", err)
	}
	if fit.Fallback() {
		opts.Logger.Warn().Err(fit.LPErr).Msg("LP elicitation failed, using rank estimate")
	}
	for _, p := range elicit.IssuePreferences(d, ranking) {
		opts.Logger.Debug().Str("issue", p.Issue.Name).Float64("spread", p.Spread).Msg("Issue preference")
	}

	a, err := newAgent(d, fit.Space, clock, opts)
	if err != nil {
		return nil, err
	}
	a.sampler = bidspace.NewFromRanking(ranking, fit.Space, a.hp.MaxListSize, reservation, a.rng)
	a.log.Info().Int("queries", allowed).Int("ranked", ranking.Len()).Int("candidates", a.sampler.Len()).
		Bool("lp", !fit.Fallback()).Msg("Preference uncertainty resolved")
	return a, nil
}

func newAgent(d *negotiation.Domain, self negotiation.UtilityOracle, clock negotiation.Clock, opts Options) (*Agent, error) {
	if err := opts.Hyper.Validate(); err != nil {
		return nil, fmt.Errorf("agent: %w", err)
	}
	scorer, ok := opponent.ScorerByName(opts.Hyper.OpponentModel)
	if !ok {
		return nil, fmt.Errorf("agent: unknown opponent model %q", opts.Hyper.OpponentModel)
	}
	model := opponent.NewModel(d, scorer, opts.Hyper.RecentBidWindow)
	oppUtil, err := model.UtilityFunc(opts.Hyper.OpponentEstimate)
	if err != nil {
		return nil, fmt.Errorf("agent: %w", err)
	}
	log := opts.Logger.With().Str("party", opts.Name).Logger()

	a := &Agent{
		name:      opts.Name,
		sessionID: opts.SessionID,
		hp:        opts.Hyper,
		rng:       opts.Rand,
		log:       log,
		sink:      opts.Sink,
		self:      self,
		clock:     clock,
		model:     model,
		oppUtil:   oppUtil,
	}
	if maxBid, err := self.MaxUtilityBid(); err == nil {
		a.maxBid = maxBid
	} else {
		log.Warn().Err(err).Msg("No maximum utility bid available")
	}
	a.strategy = concession.New(self, oppUtil, opts.Hyper.BoulwareBeta, opts.Hyper.TransitionTime, log)
	opts.Hyper.Diagnostics(log)
	return a, nil
}

// Name identifies the agent.
func (a *Agent) Name() string { return a.name }

// State returns the lifecycle state.
func (a *Agent) State() State { return a.state }

// Self returns the utility function the agent negotiates with.
func (a *Agent) Self() negotiation.UtilityOracle { return a.self }

// Model exposes the opponent model for diagnostics.
func (a *Agent) Model() *opponent.Model { return a.model }

// Candidates returns the number of candidate bids.
func (a *Agent) Candidates() int { return a.sampler.Len() }

// ReceiveOffer records a counterpart offer.
func (a *Agent) ReceiveOffer(bid *negotiation.Bid) error {
	if a.terminal() {
		return ErrFinished
	}
	if bid == nil {
		return fmt.Errorf("agent: %w: empty offer", negotiation.ErrNoBid)
	}
	if err := a.model.Update(bid); err != nil {
		return err
	}
	a.remember(bid)
	a.lastOffer = bid
	if u := a.self.Utility(bid); u > a.bestUtility {
		a.best = bid
		a.bestUtility = u
	}
	if a.myLastOffer != nil {
		a.state = StateInProgress
	}
	a.record(analytics.RoleOpponent, "offer", bid)
	return nil
}

// remember keeps the most recent counterpart offers, at most the recency
// window and never fewer than two.
func (a *Agent) remember(bid *negotiation.Bid) {
	keep := max(2, a.hp.RecentBidWindow)
	if len(a.offers) < keep {
		a.offers = append(a.offers, bid)
		return
	}
	copy(a.offers, a.offers[1:])
	a.offers[keep-1] = bid
}

// bestOffer is the first counterpart offer with the highest own utility,
// or the latest offer while none scores above zero.
func (a *Agent) bestOffer() *negotiation.Bid {
	if a.best != nil {
		return a.best
	}
	return a.lastOffer
}

func (a *Agent) terminal() bool {
	return a.state == StateAccepted || a.state == StateWithdrawn
}

func (a *Agent) record(role, action string, bid *negotiation.Bid) {
	r := analytics.Record{
		SessionID: a.sessionID,
		Round:     a.strategy.Round(),
		Time:      a.clock.Time(),
		Role:      role,
		Action:    action,
		Bid:       bid,
		Utility:   a.self.Utility(bid),
	}
	if err := a.sink.Write(context.Background(), r); err != nil {
		a.log.Warn().Err(err).Msg("Analytics write failed")
	}
}
