// Package concession computes the minimum utility the agent accepts or
// offers at a given time. A Boulware curve governs the early negotiation;
// after the transition time the target moves in reciprocation of the
// opponent's own concessions.
package concession

import (
	"math"

	"github.com/rs/zerolog"

	"github.com/freeeve/haggle/pkg/negotiation"
)

// Phase is the active part of the schedule.
type Phase int

const (
	PhaseBoulware Phase = iota
	PhaseTitForTat
)

func (p Phase) String() string {
	if p == PhaseTitForTat {
		return "tit-for-tat"
	}
	return "boulware"
}

// History is what the strategy needs to know about the opponent's offers.
type History struct {
	Offers []*negotiation.Bid // oldest first
	Best   *negotiation.Bid   // the offer with the highest own utility
}

// Strategy keeps the running target between rounds. A session owns one.
type Strategy struct {
	beta       float64
	transition float64

	self       negotiation.UtilityOracle
	opponent   func(*negotiation.Bid) float64
	maxUtility float64

	target float64
	phase  Phase
	round  int
	log    zerolog.Logger
}

// New creates a strategy for an agent with the given own utility oracle and
// opponent utility estimate. The target starts at the agent's maximum utility.
func New(self negotiation.UtilityOracle, opponent func(*negotiation.Bid) float64, beta, transitionTime float64, log zerolog.Logger) *Strategy {
	maxUtility := 1.0
	if best, err := self.MaxUtilityBid(); err == nil {
		maxUtility = self.Utility(best)
	} else {
		log.Warn().Err(err).Msg("No maximum utility bid, assuming 1")
	}
	return &Strategy{
		beta:       beta,
		transition: transitionTime,
		self:       self,
		opponent:   opponent,
		maxUtility: maxUtility,
		target:     maxUtility,
		log:        log,
	}
}

// MaxUtility returns the agent's best achievable utility.
func (s *Strategy) MaxUtility() float64 { return s.maxUtility }

// Current returns the last computed target without advancing the round.
func (s *Strategy) Current() float64 { return s.target }

// Phase returns the phase used for the last computed target.
func (s *Strategy) Phase() Phase { return s.phase }

// Round returns how many targets have been computed.
func (s *Strategy) Round() int { return s.round }

// Boulware returns reservation + (1 - t^(1/beta)) * (max - reservation).
func (s *Strategy) Boulware(t float64) float64 {
	res := s.self.ReservationValue()
	ft := math.Pow(t, 1/s.beta)
	return res + (1-ft)*(s.maxUtility-res)
}

// Target computes and records the target for time t. Tit-for-tat needs two
// opponent offers; with fewer the Boulware value is used for the round.
func (s *Strategy) Target(t float64, h History) float64 {
	s.round++
	if t < s.transition || len(h.Offers) < 2 {
		s.phase = PhaseBoulware
		s.target = s.Boulware(t)
		s.log.Info().Int("round", s.round).Float64("time", t).Float64("target", s.target).Msg("Boulware target")
		return s.target
	}

	s.phase = PhaseTitForTat
	last := h.Offers[len(h.Offers)-1]
	penultimate := h.Offers[len(h.Offers)-2]
	tat := math.Max(0, s.opponent(penultimate)-s.opponent(last))

	best := h.Best
	if best == nil {
		best = last
	}
	res := s.self.ReservationValue()
	optimalNash := (s.maxUtility - res) * s.opponent(best)
	currentNash := (s.self.Utility(last) - res) * s.opponent(last)
	// distFromNE is not clamped to [0,1]; above 1 the target rises.
	distFromNE := optimalNash - currentNash

	s.target -= (1 - distFromNE) * tat
	s.log.Info().Int("round", s.round).Float64("time", t).Float64("tat", tat).
		Float64("distFromNE", distFromNE).Float64("target", s.target).Msg("Tit-for-tat target")
	return s.target
}
