package arena

import (
	"fmt"
	"math/rand"

	"github.com/freeeve/haggle/pkg/negotiation"
)

// Opponent kinds accepted by NewOpponent.
const (
	KindHardliner = "hardliner"
	KindRandom    = "random"
	KindAgent     = "agent"
)

// Kinds lists the opponent kinds in display order.
func Kinds() []string { return []string{KindHardliner, KindRandom, KindAgent} }

// Hardliner offers its best bid every turn and never accepts.
type Hardliner struct {
	name string
	best *negotiation.Bid
}

// NewHardliner creates a hardliner for the given profile.
func NewHardliner(name string, self negotiation.UtilityOracle) (*Hardliner, error) {
	best, err := self.MaxUtilityBid()
	if err != nil {
		return nil, fmt.Errorf("hardliner: %w", err)
	}
	return &Hardliner{name: name, best: best}, nil
}

func (h *Hardliner) Name() string                        { return h.name }
func (h *Hardliner) ReceiveOffer(*negotiation.Bid) error { return nil }
func (h *Hardliner) ChooseAction() negotiation.Action    { return negotiation.Offer(h.best) }

// randomTries bounds the draws spent looking for a bid above reservation.
const randomTries = 100

// RandomParty offers random bids it values above its reservation and
// accepts any offer that meets an aspiration falling linearly from 1 to
// the reservation value at the deadline.
type RandomParty struct {
	name  string
	d     *negotiation.Domain
	self  negotiation.UtilityOracle
	clock negotiation.Clock
	rng   *rand.Rand
	last  *negotiation.Bid
}

// NewRandomParty creates a random party.
func NewRandomParty(name string, d *negotiation.Domain, self negotiation.UtilityOracle, clock negotiation.Clock, rng *rand.Rand) *RandomParty {
	return &RandomParty{name: name, d: d, self: self, clock: clock, rng: rng}
}

func (r *RandomParty) Name() string { return r.name }

func (r *RandomParty) ReceiveOffer(bid *negotiation.Bid) error {
	r.last = bid
	return nil
}

// Aspiration is the utility the party accepts at time t.
func (r *RandomParty) Aspiration(t float64) float64 {
	res := r.self.ReservationValue()
	return res + (1-res)*(1-t)
}

func (r *RandomParty) ChooseAction() negotiation.Action {
	if r.last != nil && r.self.Utility(r.last) >= r.Aspiration(r.clock.Time()) {
		return negotiation.Accept(r.last)
	}
	res := r.self.ReservationValue()
	for i := 0; i < randomTries; i++ {
		if b := r.d.RandomBid(r.rng); r.self.Utility(b) >= res {
			return negotiation.Offer(b)
		}
	}
	if best, err := r.self.MaxUtilityBid(); err == nil {
		return negotiation.Offer(best)
	}
	return negotiation.Withdraw()
}
