package agent

import (
	"math"

	"github.com/freeeve/haggle/internal/analytics"
	"github.com/freeeve/haggle/internal/concession"
	"github.com/freeeve/haggle/pkg/negotiation"
)

// settleMargin is how much more the opponent must value its best past
// offer than we value its latest one before we settle on the latest offer.
const settleMargin = 0.1

// ChooseAction decides the agent's move for the current turn. Once the
// session is finished the terminal action is returned again.
func (a *Agent) ChooseAction() negotiation.Action {
	if a.terminal() {
		return a.final
	}
	t := a.clock.Time()
	threshold := a.strategy.Target(t, concession.History{Offers: a.offers, Best: a.bestOffer()})

	if a.lastOffer == nil || a.myLastOffer == nil {
		return a.offerOrWithdraw(a.biddingRule(threshold))
	}

	uLast := a.self.Utility(a.lastOffer)
	best := a.bestOffer()
	uBest := a.self.Utility(best)

	if uLast >= threshold && t >= a.hp.FinishTime {
		return a.accept()
	}

	if t >= a.hp.GiveUpTime && uBest >= a.self.ReservationValue() {
		if a.oppUtil(best)-uLast > settleMargin {
			return a.accept()
		}
		return a.offer(best)
	}

	if candidate := a.biddingRule(threshold); candidate != nil {
		improves := uLast >= threshold &&
			a.oppUtil(candidate) >= a.oppUtil(a.lastOffer) &&
			a.self.Utility(candidate) >= uLast
		if improves || t < a.hp.GiveUpTime {
			return a.offer(candidate)
		}
	}

	if uLast >= threshold {
		return a.accept()
	}
	return a.withdraw()
}

// biddingRule picks, among candidates the agent values above threshold,
// the one the opponent is estimated to like best. With no such candidate
// the agent's own best bid is used.
func (a *Agent) biddingRule(threshold float64) *negotiation.Bid {
	a.maybeExpand(threshold)

	var above []*negotiation.Bid
	for _, b := range a.sampler.Bids() {
		if a.self.Utility(b) > threshold {
			above = append(above, b)
		}
	}
	if len(above) == 0 {
		return a.maxBid
	}
	if len(above) > a.hp.MaxListSize {
		a.rng.Shuffle(len(above), func(i, j int) { above[i], above[j] = above[j], above[i] })
		above = above[:a.hp.MaxListSize]
	}

	chosen := a.maxBid
	chosenUtil := a.oppUtil(chosen)
	for _, b := range above {
		if u := a.oppUtil(b); u > chosenUtil {
			chosen, chosenUtil = b, u
		}
	}
	if chosen == nil {
		chosen = above[0]
	}
	return chosen
}

// maybeExpand grows the candidate set once the target drops below the
// band it was sampled from.
func (a *Agent) maybeExpand(threshold float64) {
	if a.hp.ExpandStep <= 0 || threshold >= a.sampler.Floor() {
		return
	}
	floor := math.Max(threshold, 0)
	before := a.sampler.Len()
	a.sampler.Expand(a.hp.ExpandStep, floor)
	a.log.Debug().Int("before", before).Int("after", a.sampler.Len()).Float64("floor", floor).Msg("Candidate bids expanded")
}

func (a *Agent) offerOrWithdraw(bid *negotiation.Bid) negotiation.Action {
	if bid == nil {
		return a.withdraw()
	}
	return a.offer(bid)
}

func (a *Agent) offer(bid *negotiation.Bid) negotiation.Action {
	a.myLastOffer = bid
	if a.lastOffer != nil {
		a.state = StateInProgress
	}
	a.record(analytics.RoleAgent, "offer", bid)
	a.log.Info().Float64("utility", a.self.Utility(bid)).Str("bid", bid.String()).Msg("Placing bid")
	return negotiation.Offer(bid)
}

func (a *Agent) accept() negotiation.Action {
	a.state = StateAccepted
	a.final = negotiation.Accept(a.lastOffer)
	a.record(analytics.RoleAgent, "accept", a.lastOffer)
	a.log.Info().Float64("utility", a.self.Utility(a.lastOffer)).Str("bid", a.lastOffer.String()).Msg("Accepting offer")
	return a.final
}

func (a *Agent) withdraw() negotiation.Action {
	a.state = StateWithdrawn
	a.final = negotiation.Withdraw()
	a.record(analytics.RoleAgent, "withdraw", nil)
	a.log.Info().Msg("Ending negotiation")
	return a.final
}
