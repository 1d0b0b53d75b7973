package elicit

import (
	"math"
	"math/rand"

	"github.com/freeeve/haggle/pkg/negotiation"
)

const (
	smallDomainBids     = 100
	smallDomainFraction = 0.1
	largeDomainRanked   = 10
)

// AllowedQueries returns how many elicitation queries may be made before
// negotiating. Small domains (at most 100 bids) may grow the ranking to a
// tenth of the domain, larger ones to 10 ranked bids; either way no more
// than maxPenalty/cost queries are allowed. A non-positive cost lifts the
// penalty cap.
func AllowedQueries(possibleBids int64, ranked int, maxPenalty, cost float64) int {
	penaltyCap := math.Inf(1)
	if cost > 0 {
		penaltyCap = maxPenalty / cost
	}
	var wanted float64
	if possibleBids <= smallDomainBids {
		wanted = float64(possibleBids)*smallDomainFraction - float64(ranked)
	} else {
		wanted = float64(largeDomainRanked - ranked)
	}
	return int(math.Max(math.Min(wanted, penaltyCap), 0))
}

// Elicit asks the user to rank n random bids and returns the grown ranking.
func Elicit(rng *rand.Rand, d *negotiation.Domain, user negotiation.User, r *negotiation.BidRanking, n int) *negotiation.BidRanking {
	for i := 0; i < n; i++ {
		r = user.ElicitRank(d.RandomBid(rng), r)
	}
	return r
}
