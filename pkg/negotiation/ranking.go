package negotiation

import (
	"errors"
	"fmt"
)

// BidRanking is an ordered list of bids from least to most preferred,
// anchored by the utilities of its worst (Low) and best (High) bid.
// Rankings only grow.
type BidRanking struct {
	Bids []*Bid
	Low  float64
	High float64
}

// NewBidRanking validates and wraps an ordered bid list.
func NewBidRanking(bids []*Bid, low, high float64) (*BidRanking, error) {
	if len(bids) == 0 {
		return nil, errors.New("bid ranking: no bids")
	}
	if low > high {
		return nil, fmt.Errorf("bid ranking: low anchor %v above high anchor %v", low, high)
	}
	return &BidRanking{Bids: append([]*Bid(nil), bids...), Low: low, High: high}, nil
}

// Len returns the number of ranked bids.
func (r *BidRanking) Len() int { return len(r.Bids) }

// Minimal returns the least preferred bid.
func (r *BidRanking) Minimal() *Bid { return r.Bids[0] }

// Maximal returns the most preferred bid.
func (r *BidRanking) Maximal() *Bid { return r.Bids[len(r.Bids)-1] }

// Contains reports whether the ranking already holds bid.
func (r *BidRanking) Contains(bid *Bid) bool {
	for _, b := range r.Bids {
		if b.Equal(bid) {
			return true
		}
	}
	return false
}

// User answers elicitation queries: given a new bid, it returns the ranking
// extended with that bid in its correct position. Each query has a cost.
type User interface {
	ElicitRank(bid *Bid, ranking *BidRanking) *BidRanking
	ElicitationCost() float64
}

// SimulatedUser ranks bids with a hidden utility function. It is how the
// arena and the tests stand in for a real principal.
type SimulatedUser struct {
	profile UtilityOracle
	cost    float64
	queries int
}

// NewSimulatedUser creates a user backed by the given profile.
func NewSimulatedUser(profile UtilityOracle, cost float64) *SimulatedUser {
	return &SimulatedUser{profile: profile, cost: cost}
}

// ElicitationCost returns the cost charged per query.
func (u *SimulatedUser) ElicitationCost() float64 { return u.cost }

// Queries returns how many elicitation queries were answered.
func (u *SimulatedUser) Queries() int { return u.queries }

// TotalCost returns the accumulated elicitation cost.
func (u *SimulatedUser) TotalCost() float64 { return float64(u.queries) * u.cost }

// ElicitRank inserts bid by true utility. Known bids leave the ranking unchanged
// but are still charged.
func (u *SimulatedUser) ElicitRank(bid *Bid, ranking *BidRanking) *BidRanking {
	u.queries++
	if bid == nil || ranking.Contains(bid) {
		return ranking
	}
	ub := u.profile.Utility(bid)
	pos := len(ranking.Bids)
	for i, b := range ranking.Bids {
		if u.profile.Utility(b) > ub {
			pos = i
			break
		}
	}
	bids := make([]*Bid, 0, len(ranking.Bids)+1)
	bids = append(bids, ranking.Bids[:pos]...)
	bids = append(bids, bid)
	bids = append(bids, ranking.Bids[pos:]...)
	next := &BidRanking{Bids: bids, Low: ranking.Low, High: ranking.High}
	if pos == 0 {
		next.Low = ub
	}
	if pos == len(bids)-1 {
		next.High = ub
	}
	return next
}

// RankingFromProfile ranks the given bids by a known profile, worst first.
// Ties keep the input order.
func RankingFromProfile(profile UtilityOracle, bids []*Bid) (*BidRanking, error) {
	if len(bids) == 0 {
		return nil, errors.New("bid ranking: no bids")
	}
	sorted := make([]*Bid, 0, len(bids))
	for _, b := range bids {
		pos := len(sorted)
		ub := profile.Utility(b)
		for i, s := range sorted {
			if profile.Utility(s) > ub {
				pos = i
				break
			}
		}
		sorted = append(sorted, nil)
		copy(sorted[pos+1:], sorted[pos:])
		sorted[pos] = b
	}
	return NewBidRanking(sorted, profile.Utility(sorted[0]), profile.Utility(sorted[len(sorted)-1]))
}
