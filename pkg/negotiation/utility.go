package negotiation

import (
	"fmt"
	"math"
)

// UtilityOracle scores bids for one party.
//
// Utility must never fail: implementations return 0 for bids they cannot
// evaluate. MaxUtilityBid and MinUtilityBid may fail and callers must cope
// with their absence.
type UtilityOracle interface {
	Utility(bid *Bid) float64
	ReservationValue() float64
	MaxUtilityBid() (*Bid, error)
	MinUtilityBid() (*Bid, error)
}

// AdditiveUtilitySpace is a linear additive utility function: the weighted
// sum over issues of the chosen value's evaluation. Evaluations are scores
// divided by the issue's maximum score, so they always lie in [0,1].
type AdditiveUtilitySpace struct {
	domain      *Domain
	weights     []float64   // normalised, one per issue
	scores      [][]float64 // raw per-value scores
	maxScore    []float64
	reservation float64
}

// NewAdditiveUtilitySpace validates and normalises weights and scores.
// weights has one entry per issue; scores one slice per issue with one
// non-negative entry per value.
func NewAdditiveUtilitySpace(d *Domain, weights []float64, scores [][]float64, reservation float64) (*AdditiveUtilitySpace, error) {
	if len(weights) != len(d.Issues) || len(scores) != len(d.Issues) {
		return nil, fmt.Errorf("utility space: expected %d issues, got %d weights and %d score sets",
			len(d.Issues), len(weights), len(scores))
	}
	if reservation < 0 || reservation > 1 {
		return nil, fmt.Errorf("utility space: reservation %v outside [0,1]", reservation)
	}
	u := &AdditiveUtilitySpace{
		domain:      d,
		weights:     make([]float64, len(weights)),
		scores:      make([][]float64, len(scores)),
		maxScore:    make([]float64, len(scores)),
		reservation: reservation,
	}
	sum := 0.0
	for i, w := range weights {
		if w < 0 || math.IsNaN(w) {
			return nil, fmt.Errorf("utility space: negative weight for issue %q", d.Issues[i].Name)
		}
		sum += w
	}
	for i, w := range weights {
		if sum > 0 {
			u.weights[i] = w / sum
		}
	}
	for i, s := range scores {
		if len(s) != d.Issues[i].NumValues() {
			return nil, fmt.Errorf("utility space: issue %q has %d values, got %d scores",
				d.Issues[i].Name, d.Issues[i].NumValues(), len(s))
		}
		u.scores[i] = append([]float64(nil), s...)
		for _, v := range s {
			if v < 0 || math.IsNaN(v) {
				return nil, fmt.Errorf("utility space: negative score in issue %q", d.Issues[i].Name)
			}
			u.maxScore[i] = math.Max(u.maxScore[i], v)
		}
	}
	return u, nil
}

// Domain returns the domain of the utility space.
func (u *AdditiveUtilitySpace) Domain() *Domain { return u.domain }

// Weight returns the normalised weight of the issue at position i.
func (u *AdditiveUtilitySpace) Weight(i int) float64 { return u.weights[i] }

// Evaluation returns the [0,1] evaluation of value vi of issue i.
func (u *AdditiveUtilitySpace) Evaluation(i, vi int) float64 {
	if u.maxScore[i] == 0 {
		return 0
	}
	return u.scores[i][vi] / u.maxScore[i]
}

// Utility returns the weighted evaluation of bid, or 0 for a nil or foreign bid.
func (u *AdditiveUtilitySpace) Utility(bid *Bid) float64 {
	if bid == nil || bid.domain != u.domain {
		return 0
	}
	total := 0.0
	for i := range u.weights {
		total += u.weights[i] * u.Evaluation(i, bid.values[i])
	}
	return total
}

// ReservationValue is the utility of no agreement.
func (u *AdditiveUtilitySpace) ReservationValue() float64 { return u.reservation }

// MaxUtilityBid picks the best-scoring value of every issue.
func (u *AdditiveUtilitySpace) MaxUtilityBid() (*Bid, error) {
	return u.extremeBid(func(a, b float64) bool { return a > b })
}

// MinUtilityBid picks the worst-scoring value of every issue.
func (u *AdditiveUtilitySpace) MinUtilityBid() (*Bid, error) {
	return u.extremeBid(func(a, b float64) bool { return a < b })
}

func (u *AdditiveUtilitySpace) extremeBid(better func(a, b float64) bool) (*Bid, error) {
	if len(u.domain.Issues) == 0 {
		return nil, ErrNoBid
	}
	idx := make([]int, len(u.scores))
	for i, s := range u.scores {
		for vi := 1; vi < len(s); vi++ {
			if better(s[vi], s[idx[i]]) {
				idx[i] = vi
			}
		}
	}
	return &Bid{domain: u.domain, values: idx}, nil
}
