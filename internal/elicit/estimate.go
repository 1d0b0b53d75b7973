package elicit

import (
	"errors"

	"gonum.org/v1/gonum/floats"

	"github.com/freeeve/haggle/pkg/negotiation"
)

// Fit is an estimated utility space. Solution is nil when the LP result
// was discarded, in which case LPErr says why and Space is the default
// estimate.
type Fit struct {
	Space    *negotiation.AdditiveUtilitySpace
	Solution *Solution
	LPErr    error
}

// Fallback reports whether the default estimate is in use.
func (f *Fit) Fallback() bool { return f.Solution == nil }

// EstimateUtilitySpace fits an additive utility space to the ranking,
// falling back to DefaultEstimate when either LP stage fails. The error is
// non-nil only when no space could be built at all.
func EstimateUtilitySpace(d *negotiation.Domain, r *negotiation.BidRanking, reservation float64) (*Fit, error) {
	sol, lpErr := Solve(d, r)
	if lpErr == nil {
		space, err := negotiation.NewAdditiveUtilitySpace(d, sol.Weights, sol.Values, reservation)
		if err == nil && floats.Sum(sol.Weights) > 0 {
			return &Fit{Space: space, Solution: sol}, nil
		}
		if err == nil {
			err = errors.New("all issue weights are zero")
		}
		lpErr = &StageError{Stage: StageIssues, Err: err}
	}
	space, err := DefaultEstimate(d, r, reservation)
	if err != nil {
		return nil, errors.Join(lpErr, err)
	}
	return &Fit{Space: space, LPErr: lpErr}, nil
}

// DefaultEstimate scores every value by the ranking positions (1 for the
// worst bid) of the bids holding it, with equal issue weights. It needs no
// optimiser and works for any non-empty ranking.
func DefaultEstimate(d *negotiation.Domain, r *negotiation.BidRanking, reservation float64) (*negotiation.AdditiveUtilitySpace, error) {
	weights := make([]float64, len(d.Issues))
	scores := make([][]float64, len(d.Issues))
	for i, iss := range d.Issues {
		weights[i] = 1
		scores[i] = make([]float64, iss.NumValues())
	}
	if r != nil {
		for pos, b := range r.Bids {
			for i := range d.Issues {
				scores[i][b.ValueIndex(i)] += float64(pos + 1)
			}
		}
	}
	return negotiation.NewAdditiveUtilitySpace(d, weights, scores, reservation)
}
