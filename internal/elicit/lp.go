// Package elicit recovers an additive utility function from a partial bid
// ranking. Stage 1 fits one utility per issue value, stage 2 fits issue
// weights against the stage 1 values; both minimise the total violation of
// the observed order with gonum's simplex solver.
package elicit

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/freeeve/haggle/pkg/negotiation"
)

const simplexTol = 1e-10

var (
	// ErrTooFewBids is returned when the ranking cannot constrain anything.
	ErrTooFewBids = errors.New("ranking needs at least two bids")
	// ErrDegenerate is returned when the best and worst ranked bids coincide.
	ErrDegenerate = errors.New("best and worst ranked bids are identical")
	// ErrInfeasible is the simplex report that no assignment meets the pins.
	ErrInfeasible = lp.ErrInfeasible
)

// Stage identifies which linear program failed.
type Stage int

const (
	StageValues Stage = 1
	StageIssues Stage = 2
)

func (s Stage) String() string {
	if s == StageIssues {
		return "issue weights"
	}
	return "value utilities"
}

// StageError reports an unusable LP result. When stage 1 fails stage 2 is
// never attempted.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("elicit: stage %d (%s): %v", e.Stage, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Solution holds the fitted utility of every issue value, indexed
// [issue][value] in domain order, and one weight per issue summing to 1.
// Values that never appear in the ranking are left at 0.
type Solution struct {
	Values       [][]float64
	Weights      []float64
	ValueSlack   float64 // total order violation left by stage 1
	WeightsSlack float64 // total order violation left by stage 2
}

// Value returns the fitted utility of v for the named issue.
func (s *Solution) Value(d *negotiation.Domain, issue string, v negotiation.Value) (float64, error) {
	i := d.IssueIndex(issue)
	if i < 0 {
		return 0, fmt.Errorf("%w: %q", negotiation.ErrUnknownIssue, issue)
	}
	vi := d.Issues[i].ValueIndex(v)
	if vi < 0 {
		return 0, fmt.Errorf("%w: %q in issue %q", negotiation.ErrUnknownValue, v, issue)
	}
	return s.Values[i][vi], nil
}

// Solve runs both stages over the ranking.
func Solve(d *negotiation.Domain, r *negotiation.BidRanking) (*Solution, error) {
	if r == nil || r.Len() < 2 {
		return nil, &StageError{Stage: StageValues, Err: ErrTooFewBids}
	}
	if r.Minimal().Equal(r.Maximal()) {
		return nil, &StageError{Stage: StageValues, Err: ErrDegenerate}
	}
	values, slack1, err := solveValues(d, r)
	if err != nil {
		return nil, &StageError{Stage: StageValues, Err: err}
	}
	weights, slack2, err := solveWeights(d, r, values)
	if err != nil {
		return nil, &StageError{Stage: StageIssues, Err: err}
	}
	return &Solution{Values: values, Weights: weights, ValueSlack: slack1, WeightsSlack: slack2}, nil
}

// columns maps each (issue, value) present in the ranking to an LP column.
// Values the ranking never mentions are left out: an all-zero column makes
// the simplex fail.
type columns struct {
	index [][]int // -1 when absent
	n     int
}

func rankedColumns(d *negotiation.Domain, r *negotiation.BidRanking) columns {
	c := columns{index: make([][]int, len(d.Issues))}
	for i, iss := range d.Issues {
		c.index[i] = make([]int, iss.NumValues())
		for vi := range c.index[i] {
			c.index[i][vi] = -1
		}
	}
	for _, b := range r.Bids {
		for i := range d.Issues {
			vi := b.ValueIndex(i)
			if c.index[i][vi] < 0 {
				c.index[i][vi] = c.n
				c.n++
			}
		}
	}
	return c
}

// bidRow adds sign to the column of every value bid holds.
func (c columns) bidRow(row []float64, b *negotiation.Bid, sign float64) {
	for i := range c.index {
		row[c.index[i][b.ValueIndex(i)]] += sign
	}
}

// solveValues builds the stage 1 program in standard form. Columns are the
// value utilities, then one slack and one surplus per adjacent pair:
//
//	u(b_k) - u(b_k-1) + s_k - e_k = 0
//	u(worst) = Low, u(best) = High
//
// and the objective is the sum of slacks.
func solveValues(d *negotiation.Domain, r *negotiation.BidRanking) ([][]float64, float64, error) {
	cols := rankedColumns(d, r)
	pairs := r.Len() - 1
	nVars := cols.n + 2*pairs
	nRows := pairs + 2

	A := mat.NewDense(nRows, nVars, nil)
	b := make([]float64, nRows)
	c := make([]float64, nVars)
	row := make([]float64, nVars)

	for k := 0; k < pairs; k++ {
		clear(row)
		cols.bidRow(row, r.Bids[k+1], 1)
		cols.bidRow(row, r.Bids[k], -1)
		row[cols.n+k] = 1
		row[cols.n+pairs+k] = -1
		A.SetRow(k, row)
		c[cols.n+k] = 1
	}
	clear(row)
	cols.bidRow(row, r.Minimal(), 1)
	A.SetRow(pairs, row)
	b[pairs] = r.Low
	clear(row)
	cols.bidRow(row, r.Maximal(), 1)
	A.SetRow(pairs+1, row)
	b[pairs+1] = r.High

	opt, x, err := lp.Simplex(c, A, b, simplexTol, nil)
	if err != nil {
		return nil, 0, err
	}
	values := make([][]float64, len(d.Issues))
	for i := range d.Issues {
		values[i] = make([]float64, len(cols.index[i]))
		for vi, col := range cols.index[i] {
			if col >= 0 {
				values[i][vi] = math.Max(0, x[col])
			}
		}
	}
	return values, opt, nil
}

// solveWeights builds the stage 2 program: one weight per issue, the stage 1
// utilities as constant coefficients, the same slack structure, and the
// weights summing to one.
func solveWeights(d *negotiation.Domain, r *negotiation.BidRanking, values [][]float64) ([]float64, float64, error) {
	nIssues := len(d.Issues)
	pairs := r.Len() - 1
	nVars := nIssues + 2*pairs
	nRows := pairs + 1

	A := mat.NewDense(nRows, nVars, nil)
	b := make([]float64, nRows)
	c := make([]float64, nVars)
	row := make([]float64, nVars)

	for k := 0; k < pairs; k++ {
		clear(row)
		cur, prev := r.Bids[k+1], r.Bids[k]
		for i := 0; i < nIssues; i++ {
			row[i] = values[i][cur.ValueIndex(i)] - values[i][prev.ValueIndex(i)]
		}
		row[nIssues+k] = 1
		row[nIssues+pairs+k] = -1
		A.SetRow(k, row)
		c[nIssues+k] = 1
	}
	clear(row)
	for i := 0; i < nIssues; i++ {
		row[i] = 1
	}
	A.SetRow(pairs, row)
	b[pairs] = 1

	opt, x, err := lp.Simplex(c, A, b, simplexTol, nil)
	if err != nil {
		return nil, 0, err
	}
	weights := make([]float64, nIssues)
	for i := range weights {
		weights[i] = math.Max(0, x[i])
	}
	return weights, opt, nil
}
