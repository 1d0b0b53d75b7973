package elicit

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/freeeve/haggle/pkg/negotiation"
)

// IssueSpread is the rank-position spread of one issue.
type IssueSpread struct {
	Issue  *negotiation.Issue
	Spread float64
}

// IssuePreferences orders issues by how strongly they discriminate within
// the ranking, most discriminating first. For every value the mean ranking
// position of the bids holding it is computed; an issue's spread is the
// sample standard deviation of those means. Values absent from the ranking
// are ignored. This is a rough diagnostic, the LP does not use it.
func IssuePreferences(d *negotiation.Domain, r *negotiation.BidRanking) []IssueSpread {
	out := make([]IssueSpread, len(d.Issues))
	for i, iss := range d.Issues {
		positions := make([][]float64, iss.NumValues())
		if r != nil {
			for pos, b := range r.Bids {
				vi := b.ValueIndex(i)
				positions[vi] = append(positions[vi], float64(pos))
			}
		}
		var means []float64
		for _, p := range positions {
			if len(p) > 0 {
				means = append(means, floats.Sum(p)/float64(len(p)))
			}
		}
		spread := 0.0
		if len(means) > 1 {
			spread = stat.StdDev(means, nil)
		}
		out[i] = IssueSpread{Issue: iss, Spread: spread}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Spread > out[b].Spread })
	return out
}
