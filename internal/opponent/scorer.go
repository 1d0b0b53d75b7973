package opponent

import "sort"

// Scorer turns frequency counts into preference and weight estimates.
// Both methods guard against a zero total and return 0 in that case.
type Scorer interface {
	Name() string
	// Preferences returns one preference value per entry of counts, where
	// counts are the observations of an issue's values and total is the
	// number of bids the counts were taken over.
	Preferences(counts []int, total int) []float64
	// Weight returns the unnormalised weight contribution of one value.
	Weight(count, total int) float64
}

// ScorerByName resolves a configured opponent model name.
func ScorerByName(name string) (Scorer, bool) {
	switch name {
	case "rank":
		return RankScorer{}, true
	case "ratio":
		return RatioScorer{}, true
	}
	return nil, false
}

// RankScorer ranks values by count (most frequent first, ties in value
// order) and scores rank r of n values as (n-r+1)/n.
type RankScorer struct{}

func (RankScorer) Name() string { return "rank" }

func (RankScorer) Preferences(counts []int, total int) []float64 {
	prefs := make([]float64, len(counts))
	if total <= 0 {
		return prefs
	}
	order := make([]int, len(counts))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return counts[order[a]] > counts[order[b]] })
	n := float64(len(counts))
	for rank, vi := range order {
		prefs[vi] = (n - float64(rank+1) + 1) / n
	}
	return prefs
}

func (RankScorer) Weight(count, total int) float64 { return squaredShare(count, total) }

// RatioScorer scores a value by its share of the observed bids.
type RatioScorer struct{}

func (RatioScorer) Name() string { return "ratio" }

func (RatioScorer) Preferences(counts []int, total int) []float64 {
	prefs := make([]float64, len(counts))
	if total <= 0 {
		return prefs
	}
	for i, c := range counts {
		prefs[i] = float64(c) / float64(total)
	}
	return prefs
}

func (RatioScorer) Weight(count, total int) float64 { return squaredShare(count, total) }

func squaredShare(count, total int) float64 {
	if total <= 0 {
		return 0
	}
	c, n := float64(count), float64(total)
	return (c * c) / (n * n)
}
