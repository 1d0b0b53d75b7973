// Package opponent estimates the counterpart's preferences from the bids
// it offers. Value frequencies are tracked both over the whole session and
// over a sliding window of the most recent bids; a pluggable Scorer turns
// the counts into per-value preferences and per-issue weights.
package opponent

import (
	"fmt"

	"github.com/freeeve/haggle/pkg/negotiation"
)

// DefaultRecentBidWindow is used when a non-positive window is configured.
const DefaultRecentBidWindow = 10

// ValueStat holds the counts and derived estimates for one issue value.
// RecentCount never exceeds Count.
type ValueStat struct {
	Value            negotiation.Value
	Count            int
	RecentCount      int
	Preference       float64
	RecentPreference float64
	Weight           float64
	RecentWeight     float64
}

// IssueStat aggregates the value statistics of one issue.
type IssueStat struct {
	Issue                    *negotiation.Issue
	Values                   []*ValueStat
	UnnormalizedWeight       float64
	UnnormalizedRecentWeight float64
	NormalizedWeight         float64
	NormalizedRecentWeight   float64
}

// Model is a frequency-based opponent model. It is not safe for
// concurrent use; a session owns exactly one.
type Model struct {
	domain *negotiation.Domain
	scorer Scorer
	window int
	issues []*IssueStat
	recent *ring[*negotiation.Bid]

	observed           int
	totalUnnormalized  float64
	recentUnnormalized float64
}

// NewModel creates an empty model over the domain's issues.
func NewModel(domain *negotiation.Domain, scorer Scorer, recentBidWindow int) *Model {
	if recentBidWindow <= 0 {
		recentBidWindow = DefaultRecentBidWindow
	}
	if scorer == nil {
		scorer = RatioScorer{}
	}
	m := &Model{
		domain: domain,
		scorer: scorer,
		window: recentBidWindow,
		issues: make([]*IssueStat, len(domain.Issues)),
		recent: newRing[*negotiation.Bid](recentBidWindow),
	}
	for i, iss := range domain.Issues {
		stat := &IssueStat{Issue: iss, Values: make([]*ValueStat, iss.NumValues())}
		for vi, v := range iss.Values {
			stat.Values[vi] = &ValueStat{Value: v}
		}
		m.issues[i] = stat
	}
	return m
}

// Scorer returns the preference scoring strategy in use.
func (m *Model) Scorer() Scorer { return m.scorer }

// Window returns the size of the recent-bid window.
func (m *Model) Window() int { return m.window }

// Observed returns how many bids have been recorded.
func (m *Model) Observed() int { return m.observed }

// Issues exposes the per-issue statistics, in domain order. Callers must
// treat them as read-only.
func (m *Model) Issues() []*IssueStat { return m.issues }

// Update records an opponent bid, evicts the bid that fell out of the
// recent window and recomputes every estimate. A nil bid is ignored.
func (m *Model) Update(bid *negotiation.Bid) error {
	if bid == nil {
		return nil
	}
	if bid.Domain() != m.domain {
		return fmt.Errorf("opponent model: %w: bid from domain %q", negotiation.ErrUnknownIssue, bid.Domain().Name)
	}
	m.observed++
	for i, stat := range m.issues {
		vs := stat.Values[bid.ValueIndex(i)]
		vs.Count++
		vs.RecentCount++
	}
	if old, evicted := m.recent.push(bid); evicted {
		for i, stat := range m.issues {
			stat.Values[old.ValueIndex(i)].RecentCount--
		}
	}
	m.recalculate()
	return nil
}

// recalculate refreshes preferences, unnormalised weights and normalised
// weights from the current counts.
func (m *Model) recalculate() {
	m.totalUnnormalized = 0
	m.recentUnnormalized = 0
	for _, stat := range m.issues {
		counts := make([]int, len(stat.Values))
		recent := make([]int, len(stat.Values))
		for vi, vs := range stat.Values {
			counts[vi] = vs.Count
			recent[vi] = vs.RecentCount
		}
		prefs := m.scorer.Preferences(counts, m.observed)
		recentPrefs := m.scorer.Preferences(recent, m.window)

		stat.UnnormalizedWeight = 0
		stat.UnnormalizedRecentWeight = 0
		for vi, vs := range stat.Values {
			vs.Preference = prefs[vi]
			vs.RecentPreference = recentPrefs[vi]
			vs.Weight = m.scorer.Weight(vs.Count, m.observed)
			vs.RecentWeight = m.scorer.Weight(vs.RecentCount, m.window)
			stat.UnnormalizedWeight += vs.Weight
			stat.UnnormalizedRecentWeight += vs.RecentWeight
		}
		m.totalUnnormalized += stat.UnnormalizedWeight
		m.recentUnnormalized += stat.UnnormalizedRecentWeight
	}
	for _, stat := range m.issues {
		stat.NormalizedWeight = safeDiv(stat.UnnormalizedWeight, m.totalUnnormalized)
		stat.NormalizedRecentWeight = safeDiv(stat.UnnormalizedRecentWeight, m.recentUnnormalized)
	}
}

// Utility estimates the opponent's utility of bid from all observations.
// A nil bid scores 0.
func (m *Model) Utility(bid *negotiation.Bid) float64 {
	if bid == nil {
		return 0
	}
	m.mustOwn(bid)
	u := 0.0
	for i, stat := range m.issues {
		u += stat.NormalizedWeight * stat.Values[bid.ValueIndex(i)].Preference
	}
	return u
}

// RecentUtility estimates the opponent's utility of bid from the recent
// window only. A nil bid scores 0.
func (m *Model) RecentUtility(bid *negotiation.Bid) float64 {
	if bid == nil {
		return 0
	}
	m.mustOwn(bid)
	u := 0.0
	for i, stat := range m.issues {
		u += stat.NormalizedRecentWeight * stat.Values[bid.ValueIndex(i)].RecentPreference
	}
	return u
}

// MeanUtility averages Utility and RecentUtility.
func (m *Model) MeanUtility(bid *negotiation.Bid) float64 {
	return (m.Utility(bid) + m.RecentUtility(bid)) / 2
}

// mustOwn panics when bid was built over a different domain: scoring it
// would silently return nonsense.
func (m *Model) mustOwn(bid *negotiation.Bid) {
	if bid.Domain() != m.domain {
		panic(fmt.Sprintf("opponent model: bid from domain %q scored against %q", bid.Domain().Name, m.domain.Name))
	}
}

// UtilityFunc selects which of the model's views an agent uses.
func (m *Model) UtilityFunc(view string) (func(*negotiation.Bid) float64, error) {
	switch view {
	case "", "recent":
		return m.RecentUtility, nil
	case "total":
		return m.Utility, nil
	case "mean":
		return m.MeanUtility, nil
	}
	return nil, fmt.Errorf("opponent model: unknown utility view %q", view)
}

func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}
