// Package bidspace keeps a bounded set of candidate bids whose own utility
// lies in an acceptable band, for use when picking counter-offers.
package bidspace

import (
	"math/rand"

	"github.com/freeeve/haggle/pkg/negotiation"
)

// MaxAttempts bounds the random draws per fill in domain mode.
const MaxAttempts = 1000

// Sampler holds candidate bids. Members are unique by bid identity and the
// set never grows past the current limit. Not safe for concurrent use.
type Sampler struct {
	oracle  negotiation.UtilityOracle
	domain  *negotiation.Domain
	ranking *negotiation.BidRanking
	rng     *rand.Rand

	limit     int
	floor     float64
	prevFloor float64

	bids []*negotiation.Bid
	seen map[string]struct{}
}

// NewFromRanking fills the set by scanning a bid ranking once, scoring
// bids with oracle (typically an estimated utility space).
func NewFromRanking(ranking *negotiation.BidRanking, oracle negotiation.UtilityOracle, limit int, floor float64, rng *rand.Rand) *Sampler {
	s := newSampler(oracle, limit, floor, rng)
	s.ranking = ranking
	s.fill()
	return s
}

// NewFromDomain fills the set with random bids drawn from the domain.
func NewFromDomain(domain *negotiation.Domain, oracle negotiation.UtilityOracle, limit int, floor float64, rng *rand.Rand) *Sampler {
	s := newSampler(oracle, limit, floor, rng)
	s.domain = domain
	s.fill()
	return s
}

func newSampler(oracle negotiation.UtilityOracle, limit int, floor float64, rng *rand.Rand) *Sampler {
	return &Sampler{
		oracle:    oracle,
		rng:       rng,
		limit:     limit,
		floor:     floor,
		prevFloor: 1.0,
		seen:      make(map[string]struct{}),
	}
}

// Bids returns the current candidates. The slice must not be modified.
func (s *Sampler) Bids() []*negotiation.Bid { return s.bids }

// Len returns the number of candidates.
func (s *Sampler) Len() int { return len(s.bids) }

// Limit returns the current cap on the set size.
func (s *Sampler) Limit() int { return s.limit }

// Floor returns the lower bound of the most recent utility band.
func (s *Sampler) Floor() float64 { return s.floor }

// Expand raises the cap by extra and adds bids scoring within
// [floor, previous floor]. Bids already present are not added twice.
func (s *Sampler) Expand(extra int, floor float64) {
	s.limit += extra
	s.prevFloor = s.floor
	s.floor = floor
	s.fill()
}

// RandomBid returns a uniformly chosen candidate, or false when the set is empty.
func (s *Sampler) RandomBid() (*negotiation.Bid, bool) {
	if len(s.bids) == 0 {
		return nil, false
	}
	return s.bids[s.rng.Intn(len(s.bids))], true
}

func (s *Sampler) fill() {
	if s.ranking != nil {
		for _, bid := range s.ranking.Bids {
			if s.full() {
				return
			}
			s.consider(bid)
		}
		return
	}
	if s.domain == nil {
		return
	}
	for i := 0; i < MaxAttempts && !s.full(); i++ {
		s.consider(s.domain.RandomBid(s.rng))
	}
}

func (s *Sampler) full() bool { return len(s.bids) >= s.limit }

func (s *Sampler) consider(bid *negotiation.Bid) {
	u := s.oracle.Utility(bid)
	if u < s.floor || u > s.prevFloor {
		return
	}
	key := bid.Key()
	if _, dup := s.seen[key]; dup {
		return
	}
	s.seen[key] = struct{}{}
	s.bids = append(s.bids, bid)
}
