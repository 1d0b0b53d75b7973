// Package negotiation holds the shared vocabulary of a bilateral,
// multi-issue negotiation: issues and their discrete values, bids,
// utility functions, bid rankings, clocks and actions.
package negotiation

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
)

var (
	ErrUnknownIssue = errors.New("unknown issue")
	ErrUnknownValue = errors.New("unknown value")
	ErrNoBid        = errors.New("no bid available")
)

// Value is one discrete option of an issue.
type Value string

// Issue is a named negotiation dimension with a finite set of values.
type Issue struct {
	Number int // 1-based, stable for the negotiation
	Name   string
	Values []Value

	valueIndex map[Value]int
}

// NewIssue creates an issue. Duplicate values are rejected.
func NewIssue(number int, name string, values ...Value) (*Issue, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("issue %q: no values", name)
	}
	iss := &Issue{
		Number:     number,
		Name:       name,
		Values:     append([]Value(nil), values...),
		valueIndex: make(map[Value]int, len(values)),
	}
	for i, v := range values {
		if _, dup := iss.valueIndex[v]; dup {
			return nil, fmt.Errorf("issue %q: duplicate value %q", name, v)
		}
		iss.valueIndex[v] = i
	}
	return iss, nil
}

// ValueIndex returns the position of v within the issue, or -1.
func (iss *Issue) ValueIndex(v Value) int {
	idx, ok := iss.valueIndex[v]
	if !ok {
		return -1
	}
	return idx
}

// NumValues returns the number of discrete values of the issue.
func (iss *Issue) NumValues() int { return len(iss.Values) }

// RandomValue draws a value uniformly at random.
func (iss *Issue) RandomValue(rng *rand.Rand) Value {
	return iss.Values[rng.Intn(len(iss.Values))]
}

// Domain is the immutable set of issues under negotiation.
type Domain struct {
	Name   string
	Issues []*Issue

	issueIndex map[string]int
}

// NewDomain creates a domain from its issues. Issue names must be unique.
func NewDomain(name string, issues ...*Issue) (*Domain, error) {
	d := &Domain{
		Name:       name,
		Issues:     issues,
		issueIndex: make(map[string]int, len(issues)),
	}
	for i, iss := range issues {
		if iss == nil {
			return nil, fmt.Errorf("domain %q: nil issue at position %d", name, i)
		}
		if _, dup := d.issueIndex[iss.Name]; dup {
			return nil, fmt.Errorf("domain %q: duplicate issue %q", name, iss.Name)
		}
		d.issueIndex[iss.Name] = i
	}
	return d, nil
}

// IssueIndex returns the position of the named issue, or -1.
func (d *Domain) IssueIndex(name string) int {
	idx, ok := d.issueIndex[name]
	if !ok {
		return -1
	}
	return idx
}

// Issue looks up an issue by name.
func (d *Domain) Issue(name string) (*Issue, error) {
	idx := d.IssueIndex(name)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrUnknownIssue, name)
	}
	return d.Issues[idx], nil
}

// NumberOfPossibleBids returns the size of the outcome space, saturating at
// math.MaxInt64.
func (d *Domain) NumberOfPossibleBids() int64 {
	if len(d.Issues) == 0 {
		return 0
	}
	n := int64(1)
	for _, iss := range d.Issues {
		k := int64(iss.NumValues())
		if k == 0 {
			return 0
		}
		if n > math.MaxInt64/k {
			return math.MaxInt64
		}
		n *= k
	}
	return n
}

// RandomBid draws one uniformly random value per issue.
func (d *Domain) RandomBid(rng *rand.Rand) *Bid {
	idx := make([]int, len(d.Issues))
	for i, iss := range d.Issues {
		idx[i] = rng.Intn(iss.NumValues())
	}
	return &Bid{domain: d, values: idx}
}

// AllBids enumerates the whole outcome space in lexicographic value order.
// Only meant for small domains.
func (d *Domain) AllBids() []*Bid {
	total := d.NumberOfPossibleBids()
	bids := make([]*Bid, 0, total)
	idx := make([]int, len(d.Issues))
	for n := int64(0); n < total; n++ {
		bids = append(bids, &Bid{domain: d, values: append([]int(nil), idx...)})
		for i := len(idx) - 1; i >= 0; i-- {
			idx[i]++
			if idx[i] < d.Issues[i].NumValues() {
				break
			}
			idx[i] = 0
		}
	}
	return bids
}
