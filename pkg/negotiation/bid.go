package negotiation

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Bid assigns exactly one value to every issue of a domain. Bids are
// immutable; a nil *Bid means "no bid".
type Bid struct {
	domain *Domain
	values []int // value index per issue, in domain order
}

// NewBid builds a bid from an issue-name to value mapping. Every issue of
// the domain must be assigned.
func NewBid(d *Domain, assignment map[string]Value) (*Bid, error) {
	if len(assignment) != len(d.Issues) {
		for name := range assignment {
			if d.IssueIndex(name) < 0 {
				return nil, fmt.Errorf("%w: %q", ErrUnknownIssue, name)
			}
		}
		return nil, fmt.Errorf("bid assigns %d of %d issues", len(assignment), len(d.Issues))
	}
	idx := make([]int, len(d.Issues))
	for i, iss := range d.Issues {
		v, ok := assignment[iss.Name]
		if !ok {
			return nil, fmt.Errorf("%w: %q missing from bid", ErrUnknownIssue, iss.Name)
		}
		vi := iss.ValueIndex(v)
		if vi < 0 {
			return nil, fmt.Errorf("%w: %q for issue %q", ErrUnknownValue, v, iss.Name)
		}
		idx[i] = vi
	}
	return &Bid{domain: d, values: idx}, nil
}

// BidFromIndices builds a bid from per-issue value positions.
func (d *Domain) BidFromIndices(indices ...int) (*Bid, error) {
	if len(indices) != len(d.Issues) {
		return nil, fmt.Errorf("bid assigns %d of %d issues", len(indices), len(d.Issues))
	}
	for i, vi := range indices {
		if vi < 0 || vi >= d.Issues[i].NumValues() {
			return nil, fmt.Errorf("%w: index %d for issue %q", ErrUnknownValue, vi, d.Issues[i].Name)
		}
	}
	return &Bid{domain: d, values: append([]int(nil), indices...)}, nil
}

// MustBid is BidFromIndices for fixtures; it panics on invalid input.
func (d *Domain) MustBid(indices ...int) *Bid {
	b, err := d.BidFromIndices(indices...)
	if err != nil {
		panic(err)
	}
	return b
}

// Domain returns the domain the bid belongs to.
func (b *Bid) Domain() *Domain { return b.domain }

// ValueIndex returns the value position chosen for the issue at position i.
func (b *Bid) ValueIndex(i int) int { return b.values[i] }

// ValueAt returns the value chosen for the issue at position i.
func (b *Bid) ValueAt(i int) Value { return b.domain.Issues[i].Values[b.values[i]] }

// Value returns the value chosen for the named issue.
func (b *Bid) Value(issue string) (Value, error) {
	i := b.domain.IssueIndex(issue)
	if i < 0 {
		return "", fmt.Errorf("%w: %q", ErrUnknownIssue, issue)
	}
	return b.ValueAt(i), nil
}

// Assignment returns the bid as an issue-name to value map.
func (b *Bid) Assignment() map[string]Value {
	m := make(map[string]Value, len(b.values))
	for i, iss := range b.domain.Issues {
		m[iss.Name] = iss.Values[b.values[i]]
	}
	return m
}

// Key is a stable identity for the bid within its domain.
func (b *Bid) Key() string {
	var sb strings.Builder
	for i, vi := range b.values {
		if i > 0 {
			sb.WriteByte(':')
		}
		sb.WriteString(strconv.Itoa(vi))
	}
	return sb.String()
}

// Equal reports structural equality. Two nil bids are equal.
func (b *Bid) Equal(o *Bid) bool {
	if b == nil || o == nil {
		return b == o
	}
	if len(b.values) != len(o.values) {
		return false
	}
	for i := range b.values {
		if b.values[i] != o.values[i] {
			return false
		}
	}
	return true
}

// String renders the bid as "issue=value" pairs sorted by issue name.
func (b *Bid) String() string {
	if b == nil {
		return "<none>"
	}
	names := make([]string, len(b.domain.Issues))
	for i, iss := range b.domain.Issues {
		names[i] = iss.Name + "=" + string(iss.Values[b.values[i]])
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
