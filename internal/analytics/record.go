// Package analytics receives per-decision utility records. Sinks are purely
// observational: nothing in the agent reads them back.
package analytics

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/freeeve/haggle/pkg/negotiation"
)

// Roles attached to records.
const (
	RoleAgent    = "Agent"
	RoleOpponent = "Opponent"
	RoleUnknown  = "Bid"
)

// Record describes one bid seen or placed by the agent.
type Record struct {
	SessionID string
	Round     int
	Time      float64
	Role      string
	Action    string
	Bid       *negotiation.Bid
	Utility   float64
}

// Sink consumes records.
type Sink interface {
	Write(ctx context.Context, r Record) error
	Close() error
}

// issueNames returns the bid's issue names sorted alphabetically.
func (r Record) issueNames() []string {
	if r.Bid == nil {
		return nil
	}
	names := make([]string, 0, len(r.Bid.Domain().Issues))
	for _, iss := range r.Bid.Domain().Issues {
		names = append(names, iss.Name)
	}
	sort.Strings(names)
	return names
}

// CSVLabels returns the header row matching CSV: the role column, one
// quoted column per issue in alphabetical order, then the utility.
func (r Record) CSVLabels() string {
	var b strings.Builder
	b.WriteString("Type")
	for _, name := range r.issueNames() {
		b.WriteString(",")
		b.WriteString(strconv.Quote(name))
	}
	b.WriteString(",Utility")
	return b.String()
}

// CSV renders the record as one CSV row.
func (r Record) CSV() string {
	role := r.Role
	if role == "" {
		role = RoleUnknown
	}
	var b strings.Builder
	b.WriteString(role)
	for _, name := range r.issueNames() {
		v, _ := r.Bid.Value(name)
		b.WriteString(",")
		b.WriteString(strconv.Quote(string(v)))
	}
	b.WriteString(",")
	b.WriteString(r.UtilityString())
	return b.String()
}

// UtilityString returns the utility rounded for reporting.
func (r Record) UtilityString() string {
	return negotiation.Significant(r.Utility, negotiation.ReportDigits).String()
}
