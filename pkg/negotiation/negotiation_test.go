package negotiation

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"testing"
)

func lunchDomain(t *testing.T) *Domain {
	t.Helper()
	menu, err := NewIssue(1, "Menu Item", "Fish", "Chips", "Sausage", "Pie")
	if err != nil {
		t.Fatal(err)
	}
	size, err := NewIssue(2, "Item Size", "Small", "Medium", "Large")
	if err != nil {
		t.Fatal(err)
	}
	d, err := NewDomain("lunch", menu, size)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestNewIssue_RejectsDuplicates(t *testing.T) {
	if _, err := NewIssue(1, "x", "a", "b", "a"); err == nil {
		t.Fatal("expected duplicate value error")
	}
}

func TestNewBid_StructuralEquality(t *testing.T) {
	d := lunchDomain(t)
	a, err := NewBid(d, map[string]Value{"Menu Item": "Fish", "Item Size": "Large"})
	if err != nil {
		t.Fatal(err)
	}
	b := d.MustBid(0, 2)
	if !a.Equal(b) {
		t.Errorf("expected %s == %s", a, b)
	}
	if a.Key() != b.Key() {
		t.Errorf("keys differ: %q vs %q", a.Key(), b.Key())
	}
	if a.Equal(d.MustBid(1, 2)) {
		t.Error("different bids compared equal")
	}
	var none *Bid
	if a.Equal(none) || !none.Equal(nil) {
		t.Error("nil equality broken")
	}
}

func TestNewBid_UnknownValue(t *testing.T) {
	d := lunchDomain(t)
	_, err := NewBid(d, map[string]Value{"Menu Item": "Soup", "Item Size": "Large"})
	if !errors.Is(err, ErrUnknownValue) {
		t.Fatalf("expected ErrUnknownValue, got %v", err)
	}
	_, err = NewBid(d, map[string]Value{"Menu Item": "Fish", "Colour": "Red"})
	if !errors.Is(err, ErrUnknownIssue) {
		t.Fatalf("expected ErrUnknownIssue, got %v", err)
	}
}

func TestDomain_AllBids(t *testing.T) {
	d := lunchDomain(t)
	bids := d.AllBids()
	if int64(len(bids)) != d.NumberOfPossibleBids() || len(bids) != 12 {
		t.Fatalf("expected 12 bids, got %d", len(bids))
	}
	seen := map[string]bool{}
	for _, b := range bids {
		if seen[b.Key()] {
			t.Fatalf("duplicate bid %s", b)
		}
		seen[b.Key()] = true
	}
}

func TestDomain_NumberOfPossibleBidsSaturates(t *testing.T) {
	values := make([]Value, 10)
	for i := range values {
		values[i] = Value(fmt.Sprintf("v%d", i))
	}
	issues := make([]*Issue, 20)
	for i := range issues {
		iss, err := NewIssue(i+1, fmt.Sprintf("issue %d", i+1), values...)
		if err != nil {
			t.Fatal(err)
		}
		issues[i] = iss
	}
	d, err := NewDomain("wide", issues...)
	if err != nil {
		t.Fatal(err)
	}
	// 10^20 does not fit in an int64.
	if n := d.NumberOfPossibleBids(); n != math.MaxInt64 {
		t.Fatalf("expected saturation at MaxInt64, got %d", n)
	}
	narrow, err := NewDomain("narrow", issues[:18]...)
	if err != nil {
		t.Fatal(err)
	}
	if n := narrow.NumberOfPossibleBids(); n != 1_000_000_000_000_000_000 {
		t.Fatalf("expected 10^18 bids, got %d", n)
	}
}

func TestAdditiveUtilitySpace(t *testing.T) {
	d := lunchDomain(t)
	u, err := NewAdditiveUtilitySpace(d, []float64{3, 1},
		[][]float64{{4, 2, 1, 0}, {0, 1, 2}}, 0.2)
	if err != nil {
		t.Fatal(err)
	}
	// 0.75*1 + 0.25*1
	if got := u.Utility(d.MustBid(0, 2)); math.Abs(got-1) > 1e-12 {
		t.Errorf("best bid utility = %v, want 1", got)
	}
	// 0.75*0.5 + 0.25*0.5
	if got := u.Utility(d.MustBid(1, 1)); math.Abs(got-0.5) > 1e-12 {
		t.Errorf("utility = %v, want 0.5", got)
	}
	if got := u.Utility(nil); got != 0 {
		t.Errorf("nil bid utility = %v", got)
	}
	maxBid, err := u.MaxUtilityBid()
	if err != nil || !maxBid.Equal(d.MustBid(0, 2)) {
		t.Errorf("max bid = %v (%v)", maxBid, err)
	}
	minBid, err := u.MinUtilityBid()
	if err != nil || !minBid.Equal(d.MustBid(3, 0)) {
		t.Errorf("min bid = %v (%v)", minBid, err)
	}
}

func TestSimulatedUser_ElicitRank(t *testing.T) {
	d := lunchDomain(t)
	u, _ := NewAdditiveUtilitySpace(d, []float64{1, 1}, [][]float64{{4, 3, 2, 1}, {1, 2, 3}}, 0)
	ranking, err := RankingFromProfile(u, []*Bid{d.MustBid(0, 2), d.MustBid(3, 0)})
	if err != nil {
		t.Fatal(err)
	}
	if !ranking.Minimal().Equal(d.MustBid(3, 0)) || !ranking.Maximal().Equal(d.MustBid(0, 2)) {
		t.Fatalf("unexpected ranking order: %v", ranking.Bids)
	}
	user := NewSimulatedUser(u, 0.01)
	next := user.ElicitRank(d.MustBid(1, 1), ranking)
	if next.Len() != 3 || !next.Bids[1].Equal(d.MustBid(1, 1)) {
		t.Fatalf("expected middle insertion, got %v", next.Bids)
	}
	again := user.ElicitRank(d.MustBid(1, 1), next)
	if again.Len() != 3 {
		t.Errorf("known bid should not grow the ranking")
	}
	if user.Queries() != 2 || math.Abs(user.TotalCost()-0.02) > 1e-12 {
		t.Errorf("queries=%d cost=%v", user.Queries(), user.TotalCost())
	}
}

func TestRoundClock(t *testing.T) {
	c := NewRoundClock(4)
	if c.Time() != 0 {
		t.Fatalf("start time = %v", c.Time())
	}
	for i := 0; i < 6; i++ {
		c.Advance()
	}
	if c.Time() != 1 || !c.Expired() {
		t.Errorf("time = %v expired = %v", c.Time(), c.Expired())
	}
}

func TestHostClock_Monotonic(t *testing.T) {
	var c HostClock
	c.Set(0.4)
	c.Set(0.2)
	if c.Time() != 0.4 {
		t.Errorf("time went backwards: %v", c.Time())
	}
}

func TestLoadScenario(t *testing.T) {
	sc, err := LoadScenario("testdata/lunch.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if len(sc.Domain.Issues) != 3 || sc.Names[0] != "diner" || sc.Names[1] != "chef" {
		t.Fatalf("unexpected scenario: %+v", sc.Names)
	}
	best, _ := sc.Profiles[0].MaxUtilityBid()
	if got := best.String(); got != "Drink=Beer, Item Size=Large, Menu Item=Fish" {
		t.Errorf("diner best bid = %s", got)
	}
	if sc.Profiles[1].ReservationValue() != 0.25 {
		t.Errorf("chef reservation = %v", sc.Profiles[1].ReservationValue())
	}
}

func TestGenerateScenario_Deterministic(t *testing.T) {
	a, err := GenerateScenario(rand.New(rand.NewSource(7)), 3, 4, 0.1)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := GenerateScenario(rand.New(rand.NewSource(7)), 3, 4, 0.1)
	for _, bid := range a.Domain.AllBids() {
		other, _ := b.Domain.BidFromIndices(bid.ValueIndex(0), bid.ValueIndex(1), bid.ValueIndex(2))
		if a.Profiles[0].Utility(bid) != b.Profiles[0].Utility(other) {
			t.Fatalf("same seed produced different profiles at %s", bid)
		}
	}
}

func TestSignificant(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0.76111, "0.7611"},
		{1, "1"},
		{0, "0"},
		{123.456, "123.5"},
		{0.000123456, "0.0001235"},
	}
	for _, tt := range tests {
		if got := Significant(tt.in, ReportDigits).String(); got != tt.want {
			t.Errorf("Significant(%v) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
