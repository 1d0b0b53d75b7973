package arena

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
	"github.com/rs/zerolog"

	"github.com/freeeve/haggle/pkg/negotiation"
)

func lunch(t *testing.T) *negotiation.Scenario {
	t.Helper()
	sc, err := negotiation.LoadScenario("../../pkg/negotiation/testdata/lunch.yaml")
	assert.NoError(t, err)
	return sc
}

// scripted plays a fixed list of actions, repeating the last one.
type scripted struct {
	name     string
	actions  []negotiation.Action
	received []*negotiation.Bid
	turn     int
}

func (s *scripted) Name() string { return s.name }

func (s *scripted) ReceiveOffer(bid *negotiation.Bid) error {
	s.received = append(s.received, bid)
	return nil
}

func (s *scripted) ChooseAction() negotiation.Action {
	i := s.turn
	if i >= len(s.actions) {
		i = len(s.actions) - 1
	}
	s.turn++
	return s.actions[i]
}

func TestPlay_AgreementOnCounterpartOffer(t *testing.T) {
	sc := lunch(t)
	b1 := sc.Domain.MustBid(0, 2, 2)
	b2 := sc.Domain.MustBid(1, 0, 0)
	a := &scripted{name: "a", actions: []negotiation.Action{negotiation.Offer(b1), negotiation.Accept(b2)}}
	b := &scripted{name: "b", actions: []negotiation.Action{negotiation.Offer(b2)}}

	r, err := play(context.Background(), [2]negotiation.Party{a, b}, negotiation.NewRoundClock(10), zerolog.Nop())
	assert.NoError(t, err)
	check.Equal(t, OutcomeAgreement, r.Outcome)
	check.Equal(t, "a", r.EndedBy)
	check.True(t, r.Agreement.Equal(b2))
	check.Equal(t, 2, r.Rounds)
	check.Equal(t, 1, len(b.received))
	check.Equal(t, 1, len(a.received))
}

func TestPlay_Deadline(t *testing.T) {
	sc := lunch(t)
	a, err := NewHardliner("a", sc.Profiles[0])
	assert.NoError(t, err)
	b, err := NewHardliner("b", sc.Profiles[1])
	assert.NoError(t, err)

	r, err := play(context.Background(), [2]negotiation.Party{a, b}, negotiation.NewRoundClock(3), zerolog.Nop())
	assert.NoError(t, err)
	check.Equal(t, OutcomeDeadline, r.Outcome)
	check.Equal(t, "", r.EndedBy)
	check.Equal(t, 3, r.Rounds)
	check.True(t, r.Agreement == nil)
}

func TestPlay_Withdraw(t *testing.T) {
	sc := lunch(t)
	a := &scripted{name: "a", actions: []negotiation.Action{negotiation.Offer(sc.Domain.MustBid(0, 0, 0))}}
	b := &scripted{name: "b", actions: []negotiation.Action{negotiation.Withdraw()}}

	r, err := play(context.Background(), [2]negotiation.Party{a, b}, negotiation.NewRoundClock(5), zerolog.Nop())
	assert.NoError(t, err)
	check.Equal(t, OutcomeWithdrawn, r.Outcome)
	check.Equal(t, "b", r.EndedBy)
	check.Equal(t, 1, r.Rounds)
}

func TestPlay_ProtocolViolations(t *testing.T) {
	early := &scripted{name: "a", actions: []negotiation.Action{negotiation.Accept(nil)}}
	idle := &scripted{name: "b", actions: []negotiation.Action{negotiation.Withdraw()}}
	_, err := play(context.Background(), [2]negotiation.Party{early, idle}, negotiation.NewRoundClock(5), zerolog.Nop())
	check.True(t, errors.Is(err, ErrProtocol))

	empty := &scripted{name: "a", actions: []negotiation.Action{negotiation.Offer(nil)}}
	_, err = play(context.Background(), [2]negotiation.Party{empty, idle}, negotiation.NewRoundClock(5), zerolog.Nop())
	check.True(t, errors.Is(err, ErrProtocol))
}

func TestPlay_Cancelled(t *testing.T) {
	sc := lunch(t)
	a, _ := NewHardliner("a", sc.Profiles[0])
	b, _ := NewHardliner("b", sc.Profiles[1])
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := play(ctx, [2]negotiation.Party{a, b}, negotiation.NewRoundClock(5), zerolog.Nop())
	check.True(t, errors.Is(err, context.Canceled))
}

func TestScore(t *testing.T) {
	sc := lunch(t)
	deal := sc.Domain.MustBid(0, 2, 2)
	r := &Result{Agreement: deal}
	score(r, sc)
	ua, ub := sc.Profiles[0].Utility(deal), sc.Profiles[1].Utility(deal)
	check.True(t, r.AgentUtility.Equal(negotiation.Significant(ua, 4)))
	check.True(t, r.OpponentUtility.Equal(negotiation.Significant(ub, 4)))
	nash := (ua - sc.Profiles[0].ReservationValue()) * (ub - sc.Profiles[1].ReservationValue())
	check.True(t, r.NashProduct.Equal(negotiation.Significant(nash, 4)))
	check.Equal(t, deal.String(), r.AgreementText)

	none := &Result{}
	score(none, sc)
	check.Equal(t, "0.3", none.AgentUtility.String())
	check.Equal(t, "0.25", none.OpponentUtility.String())
	check.True(t, none.NashProduct.IsZero())
}

func TestRandomParty(t *testing.T) {
	sc := lunch(t)
	clock := &negotiation.HostClock{}
	p := NewRandomParty("r", sc.Domain, sc.Profiles[1], clock, rand.New(rand.NewSource(3)))
	check.Equal(t, 1.0, p.Aspiration(0))
	check.Equal(t, 0.25, p.Aspiration(1))

	for i := 0; i < 20; i++ {
		act := p.ChooseAction()
		check.Equal(t, negotiation.ActionOffer, act.Type)
		check.True(t, sc.Profiles[1].Utility(act.Bid) >= 0.25)
	}

	clock.Set(0.5)
	best, err := sc.Profiles[1].MaxUtilityBid()
	assert.NoError(t, err)
	assert.NoError(t, p.ReceiveOffer(best))
	act := p.ChooseAction()
	check.Equal(t, negotiation.ActionAccept, act.Type)
	check.True(t, act.Bid.Equal(best))
}

func TestRunSession(t *testing.T) {
	sc := lunch(t)
	for _, kind := range Kinds() {
		t.Run(kind, func(t *testing.T) {
			r, err := RunSession(context.Background(), SessionConfig{Scenario: sc, Opponent: kind, Rounds: 40, Seed: 11})
			assert.NoError(t, err)
			check.NotEqual(t, "", r.SessionID)
			check.Equal(t, kind, r.Opponent)
			check.True(t, r.Rounds <= 40)
			if r.Outcome == OutcomeAgreement {
				check.NotNil(t, r.Agreement)
			} else {
				check.Equal(t, "0.3", r.AgentUtility.String())
				check.True(t, r.NashProduct.IsZero())
			}
		})
	}
}

func TestRunSession_Uncertain(t *testing.T) {
	sc := lunch(t)
	r, err := RunSession(context.Background(), SessionConfig{
		Scenario:  sc,
		Opponent:  KindRandom,
		Rounds:    40,
		Seed:      5,
		Uncertain: true,
		Ranked:    6,
		Cost:      0.001,
	})
	assert.NoError(t, err)
	check.True(t, r.Queries >= 0)
	check.NotEqual(t, "", r.Outcome)
}

func TestRunSession_UnknownOpponent(t *testing.T) {
	_, err := RunSession(context.Background(), SessionConfig{Scenario: lunch(t), Opponent: "saint", Seed: 1})
	check.Error(t, err)
}

func TestRunBatch(t *testing.T) {
	sc := lunch(t)
	b := RunBatch(context.Background(), BatchConfig{
		Session: SessionConfig{Scenario: sc, Opponent: KindRandom, Rounds: 30},
		Games:   6,
		Workers: 3,
		Seed:    42,
	})
	check.Equal(t, 0, b.Errors)
	check.Equal(t, 6, len(b.Results))
	ids := map[string]bool{}
	for _, r := range b.Results {
		assert.NotNil(t, r)
		check.False(t, ids[r.SessionID])
		ids[r.SessionID] = true
	}

	s := b.Summarize()
	check.Equal(t, 6, s.Games)
	check.Equal(t, 6, s.Agreements+s.Withdrawals+s.Deadlines)
	check.True(t, s.Rounds.IsPositive())
}

func TestSummarize_Empty(t *testing.T) {
	s := (&Batch{Results: make([]*Result, 2), Errors: 2}).Summarize()
	check.Equal(t, 2, s.Errors)
	check.Equal(t, 0, s.Agreements)
	check.True(t, s.AgentUtility.IsZero())
}
