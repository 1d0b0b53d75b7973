package transport

import (
	"context"
	"errors"
	"fmt"

	"github.com/freeeve/haggle/pkg/negotiation"
)

// ErrDisconnected is returned when the host drops the connection before
// the session ends.
var ErrDisconnected = errors.New("transport: host disconnected")

// EventSource yields host events and accepts replies.
type EventSource interface {
	Events() <-chan Event
	Send(Reply) error
}

// Run drives party against a host until an end event, a terminal action
// from the party, or ctx cancellation. Every event's time is pushed into
// clock before the event is handled.
func Run(ctx context.Context, src EventSource, d *negotiation.Domain, party negotiation.Party, clock *negotiation.HostClock) error {
	events := src.Events()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return ErrDisconnected
			}
			clock.Set(ev.Time)
			switch ev.Type {
			case EventOffer:
				bid, err := decodeBid(d, ev.Bid)
				if err != nil {
					return err
				}
				if err := party.ReceiveOffer(bid); err != nil {
					return fmt.Errorf("receive offer: %w", err)
				}
			case EventTurn:
				act := party.ChooseAction()
				if err := src.Send(ReplyFor(act)); err != nil {
					return fmt.Errorf("send %s: %w", act.Type, err)
				}
				if act.Terminal() {
					return nil
				}
			case EventEnd:
				return nil
			}
		}
	}
}

func decodeBid(d *negotiation.Domain, raw map[string]string) (*negotiation.Bid, error) {
	assignment := make(map[string]negotiation.Value, len(raw))
	for issue, v := range raw {
		assignment[issue] = negotiation.Value(v)
	}
	bid, err := negotiation.NewBid(d, assignment)
	if err != nil {
		return nil, fmt.Errorf("decode bid: %w", err)
	}
	return bid, nil
}
