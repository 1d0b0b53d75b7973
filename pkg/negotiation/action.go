package negotiation

// ActionType enumerates what a party can do on its turn.
type ActionType int

const (
	ActionOffer ActionType = iota
	ActionAccept
	ActionWithdraw
)

func (a ActionType) String() string {
	switch a {
	case ActionOffer:
		return "offer"
	case ActionAccept:
		return "accept"
	default:
		return "withdraw"
	}
}

// Action is a party's move. Bid is the offered bid for ActionOffer, the
// accepted bid for ActionAccept, and nil for ActionWithdraw.
type Action struct {
	Type ActionType
	Bid  *Bid
}

// Offer proposes bid to the counterpart.
func Offer(bid *Bid) Action { return Action{Type: ActionOffer, Bid: bid} }

// Accept agrees to the counterpart's bid.
func Accept(bid *Bid) Action { return Action{Type: ActionAccept, Bid: bid} }

// Withdraw ends the negotiation without agreement.
func Withdraw() Action { return Action{Type: ActionWithdraw} }

// Terminal reports whether the action ends the negotiation.
func (a Action) Terminal() bool { return a.Type != ActionOffer }

func (a Action) String() string {
	if a.Bid == nil {
		return a.Type.String()
	}
	return a.Type.String() + "(" + a.Bid.String() + ")"
}

// Party is one side of a bilateral negotiation. The host calls
// ReceiveOffer for every counterpart offer and ChooseAction once per turn;
// calls are never concurrent.
type Party interface {
	Name() string
	ReceiveOffer(bid *Bid) error
	ChooseAction() Action
}
