package types

// Side is the direction of an order: {Buy, Sell}, per SPEC_FULL §3.
type Side uint8

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Buy {
		return "buy"
	}
	return "sell"
}

// Opposite returns the other side, used throughout the matching engine to
// pick which book side an incoming order crosses against.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

// OrderType is {Limit, Market}, per SPEC_FULL §3.
type OrderType uint8

const (
	Limit OrderType = iota
	Market
)

func (t OrderType) String() string {
	if t == Limit {
		return "limit"
	}
	return "market"
}

// TimeInForce is {GTC, IOC, FOK, GTD, DAY}, per SPEC_FULL §3.
type TimeInForce uint8

const (
	GTC TimeInForce = iota
	IOC
	FOK
	GTD
	DAY
)

func (t TimeInForce) String() string {
	switch t {
	case GTC:
		return "gtc"
	case IOC:
		return "ioc"
	case FOK:
		return "fok"
	case GTD:
		return "gtd"
	case DAY:
		return "day"
	default:
		return "unknown"
	}
}

// STPMode is the self-trade-prevention policy family from SPEC_FULL §4.4.
type STPMode uint8

const (
	STPNone STPMode = iota
	STPCancelResting
	STPCancelIncoming
	STPCancelBoth
	STPCancelSmallest
	STPDecrementBoth
)

func (m STPMode) String() string {
	switch m {
	case STPNone:
		return "none"
	case STPCancelResting:
		return "cancel_resting"
	case STPCancelIncoming:
		return "cancel_incoming"
	case STPCancelBoth:
		return "cancel_both"
	case STPCancelSmallest:
		return "cancel_smallest"
	case STPDecrementBoth:
		return "decrement_both"
	default:
		return "unknown"
	}
}

// OrderStatus is the order lifecycle state from SPEC_FULL §3. Transitions
// are monotonic toward a terminal state (Filled | Cancelled | Rejected |
// Expired); New and PartiallyFilled are the only non-terminal values.
type OrderStatus uint8

const (
	StatusNew OrderStatus = iota
	StatusPartiallyFilled
	StatusFilled
	StatusCancelled
	StatusRejected
	StatusExpired
)

func (s OrderStatus) String() string {
	switch s {
	case StatusNew:
		return "new"
	case StatusPartiallyFilled:
		return "partially_filled"
	case StatusFilled:
		return "filled"
	case StatusCancelled:
		return "cancelled"
	case StatusRejected:
		return "rejected"
	case StatusExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether the status is one of the four terminal states.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case StatusFilled, StatusCancelled, StatusRejected, StatusExpired:
		return true
	default:
		return false
	}
}

// TriggerCondition is the exact comparison a StopOrder's trigger price uses
// against a trade print, per SPEC_FULL §3/§4.5.
type TriggerCondition uint8

const (
	AtOrAbove TriggerCondition = iota
	AtOrBelow
	Above
	Below
)

func (c TriggerCondition) String() string {
	switch c {
	case AtOrAbove:
		return "at_or_above"
	case AtOrBelow:
		return "at_or_below"
	case Above:
		return "above"
	case Below:
		return "below"
	default:
		return "unknown"
	}
}

// StopType is {StopMarket, StopLimit, TrailingStop}, per SPEC_FULL §3.
type StopType uint8

const (
	StopMarket StopType = iota
	StopLimit
	TrailingStop
)

func (t StopType) String() string {
	switch t {
	case StopMarket:
		return "stop_market"
	case StopLimit:
		return "stop_limit"
	case TrailingStop:
		return "trailing_stop"
	default:
		return "unknown"
	}
}

// StopStatus is the conditional-order lifecycle state, per SPEC_FULL §3.
type StopStatus uint8

const (
	StopPending StopStatus = iota
	StopTriggered
	StopCancelled
	StopExpired
	StopRejected
)

func (s StopStatus) String() string {
	switch s {
	case StopPending:
		return "pending"
	case StopTriggered:
		return "triggered"
	case StopCancelled:
		return "cancelled"
	case StopExpired:
		return "expired"
	case StopRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// ResidualAction tells the facade what to do with whatever quantity a
// matching pass did not fill, per SPEC_FULL §4.4's public contract.
type ResidualAction uint8

const (
	ResidualRest ResidualAction = iota
	ResidualDiscard
)
