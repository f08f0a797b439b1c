package types

import (
	"github.com/abdoElHodaky/auctioncore/internal/ids"
	"github.com/abdoElHodaky/auctioncore/internal/money"
)

// StopOrder is a pending conditional order, per SPEC_FULL §3. Invariants:
// StopType == StopLimit implies LimitPrice is set; StopType == TrailingStop
// implies exactly one of TrailAmount/TrailPercent is set.
type StopOrder struct {
	ID               ids.StopOrderID
	Symbol           Symbol
	UserID           string
	Side             Side
	Quantity         money.Decimal
	TriggerPrice     money.Decimal
	TriggerCondition TriggerCondition
	StopType         StopType

	LimitPrice    money.Decimal
	HasLimitPrice bool

	TrailAmount    money.Decimal
	HasTrailAmount bool
	TrailPercent   money.Decimal
	HasTrailPercent bool

	// HighestSeen/LowestSeen are the trailing-stop anchors. Per SPEC_FULL
	// §4.5's resolved open question, a sell-side trailing stop only ever
	// updates HighestSeen and a buy-side one only ever updates LowestSeen.
	HighestSeen    money.Decimal
	HasHighestSeen bool
	LowestSeen     money.Decimal
	HasLowestSeen  bool

	CreatedAtNano  int64
	ExpireTimeNano int64
	HasExpireTime  bool
	Status         StopStatus

	TIF      TimeInForce
	STP      STPMode
	PostOnly bool
}

// IsTrailing reports whether this stop recomputes its trigger price from a
// running anchor instead of using a fixed TriggerPrice.
func (s *StopOrder) IsTrailing() bool { return s.StopType == TrailingStop }

// Valid checks the structural invariants from SPEC_FULL §3.
func (s *StopOrder) Valid() bool {
	if s.StopType == StopLimit && !s.HasLimitPrice {
		return false
	}
	if s.StopType == TrailingStop && s.HasTrailAmount == s.HasTrailPercent {
		return false // exactly one must be set
	}
	return true
}
