package types

import (
	"github.com/abdoElHodaky/auctioncore/internal/ids"
	"github.com/abdoElHodaky/auctioncore/internal/money"
)

// Symbol is a short, case-sensitive, opaque key, per SPEC_FULL §3.
type Symbol string

// IcebergConfig splits an order's true quantity into a displayed portion
// and a hidden reserve, per SPEC_FULL §3. Invariant: Total ==
// DisplayQuantity + HiddenQuantity, and 0 < DisplayQuantity <= Total.
type IcebergConfig struct {
	TotalQuantity      money.Decimal
	DisplayQuantity    money.Decimal
	HiddenQuantity     money.Decimal
	ReplenishThreshold money.Decimal

	// DisplayVariance is carried through the WAL and checkpoints.
	// Supplemented from original_source/src/models/iceberg.rs; replenishment
	// does not read it and always refills exactly.
	DisplayVariance money.Decimal

	// TargetDisplayQuantity is the display size configured at order
	// creation time; replenishment refills up to this amount (or less, if
	// hidden quantity is insufficient), per SPEC_FULL §4.4. It does not
	// change as DisplayQuantity depletes during matching.
	TargetDisplayQuantity money.Decimal
}

// Valid checks the IcebergConfig invariant from SPEC_FULL §3.
func (c IcebergConfig) Valid() bool {
	if !c.TotalQuantity.Equal(c.DisplayQuantity.Add(c.HiddenQuantity)) {
		return false
	}
	if !c.DisplayQuantity.IsPositive() {
		return false
	}
	return c.DisplayQuantity.LessThanOrEqual(c.TotalQuantity)
}

// Order is the canonical request record, also used as resting book state,
// per SPEC_FULL §3.
type Order struct {
	ID             ids.OrderID
	Symbol         Symbol
	Side           Side
	OrderType      OrderType
	Price          money.Decimal // present iff OrderType == Limit (or a triggered stop-limit)
	HasPrice       bool
	Quantity       money.Decimal
	FilledQuantity money.Decimal
	Status         OrderStatus
	UserID         string
	TimestampNano  int64
	TIF            TimeInForce
	STP            STPMode
	PostOnly       bool
	ExpireTimeNano int64
	HasExpireTime  bool
	Iceberg        *IcebergConfig

	// ClientOrderID is an optional caller-supplied idempotency token,
	// distinct from the engine-assigned OrderID; carried through the WAL and
	// checkpoints. The dedupe cache (internal/dedupe) keys on OrderID only.
	ClientOrderID string
}

// RemainingQuantity is Quantity - FilledQuantity.
func (o *Order) RemainingQuantity() money.Decimal {
	return o.Quantity.Sub(o.FilledQuantity)
}

// VisibleQuantity is the quantity this order advertises to the book: for a
// plain order it is the full remaining quantity; for an iceberg order it is
// capped at the current DisplayQuantity, per SPEC_FULL §4.3/§4.4.
func (o *Order) VisibleQuantity() money.Decimal {
	if o.Iceberg == nil {
		return o.RemainingQuantity()
	}
	return money.Min(o.Iceberg.DisplayQuantity, o.RemainingQuantity())
}

// IsIceberg reports whether this order carries a hidden reserve.
func (o *Order) IsIceberg() bool { return o.Iceberg != nil }

// MarkFilled applies a fill of size f, updating FilledQuantity, the
// iceberg display/hidden split if applicable, and Status. It does not
// touch book-side state (queue position); that is the book's job.
func (o *Order) MarkFilled(f money.Decimal) {
	o.FilledQuantity = o.FilledQuantity.Add(f)
	if o.Iceberg != nil {
		o.Iceberg.DisplayQuantity = o.Iceberg.DisplayQuantity.Sub(f)
		o.Iceberg.TotalQuantity = o.Iceberg.TotalQuantity.Sub(f)
	}
	if o.RemainingQuantity().IsZero() {
		o.Status = StatusFilled
	} else {
		o.Status = StatusPartiallyFilled
	}
}

// NeedsIcebergReplenish reports whether this resting iceberg order's
// display has fallen to or below its replenish threshold while hidden
// quantity remains, per SPEC_FULL §4.4.
func (o *Order) NeedsIcebergReplenish() bool {
	if o.Iceberg == nil {
		return false
	}
	return o.Iceberg.DisplayQuantity.LessThanOrEqual(o.Iceberg.ReplenishThreshold) &&
		o.Iceberg.HiddenQuantity.IsPositive()
}
