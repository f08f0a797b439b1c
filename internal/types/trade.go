package types

import (
	"github.com/abdoElHodaky/auctioncore/internal/ids"
	"github.com/abdoElHodaky/auctioncore/internal/money"
)

// Trade is an immutable execution record, per SPEC_FULL §3. Trade price is
// always the maker's (resting order's) price — see the matching engine's
// maker-sets-price rule.
type Trade struct {
	ID             ids.TradeID
	Symbol         Symbol
	Price          money.Decimal
	Quantity       money.Decimal
	BuyerOrderID   ids.OrderID
	SellerOrderID  ids.OrderID
	BuyerUserID    string
	SellerUserID   string
	MakerFee       money.Decimal
	TakerFee       money.Decimal
	TimestampNano  int64
}
