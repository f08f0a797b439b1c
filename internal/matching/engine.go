// Package matching implements the price-time crossing algorithm, self-trade
// prevention, time-in-force handling, post-only enforcement, and iceberg
// replenishment described in SPEC_FULL §4.4. No single source in the
// retrieval pack carries a complete reference matching loop over these
// rules (original_source/src/engine/matching.rs is import-only in this
// pack), so the algorithm below is synthesized directly from the spec,
// using internal/book's price-level walk as its iteration primitive and
// the teacher's pkg/matching/engine_core.go dispatch-by-order-type shape as
// its control-flow template.
package matching

import (
	"github.com/abdoElHodaky/auctioncore/internal/book"
	"github.com/abdoElHodaky/auctioncore/internal/ids"
	"github.com/abdoElHodaky/auctioncore/internal/money"
	"github.com/abdoElHodaky/auctioncore/internal/types"
)

// Result is the public contract of MatchOrder, per SPEC_FULL §4.4: the
// final state of the incoming order, every trade produced in the order
// they occurred, a residual action for the facade, and any resting orders
// that STP terminalized along the way (already removed from the book here,
// so the facade can record them as terminal and publish their cancellation).
type Result struct {
	Order        types.Order
	Trades       []types.Trade
	Residual     types.ResidualAction
	Cancelled    []types.Order // resting orders cancelled by STP during this pass
}

// Clock supplies timestamps for iceberg replenishment and trade records.
type Clock = ids.Clock

// Engine runs the crossing algorithm against a single symbol's Book. It
// holds no state of its own beyond its dependencies; the facade
// (internal/facade) is responsible for locking the book for the duration
// of a call.
type Engine struct {
	clock Clock
}

// New constructs a matching Engine using clock for all timestamps it
// assigns (iceberg replenishment resets, trade timestamps).
func New(clock Clock) *Engine {
	return &Engine{clock: clock}
}

// MatchOrder runs incoming against b, implementing SPEC_FULL §4.4 in full:
// post-only pre-check, FOK dry-run admission, STP evaluation per candidate,
// iceberg fill/replenish, and TIF-driven residual handling.
func (e *Engine) MatchOrder(incoming types.Order, b *book.Book) Result {
	if incoming.PostOnly && incoming.OrderType == types.Limit {
		if e.wouldCross(incoming, b) {
			incoming.Status = types.StatusRejected
			return Result{Order: incoming, Residual: types.ResidualDiscard}
		}
	}

	if incoming.TIF == types.FOK {
		if !e.fokReachable(incoming, b) {
			incoming.Status = types.StatusRejected
			return Result{Order: incoming, Residual: types.ResidualDiscard}
		}
	}

	res := e.cross(incoming, b)

	// An STP halt against the incoming order (CancelIncoming, CancelBoth, or
	// DecrementBoth draining it to zero) already left it in a terminal
	// state; no TIF rule may pull it back onto the book.
	if res.Order.Status == types.StatusCancelled {
		res.Residual = types.ResidualDiscard
		return res
	}

	switch res.Order.TIF {
	case types.IOC, types.FOK:
		res.Residual = types.ResidualDiscard
		if res.Order.FilledQuantity.IsZero() {
			res.Order.Status = types.StatusCancelled
		} else if !res.Order.RemainingQuantity().IsZero() {
			res.Order.Status = types.StatusPartiallyFilled
		}
	default: // GTC, GTD, DAY
		if res.Order.OrderType == types.Market {
			// Market orders never rest, per §4.4.
			res.Residual = types.ResidualDiscard
			if !res.Order.RemainingQuantity().IsZero() && !res.Order.FilledQuantity.IsZero() {
				res.Order.Status = types.StatusPartiallyFilled
			} else if !res.Order.RemainingQuantity().IsZero() {
				res.Order.Status = types.StatusCancelled
			}
		} else if res.Order.RemainingQuantity().IsZero() {
			res.Residual = types.ResidualDiscard
		} else {
			res.Residual = types.ResidualRest
			if res.Order.Status != types.StatusPartiallyFilled {
				res.Order.Status = types.StatusNew
			}
		}
	}

	return res
}

// wouldCross reports whether incoming's limit price would immediately
// cross the opposing book, the pre-match scan post-only needs.
func (e *Engine) wouldCross(incoming types.Order, b *book.Book) bool {
	lvl := b.BestOppositeLevel(incoming.Side)
	if lvl == nil {
		return false
	}
	return book.LevelPrice(lvl).IsPositive() && crossesLimit(incoming.Side, book.LevelPrice(lvl), incoming.Price)
}

// crossesLimit applies the direction-specific rule from §4.4: a buy
// crosses when the opposing ask is at or below its limit; a sell crosses
// when the opposing bid is at or above its limit.
func crossesLimit(incomingSide types.Side, restingPrice, incomingLimit money.Decimal) bool {
	if incomingSide == types.Buy {
		return restingPrice.LessThanOrEqual(incomingLimit)
	}
	return restingPrice.GreaterThanOrEqual(incomingLimit)
}

// fokReachable performs the dry-run reachable-liquidity accumulation
// across the opposing side, counting only visible quantity and respecting
// the limit price for limit orders, per §4.4's FOK rule.
func (e *Engine) fokReachable(incoming types.Order, b *book.Book) bool {
	need := incoming.RemainingQuantity()
	have := money.Zero
	for lvl := b.BestOppositeLevel(incoming.Side); lvl != nil; lvl = book.NextLevel(lvl) {
		price := book.LevelPrice(lvl)
		if incoming.OrderType == types.Limit && !crossesLimit(incoming.Side, price, incoming.Price) {
			break
		}
		for _, id := range book.LevelOrderIDs(lvl) {
			resting, ok := b.Get(id)
			if !ok {
				continue
			}
			have = have.Add(resting.VisibleQuantity())
			if have.GreaterThanOrEqual(need) {
				return true
			}
		}
	}
	return have.GreaterThanOrEqual(need)
}

// cross walks the opposing side from best price outward, filling incoming
// against resting orders in strict FIFO order within each level, applying
// STP ahead of every candidate fill and iceberg replenishment after every
// fill that depletes a maker's display quantity.
func (e *Engine) cross(incoming types.Order, b *book.Book) Result {
	var trades []types.Trade
	var cancelledResting []types.Order
	res := Result{}

	for !incoming.RemainingQuantity().IsZero() {
		lvl := b.BestOppositeLevel(incoming.Side)
		if lvl == nil {
			break
		}
		price := book.LevelPrice(lvl)
		if incoming.OrderType == types.Limit && !crossesLimit(incoming.Side, price, incoming.Price) {
			break
		}

		restingID, ok := book.LevelFront(lvl)
		if !ok {
			b.DropEmptyLevel(incoming.Side.Opposite(), price)
			continue
		}
		resting, ok := b.Get(restingID)
		if !ok {
			continue
		}

		if incoming.STP != types.STPNone && resting.UserID == incoming.UserID {
			haltIncoming, cancelled := e.applySTP(&incoming, resting, b)
			cancelledResting = append(cancelledResting, cancelled...)
			if haltIncoming {
				break
			}
			continue
		}

		fill := money.Min(incoming.RemainingQuantity(), resting.VisibleQuantity())
		if fill.IsZero() {
			break
		}

		trade := types.Trade{
			ID:            ids.NewTradeID(),
			Symbol:        incoming.Symbol,
			Price:         resting.Price, // maker-sets-price rule
			Quantity:      fill,
			TimestampNano: e.clock.NowNano(),
		}
		if incoming.Side == types.Buy {
			trade.BuyerOrderID, trade.SellerOrderID = incoming.ID, resting.ID
			trade.BuyerUserID, trade.SellerUserID = incoming.UserID, resting.UserID
		} else {
			trade.BuyerOrderID, trade.SellerOrderID = resting.ID, incoming.ID
			trade.BuyerUserID, trade.SellerUserID = resting.UserID, incoming.UserID
		}
		trades = append(trades, trade)

		incoming.MarkFilled(fill)
		restingVisibleBefore := resting.VisibleQuantity()
		resting.MarkFilled(fill)
		b.AdjustVisible(resting, resting.VisibleQuantity().Sub(restingVisibleBefore))

		if resting.RemainingQuantity().IsZero() {
			b.Remove(resting.ID)
		} else if resting.NeedsIcebergReplenish() {
			e.replenishIceberg(resting, b)
		}
	}

	res.Order = incoming
	res.Trades = trades
	res.Cancelled = cancelledResting
	return res
}

// replenishIceberg refills a resting iceberg order's display quantity from
// its hidden reserve, resets its timestamp, and moves it to the tail of its
// price level's FIFO queue, per §4.4 ("replenishment costs time priority").
func (e *Engine) replenishIceberg(resting *types.Order, b *book.Book) {
	ic := resting.Iceberg
	shortfall := ic.TargetDisplayQuantity.Sub(ic.DisplayQuantity)
	refill := money.Min(ic.HiddenQuantity, shortfall)
	before := resting.VisibleQuantity()
	ic.DisplayQuantity = ic.DisplayQuantity.Add(refill)
	ic.HiddenQuantity = ic.HiddenQuantity.Sub(refill)
	after := resting.VisibleQuantity()

	b.AdjustVisible(resting, after.Sub(before))
	resting.TimestampNano = e.clock.NowNano()
	b.MoveToTail(resting)
}

// applySTP implements the six self-trade-prevention modes from §4.4.
// Returns whether matching against the incoming order must halt, plus any
// resting orders it terminalized (for the facade to log/publish).
func (e *Engine) applySTP(incoming *types.Order, resting *types.Order, b *book.Book) (halt bool, cancelled []types.Order) {
	switch incoming.STP {
	case types.STPCancelResting:
		resting.Status = types.StatusCancelled
		b.Remove(resting.ID)
		return false, []types.Order{*resting}

	case types.STPCancelIncoming:
		incoming.Status = types.StatusCancelled
		return true, nil

	case types.STPCancelBoth:
		resting.Status = types.StatusCancelled
		b.Remove(resting.ID)
		incoming.Status = types.StatusCancelled
		return true, []types.Order{*resting}

	case types.STPCancelSmallest:
		restingRem := resting.RemainingQuantity()
		incomingRem := incoming.RemainingQuantity()
		if incomingRem.LessThan(restingRem) {
			incoming.Status = types.StatusCancelled
			return true, nil
		}
		resting.Status = types.StatusCancelled
		b.Remove(resting.ID)
		return false, []types.Order{*resting}

	case types.STPDecrementBoth:
		d := money.Min(incoming.RemainingQuantity(), resting.VisibleQuantity())
		before := resting.VisibleQuantity()
		incoming.FilledQuantity = incoming.FilledQuantity.Add(d)
		resting.FilledQuantity = resting.FilledQuantity.Add(d)
		if resting.Iceberg != nil {
			resting.Iceberg.DisplayQuantity = resting.Iceberg.DisplayQuantity.Sub(d)
			resting.Iceberg.TotalQuantity = resting.Iceberg.TotalQuantity.Sub(d)
		}
		after := resting.VisibleQuantity()
		b.AdjustVisible(resting, after.Sub(before))

		restingDone := resting.RemainingQuantity().IsZero()
		incomingDone := incoming.RemainingQuantity().IsZero()
		if restingDone {
			resting.Status = types.StatusCancelled
			b.Remove(resting.ID)
			cancelled = append(cancelled, *resting)
		}
		if incomingDone {
			incoming.Status = types.StatusCancelled
			return true, cancelled
		}
		return !restingDone, cancelled

	default:
		return false, nil
	}
}
