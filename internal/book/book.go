// Package book implements the per-symbol two-sided limit order book,
// grounded on _examples/ccyyhlg-lightning-exchange/orderbook/price_tree.go's
// HashMap + doubly-linked-list price tree, adapted from raw int64 ticks to
// money.Decimal and from a single generic domain.Order to this engine's
// types.Order, per SPEC_FULL §4.3.
package book

import (
	"fmt"

	"github.com/abdoElHodaky/auctioncore/internal/ids"
	"github.com/abdoElHodaky/auctioncore/internal/money"
	"github.com/abdoElHodaky/auctioncore/internal/types"
)

// side is one half of a Book: either the bid ladder (descending price) or
// the ask ladder (ascending price).
type side struct {
	levels      map[int64]*priceLevel
	best        *priceLevel
	descending  bool // true for bids (highest first), false for asks (lowest first)
}

func newSide(descending bool) *side {
	return &side{levels: make(map[int64]*priceLevel), descending: descending}
}

func (s *side) isBetter(a, b int64) bool {
	if s.descending {
		return a > b
	}
	return a < b
}

func (s *side) levelFor(price money.Decimal, create bool) *priceLevel {
	key := price.Int64Scaled()
	lvl, ok := s.levels[key]
	if ok || !create {
		return lvl
	}
	lvl = newPriceLevel(price)
	s.levels[key] = lvl
	s.insert(lvl)
	return lvl
}

func (s *side) insert(lvl *priceLevel) {
	if s.best == nil {
		s.best = lvl
		return
	}
	if s.isBetter(lvl.ScaledPrice, s.best.ScaledPrice) {
		lvl.next = s.best
		s.best.prev = lvl
		s.best = lvl
		return
	}
	cur := s.best
	for cur.next != nil && !s.isBetter(lvl.ScaledPrice, cur.next.ScaledPrice) {
		cur = cur.next
	}
	lvl.next = cur.next
	lvl.prev = cur
	if cur.next != nil {
		cur.next.prev = lvl
	}
	cur.next = lvl
}

func (s *side) remove(lvl *priceLevel) {
	delete(s.levels, lvl.ScaledPrice)
	if lvl.prev != nil {
		lvl.prev.next = lvl.next
	}
	if lvl.next != nil {
		lvl.next.prev = lvl.prev
	}
	if s.best == lvl {
		s.best = lvl.next
	}
	lvl.next, lvl.prev = nil, nil
}

// dropIfEmpty removes lvl from the side if its queue is empty, per §4.3
// ("Empty levels are removed from the book").
func (s *side) dropIfEmpty(lvl *priceLevel) {
	if lvl.Orders.Len() == 0 {
		s.remove(lvl)
	}
}

// crosses reports whether a resting price on this side satisfies an
// incoming limit price, per the direction-specific rule in §4.4
// ("buy: best_ask <= price"; "sell: best_bid >= price").
func (s *side) crosses(restingPrice, incomingLimit money.Decimal) bool {
	if s.descending { // this side is bids; incoming is a sell
		return restingPrice.GreaterThanOrEqual(incomingLimit)
	}
	return restingPrice.LessThanOrEqual(incomingLimit) // this side is asks; incoming is a buy
}

// Book is one symbol's two-sided order book plus the owning id->Order map,
// per SPEC_FULL §3 ("OrderBook"). The facade (internal/facade) is the sole
// caller permitted to mutate a Book; it does so under that symbol's lock.
type Book struct {
	Symbol types.Symbol
	bids   *side
	asks   *side
	orders map[ids.OrderID]*types.Order
}

// New constructs an empty book for symbol.
func New(symbol types.Symbol) *Book {
	return &Book{
		Symbol: symbol,
		bids:   newSide(true),
		asks:   newSide(false),
		orders: make(map[ids.OrderID]*types.Order),
	}
}

// sideFor returns the book side an order of the given Side rests on: a buy
// order rests among the bids, a sell order among the asks.
func (b *Book) sideFor(s types.Side) *side {
	if s == types.Buy {
		return b.bids
	}
	return b.asks
}

// oppositeSideFor returns the side an order of the given Side matches
// against: a buy matches the asks, a sell matches the bids.
func (b *Book) oppositeSideFor(s types.Side) *side {
	if s == types.Buy {
		return b.asks
	}
	return b.bids
}

// Add rests order in the book, per §4.3's add operation. Precondition:
// order is not already resting (the facade enforces this via the dedupe
// cache and the orders map itself).
func (b *Book) Add(order *types.Order) error {
	if _, exists := b.orders[order.ID]; exists {
		return fmt.Errorf("book: order %s already resting", order.ID)
	}
	lvl := b.sideFor(order.Side).levelFor(order.Price, true)
	lvl.Orders.PushBack(order.ID)
	lvl.TotalQuantity = lvl.TotalQuantity.Add(order.VisibleQuantity())
	b.orders[order.ID] = order
	return nil
}

// Remove pulls id out of the book entirely (terminal order), per §4.3's
// remove operation. Returns the removed order, or nil if absent.
func (b *Book) Remove(id ids.OrderID) *types.Order {
	order, ok := b.orders[id]
	if !ok {
		return nil
	}
	s := b.sideFor(order.Side)
	lvl := s.levelFor(order.Price, false)
	if lvl != nil {
		lvl.removeID(id)
		s.dropIfEmpty(lvl)
	}
	delete(b.orders, id)
	return order
}

// AdjustVisible updates a resting order's level-total bookkeeping after its
// visible quantity has changed (a fill, or an iceberg replenishment),
// applying delta (which may be negative) to the level's TotalQuantity.
func (b *Book) AdjustVisible(order *types.Order, delta money.Decimal) {
	s := b.sideFor(order.Side)
	lvl := s.levelFor(order.Price, false)
	if lvl == nil {
		return
	}
	lvl.TotalQuantity = lvl.TotalQuantity.Add(delta)
}

// MoveToTail relocates a resting iceberg order to the back of its price
// level's FIFO queue, per §4.4's replenishment-costs-priority rule.
func (b *Book) MoveToTail(order *types.Order) {
	lvl := b.sideFor(order.Side).levelFor(order.Price, false)
	if lvl != nil {
		lvl.moveToTail(order.ID)
	}
}

// DropEmptyLevel removes order's price level if it is now empty; called by
// the matching engine after exhausting a level without Remove (e.g. when a
// fill drains a level's last order down to zero, which always also calls
// Remove, but kept as a defensive no-op-safe helper for callers that only
// have the price).
func (b *Book) DropEmptyLevel(s types.Side, price money.Decimal) {
	sd := b.sideFor(s)
	if lvl := sd.levelFor(price, false); lvl != nil {
		sd.dropIfEmpty(lvl)
	}
}

// Get looks up a resting order by id.
func (b *Book) Get(id ids.OrderID) (*types.Order, bool) {
	o, ok := b.orders[id]
	return o, ok
}

// BestBid returns the best (highest) resting bid price and whether one
// exists.
func (b *Book) BestBid() (money.Decimal, bool) {
	if b.bids.best == nil {
		return money.Zero, false
	}
	return b.bids.best.Price, true
}

// BestAsk returns the best (lowest) resting ask price and whether one
// exists.
func (b *Book) BestAsk() (money.Decimal, bool) {
	if b.asks.best == nil {
		return money.Zero, false
	}
	return b.asks.best.Price, true
}

// BestOppositeLevel returns the best resting price level on the side
// opposite to s, or nil if that side is empty. Used by the matching engine
// to walk from best price outward.
func (b *Book) BestOppositeLevel(s types.Side) *priceLevel {
	return b.oppositeSideFor(s).best
}

// NextLevel exposes the linked-list walk so the matching engine can move to
// the next-best price after exhausting one level.
func NextLevel(l *priceLevel) *priceLevel { return l.next }

// LevelOrderIDs returns a level's resting order ids in FIFO order, front
// (next to fill) to back (most recently arrived or replenished).
func LevelOrderIDs(l *priceLevel) []ids.OrderID {
	out := make([]ids.OrderID, 0, l.Orders.Len())
	for e := l.Orders.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value.(ids.OrderID))
	}
	return out
}

// LevelPrice returns a level's price.
func LevelPrice(l *priceLevel) money.Decimal { return l.Price }

// LevelFront returns the id at the head of a level's FIFO queue and
// whether the level has any orders.
func LevelFront(l *priceLevel) (ids.OrderID, bool) {
	e := l.Orders.Front()
	if e == nil {
		var zero ids.OrderID
		return zero, false
	}
	return e.Value.(ids.OrderID), true
}

// Depth returns up to maxLevels price levels from best outward on the
// requested side, for read-only snapshot queries.
func (b *Book) Depth(s types.Side, maxLevels int) []PriceLevelView {
	sd := b.sideFor(s)
	out := make([]PriceLevelView, 0, maxLevels)
	for cur := sd.best; cur != nil && len(out) < maxLevels; cur = cur.next {
		out = append(out, cur.view())
	}
	return out
}

// Spread returns bestAsk - bestBid, a supplemented convenience accessor
// from SPEC_FULL §17, derived from already-required best bid/ask state.
func (b *Book) Spread() (money.Decimal, bool) {
	bid, okBid := b.BestBid()
	ask, okAsk := b.BestAsk()
	if !okBid || !okAsk {
		return money.Zero, false
	}
	return ask.Sub(bid), true
}

// MidPrice returns (bestBid + bestAsk) / 2, a supplemented convenience
// accessor from SPEC_FULL §17.
func (b *Book) MidPrice() (money.Decimal, bool) {
	bid, okBid := b.BestBid()
	ask, okAsk := b.BestAsk()
	if !okBid || !okAsk {
		return money.Zero, false
	}
	two := money.MustFromString("2")
	return bid.Add(ask).Div(two), true
}

// IsEmpty reports whether neither side has any resting orders.
func (b *Book) IsEmpty() bool {
	return b.bids.best == nil && b.asks.best == nil
}

// AllOrders returns every resting order in this book: bids best price
// first, then asks best price first, each level in FIFO queue order, so
// re-adding them in this order rebuilds the same queues. Used by the expiry
// sweeper (internal/sweep) to find GTD/DAY orders past their expire time,
// and by the snapshot writer (internal/snapshot) to serialize book state,
// per SPEC_FULL §4.7/§4.10.
func (b *Book) AllOrders() []*types.Order {
	out := make([]*types.Order, 0, len(b.orders))
	for _, sd := range []*side{b.bids, b.asks} {
		for lvl := sd.best; lvl != nil; lvl = lvl.next {
			for e := lvl.Orders.Front(); e != nil; e = e.Next() {
				out = append(out, b.orders[e.Value.(ids.OrderID)])
			}
		}
	}
	return out
}
