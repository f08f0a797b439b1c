// Package trigger holds pending conditional (stop) orders and, on every
// trade print, evaluates which ones fire, per SPEC_FULL §4.5. It is
// grounded on original_source/src/engine/trigger.rs: add_stop_order,
// on_trade, convert_to_order, update_trailing_stops, and cleanup_expired
// all map one-to-one onto the methods below. The source's two
// price-ordered BTreeMaps become red-black trees (emirpasic/gods) keyed
// by scaled trigger price, giving the same ordered-scan-from-trade-price
// shape with O(log N) insert/cancel instead of a linear Vec search.
package trigger

import (
	"container/list"

	"github.com/emirpasic/gods/trees/redblacktree"
	godsutils "github.com/emirpasic/gods/utils"

	"github.com/abdoElHodaky/auctioncore/internal/ids"
	"github.com/abdoElHodaky/auctioncore/internal/money"
	"github.com/abdoElHodaky/auctioncore/internal/types"
)

// indexEntry locates a pending stop for O(log N) cancellation, the Go
// analogue of the source's order_index: Uuid -> (trigger_price, is_buy).
type indexEntry struct {
	scaledPrice int64
	isBuy       bool
}

// Engine monitors trade prints and emits fresh orders for stops whose
// trigger condition has been satisfied.
type Engine struct {
	clock ids.Clock

	buyStops  *redblacktree.Tree // scaledPrice -> *list.List of *types.StopOrder
	sellStops *redblacktree.Tree

	index map[ids.StopOrderID]indexEntry

	lastTradePrice money.Decimal
	hasLastTrade   bool
}

// New constructs an empty trigger Engine using clock for all timestamps it
// assigns to emitted orders.
func New(clock ids.Clock) *Engine {
	return &Engine{
		clock:     clock,
		buyStops:  redblacktree.NewWith(godsutils.Int64Comparator),
		sellStops: redblacktree.NewWith(godsutils.Int64Comparator),
		index:     make(map[ids.StopOrderID]indexEntry),
	}
}

func (e *Engine) treeFor(isBuy bool) *redblacktree.Tree {
	if isBuy {
		return e.buyStops
	}
	return e.sellStops
}

func bucketAt(tree *redblacktree.Tree, key int64, create bool) *list.List {
	if v, ok := tree.Get(key); ok {
		return v.(*list.List)
	}
	if !create {
		return nil
	}
	l := list.New()
	tree.Put(key, l)
	return l
}

// AddStopOrder registers a new pending stop, per the source's
// add_stop_order.
func (e *Engine) AddStopOrder(stop *types.StopOrder) {
	isBuy := stop.Side == types.Buy
	key := stop.TriggerPrice.Int64Scaled()
	bucketAt(e.treeFor(isBuy), key, true).PushBack(stop)
	e.index[stop.ID] = indexEntry{scaledPrice: key, isBuy: isBuy}
}

// CancelStopOrder removes a pending stop by id, marking it Cancelled.
// Returns nil if the id is not pending (already triggered, expired, or
// never registered).
func (e *Engine) CancelStopOrder(id ids.StopOrderID) *types.StopOrder {
	entry, ok := e.index[id]
	if !ok {
		return nil
	}
	delete(e.index, id)

	tree := e.treeFor(entry.isBuy)
	bucket := bucketAt(tree, entry.scaledPrice, false)
	if bucket == nil {
		return nil
	}
	for el := bucket.Front(); el != nil; el = el.Next() {
		stop := el.Value.(*types.StopOrder)
		if stop.ID != id {
			continue
		}
		bucket.Remove(el)
		if bucket.Len() == 0 {
			tree.Remove(entry.scaledPrice)
		}
		stop.Status = types.StopCancelled
		return stop
	}
	return nil
}

// GetStopOrder looks up a pending stop by id.
func (e *Engine) GetStopOrder(id ids.StopOrderID) (*types.StopOrder, bool) {
	entry, ok := e.index[id]
	if !ok {
		return nil, false
	}
	bucket := bucketAt(e.treeFor(entry.isBuy), entry.scaledPrice, false)
	if bucket == nil {
		return nil, false
	}
	for el := bucket.Front(); el != nil; el = el.Next() {
		if stop := el.Value.(*types.StopOrder); stop.ID == id {
			return stop, true
		}
	}
	return nil, false
}

// StopOrdersBySymbol returns every still-pending stop for symbol, in no
// particular order.
func (e *Engine) StopOrdersBySymbol(symbol types.Symbol) []*types.StopOrder {
	var out []*types.StopOrder
	collect := func(tree *redblacktree.Tree) {
		it := tree.Iterator()
		for it.Next() {
			bucket := it.Value().(*list.List)
			for el := bucket.Front(); el != nil; el = el.Next() {
				if stop := el.Value.(*types.StopOrder); stop.Symbol == symbol && stop.Status == types.StopPending {
					out = append(out, stop)
				}
			}
		}
	}
	collect(e.buyStops)
	collect(e.sellStops)
	return out
}

// TotalStopOrders returns the number of stops currently indexed (pending).
func (e *Engine) TotalStopOrders() int { return len(e.index) }

// LastTradePrice returns the most recent trade price OnTrade observed.
func (e *Engine) LastTradePrice() (money.Decimal, bool) {
	return e.lastTradePrice, e.hasLastTrade
}

// OnTrade processes a trade print at tradePrice: updates trailing anchors,
// scans both sides for satisfied trigger conditions in ascending key order
// (buy stops first, lowest trigger price first, which for buys is the
// farthest from the trade price; then sell stops, where the lowest key is
// the closest),
// and returns freshly emitted orders ready for resubmission to the engine
// facade. Expired stops encountered along the way are marked Expired and
// produce no emission.
func (e *Engine) OnTrade(tradePrice money.Decimal) []types.Order {
	e.updateTrailingStops(tradePrice)

	var triggered []types.Order
	triggered = append(triggered, e.scanBuyStops(tradePrice)...)
	triggered = append(triggered, e.scanSellStops(tradePrice)...)

	e.lastTradePrice = tradePrice
	e.hasLastTrade = true
	return triggered
}

// scanBuyStops selects every buy stop with trigger key <= tradePrice (the
// source's buy_stops.range(..=trade_price)), ascending from the lowest key
// so the scan can stop at the first key exceeding tradePrice.
func (e *Engine) scanBuyStops(tradePrice money.Decimal) []types.Order {
	p := tradePrice.Int64Scaled()
	var out []types.Order
	var drainedKeys []int64

	it := e.buyStops.Iterator()
	for it.Next() {
		key := it.Key().(int64)
		if key > p {
			break
		}
		drainedKeys = append(drainedKeys, key)
	}
	for _, key := range drainedKeys {
		out = append(out, e.drainBucket(e.buyStops, key, tradePrice)...)
	}
	return out
}

// scanSellStops selects every sell stop with trigger key >= tradePrice
// (the source's sell_stops.range(trade_price..)).
func (e *Engine) scanSellStops(tradePrice money.Decimal) []types.Order {
	p := tradePrice.Int64Scaled()
	var out []types.Order
	var drainedKeys []int64

	it := e.sellStops.Iterator()
	for it.Next() {
		key := it.Key().(int64)
		if key < p {
			continue
		}
		drainedKeys = append(drainedKeys, key)
	}
	for _, key := range drainedKeys {
		out = append(out, e.drainBucket(e.sellStops, key, tradePrice)...)
	}
	return out
}

// drainBucket removes every stop at a trigger-price key from tree, routing
// each to expiry, trigger emission, or re-insertion (not triggered).
func (e *Engine) drainBucket(tree *redblacktree.Tree, key int64, tradePrice money.Decimal) []types.Order {
	v, ok := tree.Get(key)
	if !ok {
		return nil
	}
	bucket := v.(*list.List)
	tree.Remove(key)

	var out []types.Order
	now := e.clock.NowNano()

	for el := bucket.Front(); el != nil; el = el.Next() {
		stop := el.Value.(*types.StopOrder)

		if stop.HasExpireTime && now >= stop.ExpireTimeNano {
			stop.Status = types.StopExpired
			delete(e.index, stop.ID)
			continue
		}

		if shouldTrigger(stop, tradePrice) {
			stop.Status = types.StopTriggered
			delete(e.index, stop.ID)
			out = append(out, e.convertToOrder(stop))
			continue
		}

		// Not triggered this pass; re-key at its (possibly updated by
		// trailing) trigger price and keep waiting.
		newKey := stop.TriggerPrice.Int64Scaled()
		bucketAt(tree, newKey, true).PushBack(stop)
		e.index[stop.ID] = indexEntry{scaledPrice: newKey, isBuy: stop.Side == types.Buy}
	}
	return out
}

// shouldTrigger evaluates a stop's exact TriggerCondition against the
// latest trade price, per SPEC_FULL §4.5/§3.
func shouldTrigger(stop *types.StopOrder, tradePrice money.Decimal) bool {
	switch stop.TriggerCondition {
	case types.AtOrAbove:
		return tradePrice.GreaterThanOrEqual(stop.TriggerPrice)
	case types.AtOrBelow:
		return tradePrice.LessThanOrEqual(stop.TriggerPrice)
	case types.Above:
		return tradePrice.GreaterThan(stop.TriggerPrice)
	case types.Below:
		return tradePrice.LessThan(stop.TriggerPrice)
	default:
		return false
	}
}

// convertToOrder turns a triggered stop into a fresh Order submission, per
// the source's convert_to_order: a new id, now() timestamp, and the stop's
// side/quantity/user/TIF/STP/post-only/expiry carried through unchanged.
func (e *Engine) convertToOrder(stop *types.StopOrder) types.Order {
	order := types.Order{
		ID:             ids.NewOrderID(),
		Symbol:         stop.Symbol,
		Side:           stop.Side,
		Quantity:       stop.Quantity,
		Status:         types.StatusNew,
		UserID:         stop.UserID,
		TimestampNano:  e.clock.NowNano(),
		TIF:            stop.TIF,
		STP:            stop.STP,
		PostOnly:       stop.PostOnly,
		ExpireTimeNano: stop.ExpireTimeNano,
		HasExpireTime:  stop.HasExpireTime,
	}

	switch stop.StopType {
	case types.StopMarket:
		order.OrderType = types.Market
	case types.StopLimit:
		order.OrderType = types.Limit
		order.Price = stop.LimitPrice
		order.HasPrice = true
	case types.TrailingStop:
		// Implementation-defined per §4.5: a limit at the trigger price the
		// anchor converged to, consistent across repeated triggers.
		order.OrderType = types.Limit
		order.Price = stop.TriggerPrice
		order.HasPrice = true
	}
	return order
}

// updateTrailingStops recomputes every pending trailing stop's anchor and
// trigger price against the latest trade, per the source's
// update_trailing_stops / StopOrder::update_trailing. Each side updates
// only its own anchor (§4.5's resolved open question): a sell trailing
// stop's trigger only ever moves up, a buy trailing stop's only down.
func (e *Engine) updateTrailingStops(price money.Decimal) {
	e.updateTrailingSide(e.sellStops, price)
	e.updateTrailingSide(e.buyStops, price)
}

func (e *Engine) updateTrailingSide(tree *redblacktree.Tree, price money.Decimal) {
	it := tree.Iterator()
	var keys []int64
	for it.Next() {
		keys = append(keys, it.Key().(int64))
	}

	for _, key := range keys {
		v, ok := tree.Get(key)
		if !ok {
			continue
		}
		bucket := v.(*list.List)

		var movedOut []*types.StopOrder
		for el := bucket.Front(); el != nil; {
			next := el.Next()
			stop := el.Value.(*types.StopOrder)
			if stop.StopType == types.TrailingStop {
				oldKey := stop.TriggerPrice.Int64Scaled()
				updateTrailingAnchor(stop, price)
				if newKey := stop.TriggerPrice.Int64Scaled(); newKey != oldKey {
					bucket.Remove(el)
					movedOut = append(movedOut, stop)
				}
			}
			el = next
		}
		if bucket.Len() == 0 {
			tree.Remove(key)
		}
		for _, stop := range movedOut {
			newKey := stop.TriggerPrice.Int64Scaled()
			bucketAt(tree, newKey, true).PushBack(stop)
			e.index[stop.ID] = indexEntry{scaledPrice: newKey, isBuy: stop.Side == types.Buy}
		}
	}
}

// updateTrailingAnchor applies one side's anchor update, per SPEC_FULL
// §4.5: "Trigger only moves upward (never down)" for sells, downward-only
// for buys.
func updateTrailingAnchor(stop *types.StopOrder, price money.Decimal) {
	switch stop.Side {
	case types.Sell:
		high := price
		if stop.HasHighestSeen {
			high = money.Max(stop.HighestSeen, price)
		}
		stop.HighestSeen = high
		stop.HasHighestSeen = true
		if t := trailingTrigger(high, stop.TrailAmount, stop.HasTrailAmount, stop.TrailPercent, stop.HasTrailPercent, false); t.GreaterThan(stop.TriggerPrice) {
			stop.TriggerPrice = t
		}

	case types.Buy:
		low := price
		if stop.HasLowestSeen {
			low = money.Min(stop.LowestSeen, price)
		}
		stop.LowestSeen = low
		stop.HasLowestSeen = true
		if t := trailingTrigger(low, stop.TrailAmount, stop.HasTrailAmount, stop.TrailPercent, stop.HasTrailPercent, true); t.LessThan(stop.TriggerPrice) {
			stop.TriggerPrice = t
		}
	}
}

// trailingTrigger computes anchor ∓ offset (fixed amount) or anchor × (1 ∓
// percent/100), subtracting for a sell trailing stop and adding for a buy
// one, per the source's update_trailing.
func trailingTrigger(anchor, trailAmount money.Decimal, hasAmount bool, trailPercent money.Decimal, hasPercent bool, isBuy bool) money.Decimal {
	if hasAmount {
		if isBuy {
			return anchor.Add(trailAmount)
		}
		return anchor.Sub(trailAmount)
	}
	if hasPercent {
		hundred := money.MustFromString("100")
		one := money.MustFromString("1")
		factor := trailPercent.Div(hundred)
		if isBuy {
			return anchor.Mul(one.Add(factor))
		}
		return anchor.Mul(one.Sub(factor))
	}
	return anchor
}

// CleanupExpired removes every pending stop whose expiry has passed,
// marking each Expired and returning how many were removed. Invoked by the
// Expiry Sweeper (§4.10) rather than inline in the trade-print hot path,
// per the source's cleanup_expired.
func (e *Engine) CleanupExpired(nowNano int64) int {
	removed := 0
	removed += e.cleanupSide(e.buyStops, nowNano)
	removed += e.cleanupSide(e.sellStops, nowNano)
	return removed
}

func (e *Engine) cleanupSide(tree *redblacktree.Tree, nowNano int64) int {
	it := tree.Iterator()
	var keys []int64
	for it.Next() {
		keys = append(keys, it.Key().(int64))
	}

	removed := 0
	for _, key := range keys {
		v, ok := tree.Get(key)
		if !ok {
			continue
		}
		bucket := v.(*list.List)
		for el := bucket.Front(); el != nil; {
			next := el.Next()
			stop := el.Value.(*types.StopOrder)
			if stop.HasExpireTime && nowNano >= stop.ExpireTimeNano {
				bucket.Remove(el)
				delete(e.index, stop.ID)
				stop.Status = types.StopExpired
				removed++
			}
			el = next
		}
		if bucket.Len() == 0 {
			tree.Remove(key)
		}
	}
	return removed
}
