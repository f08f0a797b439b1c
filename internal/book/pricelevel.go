package book

import (
	"container/list"

	"github.com/abdoElHodaky/auctioncore/internal/ids"
	"github.com/abdoElHodaky/auctioncore/internal/money"
)

// priceLevel holds every resting order id at one price, FIFO by arrival or
// last-replenishment order, per SPEC_FULL §3/§4.3.
type priceLevel struct {
	Price         money.Decimal
	ScaledPrice   int64
	Orders        *list.List // FIFO queue of ids.OrderID
	TotalQuantity money.Decimal // visible quantity only, per §9's resolved open question

	next *priceLevel
	prev *priceLevel
}

// PriceLevelView is a read-only snapshot of one price level, safe to hand
// to callers outside the book's lock.
type PriceLevelView struct {
	Price         money.Decimal
	TotalQuantity money.Decimal
	OrderCount    int
}

func newPriceLevel(price money.Decimal) *priceLevel {
	return &priceLevel{
		Price:         price,
		ScaledPrice:   price.Int64Scaled(),
		Orders:        list.New(),
		TotalQuantity: money.Zero,
	}
}

func (l *priceLevel) view() PriceLevelView {
	return PriceLevelView{
		Price:         l.Price,
		TotalQuantity: l.TotalQuantity,
		OrderCount:    l.Orders.Len(),
	}
}

// removeID removes the first queue element carrying id, returning whether
// anything was removed. O(k) in the level's depth, acceptable per §4.3.
func (l *priceLevel) removeID(id ids.OrderID) bool {
	for e := l.Orders.Front(); e != nil; e = e.Next() {
		if e.Value.(ids.OrderID) == id {
			l.Orders.Remove(e)
			return true
		}
	}
	return false
}

// moveToTail relocates id to the back of the FIFO queue (used by iceberg
// replenishment, which forfeits time priority per §4.4), returning whether
// the id was found.
func (l *priceLevel) moveToTail(id ids.OrderID) bool {
	if !l.removeID(id) {
		return false
	}
	l.Orders.PushBack(id)
	return true
}
