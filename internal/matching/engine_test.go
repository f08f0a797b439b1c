package matching

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/abdoElHodaky/auctioncore/internal/book"
	"github.com/abdoElHodaky/auctioncore/internal/ids"
	"github.com/abdoElHodaky/auctioncore/internal/money"
	"github.com/abdoElHodaky/auctioncore/internal/types"
)

const sym = types.Symbol("BTCUSD")

func limitOrder(side types.Side, price, qty string, userID string, ts int64) types.Order {
	return types.Order{
		ID:            ids.NewOrderID(),
		Symbol:        sym,
		Side:          side,
		OrderType:     types.Limit,
		Price:         money.MustFromString(price),
		HasPrice:      true,
		Quantity:      money.MustFromString(qty),
		UserID:        userID,
		TimestampNano: ts,
		TIF:           types.GTC,
		Status:        types.StatusNew,
	}
}

func rest(t *testing.T, eng *Engine, b *book.Book, o types.Order) types.Order {
	t.Helper()
	res := eng.MatchOrder(o, b)
	if res.Residual == types.ResidualRest {
		require.NoError(t, b.Add(&res.Order))
	}
	return res.Order
}

func TestS1BasicCrossPriceTimePriority(t *testing.T) {
	eng := New(&ids.SequenceClock{})
	b := book.New(sym)

	a := limitOrder(types.Buy, "100.00", "5", "u1", 1)
	rest(t, eng, b, a)

	bb := limitOrder(types.Buy, "100.00", "3", "u2", 2)
	rest(t, eng, b, bb)

	c := limitOrder(types.Sell, "100.00", "6", "u3", 3)
	res := eng.MatchOrder(c, b)

	require.Len(t, res.Trades, 2)
	require.Equal(t, a.ID, res.Trades[0].BuyerOrderID, "price-time priority must fill A first")
	require.Equal(t, bb.ID, res.Trades[1].BuyerOrderID)
	require.Equal(t, "5.00000000", res.Trades[0].Quantity.String())
	require.Equal(t, "1.00000000", res.Trades[1].Quantity.String())

	restingB, ok := b.Get(bb.ID)
	require.True(t, ok, "B should still be resting")
	require.Equal(t, "2.00000000", restingB.RemainingQuantity().String())
}

func TestS2FOKInsufficient(t *testing.T) {
	eng := New(&ids.SequenceClock{})
	b := book.New(sym)

	ask := limitOrder(types.Sell, "100.05", "2", "maker", 1)
	rest(t, eng, b, ask)

	buy := limitOrder(types.Buy, "100.05", "5", "taker", 2)
	buy.TIF = types.FOK
	res := eng.MatchOrder(buy, b)

	require.Empty(t, res.Trades)
	require.Equal(t, types.StatusRejected, res.Order.Status)
	_, ok := b.Get(ask.ID)
	require.True(t, ok, "resting ask must be untouched by a rejected FOK order")
}

func TestS3PostOnlyWouldCross(t *testing.T) {
	eng := New(&ids.SequenceClock{})
	b := book.New(sym)

	ask := limitOrder(types.Sell, "99.90", "10", "maker", 1)
	rest(t, eng, b, ask)

	buy := limitOrder(types.Buy, "100.00", "5", "taker", 2)
	buy.PostOnly = true
	res := eng.MatchOrder(buy, b)

	require.Empty(t, res.Trades)
	require.Equal(t, types.StatusRejected, res.Order.Status)
}

func TestS4STPDecrementBoth(t *testing.T) {
	eng := New(&ids.SequenceClock{})
	b := book.New(sym)

	ask := limitOrder(types.Sell, "100.00", "4", "U", 1)
	rest(t, eng, b, ask)

	buy := limitOrder(types.Buy, "100.00", "10", "U", 2)
	buy.STP = types.STPDecrementBoth
	res := eng.MatchOrder(buy, b)

	require.Empty(t, res.Trades, "STP must decrement, never execute a trade against oneself")
	_, ok := b.Get(ask.ID)
	require.False(t, ok, "resting ask should be fully decremented and removed")
	require.Equal(t, types.ResidualRest, res.Residual)
	require.Equal(t, "6.00000000", res.Order.RemainingQuantity().String())
}

func TestS5IcebergReplenishmentAndPriorityLoss(t *testing.T) {
	eng := New(&ids.SequenceClock{Base: 2})
	b := book.New(sym)

	a := limitOrder(types.Buy, "100.00", "100", "u1", 1)
	a.Iceberg = &types.IcebergConfig{
		TotalQuantity:         money.MustFromString("100"),
		DisplayQuantity:       money.MustFromString("20"),
		HiddenQuantity:        money.MustFromString("80"),
		ReplenishThreshold:    money.MustFromString("0"),
		TargetDisplayQuantity: money.MustFromString("20"),
	}
	rest(t, eng, b, a)

	bOrder := limitOrder(types.Buy, "100.00", "30", "u2", 2)
	rest(t, eng, b, bOrder)

	sell := limitOrder(types.Sell, "100.00", "25", "u3", 3)
	res := eng.MatchOrder(sell, b)

	require.Len(t, res.Trades, 2)
	require.Equal(t, "20.00000000", res.Trades[0].Quantity.String())
	require.Equal(t, "5.00000000", res.Trades[1].Quantity.String())

	restingA, ok := b.Get(a.ID)
	require.True(t, ok, "A should still be resting, replenished from its hidden reserve")
	require.Equal(t, "60.00000000", restingA.Iceberg.HiddenQuantity.String())
	require.Equal(t, "20.00000000", restingA.Iceberg.DisplayQuantity.String())

	lvl := b.Depth(types.Buy, 1)
	require.Len(t, lvl, 1, "both orders still rest at the same price")

	restingB, ok := b.Get(bOrder.ID)
	require.True(t, ok, "B only absorbed the remainder and stays resting")
	require.Equal(t, "25.00000000", restingB.RemainingQuantity().String())

	queueLevel := b.BestOppositeLevel(types.Sell) // the bid side, this book's only resting level
	queue := book.LevelOrderIDs(queueLevel)
	require.Equal(t, []ids.OrderID{bOrder.ID, a.ID}, queue,
		"A's replenishment must move it behind B, which never replenished")
}
