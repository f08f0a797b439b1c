package facade

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/abdoElHodaky/auctioncore/internal/apperrors"
	"github.com/abdoElHodaky/auctioncore/internal/dedupe"
	"github.com/abdoElHodaky/auctioncore/internal/eventbus"
	"github.com/abdoElHodaky/auctioncore/internal/fees"
	"github.com/abdoElHodaky/auctioncore/internal/ids"
	"github.com/abdoElHodaky/auctioncore/internal/money"
	"github.com/abdoElHodaky/auctioncore/internal/types"
	"github.com/abdoElHodaky/auctioncore/internal/wal"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	w, err := wal.Open(wal.Options{
		Dir:              t.TempDir(),
		Sync:             wal.SyncMode{Kind: wal.SyncNone},
		MaxFileSizeBytes: 100 * 1024 * 1024,
	})
	require.NoError(t, err)

	return New(Options{
		Clock:       &ids.SequenceClock{},
		Logger:      zap.NewNop(),
		WAL:         w,
		Bus:         eventbus.New(zap.NewNop()),
		FeeSchedule: fees.New(10, 20),
		DedupeCache: dedupe.New(time.Minute),
	})
}

func limitOrder(side types.Side, price, qty string) types.Order {
	return types.Order{
		ID: ids.NewOrderID(), Symbol: "BTCUSD", Side: side, OrderType: types.Limit,
		Price: money.MustFromString(price), HasPrice: true,
		Quantity: money.MustFromString(qty), UserID: "u1", TIF: types.GTC,
	}
}

func TestSubmitOrderRestsThenCrosses(t *testing.T) {
	e := newTestEngine(t)

	resting, trades, err := e.SubmitOrder(limitOrder(types.Buy, "100", "10"))
	require.NoError(t, err)
	require.Empty(t, trades)
	require.Equal(t, types.StatusNew, resting.Status)

	taker := limitOrder(types.Sell, "100", "4")
	taker.UserID = "u2"
	filled, trades, err := e.SubmitOrder(taker)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	require.Equal(t, "4.00000000", trades[0].Quantity.String())
	require.True(t, filled.Status.IsTerminal())

	require.NotZero(t, trades[0].MakerFee)
	require.NotZero(t, trades[0].TakerFee)

	recent, err := e.GetRecentTrades("BTCUSD", 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
}

func TestCancelOrderRemovesFromBook(t *testing.T) {
	e := newTestEngine(t)
	resting, _, err := e.SubmitOrder(limitOrder(types.Buy, "100", "10"))
	require.NoError(t, err)

	cancelled, err := e.CancelOrder("BTCUSD", resting.ID)
	require.NoError(t, err)
	require.Equal(t, types.StatusCancelled, cancelled.Status)

	_, err = e.CancelOrder("BTCUSD", resting.ID)
	require.Error(t, err)
	require.True(t, apperrors.Is(err, apperrors.CodeOrderNotFound))
}

func TestDuplicateOrderIDRejected(t *testing.T) {
	e := newTestEngine(t)
	order := limitOrder(types.Buy, "100", "10")

	_, _, err := e.SubmitOrder(order)
	require.NoError(t, err)
	_, err = e.CancelOrder("BTCUSD", order.ID)
	require.NoError(t, err)

	_, _, err = e.SubmitOrder(order)
	require.Error(t, err)
	require.True(t, apperrors.Is(err, apperrors.CodeDuplicateOrderID))
}

func TestCascadeDepthBoundsRecursion(t *testing.T) {
	t.Helper()
	w, err := wal.Open(wal.Options{
		Dir:              t.TempDir(),
		Sync:             wal.SyncMode{Kind: wal.SyncNone},
		MaxFileSizeBytes: 100 * 1024 * 1024,
	})
	require.NoError(t, err)

	e := New(Options{
		Clock:           &ids.SequenceClock{},
		Logger:          zap.NewNop(),
		WAL:             w,
		Bus:             eventbus.New(zap.NewNop()),
		FeeSchedule:     fees.New(10, 20),
		DedupeCache:     dedupe.New(time.Minute),
		MaxCascadeDepth: 1,
	})

	// Resting liquidity the triggered stop's emitted market order will
	// match against.
	_, _, err = e.SubmitOrder(limitOrder(types.Buy, "100", "10"))
	require.NoError(t, err)

	_, err = e.SubmitStop(types.StopOrder{
		Symbol:           "BTCUSD",
		UserID:           "u3",
		Side:             types.Sell,
		Quantity:         money.MustFromString("5"),
		TriggerPrice:     money.MustFromString("100"),
		TriggerCondition: types.AtOrBelow,
		StopType:         types.StopMarket,
		Status:           types.StopPending,
		TIF:              types.GTC,
	})
	require.NoError(t, err)

	// The sell that prints a trade at 100 fires the stop above, a single
	// cascade level beyond the initial submission. With MaxCascadeDepth=1
	// there is no budget for that level, so it must surface
	// CascadeDepthExceeded rather than silently recursing unbounded.
	_, _, err = e.SubmitOrder(limitOrder(types.Sell, "100", "3"))
	require.Error(t, err)
	require.True(t, apperrors.Is(err, apperrors.CodeCascadeDepthExceeded))
}

func TestGetOrderBookReturnsDepth(t *testing.T) {
	e := newTestEngine(t)
	_, _, err := e.SubmitOrder(limitOrder(types.Buy, "100", "10"))
	require.NoError(t, err)
	_, _, err = e.SubmitOrder(limitOrder(types.Sell, "101", "5"))
	require.NoError(t, err)

	snap, err := e.GetOrderBook("BTCUSD", 10)
	require.NoError(t, err)
	require.Len(t, snap.Bids, 1)
	require.Len(t, snap.Asks, 1)
}
