package trigger

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/abdoElHodaky/auctioncore/internal/ids"
	"github.com/abdoElHodaky/auctioncore/internal/money"
	"github.com/abdoElHodaky/auctioncore/internal/types"
)

func testStop(side types.Side, triggerPrice string, cond types.TriggerCondition) *types.StopOrder {
	return &types.StopOrder{
		ID:               ids.NewStopOrderID(),
		Symbol:           "TEST",
		UserID:           "test_user",
		Side:             side,
		Quantity:         money.MustFromString("100"),
		TriggerPrice:     money.MustFromString(triggerPrice),
		TriggerCondition: cond,
		StopType:         types.StopMarket,
		Status:           types.StopPending,
		TIF:              types.GTC,
	}
}

func TestAddAndGetStopOrder(t *testing.T) {
	eng := New(&ids.SequenceClock{})
	stop := testStop(types.Buy, "100", types.AtOrAbove)

	eng.AddStopOrder(stop)

	require.Equal(t, 1, eng.TotalStopOrders())
	_, ok := eng.GetStopOrder(stop.ID)
	require.True(t, ok)
}

func TestCancelStopOrder(t *testing.T) {
	eng := New(&ids.SequenceClock{})
	stop := testStop(types.Buy, "100", types.AtOrAbove)

	eng.AddStopOrder(stop)
	require.Equal(t, 1, eng.TotalStopOrders())

	cancelled := eng.CancelStopOrder(stop.ID)
	require.NotNil(t, cancelled)
	require.Equal(t, types.StopCancelled, cancelled.Status)
	require.Equal(t, 0, eng.TotalStopOrders())
}

func TestTriggerBuyStop(t *testing.T) {
	eng := New(&ids.SequenceClock{})
	stop := testStop(types.Buy, "100", types.AtOrAbove)
	eng.AddStopOrder(stop)

	triggered := eng.OnTrade(money.MustFromString("99"))
	require.Empty(t, triggered)
	require.Equal(t, 1, eng.TotalStopOrders())

	triggered = eng.OnTrade(money.MustFromString("100"))
	require.Len(t, triggered, 1)
	require.Equal(t, types.Buy, triggered[0].Side)
	require.Equal(t, 0, eng.TotalStopOrders())
}

func TestTriggerSellStop(t *testing.T) {
	eng := New(&ids.SequenceClock{})
	stop := testStop(types.Sell, "100", types.AtOrBelow)
	eng.AddStopOrder(stop)

	triggered := eng.OnTrade(money.MustFromString("101"))
	require.Empty(t, triggered)

	triggered = eng.OnTrade(money.MustFromString("100"))
	require.Len(t, triggered, 1)
	require.Equal(t, types.Sell, triggered[0].Side)
}

func TestGetStopOrdersBySymbol(t *testing.T) {
	eng := New(&ids.SequenceClock{})

	stop1 := testStop(types.Buy, "100", types.AtOrAbove)
	stop2 := testStop(types.Sell, "100", types.AtOrBelow)
	stop2.Symbol = "OTHER"

	eng.AddStopOrder(stop1)
	eng.AddStopOrder(stop2)

	require.Len(t, eng.StopOrdersBySymbol("TEST"), 1)
	require.Len(t, eng.StopOrdersBySymbol("OTHER"), 1)
}

func TestTrailingStopSellMovesUpOnly(t *testing.T) {
	eng := New(&ids.SequenceClock{})
	stop := testStop(types.Sell, "95", types.AtOrBelow)
	stop.StopType = types.TrailingStop
	stop.TrailAmount = money.MustFromString("5")
	stop.HasTrailAmount = true
	eng.AddStopOrder(stop)

	eng.OnTrade(money.MustFromString("100"))
	got, _ := eng.GetStopOrder(stop.ID)
	require.Equal(t, "95.00000000", got.TriggerPrice.String())

	eng.OnTrade(money.MustFromString("105"))
	got, _ = eng.GetStopOrder(stop.ID)
	require.Equal(t, "100.00000000", got.TriggerPrice.String())

	// Price retreats: the trigger must NOT follow back down.
	eng.OnTrade(money.MustFromString("103"))
	got, _ = eng.GetStopOrder(stop.ID)
	require.Equal(t, "100.00000000", got.TriggerPrice.String())
	require.False(t, got.HasLowestSeen, "a sell trailing stop must never touch LowestSeen")
}

func TestTrailingStopBuyMovesDownOnly(t *testing.T) {
	eng := New(&ids.SequenceClock{})
	stop := testStop(types.Buy, "105", types.AtOrAbove)
	stop.StopType = types.TrailingStop
	stop.TrailAmount = money.MustFromString("5")
	stop.HasTrailAmount = true
	eng.AddStopOrder(stop)

	eng.OnTrade(money.MustFromString("100"))
	got, _ := eng.GetStopOrder(stop.ID)
	require.Equal(t, "105.00000000", got.TriggerPrice.String())

	eng.OnTrade(money.MustFromString("95"))
	got, _ = eng.GetStopOrder(stop.ID)
	require.Equal(t, "100.00000000", got.TriggerPrice.String())

	// Price rallies: the trigger must NOT follow back up.
	eng.OnTrade(money.MustFromString("97"))
	got, _ = eng.GetStopOrder(stop.ID)
	require.Equal(t, "100.00000000", got.TriggerPrice.String())
	require.False(t, got.HasHighestSeen, "a buy trailing stop must never touch HighestSeen")
}

func TestCleanupExpired(t *testing.T) {
	eng := New(&ids.SequenceClock{})
	stop := testStop(types.Buy, "100", types.AtOrAbove)
	stop.HasExpireTime = true
	stop.ExpireTimeNano = 10
	eng.AddStopOrder(stop)

	removed := eng.CleanupExpired(5)
	require.Equal(t, 0, removed)
	require.Equal(t, 1, eng.TotalStopOrders())

	removed = eng.CleanupExpired(10)
	require.Equal(t, 1, removed)
	require.Equal(t, 0, eng.TotalStopOrders())
	require.Equal(t, types.StopExpired, stop.Status)
}
