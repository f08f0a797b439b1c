package fees

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/abdoElHodaky/auctioncore/internal/ids"
	"github.com/abdoElHodaky/auctioncore/internal/money"
	"github.com/abdoElHodaky/auctioncore/internal/types"
)

func TestApplyDefaultRates(t *testing.T) {
	s := New(10, 20)
	trade := types.Trade{
		ID:            ids.NewTradeID(),
		Symbol:        "BTCUSD",
		Price:         money.MustFromString("100"),
		Quantity:      money.MustFromString("2"),
		BuyerOrderID:  ids.NewOrderID(),
		SellerOrderID: ids.NewOrderID(),
	}
	s.Apply(&trade)

	require.Equal(t, "0.20000000", trade.MakerFee.String())
	require.Equal(t, "0.40000000", trade.TakerFee.String())
}

func TestApplyPerSymbolOverride(t *testing.T) {
	s := New(10, 20)
	s.SetSymbolRates("ETHUSD", 5, 15)

	trade := types.Trade{Symbol: "ETHUSD", Price: money.MustFromString("100"), Quantity: money.MustFromString("1")}
	s.Apply(&trade)
	require.Equal(t, "0.05000000", trade.MakerFee.String())
	require.Equal(t, "0.15000000", trade.TakerFee.String())

	untouched := types.Trade{Symbol: "BTCUSD", Price: money.MustFromString("100"), Quantity: money.MustFromString("1")}
	s.Apply(&untouched)
	require.Equal(t, "0.01000000", untouched.MakerFee.String())
	require.Equal(t, "0.02000000", untouched.TakerFee.String())
}
