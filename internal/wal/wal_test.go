package wal

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/abdoElHodaky/auctioncore/internal/ids"
	"github.com/abdoElHodaky/auctioncore/internal/money"
	"github.com/abdoElHodaky/auctioncore/internal/types"
)

func testOrderEvent(seq uint64) Event {
	return Event{
		TimestampNano: uint64(seq),
		Type:          EventOrderSubmitted,
		Order: types.Order{
			ID:            ids.NewOrderID(),
			Symbol:        "TEST",
			Side:          types.Buy,
			OrderType:     types.Limit,
			Price:         money.MustFromString("100"),
			HasPrice:      true,
			Quantity:      money.MustFromString("10"),
			Status:        types.StatusNew,
			UserID:        "test",
			TimestampNano: int64(seq),
			TIF:           types.GTC,
		},
	}
}

func TestWALOpenCreatesDirectory(t *testing.T) {
	dir := t.TempDir() + "/wal"
	w, err := Open(DefaultOptions(dir))
	require.NoError(t, err)
	require.NotNil(t, w)
}

func TestWALAppendAndReplay(t *testing.T) {
	dir := t.TempDir()
	opts := DefaultOptions(dir)
	opts.Sync = SyncMode{Kind: SyncNone}
	w, err := Open(opts)
	require.NoError(t, err)

	seq, err := w.Append(testOrderEvent(1))
	require.NoError(t, err)
	require.Equal(t, uint64(1), seq)
	require.NoError(t, w.Sync())

	var count int
	n, err := Replay(dir, func(e Event) error {
		count++
		require.Equal(t, EventOrderSubmitted, e.Type)
		require.Equal(t, "100.00000000", e.Order.Price.String())
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, uint64(1), n)
	require.Equal(t, 1, count)
}

func TestWALMultipleEvents(t *testing.T) {
	dir := t.TempDir()
	opts := DefaultOptions(dir)
	opts.Sync = SyncMode{Kind: SyncNone}
	w, err := Open(opts)
	require.NoError(t, err)

	for i := uint64(1); i <= 5; i++ {
		seq, err := w.Append(testOrderEvent(i))
		require.NoError(t, err)
		require.Equal(t, i, seq)
	}
	require.NoError(t, w.Sync())

	n, err := Replay(dir, func(Event) error { return nil })
	require.NoError(t, err)
	require.Equal(t, uint64(5), n)
}

func TestWALResumesSequenceAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	opts := DefaultOptions(dir)
	opts.Sync = SyncMode{Kind: SyncNone}

	w1, err := Open(opts)
	require.NoError(t, err)
	_, err = w1.Append(testOrderEvent(1))
	require.NoError(t, err)
	require.NoError(t, w1.Sync())

	w2, err := Open(opts)
	require.NoError(t, err)
	require.Equal(t, uint64(1), w2.CurrentSequence())

	seq, err := w2.Append(testOrderEvent(2))
	require.NoError(t, err)
	require.Equal(t, uint64(2), seq)
}

func TestWALCancelAndTradeRoundTrip(t *testing.T) {
	dir := t.TempDir()
	opts := DefaultOptions(dir)
	opts.Sync = SyncMode{Kind: SyncNone}
	w, err := Open(opts)
	require.NoError(t, err)

	orderID := ids.NewOrderID()
	_, err = w.Append(Event{Type: EventOrderCancelled, OrderID: orderID, Symbol: "TEST"})
	require.NoError(t, err)

	trade := types.Trade{
		ID:            ids.NewTradeID(),
		Symbol:        "TEST",
		Price:         money.MustFromString("101.50"),
		Quantity:      money.MustFromString("3"),
		BuyerOrderID:  ids.NewOrderID(),
		SellerOrderID: ids.NewOrderID(),
		BuyerUserID:   "buyer",
		SellerUserID:  "seller",
		MakerFee:      money.MustFromString("0.05"),
		TakerFee:      money.MustFromString("0.10"),
	}
	_, err = w.Append(Event{Type: EventTradeExecuted, Trade: trade})
	require.NoError(t, err)
	require.NoError(t, w.Sync())

	var decoded []Event
	_, err = Replay(dir, func(e Event) error {
		decoded = append(decoded, e)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, decoded, 2)

	require.Equal(t, EventOrderCancelled, decoded[0].Type)
	require.Equal(t, orderID, decoded[0].OrderID)

	require.Equal(t, EventTradeExecuted, decoded[1].Type)
	require.Equal(t, "101.50000000", decoded[1].Trade.Price.String())
	require.Equal(t, trade.BuyerOrderID, decoded[1].Trade.BuyerOrderID)
}
