package snapshot

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/abdoElHodaky/auctioncore/internal/dedupe"
	"github.com/abdoElHodaky/auctioncore/internal/eventbus"
	"github.com/abdoElHodaky/auctioncore/internal/facade"
	"github.com/abdoElHodaky/auctioncore/internal/fees"
	"github.com/abdoElHodaky/auctioncore/internal/ids"
	"github.com/abdoElHodaky/auctioncore/internal/money"
	"github.com/abdoElHodaky/auctioncore/internal/types"
	"github.com/abdoElHodaky/auctioncore/internal/wal"
)

func newEngine(t *testing.T, dir string) *facade.Engine {
	t.Helper()
	w, err := wal.Open(wal.Options{
		Dir:              dir,
		Sync:             wal.SyncMode{Kind: wal.SyncEveryWrite},
		MaxFileSizeBytes: 100 * 1024 * 1024,
	})
	require.NoError(t, err)

	return facade.New(facade.Options{
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

func TestWriteAndReadCheckpointRoundTrip(t *testing.T) {
	dir := t.TempDir()
	e := newEngine(t, dir)

	_, _, err := e.SubmitOrder(limitOrder(types.Buy, "100", "10"))
	require.NoError(t, err)
	_, _, err = e.SubmitOrder(limitOrder(types.Sell, "105", "5"))
	require.NoError(t, err)

	_, err = e.SubmitStop(types.StopOrder{
		Symbol: "BTCUSD", UserID: "u2", Side: types.Sell,
		Quantity: money.MustFromString("2"), TriggerPrice: money.MustFromString("90"),
		TriggerCondition: types.AtOrBelow, StopType: types.StopMarket,
		Status: types.StopPending, TIF: types.GTC,
	})
	require.NoError(t, err)

	cpPath := filepath.Join(dir, "checkpoint_1.snap")
	seq, err := WriteCheckpoint(cpPath, e, 42)
	require.NoError(t, err)
	require.Equal(t, e.WALSequence(), seq)

	cp, err := ReadCheckpoint(cpPath)
	require.NoError(t, err)
	require.Equal(t, seq, cp.Sequence)
	require.Len(t, cp.Symbols, 1)
	require.Equal(t, types.Symbol("BTCUSD"), cp.Symbols[0].Symbol)
	require.Len(t, cp.Symbols[0].Orders, 2)
	require.Len(t, cp.Symbols[0].Stops, 1)
}

func TestRestoreRebuildsStateFromCheckpointPlusWAL(t *testing.T) {
	srcDir := t.TempDir()
	src := newEngine(t, srcDir)

	_, _, err := src.SubmitOrder(limitOrder(types.Buy, "100", "10"))
	require.NoError(t, err)

	cpPath := filepath.Join(srcDir, "checkpoint_1.snap")
	_, err = WriteCheckpoint(cpPath, src, 1)
	require.NoError(t, err)

	// Post-checkpoint activity: a second resting order and a trade.
	_, _, err = src.SubmitOrder(limitOrder(types.Sell, "101", "3"))
	require.NoError(t, err)
	_, trades, err := src.SubmitOrder(limitOrder(types.Sell, "100", "4"))
	require.NoError(t, err)
	require.Len(t, trades, 1)

	cp, err := ReadCheckpoint(cpPath)
	require.NoError(t, err)

	dstDir := t.TempDir()
	dst := newEngine(t, dstDir)

	replayed, err := Restore(cp, srcDir, dst)
	require.NoError(t, err)
	require.Positive(t, replayed)

	snap, err := dst.GetOrderBook("BTCUSD", 10)
	require.NoError(t, err)
	require.Len(t, snap.Bids, 1)
	require.Equal(t, "6.00000000", snap.Bids[0].TotalQuantity.String())
	require.Len(t, snap.Asks, 1)
	require.Equal(t, "3.00000000", snap.Asks[0].TotalQuantity.String())
}
