package sweep

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/abdoElHodaky/auctioncore/internal/types"
)

type fakeEngine struct {
	symbols []types.Symbol

	mu    sync.Mutex
	calls map[types.Symbol]int
}

func newFakeEngine(symbols ...types.Symbol) *fakeEngine {
	return &fakeEngine{symbols: symbols, calls: make(map[types.Symbol]int)}
}

func (f *fakeEngine) Symbols() []types.Symbol { return f.symbols }

func (f *fakeEngine) SweepSymbolExpired(symbol types.Symbol, nowNano int64) (int, int) {
	f.mu.Lock()
	f.calls[symbol]++
	f.mu.Unlock()
	return 1, 0
}

func (f *fakeEngine) callCount(symbol types.Symbol) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[symbol]
}

func TestSweepNowVisitsEverySymbolExactlyOnce(t *testing.T) {
	eng := newFakeEngine("BTCUSD", "ETHUSD", "SOLUSD")
	s, err := New(Options{Engine: eng, PoolSize: 2})
	require.NoError(t, err)
	defer s.Stop()

	s.SweepNow()

	for _, sym := range eng.symbols {
		require.Equal(t, 1, eng.callCount(sym), "symbol %s", sym)
	}
}

func TestSweepNowWithNoSymbolsIsNoOp(t *testing.T) {
	eng := newFakeEngine()
	s, err := New(Options{Engine: eng, PoolSize: 1})
	require.NoError(t, err)
	defer s.Stop()

	require.NotPanics(t, func() { s.SweepNow() })
}

func TestStartRunsPeriodically(t *testing.T) {
	eng := newFakeEngine("BTCUSD")
	s, err := New(Options{Engine: eng, PoolSize: 1, Interval: 10 * time.Millisecond})
	require.NoError(t, err)

	var ran atomic.Bool
	s.Start(context.Background())
	defer s.Stop()

	require.Eventually(t, func() bool {
		if eng.callCount("BTCUSD") >= 2 {
			ran.Store(true)
		}
		return ran.Load()
	}, time.Second, 5*time.Millisecond)
}

func TestStopWithoutStartIsSafe(t *testing.T) {
	eng := newFakeEngine("BTCUSD")
	s, err := New(Options{Engine: eng, PoolSize: 1})
	require.NoError(t, err)
	require.NotPanics(t, func() { s.Stop() })
}
