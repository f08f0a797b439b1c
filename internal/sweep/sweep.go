// Package sweep implements SPEC_FULL §4.10's Expiry Sweeper: a periodic
// collaborator that retires GTD/DAY resting orders and expired pending
// stop orders outside the matching hot path, since §5's "Cancellation &
// timeouts" note says "TIF-driven expirations are evaluated lazily (on
// next touch of the order or on periodic sweeps scheduled by a
// collaborator)". Grounded on
// original_source/src/engine/trigger.rs's cleanup_expired, moved out of
// the trigger engine itself and scheduled here, and on the teacher's
// internal/architecture/fx/workerpool/worker_pool.go's ants.Pool shape
// (github.com/panjf2000/ants/v2, a direct teacher dependency previously
// wired only to the now-deleted HFT worker-pool code — rehomed to run
// each symbol's sweep concurrently while bounding total goroutines).
package sweep

import (
	"context"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/abdoElHodaky/auctioncore/internal/types"
)

// Engine is the minimal facade surface the sweeper depends on, satisfied
// by *internal/facade.Engine. Declared here (rather than importing
// internal/facade directly) so internal/facade can in turn depend on
// internal/sweep without an import cycle, should that ever be wired the
// other way.
type Engine interface {
	Symbols() []types.Symbol
	SweepSymbolExpired(symbol types.Symbol, nowNano int64) (expiredOrders, expiredStops int)
}

// Sweeper periodically calls Engine.SweepSymbolExpired for every symbol on
// a bounded worker pool.
type Sweeper struct {
	engine   Engine
	pool     *ants.Pool
	interval time.Duration
	logger   *zap.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	stopped chan struct{}
}

// Options configures New.
type Options struct {
	Engine   Engine
	Interval time.Duration // SPEC_FULL §6's `sweeper.interval`, default 1s
	PoolSize int           // SPEC_FULL §6's `sweeper.pool_size`
	Logger   *zap.Logger
}

// New constructs a Sweeper backed by an ants.Pool sized to opts.PoolSize.
func New(opts Options) (*Sweeper, error) {
	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}
	if opts.PoolSize <= 0 {
		opts.PoolSize = 1
	}

	pool, err := ants.NewPool(opts.PoolSize, ants.WithPreAlloc(true))
	if err != nil {
		return nil, err
	}

	return &Sweeper{
		engine:   opts.Engine,
		pool:     pool,
		interval: opts.Interval,
		logger:   opts.Logger,
	}, nil
}

// Start launches the periodic sweep loop in its own goroutine; Stop (or
// ctx cancellation) ends it.
func (s *Sweeper) Start(ctx context.Context) {
	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		return // already running
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.stopped = make(chan struct{})
	s.mu.Unlock()

	go s.run(ctx)
}

func (s *Sweeper) run(ctx context.Context) {
	defer close(s.stopped)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepOnce()
		}
	}
}

// sweepOnce fans one sweep pass out across the ants pool, one task per
// known symbol, so a large symbol count doesn't serialize behind a single
// goroutine; SweepSymbolExpired itself still serializes per-symbol work behind
// that symbol's own book lock.
func (s *Sweeper) sweepOnce() {
	now := time.Now().UnixNano()
	symbols := s.engine.Symbols()
	if len(symbols) == 0 {
		return
	}

	var wg sync.WaitGroup
	for _, symbol := range symbols {
		symbol := symbol
		wg.Add(1)
		task := func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil && s.logger != nil {
					s.logger.Error("sweep: task panicked", zap.Any("panic", r), zap.String("symbol", string(symbol)))
				}
			}()
			s.engine.SweepSymbolExpired(symbol, now)
		}
		if err := s.pool.Submit(task); err != nil {
			wg.Done()
			if s.logger != nil {
				s.logger.Warn("sweep: pool submit failed, running inline", zap.Error(err), zap.String("symbol", string(symbol)))
			}
			s.engine.SweepSymbolExpired(symbol, now)
		}
	}
	wg.Wait()
}

// SweepNow runs a single sweep pass synchronously, for tests and for
// operator-triggered manual sweeps.
func (s *Sweeper) SweepNow() {
	s.sweepOnce()
}

// Stop halts the periodic loop and releases the worker pool. Safe to call
// even if Start was never called.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	stopped := s.stopped
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		<-stopped
	}
	s.pool.Release()
}
