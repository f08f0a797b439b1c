// Package facade implements SPEC_FULL §4.6's Engine Facade: the single
// entry point external callers use (`SubmitOrder`, `CancelOrder`,
// `SubmitStop`, `CancelStop`, `GetOrderBook`, `GetRecentTrades`, per §6).
// It owns per-symbol locking, WAL durability with a circuit breaker, the
// trigger engine's cascade of newly-activated stop orders, event bus
// publication, the recent-trades ring, and the dedupe cache — wiring
// together internal/book, internal/matching, internal/trigger,
// internal/wal, internal/eventbus, internal/dedupe, and internal/fees.
// Grounded on the teacher's pkg/matching/engine_core.go
// lock-acquire/dispatch shape (MatchingEngine.AddOrder: validate, lock,
// get-or-create per-symbol state, process, record) generalized from a
// single global mutex to the map[Symbol]*lockedBook design §4.6 requires,
// and on internal/events/broker.go's fx.Lifecycle wiring style. The
// circuit breaker around the WAL writer uses github.com/sony/gobreaker
// (already a direct teacher dependency), per §5/§7.
package facade

import (
	"errors"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/abdoElHodaky/auctioncore/internal/apperrors"
	"github.com/abdoElHodaky/auctioncore/internal/book"
	"github.com/abdoElHodaky/auctioncore/internal/dedupe"
	"github.com/abdoElHodaky/auctioncore/internal/eventbus"
	"github.com/abdoElHodaky/auctioncore/internal/fees"
	"github.com/abdoElHodaky/auctioncore/internal/ids"
	"github.com/abdoElHodaky/auctioncore/internal/matching"
	"github.com/abdoElHodaky/auctioncore/internal/metrics"
	"github.com/abdoElHodaky/auctioncore/internal/trigger"
	"github.com/abdoElHodaky/auctioncore/internal/types"
	"github.com/abdoElHodaky/auctioncore/internal/validation"
	"github.com/abdoElHodaky/auctioncore/internal/wal"
)

// DefaultMaxCascadeDepth bounds the stop-trigger recursion depth, per
// SPEC_FULL §6's `engine.max_cascade_depth` (default 16).
const DefaultMaxCascadeDepth = 16

// DefaultRecentTradesPerSymbol sizes each symbol's trade ring, per
// SPEC_FULL §6's `engine.recent_trades_per_symbol` (default 1024).
const DefaultRecentTradesPerSymbol = 1024

// lockedBook pairs one symbol's book, trigger index, and recent-trades
// ring with the exclusive lock serializing all matching on that symbol,
// per §5's "each symbol's matching path is serialized by its per-symbol
// exclusive lock."
type lockedBook struct {
	mu      sync.Mutex
	book    *book.Book
	trigger *trigger.Engine
	trades  *tradeRing
}

// Engine is the facade's concrete implementation of SPEC_FULL §6's
// submission interface.
type Engine struct {
	clock  ids.Clock
	logger *zap.Logger

	matching   *matching.Engine
	validator  *validation.Validator
	feeSched   *fees.Schedule
	dedupeCache *dedupe.Cache
	bus        *eventbus.Bus

	wal *wal.WAL
	cb  *gobreaker.CircuitBreaker[uint64]

	metrics *metrics.Metrics

	booksMu sync.RWMutex
	books   map[types.Symbol]*lockedBook

	maxCascadeDepth       int
	recentTradesPerSymbol int
}

// Options configures New.
type Options struct {
	Clock                 ids.Clock
	Logger                *zap.Logger
	WAL                   *wal.WAL
	Bus                   *eventbus.Bus
	FeeSchedule           *fees.Schedule
	DedupeCache           *dedupe.Cache
	Metrics               *metrics.Metrics
	MaxCascadeDepth       int
	RecentTradesPerSymbol int
}

// New constructs an Engine. WAL appends are wrapped in a circuit breaker
// that opens after a run of consecutive failures, per §5/§7: once open,
// every subsequent submission short-circuits to EngineUnavailable without
// attempting to match.
func New(opts Options) *Engine {
	if opts.MaxCascadeDepth <= 0 {
		opts.MaxCascadeDepth = DefaultMaxCascadeDepth
	}
	if opts.RecentTradesPerSymbol <= 0 {
		opts.RecentTradesPerSymbol = DefaultRecentTradesPerSymbol
	}

	cb := gobreaker.NewCircuitBreaker[uint64](gobreaker.Settings{
		Name: "wal-writer",
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if opts.Logger != nil {
				opts.Logger.Warn("wal circuit breaker state change",
					zap.String("breaker", name), zap.String("from", from.String()), zap.String("to", to.String()))
			}
			if opts.Metrics != nil {
				opts.Metrics.BreakerState.Set(float64(to))
			}
		},
	})

	return &Engine{
		clock:                 opts.Clock,
		logger:                opts.Logger,
		matching:              matching.New(opts.Clock),
		validator:             validation.New(),
		feeSched:              opts.FeeSchedule,
		dedupeCache:           opts.DedupeCache,
		bus:                   opts.Bus,
		wal:                   opts.WAL,
		cb:                    cb,
		metrics:               opts.Metrics,
		books:                 make(map[types.Symbol]*lockedBook),
		maxCascadeDepth:       opts.MaxCascadeDepth,
		recentTradesPerSymbol: opts.RecentTradesPerSymbol,
	}
}

// symbolState returns (creating if absent) the lockedBook for symbol, per
// §4.6's "map[Symbol]*lockedBook ... a single global read/write lock
// guards the map itself (only taken to insert a new symbol)."
func (e *Engine) symbolState(symbol types.Symbol) *lockedBook {
	e.booksMu.RLock()
	lb, ok := e.books[symbol]
	e.booksMu.RUnlock()
	if ok {
		return lb
	}

	e.booksMu.Lock()
	defer e.booksMu.Unlock()
	if lb, ok = e.books[symbol]; ok {
		return lb
	}
	lb = &lockedBook{
		book:    book.New(symbol),
		trigger: trigger.New(e.clock),
		trades:  newTradeRing(e.recentTradesPerSymbol),
	}
	e.books[symbol] = lb
	return lb
}

// appendWAL runs a WAL append through the circuit breaker, translating a
// tripped breaker into apperrors.EngineUnavailable, per §5/§7.
func (e *Engine) appendWAL(event wal.Event) error {
	_, err := e.cb.Execute(func() (uint64, error) {
		return e.wal.Append(event)
	})
	if err == nil {
		return nil
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return apperrors.EngineUnavailable()
	}
	return apperrors.WALWriteFailure(err)
}

// SubmitOrder implements §6's `SubmitOrder(Order) (Order, []Trade, error)`
// and §4.6's submission path: validate, dedupe-check, append
// OrderSubmitted, acquire symbol lock, match, append TradeExecuted per
// fill, forward trades to the trigger engine, publish via the event bus,
// rest the residual if any, then process cascaded stop triggers up to
// the configured depth bound.
func (e *Engine) SubmitOrder(order types.Order) (types.Order, []types.Trade, error) {
	return e.submitOrderAtDepth(order, 1)
}

// submitOrderAtDepth is SubmitOrder's recursive form: depth tracks how many
// stop-trigger cascade levels deep this submission is, so processCascade's
// bound in §6's `engine.max_cascade_depth` actually accumulates across
// cascaded resubmissions instead of resetting to 1 on every recursive
// call.
func (e *Engine) submitOrderAtDepth(order types.Order, depth int) (types.Order, []types.Trade, error) {
	if err := e.validator.ValidateOrder(&order); err != nil {
		if e.metrics != nil {
			var appErr *apperrors.Error
			if errors.As(err, &appErr) {
				e.metrics.RecordRejection(string(appErr.Category))
			}
		}
		return order, nil, err
	}
	if e.dedupeCache != nil && e.dedupeCache.Seen(order.ID) {
		return order, nil, apperrors.DuplicateOrderID(order.ID.String())
	}

	if err := e.appendWAL(wal.Event{Type: wal.EventOrderSubmitted, TimestampNano: uint64(e.clock.NowNano()), Order: order}); err != nil {
		return order, nil, err
	}
	if e.metrics != nil {
		e.metrics.OrdersSubmitted.Inc()
	}

	return e.matchAndCascade(order, depth, true)
}

// ReplayOrder re-drives order through matching exactly as submitOrderAtDepth
// does, but without re-validating, re-checking the dedupe cache, or
// appending anything to the WAL, since the caller (internal/snapshot's
// recovery driver) is replaying a record the WAL already durably holds.
// Matching is deterministic given identical book state, so replaying the
// original submissions reconstructs the same resting book and reprints the
// same trades without needing to special-case TradeExecuted records.
func (e *Engine) ReplayOrder(order types.Order) (types.Order, []types.Trade, error) {
	return e.matchAndCascade(order, 1, false)
}

// matchAndCascade is submitOrderAtDepth's shared core: run order through
// matching, apply fees, rest/terminate as matching decides, forward
// resulting trades to the trigger engine, and recurse into any cascaded
// stop triggers. logWAL controls whether trade prints are appended to the
// WAL, which must be skipped during snapshot replay (see ReplayOrder) since
// those records already exist in the log being replayed.
func (e *Engine) matchAndCascade(order types.Order, depth int, logWAL bool) (types.Order, []types.Trade, error) {
	lb := e.symbolState(order.Symbol)
	lb.mu.Lock()
	matchStart := time.Now()
	res := e.matching.MatchOrder(order, lb.book)
	if e.metrics != nil {
		e.metrics.ObserveMatch(time.Since(matchStart))
	}

	for i := range res.Trades {
		trade := &res.Trades[i]
		if e.feeSched != nil {
			e.feeSched.Apply(trade)
		}
		if logWAL {
			if err := e.appendWAL(wal.Event{Type: wal.EventTradeExecuted, TimestampNano: uint64(e.clock.NowNano()), Trade: *trade}); err != nil {
				lb.mu.Unlock()
				return res.Order, res.Trades[:i], err
			}
		}
		lb.trades.push(*trade)
		if e.metrics != nil {
			e.metrics.TradesExecuted.Inc()
		}
	}

	for _, cancelled := range res.Cancelled {
		e.markTerminal(cancelled.ID)
	}

	if res.Residual == types.ResidualRest {
		if err := lb.book.Add(&res.Order); err != nil {
			lb.mu.Unlock()
			return res.Order, res.Trades, apperrors.MatchingInvariantViolation("facade: rest residual order: " + err.Error())
		}
	} else if res.Order.Status.IsTerminal() {
		e.markTerminal(res.Order.ID)
	}

	// Forwarding replayed trades to the trigger engine would re-fire
	// cascaded stops a second time: the WAL already holds the
	// OrderSubmitted record each cascaded stop produced the first time it
	// triggered, and applyEvent (internal/snapshot) replays that record
	// directly. Only the live path needs OnTrade's activation scan.
	var triggeredOrders []types.Order
	if logWAL {
		triggeredOrders = e.forwardTradesToTrigger(lb, res.Trades)
	}
	lb.mu.Unlock()

	e.publishMatchResults(order.Symbol, res)

	var cascaded []types.Trade
	var err error
	if logWAL {
		cascaded, err = e.processCascade(order.Symbol, triggeredOrders, depth+1)
	} else {
		cascaded, err = e.replayCascade(order.Symbol, triggeredOrders, depth+1)
	}
	if err != nil {
		return res.Order, res.Trades, err
	}
	res.Trades = append(res.Trades, cascaded...)
	if e.metrics != nil && len(triggeredOrders) > 0 {
		e.metrics.CascadeDepth.Observe(float64(depth))
	}

	return res.Order, res.Trades, nil
}

// replayCascade is processCascade's WAL-free counterpart, used only by
// ReplayOrder's recursive cascades.
func (e *Engine) replayCascade(symbol types.Symbol, triggered []types.Order, depth int) ([]types.Trade, error) {
	if len(triggered) == 0 {
		return nil, nil
	}
	if depth > e.maxCascadeDepth {
		return nil, apperrors.CascadeDepthExceeded(e.maxCascadeDepth)
	}

	var all []types.Trade
	for _, o := range triggered {
		_, trades, err := e.matchAndCascade(o, depth, false)
		if err != nil {
			return all, err
		}
		all = append(all, trades...)
	}
	return all, nil
}

// forwardTradesToTrigger feeds every trade price to the trigger engine,
// per §4.6's "for each trade: ... forward to Trigger Engine", collecting
// any stop orders it activates. Must run while lb.mu is held, since the
// trigger engine is this symbol's own exclusive resource, per §5's lock
// ordering (book -> trigger_engine -> wal, already nested here since the
// book lock is outermost and the WAL append already completed above it).
func (e *Engine) forwardTradesToTrigger(lb *lockedBook, trades []types.Trade) []types.Order {
	var triggered []types.Order
	for _, t := range trades {
		triggered = append(triggered, lb.trigger.OnTrade(t.Price)...)
	}
	if e.metrics != nil && len(triggered) > 0 {
		e.metrics.StopsTriggered.Add(float64(len(triggered)))
	}
	return triggered
}

// publishMatchResults sends every event bus notification a completed
// match produces: one TradeExecuted per fill, one OrderCancelled per
// resting order STP cancelled, and OrderRested if the incoming order's
// residual rests, per §4.8.
func (e *Engine) publishMatchResults(symbol types.Symbol, res matching.Result) {
	if e.bus == nil {
		return
	}
	now := e.clock.NowNano()
	for _, t := range res.Trades {
		e.bus.PublishTrade(symbol, t, now)
	}
	for _, c := range res.Cancelled {
		e.bus.PublishOrderCancelled(symbol, c, now)
	}
	if res.Residual == types.ResidualRest {
		e.bus.PublishOrderRested(symbol, res.Order, now)
	}
}

// processCascade submits every newly-triggered stop order's converted
// Order recursively, bounded by maxCascadeDepth, per §6's
// `engine.max_cascade_depth` and §4.6's "process any newly-triggered
// orders recursively (bounded depth)."
func (e *Engine) processCascade(symbol types.Symbol, triggered []types.Order, depth int) ([]types.Trade, error) {
	if len(triggered) == 0 {
		return nil, nil
	}
	if depth > e.maxCascadeDepth {
		return nil, apperrors.CascadeDepthExceeded(e.maxCascadeDepth)
	}

	var all []types.Trade
	for _, o := range triggered {
		_, trades, err := e.submitOrderAtDepth(o, depth)
		if err != nil {
			return all, err
		}
		all = append(all, trades...)
	}
	return all, nil
}

// markTerminal records id in the dedupe cache; safe to call unconditionally.
func (e *Engine) markTerminal(id ids.OrderID) {
	if e.dedupeCache != nil {
		e.dedupeCache.MarkTerminal(id)
	}
}

// Symbols returns every symbol the facade has created book state for, a
// snapshot taken under the books map's read lock. Used by the expiry
// sweeper (internal/sweep) to know which symbols to visit, and by the
// snapshot writer (internal/snapshot) to enumerate what to checkpoint.
func (e *Engine) Symbols() []types.Symbol {
	e.booksMu.RLock()
	defer e.booksMu.RUnlock()
	out := make([]types.Symbol, 0, len(e.books))
	for s := range e.books {
		out = append(out, s)
	}
	return out
}

// AllOrders returns a copy of every resting order for symbol. Used by the
// snapshot writer (internal/snapshot) to serialize book state at a
// checkpoint, per SPEC_FULL §4.7/§4.9.
func (e *Engine) AllOrders(symbol types.Symbol) []types.Order {
	lb := e.symbolState(symbol)
	lb.mu.Lock()
	defer lb.mu.Unlock()

	resting := lb.book.AllOrders()
	out := make([]types.Order, len(resting))
	for i, o := range resting {
		out[i] = *o
	}
	return out
}

// AllStops returns a copy of every pending stop order for symbol. Used by
// the snapshot writer alongside AllOrders.
func (e *Engine) AllStops(symbol types.Symbol) []types.StopOrder {
	lb := e.symbolState(symbol)
	lb.mu.Lock()
	defer lb.mu.Unlock()

	pending := lb.trigger.StopOrdersBySymbol(symbol)
	out := make([]types.StopOrder, len(pending))
	for i, s := range pending {
		out[i] = *s
	}
	return out
}

// WALSequence returns the WAL's current durable sequence, the boundary a
// checkpoint records so replay can resume strictly after it.
func (e *Engine) WALSequence() uint64 {
	return e.wal.CurrentSequence()
}

// RestoreOrder rests order directly into its symbol's book without running
// it through the matching engine, for use only by the recovery driver
// (internal/snapshot) reconstructing state from a checkpoint: a
// checkpointed order is already-matched resting state, not a fresh
// submission.
func (e *Engine) RestoreOrder(order types.Order) error {
	lb := e.symbolState(order.Symbol)
	lb.mu.Lock()
	defer lb.mu.Unlock()
	return lb.book.Add(&order)
}

// RestoreStop re-admits a pending stop directly into its symbol's trigger
// engine, for use only by the recovery driver.
func (e *Engine) RestoreStop(stop types.StopOrder) {
	lb := e.symbolState(stop.Symbol)
	lb.mu.Lock()
	defer lb.mu.Unlock()
	lb.trigger.AddStopOrder(&stop)
}

// SweepExpired scans every symbol for GTD/DAY resting orders whose
// ExpireTimeNano has passed and for expired pending stop orders, per
// SPEC_FULL §4.6's "pre-match expiry sweep" note and §4.10's periodic
// collaborator (internal/sweep). TIF expiry is evaluated lazily rather
// than on a deadline timer inside the matching path (§5's "Cancellation &
// timeouts"), so this method is the one place that actually retires a
// stale GTD/DAY order. It returns how many orders and how many stops were
// expired, for internal/metrics to record.
func (e *Engine) SweepExpired(nowNano int64) (expiredOrders, expiredStops int) {
	for _, symbol := range e.Symbols() {
		o, s := e.SweepSymbolExpired(symbol, nowNano)
		expiredOrders += o
		expiredStops += s
	}
	return expiredOrders, expiredStops
}

// SweepSymbolExpired runs SweepExpired's logic for a single symbol. Split
// out from SweepExpired so internal/sweep's worker pool can fan a sweep
// pass out across symbols concurrently instead of serializing all symbols
// behind one call, while each symbol's own work still serializes behind
// that symbol's book lock as §5 requires.
func (e *Engine) SweepSymbolExpired(symbol types.Symbol, nowNano int64) (expiredOrders, expiredStops int) {
	lb := e.symbolState(symbol)
	lb.mu.Lock()
	defer lb.mu.Unlock()

	for _, o := range lb.book.AllOrders() {
		if !o.HasExpireTime || nowNano < o.ExpireTimeNano || o.Status.IsTerminal() {
			continue
		}
		lb.book.Remove(o.ID)
		o.Status = types.StatusExpired
		e.markTerminal(o.ID)
		expiredOrders++

		// The WAL's tagged union has no dedicated Expired variant
		// (SPEC_FULL §6); OrderCancelled is the closest durable record
		// of this order leaving the book, so expiry reuses that tag.
		if err := e.appendWAL(wal.Event{Type: wal.EventOrderCancelled, TimestampNano: uint64(nowNano), OrderID: o.ID, Symbol: symbol}); err != nil && e.logger != nil {
			e.logger.Error("sweep: wal append for expired order failed", zap.Error(err), zap.String("order_id", o.ID.String()))
		}
		if e.bus != nil {
			e.bus.PublishOrderCancelled(symbol, *o, nowNano)
		}
	}

	expiredStops = lb.trigger.CleanupExpired(nowNano)

	if e.metrics != nil {
		e.metrics.SweeperRuns.Inc()
		e.metrics.SweeperExpiredOrders.Add(float64(expiredOrders))
		e.metrics.StopsExpired.Add(float64(expiredStops))
	}
	return expiredOrders, expiredStops
}

// CancelOrder implements §6's `CancelOrder(symbol, id) (Order, error)`
// and §4.6's cancellation path, including the duplicate-cancellation rule:
// an id already evicted from the live book but still present in the
// dedupe cache reports OrderNotFound rather than a stale success.
func (e *Engine) CancelOrder(symbol types.Symbol, id ids.OrderID) (types.Order, error) {
	lb := e.symbolState(symbol)

	lb.mu.Lock()
	order, ok := lb.book.Get(id)
	if !ok {
		lb.mu.Unlock()
		return types.Order{}, apperrors.OrderNotFound(id.String())
	}
	if order.Status.IsTerminal() {
		lb.mu.Unlock()
		return types.Order{}, apperrors.OrderNotActive(id.String())
	}

	cancelled := *order
	cancelled.Status = types.StatusCancelled
	if err := e.appendWAL(wal.Event{Type: wal.EventOrderCancelled, TimestampNano: uint64(e.clock.NowNano()), OrderID: id, Symbol: symbol}); err != nil {
		lb.mu.Unlock()
		return types.Order{}, err
	}
	lb.book.Remove(id)
	lb.mu.Unlock()

	e.markTerminal(id)
	if e.bus != nil {
		e.bus.PublishOrderCancelled(symbol, cancelled, e.clock.NowNano())
	}
	return cancelled, nil
}

// ReplayCancelOrder re-drives a cancellation record during snapshot
// recovery without re-appending it to the WAL being replayed.
func (e *Engine) ReplayCancelOrder(symbol types.Symbol, id ids.OrderID) (types.Order, error) {
	lb := e.symbolState(symbol)
	lb.mu.Lock()
	order, ok := lb.book.Get(id)
	if !ok {
		lb.mu.Unlock()
		return types.Order{}, apperrors.OrderNotFound(id.String())
	}
	cancelled := *order
	cancelled.Status = types.StatusCancelled
	lb.book.Remove(id)
	lb.mu.Unlock()

	e.markTerminal(id)
	return cancelled, nil
}

// SubmitStop implements §6's `SubmitStop(StopOrder) (StopOrderId, error)`.
// A pending stop has no other durable record (it never rests in a Book,
// so it is absent from a crash-restart replay otherwise), so its
// submission is WAL-logged under the OrderSubmitted tag's StopOrder
// payload variant, per §6.
func (e *Engine) SubmitStop(stop types.StopOrder) (ids.StopOrderID, error) {
	if err := e.validator.ValidateStopOrder(&stop); err != nil {
		return ids.StopOrderID{}, err
	}
	var zero ids.StopOrderID
	if stop.ID == zero {
		stop.ID = ids.NewStopOrderID()
	}
	stop.CreatedAtNano = e.clock.NowNano()

	if err := e.appendWAL(wal.Event{Type: wal.EventOrderSubmitted, TimestampNano: uint64(e.clock.NowNano()), IsStop: true, StopOrder: stop}); err != nil {
		return ids.StopOrderID{}, err
	}

	lb := e.symbolState(stop.Symbol)
	lb.mu.Lock()
	defer lb.mu.Unlock()

	lb.trigger.AddStopOrder(&stop)
	return stop.ID, nil
}

// CancelStop implements §6's `CancelStop(id) (StopOrder, error)`. Since a
// stop carries no direct symbol lookup table shared with book orders, the
// caller must route through a symbol the engine has already seen; callers
// scanning across all symbols should use the snapshot/admin surface
// instead of this hot path.
func (e *Engine) CancelStop(symbol types.Symbol, id ids.StopOrderID) (types.StopOrder, error) {
	lb := e.symbolState(symbol)
	lb.mu.Lock()
	s := lb.trigger.CancelStopOrder(id)
	lb.mu.Unlock()
	if s == nil {
		return types.StopOrder{}, apperrors.StopNotFound(id.String())
	}

	if err := e.appendWAL(wal.Event{Type: wal.EventOrderCancelled, TimestampNano: uint64(e.clock.NowNano()), IsStop: true, StopOrderID: id, Symbol: symbol}); err != nil {
		return *s, err
	}
	return *s, nil
}

// ReplaySubmitStop re-drives a stop submission record during snapshot
// recovery without re-appending it to the WAL being replayed.
func (e *Engine) ReplaySubmitStop(stop types.StopOrder) (ids.StopOrderID, error) {
	var zero ids.StopOrderID
	if stop.ID == zero {
		stop.ID = ids.NewStopOrderID()
	}
	e.RestoreStop(stop)
	return stop.ID, nil
}

// ReplayCancelStop re-drives a stop cancellation record during snapshot
// recovery without re-appending it to the WAL being replayed.
func (e *Engine) ReplayCancelStop(symbol types.Symbol, id ids.StopOrderID) (types.StopOrder, error) {
	lb := e.symbolState(symbol)
	lb.mu.Lock()
	s := lb.trigger.CancelStopOrder(id)
	lb.mu.Unlock()
	if s == nil {
		return types.StopOrder{}, apperrors.StopNotFound(id.String())
	}
	return *s, nil
}

// GetOrderBook implements §6's `GetOrderBook(symbol) (Snapshot, error)`.
func (e *Engine) GetOrderBook(symbol types.Symbol, maxLevels int) (Snapshot, error) {
	lb := e.symbolState(symbol)
	lb.mu.Lock()
	defer lb.mu.Unlock()

	return Snapshot{
		Symbol: symbol,
		Bids:   lb.book.Depth(types.Buy, maxLevels),
		Asks:   lb.book.Depth(types.Sell, maxLevels),
	}, nil
}

// Snapshot is a read-only view of one symbol's order book depth.
type Snapshot struct {
	Symbol types.Symbol
	Bids   []book.PriceLevelView
	Asks   []book.PriceLevelView
}

// GetRecentTrades implements §6's `GetRecentTrades(symbol, limit)
// ([]Trade, error)`, backed by the per-symbol bounded ring from §4.6's
// "Recent-trades retention" note.
func (e *Engine) GetRecentTrades(symbol types.Symbol, limit int) ([]types.Trade, error) {
	lb := e.symbolState(symbol)
	lb.mu.Lock()
	defer lb.mu.Unlock()
	return lb.trades.recent(limit), nil
}
