// Package app assembles the matching engine and its collaborators into a
// runnable process via go.uber.org/fx, grounded on the teacher's
// internal/events/broker.go fx.Lifecycle pattern (an fx.Provide
// constructor taking a Params struct with fx.In embedded, registering
// OnStart/OnStop hooks against the injected fx.Lifecycle) — generalized
// from a single broker to the Engine's full collaborator graph: the WAL,
// the event bus, the dedupe cache, the fee schedule, metrics, and the
// expiry sweeper (internal/sweep).
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/abdoElHodaky/auctioncore/internal/config"
	"github.com/abdoElHodaky/auctioncore/internal/dedupe"
	"github.com/abdoElHodaky/auctioncore/internal/eventbus"
	"github.com/abdoElHodaky/auctioncore/internal/facade"
	"github.com/abdoElHodaky/auctioncore/internal/fees"
	"github.com/abdoElHodaky/auctioncore/internal/ids"
	"github.com/abdoElHodaky/auctioncore/internal/metrics"
	"github.com/abdoElHodaky/auctioncore/internal/sweep"
	"github.com/abdoElHodaky/auctioncore/internal/wal"
)

// AppName and AppVersion mirror the teacher's cmd/tradsys/main.go
// constants, renamed for this engine.
const (
	AppName    = "matchcore"
	AppVersion = "1.0.0"
)

// ConfigPath is the directory cmd/matchcore tells NewConfig to look in
// for a config file, since LoadConfig takes a path argument the
// teacher's equivalent reads from a flag.
type ConfigPath string

// NewConfig loads the process-wide Config once, per the teacher's
// config.LoadConfig/GetConfig singleton pattern.
func NewConfig(path ConfigPath) (*config.Config, error) {
	return config.LoadConfig(string(path))
}

// NewLogger builds the process logger from cfg.Log.Level via
// config.InitLogger, and registers an OnStop hook to flush it — the same
// shape every teacher cmd/*/main.go uses for `defer logger.Sync()`,
// moved into fx's lifecycle since main no longer owns the call stack.
func NewLogger(lc fx.Lifecycle, cfg *config.Config) (*zap.Logger, error) {
	logger, err := config.InitLogger(cfg)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			_ = logger.Sync()
			return nil
		},
	})
	return logger, nil
}

// NewWAL opens the write-ahead log against cfg.WAL.Directory and
// registers a Sync-on-stop hook, per §4.7's durability requirement that a
// clean shutdown does not lose a batched, unsynced tail.
func NewWAL(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) (*wal.WAL, error) {
	syncMode, err := wal.ParseSyncMode(cfg.WAL.SyncMode)
	if err != nil {
		return nil, fmt.Errorf("app: parse wal.sync_mode: %w", err)
	}

	w, err := wal.Open(wal.Options{
		Dir:                     cfg.WAL.Directory,
		Sync:                    syncMode,
		MaxFileSizeBytes:        cfg.WAL.MaxFileSizeBytes,
		CompressRotatedSegments: cfg.WAL.CompressRotatedSegments,
	})
	if err != nil {
		return nil, fmt.Errorf("app: open wal: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			if err := w.Sync(); err != nil {
				logger.Warn("wal: final sync failed", zap.Error(err))
			}
			return nil
		},
	})
	return w, nil
}

// NewEventBus constructs the in-process event bus.
func NewEventBus(logger *zap.Logger) *eventbus.Bus {
	return eventbus.New(logger)
}

// NewDedupeCache constructs the terminal-order id cache from
// cfg.Engine.DedupeTTL.
func NewDedupeCache(cfg *config.Config) *dedupe.Cache {
	return dedupe.New(cfg.Engine.DedupeTTL)
}

// NewFeeSchedule constructs the maker/taker fee schedule from cfg.Fees.
func NewFeeSchedule(cfg *config.Config) *fees.Schedule {
	return fees.New(cfg.Fees.MakerBps, cfg.Fees.TakerBps)
}

// NewMetrics constructs the Prometheus collector set under
// cfg.Metrics.Namespace.
func NewMetrics(cfg *config.Config) *metrics.Metrics {
	return metrics.New(cfg.Metrics.Namespace)
}

// NewEngine assembles the facade from every other collaborator this
// module provides, the fx equivalent of facade.New's Options literal.
func NewEngine(
	cfg *config.Config,
	logger *zap.Logger,
	w *wal.WAL,
	bus *eventbus.Bus,
	dedupeCache *dedupe.Cache,
	feeSched *fees.Schedule,
	m *metrics.Metrics,
) *facade.Engine {
	return facade.New(facade.Options{
		Clock:                 &ids.SystemClock{},
		Logger:                logger,
		WAL:                   w,
		Bus:                   bus,
		DedupeCache:           dedupeCache,
		FeeSchedule:           feeSched,
		Metrics:               m,
		MaxCascadeDepth:       cfg.Engine.MaxCascadeDepth,
		RecentTradesPerSymbol: cfg.Engine.RecentTradesPerSymbol,
	})
}

// NewSweeper constructs the expiry sweeper and registers OnStart/OnStop
// hooks starting and stopping its periodic loop, per §4.10.
func NewSweeper(lc fx.Lifecycle, cfg *config.Config, engine *facade.Engine, logger *zap.Logger) (*sweep.Sweeper, error) {
	s, err := sweep.New(sweep.Options{
		Engine:   engine,
		Interval: cfg.Sweeper.Interval,
		PoolSize: cfg.Sweeper.PoolSize,
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("app: new sweeper: %w", err)
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			s.Start(context.Background())
			logger.Info("expiry sweeper started", zap.Duration("interval", cfg.Sweeper.Interval))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			s.Stop()
			return nil
		},
	})
	return s, nil
}

// NewMetricsServer starts the Prometheus /metrics HTTP endpoint the way
// the teacher's cmd/*/main.go services expose their own admin surfaces:
// a bare net/http.Server, lifecycle-bound, never blocking main.
func NewMetricsServer(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: ":9090", Handler: mux}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("metrics server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
	return srv
}

// Module wires every collaborator above into an fx.App, the equivalent of
// the teacher's events.BrokerModule but for the whole engine.
var Module = fx.Options(
	fx.Provide(NewConfig),
	fx.Provide(NewLogger),
	fx.Provide(NewWAL),
	fx.Provide(NewEventBus),
	fx.Provide(NewDedupeCache),
	fx.Provide(NewFeeSchedule),
	fx.Provide(NewMetrics),
	fx.Provide(NewEngine),
	fx.Provide(NewSweeper),
	fx.Provide(NewMetricsServer),
)
