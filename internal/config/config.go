// Package config loads this engine's runtime configuration via
// spf13/viper, following the teacher's LoadConfig/GetConfig singleton
// pattern and its InitLogger helper, trimmed to SPEC_FULL §6's recognized
// option set (wal.*, engine.*, matching.*, sweeper.*, fees.*, metrics.*,
// log.*) instead of the teacher's web-service-shaped sections.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// SyncModeKind mirrors internal/wal.SyncKind without importing internal/wal,
// keeping config a leaf package with no internal dependencies.
type SyncModeKind string

const (
	SyncEveryWrite SyncModeKind = "every_write"
	SyncBatched    SyncModeKind = "batched"
	SyncNone       SyncModeKind = "none"
)

// Config is the full recognized option set from SPEC_FULL §6.
type Config struct {
	WAL struct {
		SyncMode                string `mapstructure:"sync_mode"` // "every_write" | "batched(n)" | "none"
		MaxFileSizeBytes        int64  `mapstructure:"max_file_size_bytes"`
		Directory               string `mapstructure:"directory"`
		CompressRotatedSegments bool   `mapstructure:"compress_rotated_segments"`
	} `mapstructure:"wal"`

	Engine struct {
		MaxCascadeDepth        int           `mapstructure:"max_cascade_depth"`
		RecentTradesPerSymbol  int           `mapstructure:"recent_trades_per_symbol"`
		DedupeTTL              time.Duration `mapstructure:"dedupe_ttl"`
	} `mapstructure:"engine"`

	Matching struct {
		IcebergReplenishThreshold string `mapstructure:"iceberg_replenish_threshold"` // Decimal, parsed by callers
	} `mapstructure:"matching"`

	Sweeper struct {
		Interval time.Duration `mapstructure:"interval"`
		PoolSize int           `mapstructure:"pool_size"`
	} `mapstructure:"sweeper"`

	Fees struct {
		MakerBps int `mapstructure:"maker_bps"`
		TakerBps int `mapstructure:"taker_bps"`
	} `mapstructure:"fees"`

	Metrics struct {
		Namespace string `mapstructure:"namespace"`
	} `mapstructure:"metrics"`

	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
}

var (
	config *Config
	once   sync.Once
)

// LoadConfig loads config.yaml from configPath (a directory; default search
// paths when empty) over the defaults below. Environment variables
// prefixed MATCHCORE_ override only keys the config file itself sets, and
// no key replacer is installed, so a nested key such as wal.sync_mode maps
// to MATCHCORE_WAL.SYNC_MODE.
func LoadConfig(configPath string) (*Config, error) {
	var err error

	once.Do(func() {
		config = &Config{}
		setDefaults()

		v := viper.New()
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		if configPath != "" {
			v.AddConfigPath(configPath)
		} else {
			v.AddConfigPath(".")
			v.AddConfigPath("./config")
			v.AddConfigPath("/etc/matchcore")
		}

		v.AutomaticEnv()
		v.SetEnvPrefix("MATCHCORE")

		if err = v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				err = fmt.Errorf("failed to read config file: %w", err)
				return
			}
			err = nil
		}

		if err = v.Unmarshal(config); err != nil {
			err = fmt.Errorf("failed to unmarshal config: %w", err)
			return
		}
	})

	return config, err
}

// GetConfig returns the process-wide Config, loading it with defaults if
// LoadConfig was never called.
func GetConfig() *Config {
	if config == nil {
		_, err := LoadConfig("")
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	}
	return config
}

// SaveConfig persists cfg to path as JSON, for operator-triggered config
// dumps.
func SaveConfig(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func setDefaults() {
	config.WAL.SyncMode = "batched(100)"
	config.WAL.MaxFileSizeBytes = 100 * 1024 * 1024
	config.WAL.Directory = "./data/wal"
	config.WAL.CompressRotatedSegments = true

	config.Engine.MaxCascadeDepth = 16
	config.Engine.RecentTradesPerSymbol = 1024
	config.Engine.DedupeTTL = 10 * time.Minute

	config.Matching.IcebergReplenishThreshold = "0"

	config.Sweeper.Interval = time.Second
	poolSize := runtime.NumCPU() * 4
	if poolSize > 32 {
		poolSize = 32
	}
	config.Sweeper.PoolSize = poolSize

	config.Fees.MakerBps = 10
	config.Fees.TakerBps = 20

	config.Metrics.Namespace = "matchcore"

	config.Log.Level = "info"
}

// InitLogger builds a zap.Logger from cfg.Log.Level, following the
// teacher's InitLogger shape.
func InitLogger(cfg *Config) (*zap.Logger, error) {
	var logger *zap.Logger
	var err error

	switch cfg.Log.Level {
	case "debug":
		logger, err = zap.NewDevelopment()
	case "info", "warn", "error":
		logger, err = zap.NewProduction()
	default:
		logger, err = zap.NewProduction()
	}

	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return logger, nil
}
