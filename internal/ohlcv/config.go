package ohlcv

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds the aggregator tuning knobs. All durations are epoch-relative
// milliseconds to match the tick stream.
type Config struct {
	TimeframeMS       int64 `env:"OHLC_TIMEFRAME_MS" envDefault:"60000"`
	AllowedLatenessMS int64 `env:"OHLC_ALLOWED_LATENESS_MS" envDefault:"1000"`
	DedupeLimit       int   `env:"OHLC_DEDUPE_LIMIT" envDefault:"10000"`
	PruneBatch        int   `env:"OHLC_PRUNE_BATCH" envDefault:"1000"`
}

// DefaultConfig returns the built-in defaults: one-minute bars with one
// second of allowed lateness.
func DefaultConfig() Config {
	return Config{
		TimeframeMS:       60_000,
		AllowedLatenessMS: 1_000,
		DedupeLimit:       10_000,
		PruneBatch:        1_000,
	}
}

// LoadConfig reads the OHLC_* environment variables, falling back to the
// defaults for anything unset.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse aggregator env: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate rejects configurations the aggregator cannot run with.
func (c Config) Validate() error {
	if c.TimeframeMS < 1 {
		return fmt.Errorf("timeframe_ms must be >= 1, got %d", c.TimeframeMS)
	}
	if c.AllowedLatenessMS < 0 {
		return fmt.Errorf("allowed_lateness_ms must be >= 0, got %d", c.AllowedLatenessMS)
	}
	if c.DedupeLimit < 1 {
		return fmt.Errorf("dedupe_limit must be >= 1, got %d", c.DedupeLimit)
	}
	if c.PruneBatch < 1 {
		return fmt.Errorf("prune_batch must be >= 1, got %d", c.PruneBatch)
	}
	return nil
}
