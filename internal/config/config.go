// Package config loads the pipeline configuration from YAML with
// environment overrides for the aggregator knobs.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/marketloom/marketloom/internal/fusion"
	"github.com/marketloom/marketloom/internal/ohlcv"
	"github.com/marketloom/marketloom/internal/pipeline"
	"github.com/marketloom/marketloom/internal/schema"
)

// File is the on-disk configuration shape.
type File struct {
	TickDecimals int32 `yaml:"tick_decimals"`

	Aggregator struct {
		TimeframeMS       int64 `yaml:"timeframe_ms"`
		AllowedLatenessMS int64 `yaml:"allowed_lateness_ms"`
		DedupeLimit       int   `yaml:"dedupe_limit"`
		PruneBatch        int   `yaml:"prune_batch"`
	} `yaml:"aggregator"`

	Fusion struct {
		Version         string             `yaml:"version"`
		Weights         map[string]float64 `yaml:"weights"`
		AcceptThreshold *float64           `yaml:"accept_threshold"`
	} `yaml:"fusion"`
}

// Load builds a pipeline configuration. Precedence, lowest to highest:
// built-in defaults, OHLC_* environment variables, then the YAML file at
// path (empty path skips the file).
func Load(path string) (pipeline.Config, error) {
	aggCfg, err := ohlcv.LoadConfig()
	if err != nil {
		return pipeline.Config{}, err
	}
	cfg := pipeline.Config{
		Agg:          aggCfg,
		TickDecimals: 2,
		Plan:         fusion.DefaultPlan(),
	}
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return pipeline.Config{}, fmt.Errorf("read config: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return pipeline.Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	if f.TickDecimals != 0 {
		cfg.TickDecimals = f.TickDecimals
	}
	if f.Aggregator.TimeframeMS != 0 {
		cfg.Agg.TimeframeMS = f.Aggregator.TimeframeMS
	}
	if f.Aggregator.AllowedLatenessMS != 0 {
		cfg.Agg.AllowedLatenessMS = f.Aggregator.AllowedLatenessMS
	}
	if f.Aggregator.DedupeLimit != 0 {
		cfg.Agg.DedupeLimit = f.Aggregator.DedupeLimit
	}
	if f.Aggregator.PruneBatch != 0 {
		cfg.Agg.PruneBatch = f.Aggregator.PruneBatch
	}
	if err := cfg.Agg.Validate(); err != nil {
		return pipeline.Config{}, fmt.Errorf("config %s: %w", path, err)
	}

	if f.Fusion.Version != "" {
		cfg.Plan.Version = f.Fusion.Version
	}
	if len(f.Fusion.Weights) > 0 {
		cfg.Plan.Weights = f.Fusion.Weights
	}
	if f.Fusion.AcceptThreshold != nil {
		cfg.Plan.AcceptThreshold = *f.Fusion.AcceptThreshold
	}
	if errs := schema.ValidatePlan(&cfg.Plan); len(errs) > 0 {
		return pipeline.Config{}, fmt.Errorf("config %s: invalid fusion plan: %v", path, errs)
	}
	return cfg, nil
}
