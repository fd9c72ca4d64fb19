package features

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/marketloom/marketloom/internal/bus"
	"github.com/marketloom/marketloom/internal/schema"
)

// Version identifies the feature computation revision.
const Version = "features_v1.0.0"

// nullValue marks a feature whose window has not warmed up.
const nullValue = "null"

// Worker computes feature snapshots for one symbol.
type Worker struct {
	symbol       string
	tickDecimals int32
	ema20        *EMA
	atr14        *ATR
	vwap         *VWAP
}

// NewWorker creates a worker for symbol with tickDecimals implied decimal
// places per tick (2 for cent-denominated prices).
func NewWorker(symbol string, tickDecimals int32) *Worker {
	return &Worker{
		symbol:       symbol,
		tickDecimals: tickDecimals,
		ema20:        NewEMA(20, tickDecimals),
		atr14:        NewATR(14, tickDecimals),
		vwap:         NewVWAP(tickDecimals),
	}
}

// HandleBar folds one bar into the feature state and returns the snapshot.
// The snapshot's as-of time is the bar's window end.
func (w *Worker) HandleBar(bar schema.Bar) schema.FeatureSnapshot {
	asOf := bar.TimeframeStartMS + bar.TimeframeMS

	emaVal := w.ema20.Update(bar.Close)
	atrVal := w.atr14.Update(bar.High, bar.Low, bar.Close)
	vwapVal := w.vwap.Update(bar.Close, bar.Volume)

	return schema.FeatureSnapshot{
		Symbol:       w.symbol,
		AsOfTSMS:     asOf,
		ComputedAtMS: asOf,
		UsesUpToTSMS: asOf,
		Features: map[string]string{
			"ema_20": render(&emaVal),
			"atr_14": render(atrVal),
			"vwap":   render(vwapVal),
			"close":  DecimalFromTicks(bar.Close, w.tickDecimals).StringFixed(featureScale),
			"volume": fmt.Sprintf("%d", bar.Volume),
		},
		Version:    Version,
		Provenance: "feature_worker",
	}
}

// Run replays the bar topic for one symbol and publishes a snapshot per bar.
func Run(b bus.Bus, symbol string, tickDecimals int32) error {
	bars, err := b.ReadAll(schema.TopicBar)
	if err != nil {
		return fmt.Errorf("read bars: %w", err)
	}

	w := NewWorker(symbol, tickDecimals)
	for _, env := range bars {
		if bus.String(env, "symbol") != symbol {
			continue
		}
		snap := w.HandleBar(schema.BarFromEnvelope(env))
		if err := b.Publish(schema.TopicFeatures, snap); err != nil {
			return fmt.Errorf("publish snapshot %s@%d: %w", symbol, snap.AsOfTSMS, err)
		}
	}
	return nil
}

func render(v *decimal.Decimal) string {
	if v == nil {
		return nullValue
	}
	return v.StringFixed(featureScale)
}
