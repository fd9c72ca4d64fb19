package rules

import (
	"fmt"

	"github.com/marketloom/marketloom/internal/bus"
	"github.com/marketloom/marketloom/internal/gate"
	"github.com/marketloom/marketloom/internal/schema"
	"github.com/marketloom/marketloom/internal/wire"
)

// swingWindow is how many recent bars define the structure.
const swingWindow = 20

// newsVetoWindowMS is how far back a bearish article can veto an entry.
const newsVetoWindowMS = int64(3_600_000)

// RunSwing fires a SWING breakout when the latest close clears the highest
// high of the recent structure, unless a strongly negative article landed
// within the veto window.
func RunSwing(b bus.Bus, g *gate.Gate, symbol string) error {
	bars, err := symbolBars(b, symbol)
	if err != nil {
		return err
	}
	if len(bars) == 0 {
		return nil
	}
	if len(bars) > swingWindow {
		bars = bars[len(bars)-swingWindow:]
	}

	last := bars[len(bars)-1]
	swingHigh := last.High
	if len(bars) > 1 {
		swingHigh = bars[0].High
		for _, bar := range bars[:len(bars)-1] {
			swingHigh = max(swingHigh, bar.High)
		}
	}
	swingLow := bars[0].Low
	for _, bar := range bars {
		swingLow = min(swingLow, bar.Low)
	}

	if last.Close <= swingHigh {
		return nil
	}

	nowMS := last.EndMS()
	vetoed, err := bearishNewsWithin(b, nowMS)
	if err != nil {
		return err
	}
	if vetoed {
		return nil
	}

	entry := last.Close
	stop := swingLow
	rr := 2.0
	ttl := int64(86_400_000)

	signal := schema.Signal{
		ID:               wire.SignalID(symbol, schema.HorizonSwing, nowMS, entry, stop),
		Symbol:           symbol,
		Side:             schema.SideLong,
		GeneratedTSMS:    nowMS,
		EntryPriceTicks:  entry,
		StopPriceTicks:   stop,
		TargetPriceTicks: []int64{entry + (entry-stop)*2},
		RR:               &rr,
		ConfidencePct:    66,
		ExplanationShort: "swing breakout above structure",
		ExplanationLong:  "swing_engine minimal structure rule fired",
		ModelVersion:     "swing_v1",
		SignalType:       schema.HorizonSwing,
		Source:           "swing_engine",
		TTLMS:            &ttl,
		Debug:            map[string]any{"swing_high": swingHigh, "swing_low": swingLow},
	}
	if _, err := g.PublishSignal(signal); err != nil {
		return fmt.Errorf("swing rule %s: %w", symbol, err)
	}
	return nil
}

func bearishNewsWithin(b bus.Bus, nowMS int64) (bool, error) {
	articles, err := b.ReadAll(schema.TopicNews)
	if err != nil {
		return false, fmt.Errorf("read articles: %w", err)
	}
	for _, a := range articles {
		ts := bus.Int(a, "analysis_ts_ms")
		if ts == 0 || nowMS-ts >= newsVetoWindowMS {
			continue
		}
		if bus.Float(a, "sentiment_score") < -0.5 {
			return true, nil
		}
	}
	return false, nil
}
