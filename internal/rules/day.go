package rules

import (
	"fmt"

	"github.com/marketloom/marketloom/internal/bus"
	"github.com/marketloom/marketloom/internal/gate"
	"github.com/marketloom/marketloom/internal/schema"
	"github.com/marketloom/marketloom/internal/wire"
)

// RunDay fires a DAY breakout when the latest bar closes above the previous
// bar's high with volume expanding by more than 20%.
func RunDay(b bus.Bus, g *gate.Gate, symbol string) error {
	bars, err := symbolBars(b, symbol)
	if err != nil {
		return err
	}
	if len(bars) < 2 {
		return nil
	}

	prev := bars[len(bars)-2]
	cur := bars[len(bars)-1]
	if cur.Close <= prev.High || float64(cur.Volume) <= float64(prev.Volume)*1.2 {
		return nil
	}

	entry := cur.Close
	stop := prev.Low
	anchorTS := cur.EndMS()
	rr := 2.0
	ttl := int64(3_600_000)

	signal := schema.Signal{
		ID:               wire.SignalID(symbol, schema.HorizonDay, anchorTS, entry, stop),
		Symbol:           symbol,
		Side:             schema.SideLong,
		GeneratedTSMS:    anchorTS,
		EntryPriceTicks:  entry,
		StopPriceTicks:   stop,
		TargetPriceTicks: []int64{entry + (entry-stop)*2},
		RR:               &rr,
		ConfidencePct:    62,
		ExplanationShort: "day breakout with volume expansion",
		ExplanationLong:  "day_engine minimal breakout rule fired",
		ModelVersion:     "day_v1",
		SignalType:       schema.HorizonDay,
		Source:           "day_engine",
		TTLMS:            &ttl,
		Debug:            map[string]any{"prev_high": prev.High},
	}
	if _, err := g.PublishSignal(signal); err != nil {
		return fmt.Errorf("day rule %s: %w", symbol, err)
	}
	return nil
}

func symbolBars(b bus.Bus, symbol string) ([]schema.Bar, error) {
	envs, err := b.ReadAll(schema.TopicBar)
	if err != nil {
		return nil, fmt.Errorf("read bars: %w", err)
	}
	var bars []schema.Bar
	for _, env := range envs {
		if bus.String(env, "symbol") == symbol {
			bars = append(bars, schema.BarFromEnvelope(env))
		}
	}
	return bars, nil
}
