package rules

import (
	"fmt"

	"github.com/marketloom/marketloom/internal/bus"
	"github.com/marketloom/marketloom/internal/gate"
	"github.com/marketloom/marketloom/internal/schema"
	"github.com/marketloom/marketloom/internal/wire"
)

// RunScalp fires a SCALP entry off each tight book snapshot: spread of at
// most one tick with buy prints outnumbering sells at least two to one.
func RunScalp(b bus.Bus, g *gate.Gate, symbol string) error {
	ticks, err := b.ReadAll(schema.TopicTick)
	if err != nil {
		return fmt.Errorf("read ticks: %w", err)
	}
	books, err := b.ReadAll(schema.TopicOrderBook)
	if err != nil {
		return fmt.Errorf("read book snapshots: %w", err)
	}

	for _, ob := range books {
		if bus.String(ob, "symbol") != symbol {
			continue
		}
		levels := bus.List(ob, "levels")
		if len(levels) == 0 {
			continue
		}
		top, ok := levels[0].(map[string]any)
		if !ok {
			continue
		}
		bid := bus.Int(top, "bid_price_ticks")
		ask := bus.Int(top, "ask_price_ticks")
		spread := ask - bid
		if spread > 1 {
			continue
		}

		var buys, sells int64
		for _, t := range ticks {
			if bus.String(t, "symbol") != symbol {
				continue
			}
			price := bus.Int(t, "price_ticks")
			switch {
			case price >= ask:
				buys++
			case price <= bid:
				sells++
			}
		}
		if buys < max(int64(1), sells*2) {
			continue
		}

		anchorTS := bus.Int(ob, "ts_ms")
		entry := ask
		stop := bid
		rr := 1.0
		ttl := int64(300_000)

		signal := schema.Signal{
			ID:               wire.SignalID(symbol, schema.HorizonScalp, anchorTS, entry, stop),
			Symbol:           symbol,
			Side:             schema.SideLong,
			GeneratedTSMS:    anchorTS,
			EntryPriceTicks:  entry,
			StopPriceTicks:   stop,
			TargetPriceTicks: []int64{entry + spread*5},
			RR:               &rr,
			ConfidencePct:    55,
			ExplanationShort: "scalp spread compression + buy prints",
			ExplanationLong:  "scalp_engine minimal rule fired",
			ModelVersion:     "scalp_v1",
			SignalType:       schema.HorizonScalp,
			Source:           "scalp_engine",
			TTLMS:            &ttl,
			Debug:            map[string]any{"spread_ticks": spread},
		}
		if _, err := g.PublishSignal(signal); err != nil {
			return fmt.Errorf("scalp rule %s: %w", symbol, err)
		}
	}
	return nil
}
