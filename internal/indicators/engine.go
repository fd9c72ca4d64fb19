package indicators

import (
	"fmt"
	"math"
	"time"

	"github.com/marketloom/marketloom/internal/bus"
	"github.com/marketloom/marketloom/internal/gate"
	"github.com/marketloom/marketloom/internal/schema"
)

// SignalTTLMS is how long an indicator signal stays actionable.
const SignalTTLMS = int64(300_000)

// BarIndicators is the record published to indicators.bar.v1 for every bar.
type BarIndicators struct {
	Symbol           string     `json:"symbol"`
	TimeframeStartMS int64      `json:"timeframe_start_ms"`
	Indicators       Values     `json:"indicators"`
	Bar              schema.Bar `json:"bar"`
	EmittedTSMS      int64      `json:"emitted_ts_ms"`
}

// Engine consumes finalized bars, publishes indicator snapshots, and emits
// a LONG scalp signal on each EMA crossover with a positive ATR.
//
// Signals go through the gate; if the gate rejects one, the raw signal is
// still published directly to the display topic so downstream consumers see
// it. Now is injectable for deterministic runs.
type Engine struct {
	bus  bus.Bus
	gate *gate.Gate
	Now  func() int64

	// StopATRMultiplier sizes the stop distance in ATR units.
	StopATRMultiplier float64

	states map[string]*State
}

// NewEngine creates an engine publishing through g.
func NewEngine(b bus.Bus, g *gate.Gate) *Engine {
	return &Engine{
		bus:               b,
		gate:              g,
		Now:               func() int64 { return time.Now().UnixMilli() },
		StopATRMultiplier: 1.5,
		states:            make(map[string]*State),
	}
}

// HandleBar folds one finalized bar into the symbol's indicator state.
func (e *Engine) HandleBar(bar schema.Bar) error {
	state := e.states[bar.Symbol]
	if state == nil {
		state = NewState()
		e.states[bar.Symbol] = state
	}
	vals := state.Update(bar)

	rec := BarIndicators{
		Symbol:           bar.Symbol,
		TimeframeStartMS: bar.TimeframeStartMS,
		Indicators:       vals,
		Bar:              bar,
		EmittedTSMS:      e.Now(),
	}
	if err := e.bus.Publish(schema.TopicIndicatorBar, rec); err != nil {
		return fmt.Errorf("publish indicators %s@%d: %w", bar.Symbol, bar.TimeframeStartMS, err)
	}

	if vals.EMAShort == nil || vals.EMALong == nil || vals.ATR == nil {
		return nil
	}
	if !state.crossedUp() || *vals.ATR <= 0 {
		return nil
	}
	return e.emitSignal(bar, vals)
}

func (e *Engine) emitSignal(bar schema.Bar, vals Values) error {
	entry := bar.Close
	stop := max(int64(1), entry-int64(e.StopATRMultiplier**vals.ATR))

	// Crossover magnitude in volatility units keeps confidence stable
	// across symbols with very different price scales.
	magnitude := (*vals.EMAShort - *vals.EMALong) / math.Max(1e-6, *vals.ATR)
	confidence := int64(math.Min(95, math.Max(30, 50+magnitude*10)))

	ttl := SignalTTLMS
	signal := schema.Signal{
		ID:               fmt.Sprintf("signal-%s-%d", bar.Symbol, bar.TimeframeStartMS),
		Symbol:           bar.Symbol,
		Side:             schema.SideLong,
		GeneratedTSMS:    e.Now(),
		EntryPriceTicks:  entry,
		StopPriceTicks:   stop,
		TargetPriceTicks: []int64{entry + int64(1.5*float64(entry-stop))},
		ConfidencePct:    confidence,
		ExplanationShort: "ema_short crossover above ema_long with ATR stop",
		SignalType:       schema.HorizonScalp,
		ModelVersion:     "ind_engine_v1",
		Source:           "indicators_engine",
		TTLMS:            &ttl,
		Debug: map[string]any{
			"ema_short":     round6(*vals.EMAShort),
			"ema_long":      round6(*vals.EMALong),
			"atr":           round6(*vals.ATR),
			"magnitude_atr": round6(magnitude),
		},
	}

	res, err := e.gate.PublishSignal(signal)
	if err != nil {
		return fmt.Errorf("gate signal %s: %w", signal.ID, err)
	}
	if !res.OK() {
		// Safety net: a rejected crossover still reaches the display topic
		// unvalidated rather than disappearing.
		if err := e.bus.Publish(schema.TopicSignal, signal); err != nil {
			return fmt.Errorf("fallback publish %s: %w", signal.ID, err)
		}
	}
	return nil
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
