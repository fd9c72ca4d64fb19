package rules

import (
	"encoding/json"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketloom/marketloom/internal/bus"
	"github.com/marketloom/marketloom/internal/gate"
	"github.com/marketloom/marketloom/internal/schema"
	"github.com/marketloom/marketloom/internal/testutil"
)

const rulesBase = int64(1_700_000_000_000)

var idPattern = regexp.MustCompile(`^[0-9a-f]{24}$`)

func newRulesFixture() (*gate.Gate, *bus.MemoryBus) {
	mb := bus.NewMemoryBus()
	return &gate.Gate{
		Bus:   mb,
		Now:   func() int64 { return rulesBase },
		NewID: testutil.SeqIDs("audit"),
	}, mb
}

func publishBar(t *testing.T, mb *bus.MemoryBus, symbol string, i, high, low, close, volume int64) {
	t.Helper()
	require.NoError(t, mb.Publish(schema.TopicBar, schema.PublishedBar{
		Bar: schema.Bar{
			Symbol:           symbol,
			TimeframeMS:      60_000,
			TimeframeStartMS: rulesBase + i*60_000,
			Open:             close,
			High:             high,
			Low:              low,
			Close:            close,
			Volume:           volume,
			TradeCount:       volume,
			Version:          1,
		},
	}))
}

func readSignals(t *testing.T, mb *bus.MemoryBus) []bus.Envelope {
	t.Helper()
	signals, err := mb.ReadAll(schema.TopicSignal)
	require.NoError(t, err)
	return signals
}

func TestRunDay_BreakoutWithVolumeExpansion(t *testing.T) {
	g, mb := newRulesFixture()
	publishBar(t, mb, "SYM", 0, 1050, 1000, 1040, 100)
	publishBar(t, mb, "SYM", 1, 1070, 1030, 1060, 130)

	require.NoError(t, RunDay(mb, g, "SYM"))

	signals := readSignals(t, mb)
	require.Len(t, signals, 1)
	sig := signals[0]
	assert.Regexp(t, idPattern, bus.String(sig, "id"))
	assert.Equal(t, schema.HorizonDay, bus.String(sig, "signal_type"))
	assert.Equal(t, int64(1060), bus.Int(sig, "entry_price_ticks"))
	assert.Equal(t, int64(1000), bus.Int(sig, "stop_price_ticks"), "stop sits at the previous bar's low")
	assert.Equal(t, int64(62), bus.Int(sig, "confidence_pct"))
	assert.Equal(t, 2.0, bus.Float(sig, "rr"))
	assert.Equal(t, rulesBase+2*60_000, bus.Int(sig, "generated_ts_ms"), "anchored at the latest bar's end")
}

func TestRunDay_NoSignalWithoutVolumeExpansion(t *testing.T) {
	g, mb := newRulesFixture()
	publishBar(t, mb, "SYM", 0, 1050, 1000, 1040, 100)
	publishBar(t, mb, "SYM", 1, 1070, 1030, 1060, 110)

	require.NoError(t, RunDay(mb, g, "SYM"))
	assert.Empty(t, readSignals(t, mb))
}

func TestRunDay_NoSignalBelowPrevHigh(t *testing.T) {
	g, mb := newRulesFixture()
	publishBar(t, mb, "SYM", 0, 1050, 1000, 1040, 100)
	publishBar(t, mb, "SYM", 1, 1049, 1030, 1045, 200)

	require.NoError(t, RunDay(mb, g, "SYM"))
	assert.Empty(t, readSignals(t, mb))
}

func TestRunDay_NeedsTwoBars(t *testing.T) {
	g, mb := newRulesFixture()
	publishBar(t, mb, "SYM", 0, 1050, 1000, 1040, 100)

	require.NoError(t, RunDay(mb, g, "SYM"))
	assert.Empty(t, readSignals(t, mb))
}

func TestRunDay_StableIDAcrossRuns(t *testing.T) {
	run := func() string {
		g, mb := newRulesFixture()
		publishBar(t, mb, "SYM", 0, 1050, 1000, 1040, 100)
		publishBar(t, mb, "SYM", 1, 1070, 1030, 1060, 130)
		require.NoError(t, RunDay(mb, g, "SYM"))
		signals := readSignals(t, mb)
		require.Len(t, signals, 1)
		return bus.String(signals[0], "id")
	}
	assert.Equal(t, run(), run())
}

func publishBook(t *testing.T, mb *bus.MemoryBus, symbol string, tsMS, bid, ask int64) {
	t.Helper()
	require.NoError(t, mb.Publish(schema.TopicOrderBook, schema.OrderBookSnapshot{
		Symbol: symbol,
		TSMS:   tsMS,
		Levels: []schema.OrderBookLevel{{BidPriceTicks: bid, AskPriceTicks: ask}},
	}))
}

func publishTick(t *testing.T, mb *bus.MemoryBus, symbol string, price int64) {
	t.Helper()
	require.NoError(t, mb.Publish(schema.TopicTick, schema.Tick{
		Symbol: symbol, TSMS: rulesBase, PriceTicks: price, Size: 1,
	}))
}

func TestRunScalp_TightSpreadWithBuyPressure(t *testing.T) {
	g, mb := newRulesFixture()
	publishBook(t, mb, "SYM", rulesBase+100, 1000, 1001)
	for i := 0; i < 3; i++ {
		publishTick(t, mb, "SYM", 1001)
	}
	publishTick(t, mb, "SYM", 1000)

	require.NoError(t, RunScalp(mb, g, "SYM"))

	signals := readSignals(t, mb)
	require.Len(t, signals, 1)
	sig := signals[0]
	assert.Equal(t, schema.HorizonScalp, bus.String(sig, "signal_type"))
	assert.Equal(t, int64(1001), bus.Int(sig, "entry_price_ticks"))
	assert.Equal(t, int64(1000), bus.Int(sig, "stop_price_ticks"))
	assert.Equal(t, rulesBase+100, bus.Int(sig, "generated_ts_ms"))
	assert.Equal(t, int64(55), bus.Int(sig, "confidence_pct"))
}

func TestRunScalp_WideSpreadIsSkipped(t *testing.T) {
	g, mb := newRulesFixture()
	publishBook(t, mb, "SYM", rulesBase+100, 1000, 1003)
	for i := 0; i < 5; i++ {
		publishTick(t, mb, "SYM", 1003)
	}

	require.NoError(t, RunScalp(mb, g, "SYM"))
	assert.Empty(t, readSignals(t, mb))
}

func TestRunScalp_SellPressureIsSkipped(t *testing.T) {
	g, mb := newRulesFixture()
	publishBook(t, mb, "SYM", rulesBase+100, 1000, 1001)
	publishTick(t, mb, "SYM", 1001)
	for i := 0; i < 3; i++ {
		publishTick(t, mb, "SYM", 1000)
	}

	require.NoError(t, RunScalp(mb, g, "SYM"))
	assert.Empty(t, readSignals(t, mb), "one buy against three sells fails the 2:1 rule")
}

func TestRunScalp_OtherSymbolsIgnored(t *testing.T) {
	g, mb := newRulesFixture()
	publishBook(t, mb, "OTHER", rulesBase+100, 1000, 1001)
	publishTick(t, mb, "OTHER", 1001)

	require.NoError(t, RunScalp(mb, g, "SYM"))
	assert.Empty(t, readSignals(t, mb))
}

func swingSetup(t *testing.T, mb *bus.MemoryBus) {
	t.Helper()
	for i := int64(0); i < 5; i++ {
		publishBar(t, mb, "SYM", i, 1100, 1000, 1050, 100)
	}
	publishBar(t, mb, "SYM", 5, 1210, 1080, 1200, 150)
}

func TestRunSwing_StructureBreakout(t *testing.T) {
	g, mb := newRulesFixture()
	swingSetup(t, mb)

	require.NoError(t, RunSwing(mb, g, "SYM"))

	signals := readSignals(t, mb)
	require.Len(t, signals, 1)
	sig := signals[0]
	assert.Equal(t, schema.HorizonSwing, bus.String(sig, "signal_type"))
	assert.Equal(t, int64(1200), bus.Int(sig, "entry_price_ticks"))
	assert.Equal(t, int64(1000), bus.Int(sig, "stop_price_ticks"), "stop at the structure low")
	assert.Equal(t, int64(66), bus.Int(sig, "confidence_pct"))
	targets := bus.List(sig, "target_price_ticks")
	require.Len(t, targets, 1)
	num, ok := targets[0].(json.Number)
	require.True(t, ok)
	target, err := num.Int64()
	require.NoError(t, err)
	assert.Equal(t, int64(1200+(1200-1000)*2), target)
}

func TestRunSwing_NoBreakoutNoSignal(t *testing.T) {
	g, mb := newRulesFixture()
	for i := int64(0); i < 6; i++ {
		publishBar(t, mb, "SYM", i, 1100, 1000, 1050, 100)
	}

	require.NoError(t, RunSwing(mb, g, "SYM"))
	assert.Empty(t, readSignals(t, mb))
}

func TestRunSwing_RecentBearishNewsVetoes(t *testing.T) {
	g, mb := newRulesFixture()
	swingSetup(t, mb)

	require.NoError(t, mb.Publish(schema.TopicNews, schema.NewsAnalysis{
		ArticleID:      "art-1",
		AnalysisTSMS:   rulesBase + 6*60_000 - 1000,
		SentimentScore: -0.8,
		RelevanceScore: 0.9,
		Summary:        "Severe downgrade.",
		Entities:       []string{},
		Tags:           []string{},
		ImpactClass:    "high",
	}))

	require.NoError(t, RunSwing(mb, g, "SYM"))
	assert.Empty(t, readSignals(t, mb))
}

func TestRunSwing_StaleNewsDoesNotVeto(t *testing.T) {
	g, mb := newRulesFixture()
	swingSetup(t, mb)

	require.NoError(t, mb.Publish(schema.TopicNews, schema.NewsAnalysis{
		ArticleID:      "art-1",
		AnalysisTSMS:   rulesBase - 4_000_000,
		SentimentScore: -0.8,
		RelevanceScore: 0.9,
		Summary:        "Old downgrade.",
		Entities:       []string{},
		Tags:           []string{},
		ImpactClass:    "high",
	}))

	require.NoError(t, RunSwing(mb, g, "SYM"))
	assert.Len(t, readSignals(t, mb), 1)
}

func TestRunSwing_MildlyNegativeNewsDoesNotVeto(t *testing.T) {
	g, mb := newRulesFixture()
	swingSetup(t, mb)

	require.NoError(t, mb.Publish(schema.TopicNews, schema.NewsAnalysis{
		ArticleID:      "art-1",
		AnalysisTSMS:   rulesBase + 6*60_000 - 1000,
		SentimentScore: -0.4,
		RelevanceScore: 0.9,
		Summary:        "Slightly cautious note.",
		Entities:       []string{},
		Tags:           []string{},
		ImpactClass:    "low",
	}))

	require.NoError(t, RunSwing(mb, g, "SYM"))
	assert.Len(t, readSignals(t, mb), 1)
}

func TestAll_EnginesRunInFixedOrder(t *testing.T) {
	engines := All()
	require.Len(t, engines, 3)
	assert.Equal(t, "day_breakout", engines[0].Name())
	assert.Equal(t, "scalp_spread", engines[1].Name())
	assert.Equal(t, "swing_structure", engines[2].Name())
}

func TestAll_EvaluateMatchesDirectRun(t *testing.T) {
	g, mb := newRulesFixture()
	publishBar(t, mb, "SYM", 0, 1050, 1000, 1040, 100)
	publishBar(t, mb, "SYM", 1, 1070, 1030, 1060, 130)

	for _, engine := range All() {
		require.NoError(t, engine.Evaluate(mb, g, "SYM"))
	}

	signals := readSignals(t, mb)
	types := make([]string, 0, len(signals))
	for _, sig := range signals {
		types = append(types, bus.String(sig, "signal_type"))
	}
	assert.ElementsMatch(t, []string{schema.HorizonDay, schema.HorizonSwing}, types,
		"the breakout satisfies both the day and swing engines")
}
