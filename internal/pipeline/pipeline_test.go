package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketloom/marketloom/internal/bus"
	"github.com/marketloom/marketloom/internal/ohlcv"
	"github.com/marketloom/marketloom/internal/schema"
)

const pipelineBase = int64(1_700_000_000_000)

// breakoutTicks builds two one-minute windows for SYM where the second
// closes above the first's high with expanding volume, so the day rule
// fires after aggregation.
func breakoutTicks() []schema.Tick {
	var ticks []schema.Tick
	for i := int64(0); i < 5; i++ {
		ticks = append(ticks, schema.Tick{
			Symbol: "SYM", TSMS: pipelineBase + i*1000, RecvTSMS: pipelineBase + i*1000,
			PriceTicks: 1000 + i, Size: 1, TradeID: fmt.Sprintf("w1-%d", i),
			SourceID: "csv_ingest", Venue: "CSV",
		})
	}
	for i := int64(0); i < 7; i++ {
		ticks = append(ticks, schema.Tick{
			Symbol: "SYM", TSMS: pipelineBase + 60_000 + i*1000, RecvTSMS: pipelineBase + 60_000 + i*1000,
			PriceTicks: 1010 + i, Size: 1, TradeID: fmt.Sprintf("w2-%d", i),
			SourceID: "csv_ingest", Venue: "CSV",
		})
	}
	return ticks
}

func seedTicks(t *testing.T, b bus.Bus, ticks []schema.Tick) {
	t.Helper()
	for _, tk := range ticks {
		require.NoError(t, b.Publish(schema.TopicTick, tk))
	}
}

func pinnedRunner(mb *bus.MemoryBus) *Runner {
	r := NewRunner(mb, DefaultRunConfig())
	r.Clock = func() int64 { return pipelineBase + 200_000 }
	n := 0
	r.IDs = func() string {
		n++
		return fmt.Sprintf("audit-%08d", n)
	}
	return r
}

func TestRunner_EndToEnd(t *testing.T) {
	mb := bus.NewMemoryBus()
	seedTicks(t, mb, breakoutTicks())

	require.NoError(t, pinnedRunner(mb).Run())

	bars, err := mb.ReadAll(schema.TopicBar)
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, int64(1004), bus.Int(bars[0], "close"))
	assert.Equal(t, int64(1016), bus.Int(bars[1], "close"))

	indicatorRecords, err := mb.ReadAll(schema.TopicIndicatorBar)
	require.NoError(t, err)
	assert.Len(t, indicatorRecords, 2)

	snaps, err := mb.ReadAll(schema.TopicFeatures)
	require.NoError(t, err)
	assert.Len(t, snaps, 2)

	signals, err := mb.ReadAll(schema.TopicSignal)
	require.NoError(t, err)
	require.Len(t, signals, 2, "the breakout fires both the day and swing rules")
	types := []string{
		bus.String(signals[0], "signal_type"),
		bus.String(signals[1], "signal_type"),
	}
	assert.ElementsMatch(t, []string{schema.HorizonDay, schema.HorizonSwing}, types)

	plans, err := mb.ReadAll(schema.TopicFusionPlan)
	require.NoError(t, err)
	assert.Len(t, plans, 1)

	candidates, err := mb.ReadAll(schema.TopicCandidate)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "SYM", bus.String(candidates[0], "symbol"))
	assert.Equal(t, schema.ResolutionAccepted, bus.String(candidates[0], "resolution"))
}

func TestRunner_NoTicksNoOutput(t *testing.T) {
	mb := bus.NewMemoryBus()
	require.NoError(t, pinnedRunner(mb).Run())

	bars, err := mb.ReadAll(schema.TopicBar)
	require.NoError(t, err)
	assert.Empty(t, bars)

	candidates, err := mb.ReadAll(schema.TopicCandidate)
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestRunner_MalformedTickIsSkipped(t *testing.T) {
	mb := bus.NewMemoryBus()
	require.NoError(t, mb.Publish(schema.TopicTick, map[string]any{
		"symbol": "SYM", "price_ticks": 1000, "size": 1,
	}))
	seedTicks(t, mb, breakoutTicks())

	r := pinnedRunner(mb)
	r.Log = slog.New(slog.NewTextHandler(io.Discard, nil))
	require.NoError(t, r.Run())

	bars, err := mb.ReadAll(schema.TopicBar)
	require.NoError(t, err)
	assert.Len(t, bars, 2, "the tick without ts_ms is dropped, the rest aggregate")
}

func TestVerifyDeterminism_SameInputSameBytes(t *testing.T) {
	mb := bus.NewMemoryBus()
	seedTicks(t, mb, breakoutTicks())
	ticks, err := mb.ReadAll(schema.TopicTick)
	require.NoError(t, err)

	ok, fingerprint, err := VerifyDeterminism(ticks, DefaultRunConfig(), pipelineBase+200_000)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, fingerprint, 64)
}

func TestFingerprint_SensitiveToContent(t *testing.T) {
	a := bus.NewMemoryBus()
	b := bus.NewMemoryBus()
	require.NoError(t, a.Publish("t.v1", map[string]any{"n": 1}))
	require.NoError(t, b.Publish("t.v1", map[string]any{"n": 2}))

	fa, err := Fingerprint(a)
	require.NoError(t, err)
	fb, err := Fingerprint(b)
	require.NoError(t, err)
	assert.NotEqual(t, fa, fb)
}

func TestLoop_DrainsAndFlushes(t *testing.T) {
	mb := bus.NewMemoryBus()
	agg := ohlcv.New(mb, ohlcv.Config{
		TimeframeMS: 60_000, AllowedLatenessMS: 1000, DedupeLimit: 100, PruneBatch: 10,
	})
	agg.Now = func() int64 { return pipelineBase }

	loop := NewLoop(agg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	done := make(chan error, 1)
	go func() { done <- loop.Run(context.Background()) }()

	for _, tk := range breakoutTicks() {
		require.True(t, loop.Submit(tk))
	}
	loop.Close()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("loop did not drain")
	}

	assert.False(t, loop.Submit(schema.Tick{Symbol: "SYM", TSMS: 1, PriceTicks: 1, Size: 1}))

	bars, err := mb.ReadAll(schema.TopicBar)
	require.NoError(t, err)
	assert.Len(t, bars, 2)
}

func TestLoop_ContextCancelStopsRun(t *testing.T) {
	mb := bus.NewMemoryBus()
	agg := ohlcv.New(mb, ohlcv.DefaultConfig())
	loop := NewLoop(agg, slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("loop did not stop on cancellation")
	}
}
