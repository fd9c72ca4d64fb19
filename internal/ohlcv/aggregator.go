package ohlcv

import (
	"fmt"
	"sort"
	"time"

	"github.com/marketloom/marketloom/internal/bus"
	"github.com/marketloom/marketloom/internal/schema"
	"github.com/marketloom/marketloom/internal/wire"
)

// barKey identifies one bar window.
type barKey struct {
	symbol  string
	startMS int64
}

// Aggregator builds OHLCV bars from ticks with dedupe, watermark
// finalization, and bounded retroactive corrections.
//
// Now defaults to wall-clock milliseconds; replay and tests inject a pinned
// source so emitted_ts_ms and audit records are reproducible.
type Aggregator struct {
	cfg Config
	bus bus.Bus
	Now func() int64

	open      map[barKey]*schema.Bar
	published map[barKey]*schema.Bar
	dedupe    *dedupeIndex

	barsPublished int64
	corrections   int64
	duplicates    int64
}

// New creates an aggregator publishing to b.
func New(b bus.Bus, cfg Config) *Aggregator {
	return &Aggregator{
		cfg:       cfg,
		bus:       b,
		Now:       func() int64 { return time.Now().UnixMilli() },
		open:      make(map[barKey]*schema.Bar),
		published: make(map[barKey]*schema.Bar),
		dedupe:    newDedupeIndex(cfg.DedupeLimit, cfg.PruneBatch),
	}
}

// HandleTick processes one tick using the aggregator clock as the watermark.
func (a *Aggregator) HandleTick(t schema.Tick) error {
	return a.HandleTickAt(t, a.Now())
}

// HandleTickAt processes one tick with an explicit watermark time.
//
// Order of operations: input check, dedupe, correction-or-update, then
// finalization of every open bar the watermark has passed. Duplicates are
// audited and dropped before they can touch any bar.
func (a *Aggregator) HandleTickAt(t schema.Tick, nowMS int64) error {
	if err := checkTick(t); err != nil {
		return err
	}
	if t.Size <= 0 {
		t.Size = 1
	}

	if a.dedupe.seen(t.Symbol, t, a.Now()) {
		a.duplicates++
		if err := a.audit("tick_duplicate", t); err != nil {
			return err
		}
		return nil
	}

	start := a.floorStart(t.TSMS)
	key := barKey{symbol: t.Symbol, startMS: start}

	if prev, ok := a.published[key]; ok {
		replacement := recompute(prev, t)
		if replacement != nil {
			a.published[key] = replacement
			if err := a.publishBar(replacement, true); err != nil {
				return err
			}
		}
		return nil
	}

	if bar, ok := a.open[key]; ok {
		bar.High = max(bar.High, t.PriceTicks)
		bar.Low = min(bar.Low, t.PriceTicks)
		bar.Close = t.PriceTicks
		bar.Volume += t.Size
		bar.TradeCount++
	} else {
		a.open[key] = &schema.Bar{
			Symbol:           t.Symbol,
			TimeframeMS:      a.cfg.TimeframeMS,
			TimeframeStartMS: start,
			Open:             t.PriceTicks,
			High:             t.PriceTicks,
			Low:              t.PriceTicks,
			Close:            t.PriceTicks,
			Volume:           t.Size,
			TradeCount:       1,
			Version:          1,
		}
	}

	return a.finalizeExpired(nowMS)
}

// Flush publishes every still-open bar regardless of the watermark.
// Used at end of input in batch runs.
func (a *Aggregator) Flush() error {
	keys := make([]barKey, 0, len(a.open))
	for key := range a.open {
		keys = append(keys, key)
	}
	sortKeys(keys)

	for _, key := range keys {
		bar := a.open[key]
		if err := a.publishBar(bar, false); err != nil {
			return err
		}
		a.published[key] = bar
		if err := a.emitMetrics(bar); err != nil {
			return err
		}
	}
	a.open = make(map[barKey]*schema.Bar)
	return nil
}

// Counters returns a snapshot of the aggregator counters.
func (a *Aggregator) Counters() map[string]int64 {
	return map[string]int64{
		"bars_published": a.barsPublished,
		"corrections":    a.corrections,
		"duplicates":     a.duplicates,
	}
}

func (a *Aggregator) floorStart(tsMS int64) int64 {
	return tsMS / a.cfg.TimeframeMS * a.cfg.TimeframeMS
}

func checkTick(t schema.Tick) error {
	if t.Symbol == "" {
		return &InputError{Code: ErrCodeMissingField, Message: "tick has no symbol"}
	}
	if t.TSMS <= 0 {
		return &InputError{Code: ErrCodeMissingField, Message: "tick has no ts_ms", Symbol: t.Symbol}
	}
	if t.PriceTicks < 1 {
		return &InputError{
			Code:    ErrCodeBadValue,
			Message: fmt.Sprintf("price_ticks must be >= 1, got %d", t.PriceTicks),
			Symbol:  t.Symbol,
		}
	}
	return nil
}

// recompute merges a late tick into an already published bar. Returns nil
// when nothing would change; open and close stay as first published.
func recompute(prev *schema.Bar, t schema.Tick) *schema.Bar {
	next := *prev
	changed := false

	if t.PriceTicks > next.High {
		next.High = t.PriceTicks
		changed = true
	}
	if t.PriceTicks < next.Low {
		next.Low = t.PriceTicks
		changed = true
	}

	next.Volume += t.Size
	next.TradeCount++
	if next.Volume != prev.Volume || next.TradeCount != prev.TradeCount {
		changed = true
	}

	if !changed {
		return nil
	}
	next.Version = prev.Version + 1
	return &next
}

// finalizeExpired publishes every open bar whose lateness window has closed,
// oldest window first. Symbol breaks ties so the output order never depends
// on map iteration.
func (a *Aggregator) finalizeExpired(nowMS int64) error {
	var expired []barKey
	for key, bar := range a.open {
		endMS := bar.TimeframeStartMS + bar.TimeframeMS
		if nowMS >= endMS+a.cfg.AllowedLatenessMS {
			expired = append(expired, key)
		}
	}
	sortKeys(expired)

	for _, key := range expired {
		bar := a.open[key]
		if err := a.publishBar(bar, false); err != nil {
			return err
		}
		a.published[key] = bar
		delete(a.open, key)
		if err := a.emitMetrics(bar); err != nil {
			return err
		}
	}
	return nil
}

func (a *Aggregator) publishBar(bar *schema.Bar, replaced bool) error {
	payload := schema.PublishedBar{
		Bar:         *bar,
		Replaced:    replaced,
		EmittedTSMS: a.Now(),
	}

	topic := schema.TopicBar
	event := "ohlcv_bar_published"
	if replaced {
		topic = schema.TopicBarCorrection
		event = "ohlcv_bar_corrected"
	}
	if err := a.bus.Publish(topic, payload); err != nil {
		return fmt.Errorf("publish bar %s@%d: %w", bar.Symbol, bar.TimeframeStartMS, err)
	}
	if err := a.audit(event, payload); err != nil {
		return err
	}

	if replaced {
		a.corrections++
	} else {
		a.barsPublished++
	}
	return nil
}

// emitMetrics publishes the counter snapshot after a finalized bar.
// Corrections do not emit metrics.
func (a *Aggregator) emitMetrics(bar *schema.Bar) error {
	payload := schema.Metrics{
		Symbol:           bar.Symbol,
		TimeframeStartMS: bar.TimeframeStartMS,
		TimeframeMS:      bar.TimeframeMS,
		TradeCount:       bar.TradeCount,
		Volume:           bar.Volume,
		EmittedTSMS:      a.Now(),
		Counters:         a.Counters(),
	}
	if err := a.bus.Publish(schema.TopicOHLCVMetrics, payload); err != nil {
		return fmt.Errorf("publish metrics %s@%d: %w", bar.Symbol, bar.TimeframeStartMS, err)
	}
	return a.audit("ohlcv_metrics", payload)
}

func (a *Aggregator) audit(eventType string, payload any) error {
	body, err := wire.MarshalString(payload)
	if err != nil {
		return fmt.Errorf("encode audit payload for %s: %w", eventType, err)
	}
	nowMS := a.Now()
	rec := schema.AuditRecord{
		ID:          fmt.Sprintf("audit-%s-%d", eventType, nowMS),
		EventType:   eventType,
		TSMS:        nowMS,
		PayloadJSON: body,
	}
	if err := a.bus.Publish(schema.TopicAudit, rec); err != nil {
		return fmt.Errorf("publish audit %s: %w", eventType, err)
	}
	return nil
}

func sortKeys(keys []barKey) {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].startMS != keys[j].startMS {
			return keys[i].startMS < keys[j].startMS
		}
		return keys[i].symbol < keys[j].symbol
	})
}
