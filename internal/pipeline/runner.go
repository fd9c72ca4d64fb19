package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/marketloom/marketloom/internal/bus"
	"github.com/marketloom/marketloom/internal/features"
	"github.com/marketloom/marketloom/internal/fusion"
	"github.com/marketloom/marketloom/internal/gate"
	"github.com/marketloom/marketloom/internal/indicators"
	"github.com/marketloom/marketloom/internal/ohlcv"
	"github.com/marketloom/marketloom/internal/rules"
	"github.com/marketloom/marketloom/internal/schema"
)

// Config collects the knobs for a batch run.
type Config struct {
	Agg          ohlcv.Config
	TickDecimals int32
	Plan         schema.FusionPlan
}

// DefaultRunConfig returns the stock pipeline configuration.
func DefaultRunConfig() Config {
	return Config{
		Agg:          ohlcv.DefaultConfig(),
		TickDecimals: 2,
		Plan:         fusion.DefaultPlan(),
	}
}

// Runner replays the tick topic through every stage in a fixed order.
//
// Clock and IDs default to wall time and random UUIDs. Pin both to make a
// run fully reproducible; the determinism check relies on that.
type Runner struct {
	Bus   bus.Bus
	Cfg   Config
	Clock func() int64
	IDs   func() string
	Log   *slog.Logger
}

// NewRunner creates a batch runner over b.
func NewRunner(b bus.Bus, cfg Config) *Runner {
	return &Runner{
		Bus:   b,
		Cfg:   cfg,
		Clock: func() int64 { return time.Now().UnixMilli() },
		IDs:   uuid.NewString,
		Log:   slog.Default(),
	}
}

// Run executes one batch pass: aggregate ticks into bars, derive
// indicators and features, fire the rule engines, then fuse per symbol.
func (r *Runner) Run() error {
	g := &gate.Gate{Bus: r.Bus, Now: r.Clock, NewID: r.IDs}

	agg := ohlcv.New(r.Bus, r.Cfg.Agg)
	agg.Now = r.Clock
	if err := r.aggregate(agg); err != nil {
		return err
	}

	symbols, err := r.symbols()
	if err != nil {
		return err
	}

	ind := indicators.NewEngine(r.Bus, g)
	ind.Now = r.Clock
	bars, err := r.Bus.ReadAll(schema.TopicBar)
	if err != nil {
		return fmt.Errorf("read bars: %w", err)
	}
	for _, env := range bars {
		if err := ind.HandleBar(schema.BarFromEnvelope(env)); err != nil {
			return err
		}
	}

	for _, symbol := range symbols {
		if err := features.Run(r.Bus, symbol, r.Cfg.TickDecimals); err != nil {
			return err
		}
		for _, engine := range rules.All() {
			if err := engine.Evaluate(r.Bus, g, symbol); err != nil {
				return fmt.Errorf("rule %s: %w", engine.Name(), err)
			}
		}
	}

	if res, err := g.PublishPlan(r.Cfg.Plan); err != nil {
		return err
	} else if !res.OK() {
		return fmt.Errorf("fusion plan rejected: %v", res.Errors)
	}

	for _, symbol := range symbols {
		if err := fusion.Fuse(r.Bus, symbol, r.Cfg.Plan); err != nil {
			return err
		}
	}
	return nil
}

// aggregate drains the tick topic into bars. The watermark for each tick is
// its receive time when present, else its event time, so batch replays see
// the same finalization points the live stream did.
func (r *Runner) aggregate(agg *ohlcv.Aggregator) error {
	ticks, err := r.Bus.ReadAll(schema.TopicTick)
	if err != nil {
		return fmt.Errorf("read ticks: %w", err)
	}
	for _, env := range ticks {
		var seq *int64
		if bus.Has(env, "seq") {
			v := bus.Int(env, "seq")
			seq = &v
		}
		tick := schema.Tick{
			SourceID:   bus.String(env, "source_id"),
			Symbol:     bus.String(env, "symbol"),
			Seq:        seq,
			TSMS:       bus.Int(env, "ts_ms"),
			RecvTSMS:   bus.Int(env, "recv_ts_ms"),
			PriceTicks: bus.Int(env, "price_ticks"),
			Size:       bus.Int(env, "size"),
			TradeID:    bus.String(env, "trade_id"),
			Venue:      bus.String(env, "venue"),
		}
		watermark := tick.RecvTSMS
		if watermark == 0 {
			watermark = tick.TSMS
		}
		if err := agg.HandleTickAt(tick, watermark); err != nil {
			var ie *ohlcv.InputError
			if errors.As(err, &ie) {
				r.Log.Warn("dropping malformed tick",
					"code", string(ie.Code),
					"symbol", ie.Symbol,
					"reason", ie.Message)
				continue
			}
			return err
		}
	}
	return agg.Flush()
}

// symbols lists every symbol seen on the tick or bar topics, sorted.
func (r *Runner) symbols() ([]string, error) {
	seen := map[string]bool{}
	for _, topic := range []string{schema.TopicTick, schema.TopicBar} {
		envs, err := r.Bus.ReadAll(topic)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", topic, err)
		}
		for _, env := range envs {
			if s := bus.String(env, "symbol"); s != "" {
				seen[s] = true
			}
		}
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out, nil
}

// Fingerprint hashes every topic log in the store. Two runs over the same
// input are deterministic exactly when their fingerprints match.
func Fingerprint(s bus.Store) (string, error) {
	topics, err := s.Topics()
	if err != nil {
		return "", fmt.Errorf("list topics: %w", err)
	}

	h := sha256.New()
	for _, topic := range topics {
		dump, err := s.Dump(topic)
		if err != nil {
			return "", fmt.Errorf("dump %s: %w", topic, err)
		}
		fmt.Fprintf(h, "%s\n", topic)
		h.Write(dump)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// VerifyDeterminism runs the same tick input twice on fresh in-memory
// stores and reports whether the full topic logs came out byte-identical.
// Both runs use a clock pinned at epochMS and sequential audit IDs.
func VerifyDeterminism(ticks []bus.Envelope, cfg Config, epochMS int64) (bool, string, error) {
	runOnce := func() (string, error) {
		mb := bus.NewMemoryBus()
		for _, t := range ticks {
			if err := mb.Publish(schema.TopicTick, t); err != nil {
				return "", err
			}
		}
		r := NewRunner(mb, cfg)
		r.Clock = func() int64 { return epochMS }
		n := 0
		r.IDs = func() string {
			n++
			return fmt.Sprintf("audit-%08d", n)
		}
		if err := r.Run(); err != nil {
			return "", err
		}
		return Fingerprint(mb)
	}

	first, err := runOnce()
	if err != nil {
		return false, "", err
	}
	second, err := runOnce()
	if err != nil {
		return false, "", err
	}
	return first == second, first, nil
}
