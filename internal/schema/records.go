package schema

// Topic record shapes. JSON tags define the wire field names; validate tags
// define the gate's acceptance rules.

// Tick is one trade report on market.tick.v1.
//
// Dedupe identity: TradeID when present, else (seq, ts_ms, price_ticks,
// size). A tick with neither TradeID nor Seq is not dedupable and is always
// accepted.
type Tick struct {
	SourceID   string `json:"source_id,omitempty"`
	Symbol     string `json:"symbol" validate:"required"`
	Seq        *int64 `json:"seq,omitempty"`
	TSMS       int64  `json:"ts_ms" validate:"gte=0"`
	RecvTSMS   int64  `json:"recv_ts_ms,omitempty"`
	PriceTicks int64  `json:"price_ticks" validate:"gte=1"`
	Size       int64  `json:"size" validate:"gte=1"`
	TradeID    string `json:"trade_id,omitempty"`
	Venue      string `json:"venue,omitempty"`
}

// Bar is one OHLCV aggregate keyed by (symbol, timeframe_start_ms).
type Bar struct {
	Symbol           string `json:"symbol" validate:"required"`
	TimeframeMS      int64  `json:"timeframe_ms" validate:"gte=1"`
	TimeframeStartMS int64  `json:"timeframe_start_ms" validate:"gte=0"`
	Open             int64  `json:"open"`
	High             int64  `json:"high"`
	Low              int64  `json:"low"`
	Close            int64  `json:"close"`
	Volume           int64  `json:"volume" validate:"gte=0"`
	TradeCount       int64  `json:"trade_count" validate:"gte=0"`
	Version          int64  `json:"version" validate:"gte=1"`
}

// PublishedBar is the wire form of a Bar on ohlcv.bar.v1 and
// ohlcv.correction.v1. Replaced is false for first publishes and true for
// corrections (which always carry Version >= 2).
type PublishedBar struct {
	Bar
	Replaced    bool  `json:"replaced"`
	EmittedTSMS int64 `json:"emitted_ts_ms"`
}

// Metrics is the aggregator counter snapshot on metrics.ohlcv.v1,
// emitted after each finalized bar.
type Metrics struct {
	Symbol           string           `json:"symbol"`
	TimeframeStartMS int64            `json:"timeframe_start_ms"`
	TimeframeMS      int64            `json:"timeframe_ms"`
	TradeCount       int64            `json:"trade_count"`
	Volume           int64            `json:"volume"`
	EmittedTSMS      int64            `json:"emitted_ts_ms"`
	Counters         map[string]int64 `json:"counters"`
}

// Signal is the display-signal envelope on signal.display.v1.
// Every producer (rule engines, indicator engine) emits this shape; the gate
// enforces the ranges before publish.
type Signal struct {
	ID               string         `json:"id" validate:"required,min=8,max=64"`
	Symbol           string         `json:"symbol" validate:"required"`
	Side             string         `json:"side" validate:"required,oneof=LONG SHORT"`
	GeneratedTSMS    int64          `json:"generated_ts_ms" validate:"gte=0"`
	EntryPriceTicks  int64          `json:"entry_price_ticks" validate:"gte=1"`
	StopPriceTicks   int64          `json:"stop_price_ticks" validate:"gte=1"`
	TargetPriceTicks []int64        `json:"target_price_ticks"`
	RR               *float64       `json:"rr,omitempty" validate:"omitempty,gte=0"`
	ConfidencePct    int64          `json:"confidence_pct" validate:"gte=0,lte=100"`
	ExplanationShort string         `json:"explanation_short,omitempty" validate:"max=240"`
	ExplanationLong  string         `json:"explanation_long,omitempty" validate:"max=2000"`
	ModelVersion     string         `json:"model_version,omitempty"`
	SignalType       string         `json:"signal_type" validate:"required"`
	Source           string         `json:"source,omitempty"`
	TTLMS            *int64         `json:"ttl_ms,omitempty" validate:"omitempty,gte=0"`
	Debug            map[string]any `json:"debug"`
}

// OrderBookLevel is one price level of a book snapshot.
type OrderBookLevel struct {
	BidPriceTicks int64 `json:"bid_price_ticks"`
	AskPriceTicks int64 `json:"ask_price_ticks"`
	BidSize       int64 `json:"bid_size,omitempty"`
	AskSize       int64 `json:"ask_size,omitempty"`
}

// OrderBookSnapshot is one top-of-book record on orderbook.snap.v1.
// Levels[0] is the best bid/ask.
type OrderBookSnapshot struct {
	Symbol string           `json:"symbol"`
	TSMS   int64            `json:"ts_ms"`
	Levels []OrderBookLevel `json:"levels"`
}

// NewsAnalysis is one article analysis on article.analysis.v1.
type NewsAnalysis struct {
	ArticleID      string   `json:"article_id" validate:"required"`
	AnalysisTSMS   int64    `json:"analysis_ts_ms" validate:"gte=0"`
	SentimentScore float64  `json:"sentiment_score" validate:"gte=-1,lte=1"`
	RelevanceScore float64  `json:"relevance_score" validate:"gte=0,lte=1"`
	Summary        string   `json:"summary" validate:"required,max=4000"`
	Entities       []string `json:"entities"`
	Tags           []string `json:"tags"`
	ModelVersion   string   `json:"model_version,omitempty"`
	ImpactClass    string   `json:"impact_class"`
}

// FusionPlan configures the fusion engine; published on fusion.plan.v1.
type FusionPlan struct {
	Version             string             `json:"version" validate:"required"`
	Weights             map[string]float64 `json:"weights" validate:"required,min=1"`
	AcceptThreshold     float64            `json:"accept_threshold" validate:"gte=0,lte=100"`
	ConflictRRThreshold float64            `json:"conflict_rr_threshold" validate:"gte=0"`
	MinContributions    int64              `json:"min_contributions" validate:"gte=1"`
	Debug               map[string]any     `json:"debug"`
}

// Contribution is one signal's share of a fusion decision.
type Contribution struct {
	Horizon       string   `json:"horizon"`
	SignalID      string   `json:"signal_id"`
	ConfidencePct int64    `json:"confidence_pct"`
	Weight        float64  `json:"weight"`
	WeightedScore float64  `json:"weighted_score"`
	Rationale     []string `json:"rationale"`
}

// FusionTrace is the full per-contribution breakdown on fusion.trace.v1.
type FusionTrace struct {
	FusionID          string         `json:"fusion_id"`
	Symbol            string         `json:"symbol"`
	CreatedTSMS       int64          `json:"created_ts_ms"`
	Contributions     []Contribution `json:"contributions"`
	CompositeScore    float64        `json:"composite_score"`
	Resolution        string         `json:"resolution"`
	DominantHorizon   string         `json:"dominant_horizon"`
	FusionPlanVersion string         `json:"fusion_plan_version"`
	DebugJSON         string         `json:"debug_json"`
}

// Candidate is the fused summary on candidate.v1: one ranked candidate per
// symbol with an accept/conflict decision.
type Candidate struct {
	ID              string   `json:"id"`
	Symbol          string   `json:"symbol"`
	CompositeScore  float64  `json:"composite_score"`
	Resolution      string   `json:"resolution"`
	CreatedTSMS     int64    `json:"created_ts_ms"`
	DominantHorizon string   `json:"dominant_horizon"`
	Signals         []string `json:"signals"`
}

// AuditRecord is the append-only audit trail entry on audit.records.v1.
// PayloadJSON is the canonical JSON of the audited event body. Audit is
// never read by the pipeline, only by external observers and tests.
type AuditRecord struct {
	ID          string `json:"id"`
	EventType   string `json:"event_type"`
	TSMS        int64  `json:"ts_ms"`
	PayloadJSON string `json:"payload_json"`
}

// FeatureSnapshot is one decimal feature row on feature.snapshot.v1.
// Feature values are decimal strings, "null" while warm-up is incomplete.
type FeatureSnapshot struct {
	Symbol       string            `json:"symbol"`
	AsOfTSMS     int64             `json:"as_of_ts_ms"`
	ComputedAtMS int64             `json:"computed_at_ms"`
	UsesUpToTSMS int64             `json:"uses_up_to_ts_ms"`
	Features     map[string]string `json:"features"`
	Version      string            `json:"version"`
	Provenance   string            `json:"provenance"`
}

// Resolution values for fusion candidates.
const (
	ResolutionAccepted = "ACCEPTED"
	ResolutionConflict = "CONFLICT"
)

// Signal sides.
const (
	SideLong  = "LONG"
	SideShort = "SHORT"
)

// Signal horizons.
const (
	HorizonScalp = "SCALP"
	HorizonDay   = "DAY"
	HorizonSwing = "SWING"
)
