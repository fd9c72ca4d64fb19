package schema

// Topic names. Topics are append-only and versioned; a breaking payload
// change gets a new .vN suffix rather than an in-place rewrite.
const (
	TopicTick          = "market.tick.v1"
	TopicOrderBook     = "orderbook.snap.v1"
	TopicBar           = "ohlcv.bar.v1"
	TopicBarCorrection = "ohlcv.correction.v1"
	TopicOHLCVMetrics  = "metrics.ohlcv.v1"
	TopicIndicatorBar  = "indicators.bar.v1"
	TopicFeatures      = "feature.snapshot.v1"
	TopicSignal        = "signal.display.v1"
	TopicNews          = "article.analysis.v1"
	TopicFusionPlan    = "fusion.plan.v1"
	TopicFusionTrace   = "fusion.trace.v1"
	TopicCandidate     = "candidate.v1"
	TopicAudit         = "audit.records.v1"
)
