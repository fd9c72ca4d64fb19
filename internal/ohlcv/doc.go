// Package ohlcv turns the raw trade stream into versioned OHLCV bars.
//
// The aggregator is deterministic: given the same tick sequence and the same
// watermark times, it publishes byte-identical bars, corrections, metrics,
// and audit records. It is written for a single worker loop and is not safe
// for concurrent use.
//
// A bar for (symbol, timeframe_start) stays open until the watermark passes
// timeframe_start + timeframe + allowed_lateness, then it is published and
// frozen. Ticks that arrive for an already published window produce a
// correction with version+1; open and close never change retroactively.
package ohlcv
