package schema

import "github.com/marketloom/marketloom/internal/bus"

// BarFromEnvelope extracts the bar fields from a published bar record.
func BarFromEnvelope(env bus.Envelope) Bar {
	return Bar{
		Symbol:           bus.String(env, "symbol"),
		TimeframeMS:      bus.Int(env, "timeframe_ms"),
		TimeframeStartMS: bus.Int(env, "timeframe_start_ms"),
		Open:             bus.Int(env, "open"),
		High:             bus.Int(env, "high"),
		Low:              bus.Int(env, "low"),
		Close:            bus.Int(env, "close"),
		Volume:           bus.Int(env, "volume"),
		TradeCount:       bus.Int(env, "trade_count"),
		Version:          bus.Int(env, "version"),
	}
}

// EndMS returns the exclusive end of the bar's window.
func (b Bar) EndMS() int64 {
	return b.TimeframeStartMS + b.TimeframeMS
}
