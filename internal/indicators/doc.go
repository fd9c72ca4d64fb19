// Package indicators computes rolling EMA and ATR values over finalized
// bars and emits crossover signals through the validation gate.
//
// Indicator state is per symbol and in-memory only; a restart replays the
// bar topic to rebuild it. Every bar produces a record on indicators.bar.v1
// even while the windows are still warming up (values are null until the
// warm-up count is reached).
package indicators
