// Package features derives exact-decimal feature snapshots from the bar
// topic: EMA(20), ATR(14), and a cumulative VWAP per symbol.
//
// All arithmetic runs on decimals, never floats, so snapshots are
// reproducible to the digit. Values are rendered as fixed 8-decimal
// strings; a window that has not warmed up yet renders as the string
// "null".
package features
