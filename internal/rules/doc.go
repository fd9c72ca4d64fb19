// Package rules holds the minimal per-horizon signal rules: a day breakout,
// a scalp order-flow rule, and a swing structure breakout with a news veto.
//
// Each rule scans its input topics in batch, decides on the latest state,
// and submits any signal through the gate. Signal IDs are content hashes of
// (symbol, horizon, anchor time, entry, stop), so re-running a rule over the
// same topics yields the same IDs.
package rules
