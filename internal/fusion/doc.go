// Package fusion combines a symbol's signals into one ranked candidate.
//
// Each signal contributes its confidence scaled by a per-horizon weight
// from the active fusion plan. The weighted mean is the composite score;
// crossing the plan's accept threshold resolves the candidate as ACCEPTED,
// anything less as CONFLICT. A full per-contribution trace is published
// next to the candidate.
package fusion
